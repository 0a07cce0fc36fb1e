package editor

import (
	"fmt"

	"molink/internal/domain"
)

// Point addresses a position inside a text-bearing block.
// Offset counts characters (code points) from the start of the block's text.
type Point struct {
	Path   domain.Path `json:"path"`
	Offset int         `json:"offset"`
}

// Compare orders points in document order.
func (p Point) Compare(o Point) int {
	if c := p.Path.Compare(o.Path); c != 0 {
		return c
	}
	switch {
	case p.Offset < o.Offset:
		return -1
	case p.Offset > o.Offset:
		return 1
	}
	return 0
}

// Equal reports whether p and o are the same position.
func (p Point) Equal(o Point) bool {
	return p.Compare(o) == 0
}

func (p Point) String() string {
	return fmt.Sprintf("%s:%d", p.Path, p.Offset)
}

// Range is an anchor/focus pair of points. It is collapsed when both are equal.
type Range struct {
	Anchor Point `json:"anchor"`
	Focus  Point `json:"focus"`
}

// Collapsed returns the empty range at p.
func Collapsed(p Point) Range {
	return Range{Anchor: p, Focus: p}
}

// IsCollapsed reports whether r has no extent.
func (r Range) IsCollapsed() bool {
	return r.Anchor.Equal(r.Focus)
}

// Ordered returns r's points in document order.
func (r Range) Ordered() (start, end Point) {
	if r.Anchor.Compare(r.Focus) <= 0 {
		return r.Anchor, r.Focus
	}
	return r.Focus, r.Anchor
}

// Match selects blocks while walking up from a point.
type Match func(p domain.Path, b *domain.Block) bool

// IsTopLevel matches blocks directly under the document root.
func IsTopLevel(p domain.Path, _ *domain.Block) bool {
	return len(p) == 1
}

// IsAnyBlock matches the nearest block, i.e. the leaf itself.
func IsAnyBlock(domain.Path, *domain.Block) bool {
	return true
}

// TextBeforeCursor returns the text of pt's block from its start up to pt.
// It is the lookback buffer used for shortcut matching and is always read
// from the live tree.
func (m *Model) TextBeforeCursor(pt Point) (string, error) {
	if err := m.checkPoint(pt); err != nil {
		return "", err
	}
	leaf, _ := m.leafAt(pt.Path)
	return string([]rune(leaf.Text())[:pt.Offset]), nil
}

// Above walks from pt's block towards the root and returns the first block
// matching match. It reports false when pt is stale or nothing matches.
func (m *Model) Above(pt Point, match Match) (domain.Path, bool) {
	if _, err := m.leafAt(pt.Path); err != nil {
		return nil, false
	}
	for p := pt.Path.Clone(); len(p) > 0; p = p.Parent() {
		b, err := m.BlockAt(p)
		if err != nil {
			return nil, false
		}
		if match(p, b) {
			return p, true
		}
	}
	return nil, false
}

// RangeOfBlock spans the whole text of the block at p, from the start of its
// first text-bearing descendant to the end of its last.
func (m *Model) RangeOfBlock(p domain.Path) (Range, error) {
	b, err := m.BlockAt(p)
	if err != nil {
		return Range{}, err
	}
	first, last := p.Clone(), p.Clone()
	for fb := b; !fb.IsLeaf(); fb = fb.Children[0] {
		first = first.Child(0)
	}
	lb := b
	for !lb.IsLeaf() {
		i := len(lb.Children) - 1
		last = last.Child(i)
		lb = lb.Children[i]
	}
	return Range{
		Anchor: Point{Path: first, Offset: 0},
		Focus:  Point{Path: last, Offset: len([]rune(lb.Text()))},
	}, nil
}

// SelectAll answers a select-all request. It selects the top-level block
// holding the cursor, not the whole document.
func (m *Model) SelectAll(cursor Point) (Range, error) {
	p, ok := m.Above(cursor, IsTopLevel)
	if !ok {
		return Range{}, fmt.Errorf("%w: cursor %s", ErrStalePath, cursor)
	}
	return m.RangeOfBlock(p)
}

// StartOf returns the first point of the document.
func (m *Model) StartOf() Point {
	r, _ := m.RangeOfBlock(domain.Path{0})
	return r.Anchor
}

// EndOf returns the last point of the document.
func (m *Model) EndOf() Point {
	r, _ := m.RangeOfBlock(domain.Path{len(m.doc.Blocks) - 1})
	return r.Focus
}

package editor

import (
	"errors"
	"fmt"
	"sort"

	"molink/internal/domain"
)

// ErrNoHit is returned by hit tests when no block lies under the point.
var ErrNoHit = errors.New("no block under point")

// Rect is an axis-aligned rectangle in viewport coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// RectFromPoints returns the rectangle spanned by two corners in any order.
func RectFromPoints(x0, y0, x1, y1 float64) Rect {
	return Rect{
		Left:   min(x0, x1),
		Top:    min(y0, y1),
		Right:  max(x0, x1),
		Bottom: max(y0, y1),
	}
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Contains reports whether (x, y) lies inside r. The right and bottom edges are exclusive.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Overlaps reports strict overlap; rectangles that only touch at an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.Left < o.Right && r.Right > o.Left && r.Top < o.Bottom && r.Bottom > o.Top
}

// Geometry maps between block paths and their rendered rectangles.
// Implementations must reflect the layout after the latest model mutation.
type Geometry interface {
	BlockRect(p domain.Path) (Rect, error)
	HitTest(x, y float64) (domain.Path, Rect, error)
}

// Relayouter is implemented by geometry providers that lay blocks out
// themselves and need to be told when the document changed.
type Relayouter interface {
	Relayout(doc *domain.Document)
}

// Placement is the rendered rectangle of one block.
type Placement struct {
	Path domain.Path `json:"path"`
	Rect Rect        `json:"rect"`
}

// Index is a Geometry over a fixed set of placements, sorted by top edge.
type Index struct {
	byTop  []Placement
	byPath map[string]Rect
}

// NewIndex builds an index over placements.
func NewIndex(placements []Placement) *Index {
	ix := &Index{
		byTop:  make([]Placement, len(placements)),
		byPath: make(map[string]Rect, len(placements)),
	}
	copy(ix.byTop, placements)
	sort.SliceStable(ix.byTop, func(i, j int) bool {
		return ix.byTop[i].Rect.Top < ix.byTop[j].Rect.Top
	})
	for _, pl := range placements {
		ix.byPath[pl.Path.String()] = pl.Rect
	}
	return ix
}

// Placements returns the indexed placements ordered by top edge.
func (ix *Index) Placements() []Placement {
	return ix.byTop
}

// BlockRect returns the rectangle of the block at p.
func (ix *Index) BlockRect(p domain.Path) (Rect, error) {
	r, ok := ix.byPath[p.String()]
	if !ok {
		return Rect{}, fmt.Errorf("%w: no geometry for %s", ErrStalePath, p)
	}
	return r, nil
}

// HitTest returns the deepest block whose rectangle contains (x, y).
func (ix *Index) HitTest(x, y float64) (domain.Path, Rect, error) {
	// Only placements starting at or above y can contain it.
	n := sort.Search(len(ix.byTop), func(i int) bool { return ix.byTop[i].Rect.Top > y })
	var best *Placement
	for i := 0; i < n; i++ {
		pl := &ix.byTop[i]
		if !pl.Rect.Contains(x, y) {
			continue
		}
		if best == nil || len(pl.Path) > len(best.Path) {
			best = pl
		}
	}
	if best == nil {
		return nil, Rect{}, fmt.Errorf("%w: (%.1f, %.1f)", ErrNoHit, x, y)
	}
	return best.Path.Clone(), best.Rect, nil
}

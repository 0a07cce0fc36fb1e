package editor

import (
	"strings"

	"molink/internal/domain"
)

const (
	DefaultWidth      = 720.0
	DefaultLineHeight = 24.0
	DefaultPadding    = 4.0
	DefaultIndent     = 24.0
)

// LayoutOptions sizes the blocks placed by a StackLayout.
type LayoutOptions struct {
	Width      float64
	LineHeight float64
	Padding    float64 // vertical padding above and below each text block
	Indent     float64 // horizontal offset per nesting level
}

// DefaultLayoutOptions returns the stock sizes.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		Width:      DefaultWidth,
		LineHeight: DefaultLineHeight,
		Padding:    DefaultPadding,
		Indent:     DefaultIndent,
	}
}

// headingScale enlarges the line height of headings.
var headingScale = map[domain.BlockKind]float64{
	domain.KindHeading1: 2.0,
	domain.KindHeading2: 1.75,
	domain.KindHeading3: 1.5,
	domain.KindHeading4: 1.25,
}

// StackLayout is a headless renderer: it stacks blocks top to bottom in one
// column, indents nested blocks, and answers geometry queries from the result.
// Clients without a real renderer (agents, the CLI) drive pointer gestures with it.
type StackLayout struct {
	opts  LayoutOptions
	index *Index
}

// NewStackLayout creates a layout. Non-positive sizes fall back to the defaults.
func NewStackLayout(opts LayoutOptions) *StackLayout {
	def := DefaultLayoutOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.LineHeight <= 0 {
		opts.LineHeight = def.LineHeight
	}
	if opts.Padding < 0 {
		opts.Padding = def.Padding
	}
	if opts.Indent < 0 {
		opts.Indent = def.Indent
	}
	return &StackLayout{opts: opts, index: NewIndex(nil)}
}

// Relayout recomputes every block rectangle for doc.
func (l *StackLayout) Relayout(doc *domain.Document) {
	l.index = NewIndex(l.Place(doc))
}

// Place computes the rectangles of every block in doc without storing them.
// A container spans its children; a text block is as tall as its lines.
func (l *StackLayout) Place(doc *domain.Document) []Placement {
	var out []Placement
	y := 0.0
	var place func(parent domain.Path, blocks []*domain.Block, depth int)
	place = func(parent domain.Path, blocks []*domain.Block, depth int) {
		for i, b := range blocks {
			p := parent.Child(i)
			top := y
			if b.IsLeaf() {
				y += l.blockHeight(b)
			} else {
				place(p, b.Children, depth+1)
			}
			out = append(out, Placement{
				Path: p,
				Rect: Rect{
					Left:   float64(depth) * l.opts.Indent,
					Top:    top,
					Right:  l.opts.Width,
					Bottom: y,
				},
			})
		}
	}
	place(domain.Path{}, doc.Blocks, 0)
	return out
}

func (l *StackLayout) blockHeight(b *domain.Block) float64 {
	lines := strings.Count(b.Text(), "\n") + 1
	lh := l.opts.LineHeight
	if s, ok := headingScale[b.Kind]; ok {
		lh *= s
	}
	return float64(lines)*lh + 2*l.opts.Padding
}

// BlockRect implements Geometry.
func (l *StackLayout) BlockRect(p domain.Path) (Rect, error) {
	return l.index.BlockRect(p)
}

// HitTest implements Geometry.
func (l *StackLayout) HitTest(x, y float64) (domain.Path, Rect, error) {
	return l.index.HitTest(x, y)
}

// Placements returns the current placements ordered by top edge.
func (l *StackLayout) Placements() []Placement {
	return l.index.Placements()
}

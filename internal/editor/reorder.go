package editor

import (
	"errors"
	"fmt"

	"molink/internal/domain"
)

// ErrNoGesture is returned when a gesture step arrives without an active gesture.
var ErrNoGesture = errors.New("no active gesture")

// Indicator is the drop line shown while reordering. It is visual feedback only.
type Indicator struct {
	Visible bool        `json:"visible"`
	Target  domain.Path `json:"target"`
	Before  bool        `json:"before"`
	Y       float64     `json:"y"`
	Left    float64     `json:"left"`
	Right   float64     `json:"right"`
}

// Reorder is the drag-handle state machine: Idle -> Dragging -> Idle.
// The model is only mutated on release.
type Reorder struct {
	dragging  bool
	blockID   string
	indicator Indicator
}

// Active reports whether a drag is in progress.
func (r *Reorder) Active() bool {
	return r.dragging
}

// Indicator returns the current drop indicator.
func (r *Reorder) Indicator() Indicator {
	return r.indicator
}

// Begin starts dragging the block at from.
func (r *Reorder) Begin(m *Model, from domain.Path) error {
	b, err := m.BlockAt(from)
	if err != nil {
		return err
	}
	r.reset()
	r.dragging = true
	r.blockID = b.ID
	return nil
}

// Move updates the drop indicator for the pointer at (x, y).
// A point over no block hides the indicator for this tick.
func (r *Reorder) Move(geo Geometry, x, y float64) Indicator {
	if !r.dragging {
		return Indicator{}
	}
	hover, rect, before, err := dropTarget(geo, x, y)
	if err != nil {
		r.indicator = Indicator{}
		return r.indicator
	}
	line := rect.Bottom
	if before {
		line = rect.Top
	}
	r.indicator = Indicator{
		Visible: true,
		Target:  hover,
		Before:  before,
		Y:       line,
		Left:    rect.Left,
		Right:   rect.Right,
	}
	return r.indicator
}

// Release resolves the drop at (x, y) and moves the dragged block. It returns
// the block's resulting path and whether the tree changed. Any failure
// cancels the drag and leaves the document as it was.
func (r *Reorder) Release(m *Model, geo Geometry, x, y float64) (domain.Path, bool, error) {
	if !r.dragging {
		return nil, false, ErrNoGesture
	}
	id := r.blockID
	r.reset()

	from, ok := m.PathOf(id)
	if !ok {
		return nil, false, fmt.Errorf("%w: dragged block %s is gone", ErrStalePath, id)
	}
	hover, _, before, err := dropTarget(geo, x, y)
	if err != nil {
		return from, false, err
	}
	to := hover
	if !before {
		to = hover.Next()
	}
	if to.Equal(from) {
		return from, false, nil
	}
	at, err := m.MoveBlock(from, to)
	if err != nil {
		return from, false, err
	}
	return at, !at.Equal(from), nil
}

// Cancel abandons the drag without touching the model.
func (r *Reorder) Cancel() {
	r.reset()
}

func (r *Reorder) reset() {
	r.dragging = false
	r.blockID = ""
	r.indicator = Indicator{}
}

// dropTarget finds the block under the pointer and whether the pointer is in its upper half.
func dropTarget(geo Geometry, x, y float64) (domain.Path, Rect, bool, error) {
	hover, rect, err := geo.HitTest(x, y)
	if err != nil {
		return nil, Rect{}, false, err
	}
	before := y < rect.Top+rect.Height()/2
	return hover, rect, before, nil
}

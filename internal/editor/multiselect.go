package editor

import (
	"molink/internal/domain"
)

// RubberBand is the canvas drag state machine: Idle -> Selecting -> Idle.
// Every tick recomputes the selection of all top-level blocks from the
// current band, so moving the band off a block deselects it again.
type RubberBand struct {
	selecting bool
	originX   float64
	originY   float64
	band      Rect
}

// Active reports whether a band is being dragged.
func (b *RubberBand) Active() bool {
	return b.selecting
}

// Band returns the current band rectangle while selecting.
func (b *RubberBand) Band() (Rect, bool) {
	return b.band, b.selecting
}

// Begin starts a band at (x, y). Starting a new selection clears the old one.
func (b *RubberBand) Begin(m *Model, x, y float64) {
	b.selecting = true
	b.originX, b.originY = x, y
	b.band = RectFromPoints(x, y, x, y)
	m.ClearSelection()
}

// Move stretches the band to (x, y) and sets every top-level block's selected
// flag to whether it overlaps the band. Blocks whose geometry cannot be
// resolved keep their flag for this tick.
func (b *RubberBand) Move(m *Model, geo Geometry, x, y float64) Rect {
	if !b.selecting {
		return Rect{}
	}
	b.band = RectFromPoints(b.originX, b.originY, x, y)
	for _, p := range m.TopLevel() {
		r, err := geo.BlockRect(p)
		if err != nil {
			continue
		}
		_ = m.SetSelected(p, b.band.Overlaps(r))
	}
	return b.band
}

// End finishes the gesture. The last computed flags stay on the model.
func (b *RubberBand) End() {
	b.selecting = false
	b.band = Rect{}
}

// Cancel abandons the gesture; like End it keeps the current flags.
func (b *RubberBand) Cancel() {
	b.End()
}

// Click selects exactly the block at p, clearing every other flag.
func Click(m *Model, p domain.Path) error {
	return m.SelectOnly(p)
}

package editor

import "molink/internal/domain"

// Event is one discrete input delivered to a Session.
type Event interface {
	event()
}

// InsertText types text at the cursor.
type InsertText struct {
	Text string
}

// LineBreak is the Enter key.
type LineBreak struct{}

// PointerDown presses the pointer at (X, Y) on Target.
type PointerDown struct {
	X, Y   float64
	Target Target
}

// PointerMove moves the pressed pointer.
type PointerMove struct {
	X, Y float64
}

// PointerUp releases the pointer.
type PointerUp struct {
	X, Y float64
}

// Escape cancels the active gesture.
type Escape struct{}

// SelectAll asks for a select-all.
type SelectAll struct{}

// SetCursor places the cursor or text selection.
type SetCursor struct {
	Range Range
}

// ToggleTodo flips a todo block's checkbox.
type ToggleTodo struct {
	Path domain.Path
}

func (InsertText) event()  {}
func (LineBreak) event()   {}
func (PointerDown) event() {}
func (PointerMove) event() {}
func (PointerUp) event()   {}
func (Escape) event()      {}
func (SelectAll) event()   {}
func (SetCursor) event()   {}
func (ToggleTodo) event()  {}

// Target is what a pointer press landed on.
type Target interface {
	target()
}

// TargetCanvas is empty canvas; a drag from here is a rubber band.
type TargetCanvas struct{}

// TargetBlock is a block's body; press and release is a plain click.
type TargetBlock struct {
	Path domain.Path
}

// TargetHandle is a block's drag handle; a drag from here reorders the block.
type TargetHandle struct {
	Path domain.Path
}

func (TargetCanvas) target() {}
func (TargetBlock) target()  {}
func (TargetHandle) target() {}

package editor

import (
	"fmt"

	"go.uber.org/zap"

	"molink/internal/domain"
)

// Persister is told about the document after every event that changed it.
type Persister interface {
	Persist(doc *domain.Document) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(doc *domain.Document) error

func (f PersisterFunc) Persist(doc *domain.Document) error { return f(doc) }

type gesture int

const (
	gestureNone gesture = iota
	gestureReorder
	gestureBand
	gestureClick
)

// Session is the editing session of one page. It turns input events into
// model mutations: text goes through the autoformat engine before falling
// back to the plain model operation, and pointer events drive the reorder
// and rubber-band state machines. Only one pointer gesture runs at a time.
//
// A Session is single-threaded; callers serialize Dispatch.
type Session struct {
	model   *Model
	engine  *Engine
	geo     Geometry
	persist Persister
	log     *zap.SugaredLogger

	cursor    Range
	hasCursor bool

	gesture   gesture
	clickPath domain.Path
	reorder   Reorder
	band      RubberBand

	changed bool // persisted state changed during the current event
}

// Option configures a Session.
type Option func(*Session)

// WithGeometry sets the geometry provider. The default is a StackLayout.
func WithGeometry(g Geometry) Option {
	return func(s *Session) { s.geo = g }
}

// WithPersister sets the persistence provider notified after mutations.
func WithPersister(p Persister) Option {
	return func(s *Session) { s.persist = p }
}

// WithLogger sets the logger for degraded paths.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Session) { s.log = l }
}

// WithRules replaces the default shortcut tables.
func WithRules(r Rules) Option {
	return func(s *Session) { s.engine = NewEngine(r) }
}

// NewSession opens an editing session over doc with the cursor at the end of the document.
func NewSession(doc *domain.Document, opts ...Option) *Session {
	s := &Session{
		model:  NewModel(doc),
		engine: NewEngine(DefaultRules()),
		log:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.geo == nil {
		s.geo = NewStackLayout(DefaultLayoutOptions())
	}
	s.model.Subscribe(func(c Change) {
		if c.Persisted {
			s.changed = true
		}
	})
	s.relayout()
	s.cursor = Collapsed(s.model.EndOf())
	s.hasCursor = true
	return s
}

// Model returns the session's document model.
func (s *Session) Model() *Model { return s.model }

// Document returns the live document.
func (s *Session) Document() *domain.Document { return s.model.Document() }

// Geometry returns the session's geometry provider.
func (s *Session) Geometry() Geometry { return s.geo }

// Cursor returns the current cursor range.
func (s *Session) Cursor() (Range, bool) { return s.cursor, s.hasCursor }

// Indicator returns the reorder drop indicator while dragging.
func (s *Session) Indicator() Indicator { return s.reorder.Indicator() }

// Band returns the rubber band while selecting.
func (s *Session) Band() (Rect, bool) { return s.band.Band() }

// Dispatch handles one input event. Editing failures degrade to doing nothing;
// the only error returned is the persistence provider's.
func (s *Session) Dispatch(ev Event) error {
	s.changed = false
	switch ev := ev.(type) {
	case InsertText:
		s.insertText(ev.Text)
	case LineBreak:
		s.lineBreak()
	case PointerDown:
		s.pointerDown(ev)
	case PointerMove:
		s.pointerMove(ev.X, ev.Y)
	case PointerUp:
		s.pointerUp(ev.X, ev.Y)
	case Escape:
		s.cancelGesture()
	case SelectAll:
		s.selectAll()
	case SetCursor:
		s.setCursor(ev.Range)
	case ToggleTodo:
		if err := s.model.ToggleTodo(ev.Path); err != nil {
			s.log.Debugw("toggle todo ignored", "path", ev.Path.String(), "error", err)
		}
	default:
		s.log.Debugw("unknown event ignored", "event", fmt.Sprintf("%T", ev))
	}
	return s.flush()
}

// Reload replaces the page content, e.g. after the linked file changed on disk.
// Any gesture in progress is cancelled.
func (s *Session) Reload(blocks []*domain.Block) error {
	s.changed = false
	s.cancelGesture()
	s.model.ReplaceBlocks(blocks)
	s.cursor = Collapsed(s.model.EndOf())
	return s.flush()
}

// MoveBlock relocates a block directly, without a pointer gesture. Unlike
// Dispatch it reports a rejected move. The cursor follows the moved block.
func (s *Session) MoveBlock(from, to domain.Path) (domain.Path, error) {
	s.changed = false
	s.cancelGesture()
	anchorID, focusID := s.cursorIDs()
	at, err := s.model.MoveBlock(from, to)
	if err != nil {
		return nil, err
	}
	s.rebaseCursor(anchorID, focusID)
	return at, s.flush()
}

func (s *Session) flush() error {
	if !s.changed {
		return nil
	}
	s.changed = false
	s.relayout()
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Persist(s.model.Document()); err != nil {
		return fmt.Errorf("persist page %s: %w", s.model.Document().Page.ID, err)
	}
	return nil
}

func (s *Session) relayout() {
	if r, ok := s.geo.(Relayouter); ok {
		r.Relayout(s.model.Document())
	}
}

// ── Text ───────────────────────────────────────────────────

func (s *Session) insertText(text string) {
	if !s.hasCursor || text == "" {
		return
	}
	if !s.cursor.IsCollapsed() {
		start, err := s.model.DeleteRange(s.cursor)
		if err != nil {
			s.log.Debugw("delete selection ignored", "error", err)
			return
		}
		s.cursor = Collapsed(start)
		s.literal(text)
		return
	}
	next, handled, err := s.engine.HandleInsert(s.model, s.cursor.Focus, text)
	if err != nil {
		s.log.Debugw("shortcut lookup failed", "cursor", s.cursor.Focus.String(), "error", err)
	}
	if handled {
		s.cursor = Collapsed(next)
		return
	}
	s.literal(text)
}

func (s *Session) literal(text string) {
	next, err := s.model.InsertText(s.cursor.Focus, text)
	if err != nil {
		s.log.Debugw("insert ignored", "cursor", s.cursor.Focus.String(), "error", err)
		return
	}
	s.cursor = Collapsed(next)
}

func (s *Session) lineBreak() {
	if !s.hasCursor {
		return
	}
	if !s.cursor.IsCollapsed() {
		start, err := s.model.DeleteRange(s.cursor)
		if err != nil {
			s.log.Debugw("delete selection ignored", "error", err)
			return
		}
		s.cursor = Collapsed(start)
	} else {
		next, handled, err := s.engine.HandleBreak(s.model, s.cursor.Focus)
		if err != nil {
			s.log.Debugw("break lookup failed", "cursor", s.cursor.Focus.String(), "error", err)
			return
		}
		if handled {
			s.cursor = Collapsed(next)
			return
		}
	}
	next, err := s.model.SplitBlock(s.cursor.Focus)
	if err != nil {
		s.log.Debugw("split ignored", "cursor", s.cursor.Focus.String(), "error", err)
		return
	}
	s.cursor = Collapsed(next)
}

func (s *Session) selectAll() {
	if !s.hasCursor {
		return
	}
	r, err := s.model.SelectAll(s.cursor.Focus)
	if err != nil {
		s.log.Debugw("select all ignored", "error", err)
		return
	}
	s.cursor = r
}

func (s *Session) setCursor(r Range) {
	if _, err := s.model.TextBeforeCursor(r.Anchor); err != nil {
		s.log.Debugw("cursor ignored", "anchor", r.Anchor.String(), "error", err)
		return
	}
	if _, err := s.model.TextBeforeCursor(r.Focus); err != nil {
		s.log.Debugw("cursor ignored", "focus", r.Focus.String(), "error", err)
		return
	}
	s.cursor = r
	s.hasCursor = true
}

// ── Pointer ────────────────────────────────────────────────

func (s *Session) pointerDown(ev PointerDown) {
	if s.gesture != gestureNone {
		return
	}
	switch t := ev.Target.(type) {
	case TargetHandle:
		if err := s.reorder.Begin(s.model, t.Path); err != nil {
			s.log.Debugw("drag not started", "path", t.Path.String(), "error", err)
			return
		}
		s.gesture = gestureReorder
	case TargetBlock:
		s.gesture = gestureClick
		s.clickPath = t.Path.Clone()
	case TargetCanvas, nil:
		s.band.Begin(s.model, ev.X, ev.Y)
		s.gesture = gestureBand
	}
}

func (s *Session) pointerMove(x, y float64) {
	switch s.gesture {
	case gestureReorder:
		s.reorder.Move(s.geo, x, y)
	case gestureBand:
		s.band.Move(s.model, s.geo, x, y)
	}
}

func (s *Session) pointerUp(x, y float64) {
	switch s.gesture {
	case gestureReorder:
		anchorID, focusID := s.cursorIDs()
		at, moved, err := s.reorder.Release(s.model, s.geo, x, y)
		if err != nil {
			s.log.Debugw("drag cancelled", "x", x, "y", y, "error", err)
		} else if moved {
			s.log.Debugw("block moved", "to", at.String())
			s.rebaseCursor(anchorID, focusID)
		}
	case gestureBand:
		s.band.Move(s.model, s.geo, x, y)
		s.band.End()
	case gestureClick:
		if err := Click(s.model, s.clickPath); err != nil {
			s.log.Debugw("click ignored", "path", s.clickPath.String(), "error", err)
		} else if r, err := s.model.RangeOfBlock(s.clickPath); err == nil {
			s.cursor = Collapsed(r.Focus)
			s.hasCursor = true
		}
	}
	s.gesture = gestureNone
	s.clickPath = nil
}

func (s *Session) cancelGesture() {
	switch s.gesture {
	case gestureReorder:
		s.reorder.Cancel()
	case gestureBand:
		s.band.Cancel()
	}
	s.gesture = gestureNone
	s.clickPath = nil
}

// cursorIDs records which blocks the cursor points into so it can follow them across a move.
func (s *Session) cursorIDs() (string, string) {
	if !s.hasCursor {
		return "", ""
	}
	var a, f string
	if b, err := s.model.BlockAt(s.cursor.Anchor.Path); err == nil {
		a = b.ID
	}
	if b, err := s.model.BlockAt(s.cursor.Focus.Path); err == nil {
		f = b.ID
	}
	return a, f
}

func (s *Session) rebaseCursor(anchorID, focusID string) {
	ap, aok := s.model.PathOf(anchorID)
	fp, fok := s.model.PathOf(focusID)
	if !aok || !fok {
		s.cursor = Collapsed(s.model.EndOf())
		return
	}
	s.cursor.Anchor = s.onLeaf(Point{Path: ap, Offset: s.cursor.Anchor.Offset})
	s.cursor.Focus = s.onLeaf(Point{Path: fp, Offset: s.cursor.Focus.Offset})
}

// onLeaf moves pt to the end of its block's text when the block has gained
// children, e.g. an empty list item that a moved block was dropped into.
func (s *Session) onLeaf(pt Point) Point {
	b, err := s.model.BlockAt(pt.Path)
	if err != nil || b.IsLeaf() {
		return pt
	}
	r, err := s.model.RangeOfBlock(pt.Path)
	if err != nil {
		return pt
	}
	return r.Focus
}

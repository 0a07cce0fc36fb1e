package editor

import (
	"errors"
	"fmt"
	"slices"

	"molink/internal/domain"
)

var (
	// ErrStalePath is returned when a path or point no longer addresses a block.
	ErrStalePath = errors.New("stale block reference")
	// ErrInvalidMove is returned when a structural move is rejected.
	ErrInvalidMove = errors.New("invalid block move")
	// ErrKindConflict is returned when a kind change would break the leaf/container rule.
	ErrKindConflict = errors.New("block kind conflicts with its contents")
	// ErrOffsetRange is returned when a text offset lies outside its block.
	ErrOffsetRange = errors.New("text offset out of range")
)

// Op names a kind of model mutation.
type Op string

const (
	OpSetKind       Op = "set-kind"
	OpReplaceText   Op = "replace-text"
	OpDeleteRange   Op = "delete-range"
	OpMove          Op = "move"
	OpSplit         Op = "split"
	OpToggleTodo    Op = "toggle-todo"
	OpReplaceBlocks Op = "replace-blocks"
	OpSelect        Op = "select"
)

// Change describes one applied mutation.
// Persisted is false for interaction-only state such as block selection.
type Change struct {
	Op        Op
	Path      domain.Path
	Persisted bool
}

// Model is the mutable block tree of one page.
// It is not safe for concurrent use; a single editing session owns it.
type Model struct {
	doc      *domain.Document
	selected map[string]bool // block id -> selected, never persisted
	subs     map[int]func(Change)
	nextSub  int
}

// NewModel wraps doc. A document without blocks gets one empty paragraph.
func NewModel(doc *domain.Document) *Model {
	if doc == nil {
		doc = domain.NewDocument(domain.Page{})
	}
	if len(doc.Blocks) == 0 {
		doc.Blocks = []*domain.Block{domain.NewBlock(domain.KindParagraph, "")}
	}
	return &Model{
		doc:      doc,
		selected: make(map[string]bool),
		subs:     make(map[int]func(Change)),
	}
}

// Document returns the live document. Callers must not mutate it directly.
func (m *Model) Document() *domain.Document {
	return m.doc
}

// Subscribe registers fn for every applied change and returns a function removing it.
func (m *Model) Subscribe(fn func(Change)) func() {
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() { delete(m.subs, id) }
}

func (m *Model) publish(c Change) {
	for _, fn := range m.subs {
		fn(c)
	}
}

// ── Lookup ─────────────────────────────────────────────────

// BlockAt returns the block addressed by p.
func (m *Model) BlockAt(p domain.Path) (*domain.Block, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrStalePath)
	}
	blocks := m.doc.Blocks
	var b *domain.Block
	for _, i := range p {
		if i < 0 || i >= len(blocks) {
			return nil, fmt.Errorf("%w: %s", ErrStalePath, p)
		}
		b = blocks[i]
		blocks = b.Children
	}
	return b, nil
}

func (m *Model) leafAt(p domain.Path) (*domain.Block, error) {
	b, err := m.BlockAt(p)
	if err != nil {
		return nil, err
	}
	if !b.IsLeaf() {
		return nil, fmt.Errorf("%w: %s holds blocks, not text", ErrStalePath, p)
	}
	return b, nil
}

// children returns the sibling slice that parent's children live in.
// The empty path is the document root.
func (m *Model) children(parent domain.Path) (*[]*domain.Block, error) {
	if len(parent) == 0 {
		return &m.doc.Blocks, nil
	}
	b, err := m.BlockAt(parent)
	if err != nil {
		return nil, err
	}
	return &b.Children, nil
}

// PathOf returns the current path of the block with the given id.
func (m *Model) PathOf(id string) (domain.Path, bool) {
	var found domain.Path
	m.doc.Walk(func(p domain.Path, b *domain.Block) bool {
		if found != nil {
			return false
		}
		if b.ID == id {
			found = p
			return false
		}
		return true
	})
	return found, found != nil
}

// TopLevel returns the paths of the top-level blocks in order.
func (m *Model) TopLevel() []domain.Path {
	paths := make([]domain.Path, len(m.doc.Blocks))
	for i := range m.doc.Blocks {
		paths[i] = domain.Path{i}
	}
	return paths
}

// Leaves returns the paths of all text-bearing blocks in document order.
func (m *Model) Leaves() []domain.Path {
	var leaves []domain.Path
	m.doc.Walk(func(p domain.Path, b *domain.Block) bool {
		if b.IsLeaf() {
			leaves = append(leaves, p)
		}
		return true
	})
	return leaves
}

// ── Kind ───────────────────────────────────────────────────

// CanSetKind reports whether SetBlockKind(p, kind) would be accepted.
func (m *Model) CanSetKind(p domain.Path, kind domain.BlockKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrKindConflict, kind)
	}
	b, err := m.BlockAt(p)
	if err != nil {
		return err
	}
	for _, c := range b.Children {
		if !kind.Accepts(c.Kind) {
			return fmt.Errorf("%w: %s cannot hold %s", ErrKindConflict, kind, c.Kind)
		}
	}
	if parent := p.Parent(); len(parent) > 0 {
		pb, err := m.BlockAt(parent)
		if err != nil {
			return err
		}
		if !pb.Kind.Accepts(kind) {
			return fmt.Errorf("%w: %s cannot hold %s", ErrKindConflict, pb.Kind, kind)
		}
	}
	return nil
}

// SetBlockKind changes the kind of the block at p.
func (m *Model) SetBlockKind(p domain.Path, kind domain.BlockKind) error {
	if err := m.CanSetKind(p, kind); err != nil {
		return err
	}
	b, _ := m.BlockAt(p)
	if b.Kind == kind {
		return nil
	}
	b.Kind = kind
	if kind != domain.KindTodo {
		b.Checked = false
	}
	m.publish(Change{Op: OpSetKind, Path: p.Clone(), Persisted: true})
	return nil
}

// ToggleTodo flips the checked flag of the todo block at p.
func (m *Model) ToggleTodo(p domain.Path) error {
	b, err := m.BlockAt(p)
	if err != nil {
		return err
	}
	if b.Kind != domain.KindTodo {
		return fmt.Errorf("%w: %s is not a todo", ErrKindConflict, p)
	}
	b.Checked = !b.Checked
	m.publish(Change{Op: OpToggleTodo, Path: p.Clone(), Persisted: true})
	return nil
}

// ── Text ───────────────────────────────────────────────────

// InsertText inserts text at pt and returns the point right after it.
func (m *Model) InsertText(pt Point, text string) (Point, error) {
	return m.ReplaceText(Collapsed(pt), text)
}

// ReplaceText replaces the content of r with text and returns the point after the inserted text.
func (m *Model) ReplaceText(r Range, text string) (Point, error) {
	start, end := r.Ordered()
	if err := m.checkPoint(start); err != nil {
		return start, err
	}
	if err := m.checkPoint(end); err != nil {
		return start, err
	}
	m.deleteRange(start, end)

	leaf, _ := m.leafAt(start.Path)
	runes := []rune(leaf.Text())
	ins := []rune(text)
	out := make([]rune, 0, len(runes)+len(ins))
	out = append(out, runes[:start.Offset]...)
	out = append(out, ins...)
	out = append(out, runes[start.Offset:]...)
	leaf.SetText(string(out))

	m.publish(Change{Op: OpReplaceText, Path: start.Path.Clone(), Persisted: true})
	return Point{Path: start.Path.Clone(), Offset: start.Offset + len(ins)}, nil
}

// DeleteRange removes the text covered by r and returns the collapsed start point.
func (m *Model) DeleteRange(r Range) (Point, error) {
	start, end := r.Ordered()
	if err := m.checkPoint(start); err != nil {
		return start, err
	}
	if err := m.checkPoint(end); err != nil {
		return start, err
	}
	if start.Equal(end) {
		return start, nil
	}
	m.deleteRange(start, end)
	m.publish(Change{Op: OpDeleteRange, Path: start.Path.Clone(), Persisted: true})
	return Point{Path: start.Path.Clone(), Offset: start.Offset}, nil
}

func (m *Model) checkPoint(pt Point) error {
	leaf, err := m.leafAt(pt.Path)
	if err != nil {
		return err
	}
	if pt.Offset < 0 || pt.Offset > len([]rune(leaf.Text())) {
		return fmt.Errorf("%w: %d in %s", ErrOffsetRange, pt.Offset, pt.Path)
	}
	return nil
}

// deleteRange assumes both points were validated and start <= end.
func (m *Model) deleteRange(start, end Point) {
	if start.Path.Equal(end.Path) {
		leaf, _ := m.leafAt(start.Path)
		runes := []rune(leaf.Text())
		leaf.SetText(string(runes[:start.Offset]) + string(runes[end.Offset:]))
		return
	}

	first, _ := m.leafAt(start.Path)
	last, _ := m.leafAt(end.Path)
	head := []rune(first.Text())[:start.Offset]
	tail := []rune(last.Text())[end.Offset:]
	first.SetText(string(head) + string(tail))

	// Remove every leaf after the start up to and including the end leaf, last first
	// so that the remaining paths stay valid.
	var doomed []domain.Path
	for _, p := range m.Leaves() {
		if p.Compare(start.Path) > 0 && p.Compare(end.Path) <= 0 {
			doomed = append(doomed, p)
		}
	}
	for i := len(doomed) - 1; i >= 0; i-- {
		m.removeAt(doomed[i])
		m.pruneEmpty(doomed[i].Parent(), start.Path)
	}
}

func (m *Model) removeAt(p domain.Path) *domain.Block {
	siblings, err := m.children(p.Parent())
	if err != nil {
		return nil
	}
	i := p.Last()
	b := (*siblings)[i]
	*siblings = slices.Delete(*siblings, i, i+1)
	return b
}

// pruneEmpty removes containers emptied by a range delete, as long as they
// lie entirely after keep.
func (m *Model) pruneEmpty(p, keep domain.Path) {
	for len(p) > 0 {
		b, err := m.BlockAt(p)
		if err != nil || len(b.Children) > 0 || p.IsAncestorOf(keep) || p.Compare(keep) <= 0 {
			return
		}
		m.removeAt(p)
		p = p.Parent()
	}
}

// SplitBlock performs the default line break at pt: the text after pt moves
// into a new sibling block. It returns the start of the new block.
func (m *Model) SplitBlock(pt Point) (Point, error) {
	if err := m.checkPoint(pt); err != nil {
		return pt, err
	}
	leaf, _ := m.leafAt(pt.Path)
	info, _ := leaf.Kind.Info()
	kind := info.SplitAs
	if kind == "" {
		kind = domain.KindParagraph
	}
	if parent := pt.Path.Parent(); len(parent) > 0 {
		pb, _ := m.BlockAt(parent)
		if !pb.Kind.Accepts(kind) {
			kind = leaf.Kind
		}
	}

	runes := []rune(leaf.Text())
	leaf.SetText(string(runes[:pt.Offset]))
	next := domain.NewBlock(kind, string(runes[pt.Offset:]))

	siblings, _ := m.children(pt.Path.Parent())
	*siblings = slices.Insert(*siblings, pt.Path.Last()+1, next)

	at := pt.Path.Next()
	m.publish(Change{Op: OpSplit, Path: at.Clone(), Persisted: true})
	return Point{Path: at, Offset: 0}, nil
}

// ── Structure ──────────────────────────────────────────────

// MoveBlock relocates the block at from to the insertion gap to, both
// expressed against the tree as it is before the move. Removal and insertion
// happen in one step; a rejected move leaves the tree untouched. It returns
// the block's resulting path.
func (m *Model) MoveBlock(from, to domain.Path) (domain.Path, error) {
	if len(from) == 0 || len(to) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidMove)
	}
	b, err := m.BlockAt(from)
	if err != nil {
		return nil, err
	}

	srcParent, dstParent := from.Parent(), to.Parent()
	fromIdx, gap := from.Last(), to.Last()
	if srcParent.Equal(dstParent) && (gap == fromIdx || gap == fromIdx+1) {
		return from.Clone(), nil
	}
	if from.Contains(dstParent) {
		return nil, fmt.Errorf("%w: %s is inside %s", ErrInvalidMove, to, from)
	}
	dst, err := m.children(dstParent)
	if err != nil {
		return nil, fmt.Errorf("%w: destination %s: %v", ErrInvalidMove, to, err)
	}
	if gap < 0 || gap > len(*dst) {
		return nil, fmt.Errorf("%w: index %d outside 0..%d", ErrInvalidMove, gap, len(*dst))
	}
	if len(dstParent) > 0 {
		pb, _ := m.BlockAt(dstParent)
		if !pb.Kind.Accepts(b.Kind) {
			return nil, fmt.Errorf("%w: %s cannot hold %s", ErrInvalidMove, pb.Kind, b.Kind)
		}
		if pb.IsLeaf() && pb.Text() != "" {
			return nil, fmt.Errorf("%w: %s holds text", ErrInvalidMove, dstParent)
		}
	}

	src, _ := m.children(srcParent)
	*src = slices.Delete(*src, fromIdx, fromIdx+1)
	if srcParent.Equal(dstParent) && gap > fromIdx {
		gap--
	}
	*dst = slices.Insert(*dst, gap, b)

	at, _ := m.PathOf(b.ID)
	m.publish(Change{Op: OpMove, Path: at.Clone(), Persisted: true})
	return at, nil
}

// ReplaceBlocks swaps the whole top-level sequence, e.g. after an external re-import.
func (m *Model) ReplaceBlocks(blocks []*domain.Block) {
	if len(blocks) == 0 {
		blocks = []*domain.Block{domain.NewBlock(domain.KindParagraph, "")}
	}
	m.doc.Blocks = blocks
	clear(m.selected)
	m.publish(Change{Op: OpReplaceBlocks, Persisted: true})
}

// ── Selection ──────────────────────────────────────────────

// SetSelected sets the transient selected flag of the block at p.
func (m *Model) SetSelected(p domain.Path, selected bool) error {
	b, err := m.BlockAt(p)
	if err != nil {
		return err
	}
	if m.selected[b.ID] == selected {
		return nil
	}
	if selected {
		m.selected[b.ID] = true
	} else {
		delete(m.selected, b.ID)
	}
	m.publish(Change{Op: OpSelect, Path: p.Clone()})
	return nil
}

// IsSelected reports the selected flag of the block at p.
func (m *Model) IsSelected(p domain.Path) bool {
	b, err := m.BlockAt(p)
	if err != nil {
		return false
	}
	return m.selected[b.ID]
}

// Selected returns the paths of all selected blocks in document order.
func (m *Model) Selected() []domain.Path {
	var out []domain.Path
	m.doc.Walk(func(p domain.Path, b *domain.Block) bool {
		if m.selected[b.ID] {
			out = append(out, p)
		}
		return true
	})
	return out
}

// ClearSelection resets every selected flag.
func (m *Model) ClearSelection() {
	for _, p := range m.Selected() {
		_ = m.SetSelected(p, false)
	}
}

// SelectOnly makes the block at p the only selected block.
func (m *Model) SelectOnly(p domain.Path) error {
	if _, err := m.BlockAt(p); err != nil {
		return err
	}
	for _, q := range m.Selected() {
		if !q.Equal(p) {
			_ = m.SetSelected(q, false)
		}
	}
	return m.SetSelected(p, true)
}

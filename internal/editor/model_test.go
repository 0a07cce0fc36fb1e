package editor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molink/internal/domain"
	"molink/internal/editor"
)

// ─────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────

func para(text string) *domain.Block {
	return domain.NewBlock(domain.KindParagraph, text)
}

func docOf(blocks ...*domain.Block) *domain.Document {
	return &domain.Document{Page: domain.Page{ID: "page-1", Title: "Test"}, Blocks: blocks}
}

func texts(blocks []*domain.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Text()
	}
	return out
}

func pt(offset int, path ...int) editor.Point {
	return editor.Point{Path: domain.Path(path), Offset: offset}
}

// ─────────────────────────────────────────────────────────────
// Construction
// ─────────────────────────────────────────────────────────────

func TestNewModel_EmptyDocumentGetsParagraph(t *testing.T) {
	m := editor.NewModel(docOf())
	blocks := m.Document().Blocks
	require.Len(t, blocks, 1)
	assert.Equal(t, domain.KindParagraph, blocks[0].Kind)
	assert.Equal(t, "", blocks[0].Text())
}

// ─────────────────────────────────────────────────────────────
// MoveBlock
// ─────────────────────────────────────────────────────────────

func TestMoveBlock(t *testing.T) {
	tests := []struct {
		name     string
		from, to domain.Path
		want     []string
		wantAt   domain.Path
	}{
		{"first to end", domain.Path{0}, domain.Path{3}, []string{"B", "C", "A"}, domain.Path{2}},
		{"last to start", domain.Path{2}, domain.Path{0}, []string{"C", "A", "B"}, domain.Path{0}},
		{"first after second", domain.Path{0}, domain.Path{2}, []string{"B", "A", "C"}, domain.Path{1}},
		{"onto own gap", domain.Path{1}, domain.Path{1}, []string{"A", "B", "C"}, domain.Path{1}},
		{"onto gap after self", domain.Path{1}, domain.Path{2}, []string{"A", "B", "C"}, domain.Path{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := editor.NewModel(docOf(para("A"), para("B"), para("C")))
			at, err := m.MoveBlock(tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts(m.Document().Blocks))
			assert.Equal(t, tt.wantAt, at)
		})
	}
}

func TestMoveBlock_NoOpPublishesNothing(t *testing.T) {
	m := editor.NewModel(docOf(para("A"), para("B")))
	var changes []editor.Change
	m.Subscribe(func(c editor.Change) { changes = append(changes, c) })

	_, err := m.MoveBlock(domain.Path{0}, domain.Path{1})
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestMoveBlock_PreservesIdentityAndCount(t *testing.T) {
	a, b, c := para("A"), para("B"), para("C")
	m := editor.NewModel(docOf(a, b, c))

	_, err := m.MoveBlock(domain.Path{0}, domain.Path{3})
	require.NoError(t, err)

	blocks := m.Document().Blocks
	require.Len(t, blocks, 3)
	assert.Same(t, a, blocks[2])
	p, ok := m.PathOf(a.ID)
	require.True(t, ok)
	assert.Equal(t, domain.Path{2}, p)
}

func TestMoveBlock_IntoDescendantRejected(t *testing.T) {
	list := domain.NewContainer(domain.KindToggleList, para("x"), para("y"))
	m := editor.NewModel(docOf(list, para("after")))
	before := m.Document().Clone()

	_, err := m.MoveBlock(domain.Path{0}, domain.Path{0, 1})
	require.ErrorIs(t, err, editor.ErrInvalidMove)
	assert.Equal(t, before.Blocks, m.Document().Blocks)
}

func TestMoveBlock_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		from, to domain.Path
		wantErr  error
	}{
		{"stale source", domain.Path{7}, domain.Path{0}, editor.ErrStalePath},
		{"gap past end", domain.Path{0}, domain.Path{9}, editor.ErrInvalidMove},
		{"missing parent", domain.Path{2}, domain.Path{5, 0}, editor.ErrInvalidMove},
		{"kind not allowed", domain.Path{2}, domain.Path{0, 0}, editor.ErrInvalidMove},
		{"into text block", domain.Path{2}, domain.Path{1, 0}, editor.ErrInvalidMove},
		{"empty path", domain.Path{}, domain.Path{0}, editor.ErrInvalidMove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := domain.NewContainer(domain.KindBulletedList, domain.NewBlock(domain.KindBulletedList, "item"))
			heading := domain.NewBlock(domain.KindHeading1, "Title")
			m := editor.NewModel(docOf(list, para("text"), heading))
			before := m.Document().Clone()

			_, err := m.MoveBlock(tt.from, tt.to)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before.Blocks, m.Document().Blocks)
		})
	}
}

func TestMoveBlock_IntoContainer(t *testing.T) {
	list := domain.NewContainer(domain.KindBulletedList, domain.NewBlock(domain.KindBulletedList, "one"))
	m := editor.NewModel(docOf(list, para("two")))

	at, err := m.MoveBlock(domain.Path{1}, domain.Path{0, 1})
	require.NoError(t, err)
	assert.Equal(t, domain.Path{0, 1}, at)
	require.Len(t, m.Document().Blocks, 1)
	assert.Equal(t, []string{"one", "two"}, texts(m.Document().Blocks[0].Children))
}

// ─────────────────────────────────────────────────────────────
// Text
// ─────────────────────────────────────────────────────────────

func TestInsertText_CountsCharacters(t *testing.T) {
	m := editor.NewModel(docOf(para("a→b")))
	next, err := m.InsertText(pt(2, 0), "é")
	require.NoError(t, err)
	assert.Equal(t, "a→éb", m.Document().Blocks[0].Text())
	assert.Equal(t, pt(3, 0), next)
}

func TestText_StaleReferences(t *testing.T) {
	m := editor.NewModel(docOf(para("abc")))

	_, err := m.InsertText(pt(0, 4), "x")
	assert.ErrorIs(t, err, editor.ErrStalePath)

	_, err = m.InsertText(pt(9, 0), "x")
	assert.ErrorIs(t, err, editor.ErrOffsetRange)

	_, err = m.TextBeforeCursor(pt(-1, 0))
	assert.ErrorIs(t, err, editor.ErrOffsetRange)

	assert.Equal(t, "abc", m.Document().Blocks[0].Text())
}

func TestInsertText_ContainerIsNotText(t *testing.T) {
	list := domain.NewContainer(domain.KindToggleList, para("x"))
	m := editor.NewModel(docOf(list))
	_, err := m.InsertText(pt(0, 0), "y")
	assert.ErrorIs(t, err, editor.ErrStalePath)
}

func TestDeleteRange_AcrossBlocks(t *testing.T) {
	m := editor.NewModel(docOf(para("abc"), para("middle"), para("def")))
	at, err := m.DeleteRange(editor.Range{Anchor: pt(2, 2), Focus: pt(1, 0)})
	require.NoError(t, err)
	assert.Equal(t, pt(1, 0), at)
	assert.Equal(t, []string{"af"}, texts(m.Document().Blocks))
}

func TestDeleteRange_PrunesEmptiedContainer(t *testing.T) {
	list := domain.NewContainer(domain.KindBulletedList, domain.NewBlock(domain.KindBulletedList, "item"))
	m := editor.NewModel(docOf(para("head"), list))
	_, err := m.DeleteRange(editor.Range{Anchor: pt(2, 0), Focus: pt(4, 1, 0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"he"}, texts(m.Document().Blocks))
}

func TestSplitBlock(t *testing.T) {
	tests := []struct {
		name     string
		kind     domain.BlockKind
		wantKind domain.BlockKind
	}{
		{"paragraph", domain.KindParagraph, domain.KindParagraph},
		{"heading continues as paragraph", domain.KindHeading2, domain.KindParagraph},
		{"todo continues as todo", domain.KindTodo, domain.KindTodo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := editor.NewModel(docOf(domain.NewBlock(tt.kind, "hello")))
			next, err := m.SplitBlock(pt(2, 0))
			require.NoError(t, err)
			blocks := m.Document().Blocks
			assert.Equal(t, []string{"he", "llo"}, texts(blocks))
			assert.Equal(t, tt.wantKind, blocks[1].Kind)
			assert.Equal(t, pt(0, 1), next)
		})
	}
}

// ─────────────────────────────────────────────────────────────
// Kind
// ─────────────────────────────────────────────────────────────

func TestSetBlockKind(t *testing.T) {
	todo := domain.NewBlock(domain.KindTodo, "task")
	todo.Checked = true
	m := editor.NewModel(docOf(todo))

	require.NoError(t, m.SetBlockKind(domain.Path{0}, domain.KindHeading1))
	assert.Equal(t, domain.KindHeading1, todo.Kind)
	assert.False(t, todo.Checked)

	assert.ErrorIs(t, m.SetBlockKind(domain.Path{0}, "banner"), editor.ErrKindConflict)
}

func TestSetBlockKind_ContainerChildrenMustFit(t *testing.T) {
	list := domain.NewContainer(domain.KindToggleList, domain.NewBlock(domain.KindHeading1, "h"))
	m := editor.NewModel(docOf(list))
	err := m.SetBlockKind(domain.Path{0}, domain.KindBulletedList)
	assert.ErrorIs(t, err, editor.ErrKindConflict)
	assert.Equal(t, domain.KindToggleList, list.Kind)
}

func TestToggleTodo(t *testing.T) {
	m := editor.NewModel(docOf(domain.NewBlock(domain.KindTodo, "task"), para("p")))
	require.NoError(t, m.ToggleTodo(domain.Path{0}))
	assert.True(t, m.Document().Blocks[0].Checked)
	require.NoError(t, m.ToggleTodo(domain.Path{0}))
	assert.False(t, m.Document().Blocks[0].Checked)

	assert.ErrorIs(t, m.ToggleTodo(domain.Path{1}), editor.ErrKindConflict)
}

// ─────────────────────────────────────────────────────────────
// Selection
// ─────────────────────────────────────────────────────────────

func TestSelectOnly_IsExclusive(t *testing.T) {
	m := editor.NewModel(docOf(para("A"), para("B"), para("C")))
	require.NoError(t, m.SetSelected(domain.Path{0}, true))
	require.NoError(t, m.SetSelected(domain.Path{2}, true))

	require.NoError(t, editor.Click(m, domain.Path{1}))
	assert.Equal(t, []domain.Path{{1}}, m.Selected())
}

func TestSelection_IsNotPersisted(t *testing.T) {
	m := editor.NewModel(docOf(para("A")))
	var persisted int
	m.Subscribe(func(c editor.Change) {
		if c.Persisted {
			persisted++
		}
	})
	require.NoError(t, m.SetSelected(domain.Path{0}, true))
	m.ClearSelection()
	assert.Zero(t, persisted)
	assert.Empty(t, m.Selected())
}

func TestSelection_FollowsBlockAcrossMove(t *testing.T) {
	m := editor.NewModel(docOf(para("A"), para("B")))
	require.NoError(t, m.SetSelected(domain.Path{0}, true))
	_, err := m.MoveBlock(domain.Path{0}, domain.Path{2})
	require.NoError(t, err)
	assert.True(t, m.IsSelected(domain.Path{1}))
	assert.False(t, m.IsSelected(domain.Path{0}))
}

// ─────────────────────────────────────────────────────────────
// Cursor queries
// ─────────────────────────────────────────────────────────────

func TestSelectAll_OnlyCurrentBlock(t *testing.T) {
	m := editor.NewModel(docOf(para("abc"), para("de")))
	r, err := m.SelectAll(pt(1, 1))
	require.NoError(t, err)
	assert.Equal(t, editor.Range{Anchor: pt(0, 1), Focus: pt(2, 1)}, r)

	_, err = m.SelectAll(pt(0, 8))
	assert.ErrorIs(t, err, editor.ErrStalePath)
}

func TestSelectAll_SpansTopLevelBlock(t *testing.T) {
	list := domain.NewContainer(domain.KindBulletedList, para("one"), para("two"))
	m := editor.NewModel(docOf(list, para("after")))
	r, err := m.SelectAll(pt(1, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, editor.Range{Anchor: pt(0, 0, 0), Focus: pt(3, 0, 1)}, r)
}

func TestAbove(t *testing.T) {
	list := domain.NewContainer(domain.KindBulletedList, domain.NewBlock(domain.KindBulletedList, "x"))
	m := editor.NewModel(docOf(para("p"), list))

	p, ok := m.Above(pt(0, 1, 0), editor.IsTopLevel)
	require.True(t, ok)
	assert.Equal(t, domain.Path{1}, p)

	p, ok = m.Above(pt(0, 1, 0), editor.IsAnyBlock)
	require.True(t, ok)
	assert.Equal(t, domain.Path{1, 0}, p)

	_, ok = m.Above(pt(0, 3), editor.IsAnyBlock)
	assert.False(t, ok)
}

func TestTextBeforeCursor(t *testing.T) {
	m := editor.NewModel(docOf(para("##x")))
	before, err := m.TextBeforeCursor(pt(2, 0))
	require.NoError(t, err)
	assert.Equal(t, "##", before)
}

func TestStartAndEndOf(t *testing.T) {
	list := domain.NewContainer(domain.KindBulletedList, domain.NewBlock(domain.KindBulletedList, "last"))
	m := editor.NewModel(docOf(para("first"), list))
	assert.Equal(t, pt(0, 0), m.StartOf())
	assert.Equal(t, pt(4, 1, 0), m.EndOf())
}

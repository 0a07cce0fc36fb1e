package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molink/internal/domain"
	"molink/internal/editor"
	"molink/internal/service"
	"molink/internal/storage"
)

type fakeLinker struct {
	watched map[string]string
}

func (f *fakeLinker) Watch(pageID, path string) error {
	f.watched[pageID] = path
	return nil
}

func (f *fakeLinker) Unwatch(pageID string) {
	delete(f.watched, pageID)
}

func newTestServer(t *testing.T) (*Server, *fakeLinker) {
	t.Helper()
	db, err := storage.Open("sqlite", filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	emitter := &service.MockEmitter{}
	pages := service.NewPageService(storage.NewPageStore(db), emitter, nil)
	ws := service.NewWorkspace(pages, emitter, nil, editor.DefaultLayoutOptions())
	linker := &fakeLinker{watched: map[string]string{}}
	return New(Deps{Workspace: ws, Linker: linker}), linker
}

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func call(t *testing.T, h handler, args map[string]any) string {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func callErr(t *testing.T, h handler, args map[string]any) error {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	_, err := h(context.Background(), req)
	return err
}

func decodeView(t *testing.T, raw string) pageView {
	t.Helper()
	var v pageView
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func blockTexts(v pageView) []string {
	out := make([]string, len(v.Blocks))
	for i, b := range v.Blocks {
		out[i] = b.Text
	}
	return out
}

func TestCreatePageSetsActivePage(t *testing.T) {
	s, _ := newTestServer(t)

	var page domain.Page
	require.NoError(t, json.Unmarshal([]byte(call(t, s.handleCreatePage, map[string]any{"title": "Plan"})), &page))
	assert.Equal(t, "Plan", page.Title)

	v := decodeView(t, call(t, s.handleGetPage, map[string]any{}))
	require.NotNil(t, v.Page)
	assert.Equal(t, page.ID, v.Page.ID)
	require.Len(t, v.Blocks, 1)
	assert.Equal(t, "paragraph", v.Blocks[0].Kind)
	require.NotNil(t, v.Blocks[0].Rect)
}

func TestNoActivePage(t *testing.T) {
	s, _ := newTestServer(t)
	assert.Error(t, callErr(t, s.handleTypeText, map[string]any{"text": "x"}))
	assert.Error(t, callErr(t, s.handleSetActivePage, map[string]any{"pageId": "missing"}))
}

func TestTypeTextAppliesShortcuts(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleCreatePage, map[string]any{"title": "Doc"})

	v := decodeView(t, call(t, s.handleTypeText, map[string]any{"text": "## Goals\n- ship it -> now"}))
	require.Len(t, v.Blocks, 2)
	assert.Equal(t, "heading-two", v.Blocks[0].Kind)
	assert.Equal(t, "Goals", v.Blocks[0].Text)
	assert.Equal(t, "bulleted-list", v.Blocks[1].Kind)
	assert.Equal(t, "ship it → now", v.Blocks[1].Text)
}

func TestNumberedListEnter(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleCreatePage, map[string]any{})
	call(t, s.handleTypeText, map[string]any{"text": "1. first"})

	v := decodeView(t, call(t, s.handlePressEnter, map[string]any{}))
	require.Len(t, v.Blocks, 1)
	assert.Equal(t, "first\n2. ", v.Blocks[0].Text)
}

func TestSetCursorAndSelectAll(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleCreatePage, map[string]any{})
	call(t, s.handleTypeText, map[string]any{"text": "hello"})

	v := decodeView(t, call(t, s.handleSetCursor, map[string]any{"path": "0", "offset": 2.0}))
	require.NotNil(t, v.Cursor)
	assert.Equal(t, 2, v.Cursor.Focus.Offset)

	assert.Error(t, callErr(t, s.handleSetCursor, map[string]any{"path": "4", "offset": 0.0}))
	assert.Error(t, callErr(t, s.handleSetCursor, map[string]any{"path": "0", "offset": 99.0}))

	v = decodeView(t, call(t, s.handleSelectAll, map[string]any{}))
	require.NotNil(t, v.Cursor)
	assert.Equal(t, 0, v.Cursor.Anchor.Offset)
	assert.Equal(t, 5, v.Cursor.Focus.Offset)

	v = decodeView(t, call(t, s.handleTypeText, map[string]any{"text": "bye"}))
	assert.Equal(t, []string{"bye"}, blockTexts(v))
}

func TestMoveAndDrag(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleImportMarkdown, map[string]any{"content": "A\n\nB\n\nC\n"})

	v := decodeView(t, call(t, s.handleMoveBlock, map[string]any{"from": "2", "to": "0"}))
	assert.Equal(t, []string{"C", "A", "B"}, blockTexts(v))
	assert.Error(t, callErr(t, s.handleMoveBlock, map[string]any{"from": "7", "to": "0"}))

	// Lower half of the last block.
	last := v.Blocks[2].Rect
	require.NotNil(t, last)
	v = decodeView(t, call(t, s.handleDragBlock, map[string]any{"path": "0", "y": last.Bottom - 2}))
	assert.Equal(t, []string{"A", "B", "C"}, blockTexts(v))
}

func TestRubberBandAndClick(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleImportMarkdown, map[string]any{"content": "A\n\nB\n\nC\n"})
	v := decodeView(t, call(t, s.handleGetPage, map[string]any{}))
	b := v.Blocks[1].Rect
	c := v.Blocks[2].Rect

	v = decodeView(t, call(t, s.handleRubberBand, map[string]any{
		"x0": 700.0, "y0": b.Top + 1, "x1": 10.0, "y1": c.Bottom - 1,
	}))
	assert.False(t, v.Blocks[0].Selected)
	assert.True(t, v.Blocks[1].Selected)
	assert.True(t, v.Blocks[2].Selected)

	v = decodeView(t, call(t, s.handleClickBlock, map[string]any{"path": "0"}))
	assert.True(t, v.Blocks[0].Selected)
	assert.False(t, v.Blocks[1].Selected)
	assert.False(t, v.Blocks[2].Selected)
}

func TestToggleTodo(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleImportMarkdown, map[string]any{"content": "- [ ] task\n\nplain\n"})

	v := decodeView(t, call(t, s.handleToggleTodo, map[string]any{"path": "0"}))
	assert.True(t, v.Blocks[0].Checked)
	assert.Error(t, callErr(t, s.handleToggleTodo, map[string]any{"path": "1"}))
}

func TestExportAndLinkFile(t *testing.T) {
	s, linker := newTestServer(t)
	call(t, s.handleImportMarkdown, map[string]any{"content": "# Title\n\nbody\n"})
	assert.Equal(t, "# Title\n\nbody\n", call(t, s.handleExportMarkdown, map[string]any{}))

	out := filepath.Join(t.TempDir(), "out.md")
	call(t, s.handleExportMarkdown, map[string]any{"path": out})
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nbody\n", string(data))

	src := filepath.Join(t.TempDir(), "linked.md")
	require.NoError(t, os.WriteFile(src, []byte("- item\n"), 0644))
	var page domain.Page
	require.NoError(t, json.Unmarshal([]byte(call(t, s.handleLinkFile, map[string]any{"path": src})), &page))
	assert.Equal(t, src, page.LinkedFile)
	assert.Equal(t, src, linker.watched[page.ID])

	v := decodeView(t, call(t, s.handleGetPage, map[string]any{}))
	require.Len(t, v.Blocks, 1)
	assert.Equal(t, "bulleted-list", v.Blocks[0].Kind)

	call(t, s.handleDeletePage, map[string]any{"pageId": page.ID})
	assert.Empty(t, linker.watched)
	assert.Error(t, callErr(t, s.handleGetPage, map[string]any{}))
}

func TestRenameAndCover(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleCreatePage, map[string]any{"title": "a"})

	var page domain.Page
	require.NoError(t, json.Unmarshal([]byte(call(t, s.handleRenamePage, map[string]any{"title": "b"})), &page))
	assert.Equal(t, "b", page.Title)
	require.NoError(t, json.Unmarshal([]byte(call(t, s.handleSetCover, map[string]any{"cover": "c.png"})), &page))
	assert.Equal(t, "c.png", page.Cover)

	var pages []domain.Page
	require.NoError(t, json.Unmarshal([]byte(call(t, s.handleListPages, map[string]any{})), &pages))
	require.Len(t, pages, 1)
	assert.Equal(t, "b", pages[0].Title)
}

func TestResources(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s.handleImportMarkdown, map[string]any{"content": "# T\n\nx\n"})
	v := decodeView(t, call(t, s.handleGetPage, map[string]any{}))

	var req mcp.ReadResourceRequest
	req.Params.URI = pagesURI
	contents, err := s.handlePagesResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0].(mcp.TextResourceContents).Text, `"title": "T"`)

	req.Params.URI = pageURIPrefix + v.Page.ID + pageURISuffix
	contents, err = s.handlePageBlocksResource(context.Background(), req)
	require.NoError(t, err)
	var blocks []blockView
	require.NoError(t, json.Unmarshal([]byte(contents[0].(mcp.TextResourceContents).Text), &blocks))
	require.Len(t, blocks, 2)
	assert.Equal(t, "x", blocks[1].Text)
}

func TestExtractPageIDFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"molink://page/abc-123/blocks", "abc-123"},
		{"molink://page//blocks", ""},
		{"molink://page/a/b/blocks", ""},
		{"molink://pages", ""},
		{"notes://page/abc/blocks", ""},
	}
	for _, tt := range tests {
		if got := extractPageIDFromURI(tt.uri); got != tt.want {
			t.Errorf("extractPageIDFromURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

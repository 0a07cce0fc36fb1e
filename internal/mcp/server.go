package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"molink/internal/domain"
	"molink/internal/editor"
	"molink/internal/logger"
	"molink/internal/service"
)

// FileLinker keeps pages in sync with their linked Markdown files.
type FileLinker interface {
	Watch(pageID, path string) error
	Unwatch(pageID string)
}

// Server is the MCP server for molink.
// It exposes tools, resources, and prompts so AI agents can edit pages
// with the same input events a keyboard and pointer would produce.
type Server struct {
	mcp *server.MCPServer
	log *logger.Logger

	// Services (injected from app layer)
	ws     *service.Workspace
	pages  *service.PageService
	linker FileLinker

	// Active page context (set by set_active_page and create_page)
	mu           sync.Mutex
	activePageID string
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Workspace *service.Workspace
	Linker    FileLinker // optional
	Log       *logger.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		log:    log.With("component", "mcp"),
		ws:     deps.Workspace,
		pages:  deps.Workspace.Pages(),
		linker: deps.Linker,
	}

	s.mcp = server.NewMCPServer(
		"molink-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerPageTools()
	s.registerEditingTools()
	s.registerGestureTools()
	s.registerMarkdownTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func (s *Server) setActivePage(pageID string) {
	s.mu.Lock()
	s.activePageID = pageID
	s.mu.Unlock()
}

// resolvePageID returns the pageID from tool args or falls back to activePageID.
func (s *Server) resolvePageID(args map[string]any) (string, error) {
	if pid, ok := args["pageId"].(string); ok && pid != "" {
		return pid, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activePageID != "" {
		return s.activePageID, nil
	}
	return "", fmt.Errorf("no pageId provided and no active page set (use set_active_page first)")
}

// pathArg parses a "0.2.1" block path argument.
func pathArg(args map[string]any, key string) (domain.Path, error) {
	raw, ok := args[key].(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("%s is required", key)
	}
	p, err := domain.ParsePath(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return p, nil
}

func numberArg(args map[string]any, key string) (float64, error) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// ── Views ──────────────────────────────────────────────────

// blockView is the JSON shape of one block handed to agents.
type blockView struct {
	Path     string       `json:"path"`
	ID       string       `json:"id"`
	Kind     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	Checked  bool         `json:"checked,omitempty"`
	Selected bool         `json:"selected,omitempty"`
	Rect     *editor.Rect `json:"rect,omitempty"`
	Children []blockView  `json:"children,omitempty"`
}

type pageView struct {
	Page   *domain.Page  `json:"page,omitempty"`
	Blocks []blockView   `json:"blocks"`
	Cursor *editor.Range `json:"cursor,omitempty"`
}

func viewBlocks(sess *editor.Session, parent domain.Path, blocks []*domain.Block) []blockView {
	out := make([]blockView, len(blocks))
	for i, b := range blocks {
		p := parent.Child(i)
		v := blockView{
			Path:     p.String(),
			ID:       b.ID,
			Kind:     string(b.Kind),
			Text:     b.Text(),
			Checked:  b.Checked,
			Selected: sess.Model().IsSelected(p),
		}
		if r, err := sess.Geometry().BlockRect(p); err == nil {
			v.Rect = &r
		}
		if len(b.Children) > 0 {
			v.Children = viewBlocks(sess, p, b.Children)
		}
		out[i] = v
	}
	return out
}

func viewSession(sess *editor.Session) pageView {
	v := pageView{Blocks: viewBlocks(sess, nil, sess.Document().Blocks)}
	if r, ok := sess.Cursor(); ok {
		v.Cursor = &r
	}
	return v
}

// pageState renders the live state of a page, with its stored metadata.
func (s *Server) pageState(ctx context.Context, pageID string) (pageView, error) {
	page, err := s.pages.GetPage(pageID)
	if err != nil {
		return pageView{}, err
	}
	var v pageView
	err = s.ws.Edit(ctx, pageID, func(sess *editor.Session) error {
		v = viewSession(sess)
		return nil
	})
	v.Page = page
	return v, err
}

// edit runs fn on the page's session and returns the resulting page state.
func (s *Server) edit(ctx context.Context, req mcp.CallToolRequest, fn func(*editor.Session) error) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	var v pageView
	err = s.ws.Edit(ctx, pageID, func(sess *editor.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		v = viewSession(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(v)
}

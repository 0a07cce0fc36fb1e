package mcpserver

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"molink/internal/domain"
)

func (s *Server) registerMarkdownTools() {
	s.mcp.AddTool(mcp.NewTool("import_markdown",
		mcp.WithDescription("Create a new page from Markdown, given inline or as a file path. The first level-one heading becomes the title."),
		mcp.WithString("content", mcp.Description("Markdown source (optional when path is given)")),
		mcp.WithString("path", mcp.Description("Markdown file to import (optional)")),
		mcp.WithString("title", mcp.Description("Title used when the Markdown has no level-one heading")),
	), s.handleImportMarkdown)

	s.mcp.AddTool(mcp.NewTool("export_markdown",
		mcp.WithDescription("Render a page as Markdown, optionally writing it to a file"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("path", mcp.Description("File to write (optional)")),
	), s.handleExportMarkdown)

	s.mcp.AddTool(mcp.NewTool("link_file",
		mcp.WithDescription("Link a page to a Markdown file: the file is imported now and re-imported whenever it is written"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("path", mcp.Description("Markdown file"), mcp.Required()),
	), s.handleLinkFile)
}

func (s *Server) handleImportMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	path := req.GetString("path", "")
	title := req.GetString("title", "")

	var (
		page *domain.Page
		err  error
	)
	switch {
	case path != "" && title == "":
		page, err = s.ws.ImportFile(ctx, path)
	case path != "":
		src, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, fmt.Errorf("read %s: %w", path, rerr)
		}
		page, err = s.ws.ImportMarkdown(ctx, src, title)
	case content != "":
		page, err = s.ws.ImportMarkdown(ctx, []byte(content), title)
	default:
		return nil, fmt.Errorf("content or path is required")
	}
	if err != nil {
		return nil, fmt.Errorf("import markdown: %w", err)
	}
	s.setActivePage(page.ID)
	return jsonResult(page)
}

func (s *Server) handleExportMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	md, err := s.ws.ExportMarkdown(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("export markdown: %w", err)
	}
	if path := req.GetString("path", ""); path != "" {
		if err := os.WriteFile(path, []byte(md), 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		return textResult(fmt.Sprintf("Exported %d bytes to %s", len(md), path)), nil
	}
	return textResult(md), nil
}

func (s *Server) handleLinkFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	path := req.GetString("path", "")
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	page, err := s.ws.LinkFile(ctx, pageID, path)
	if err != nil {
		return nil, fmt.Errorf("link file: %w", err)
	}
	if s.linker != nil {
		if err := s.linker.Watch(page.ID, page.LinkedFile); err != nil {
			return nil, fmt.Errorf("watch %s: %w", page.LinkedFile, err)
		}
	}
	return jsonResult(page)
}

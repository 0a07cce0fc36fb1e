package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"molink/internal/domain"
	"molink/internal/editor"
)

func (s *Server) registerEditingTools() {
	// ── type_text ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("type_text",
		mcp.WithDescription("Type text at the cursor, one keystroke per character. Markdown shortcuts apply as they would for a user typing: "+
			"\"# \" makes a heading, \"- \" a bulleted list, \"1. \" a numbered list, \"[] \" a todo, \"> \" a quote, \"--\" becomes an em dash. "+
			"A newline presses Enter."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("text", mcp.Description("Text to type"), mcp.Required()),
	), s.handleTypeText)

	// ── press_enter ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("press_enter",
		mcp.WithDescription("Press Enter at the cursor: continues a numbered list or splits the block"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handlePressEnter)

	// ── set_cursor ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_cursor",
		mcp.WithDescription("Place the cursor, or select text when a focus point is given. Paths look like \"0\" or \"1.0\"."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("path", mcp.Description("Block path of the anchor"), mcp.Required()),
		mcp.WithNumber("offset", mcp.Description("Character offset of the anchor"), mcp.Required()),
		mcp.WithString("focusPath", mcp.Description("Block path of the focus (optional)")),
		mcp.WithNumber("focusOffset", mcp.Description("Character offset of the focus (optional)")),
	), s.handleSetCursor)

	// ── select_all ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_all",
		mcp.WithDescription("Select all text of the block holding the cursor"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleSelectAll)

	// ── toggle_todo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("toggle_todo",
		mcp.WithDescription("Check or uncheck a todo block"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("path", mcp.Description("Block path of the todo"), mcp.Required()),
	), s.handleToggleTodo)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block to an insertion gap. Both paths refer to the page as it is before the move: "+
			"to=\"2\" inserts before the current third top-level block, to=\"1.0\" makes it the first child of block 1."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("from", mcp.Description("Path of the block to move"), mcp.Required()),
		mcp.WithString("to", mcp.Description("Insertion gap"), mcp.Required()),
	), s.handleMoveBlock)
}

// keystrokes splits text into the events a keyboard would send.
func keystrokes(text string) []editor.Event {
	var events []editor.Event
	for _, r := range text {
		if r == '\n' {
			events = append(events, editor.LineBreak{})
			continue
		}
		events = append(events, editor.InsertText{Text: string(r)})
	}
	return events
}

func (s *Server) handleTypeText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	return s.edit(ctx, req, func(sess *editor.Session) error {
		for _, ev := range keystrokes(text) {
			if err := sess.Dispatch(ev); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Server) handlePressEnter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.edit(ctx, req, func(sess *editor.Session) error {
		return sess.Dispatch(editor.LineBreak{})
	})
}

func (s *Server) handleSetCursor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, err := pathArg(args, "path")
	if err != nil {
		return nil, err
	}
	offset, err := numberArg(args, "offset")
	if err != nil {
		return nil, err
	}
	anchor := editor.Point{Path: path, Offset: int(offset)}
	r := editor.Collapsed(anchor)
	if _, ok := args["focusPath"]; ok {
		fp, err := pathArg(args, "focusPath")
		if err != nil {
			return nil, err
		}
		r.Focus = editor.Point{Path: fp, Offset: req.GetInt("focusOffset", 0)}
	}

	return s.edit(ctx, req, func(sess *editor.Session) error {
		if _, err := sess.Model().TextBeforeCursor(r.Anchor); err != nil {
			return fmt.Errorf("set cursor: %w", err)
		}
		if _, err := sess.Model().TextBeforeCursor(r.Focus); err != nil {
			return fmt.Errorf("set cursor: %w", err)
		}
		return sess.Dispatch(editor.SetCursor{Range: r})
	})
}

func (s *Server) handleSelectAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.edit(ctx, req, func(sess *editor.Session) error {
		return sess.Dispatch(editor.SelectAll{})
	})
}

func (s *Server) handleToggleTodo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := pathArg(req.GetArguments(), "path")
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, req, func(sess *editor.Session) error {
		// Dispatch ignores bad targets; report them to the agent instead.
		b, err := sess.Model().BlockAt(path)
		if err != nil {
			return fmt.Errorf("toggle todo: %w", err)
		}
		if b.Kind != domain.KindTodo {
			return fmt.Errorf("toggle todo: block %s is a %s", path, b.Kind)
		}
		return sess.Dispatch(editor.ToggleTodo{Path: path})
	})
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	from, err := pathArg(args, "from")
	if err != nil {
		return nil, err
	}
	to, err := pathArg(args, "to")
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, req, func(sess *editor.Session) error {
		if _, err := sess.MoveBlock(from, to); err != nil {
			return fmt.Errorf("move block: %w", err)
		}
		return nil
	})
}

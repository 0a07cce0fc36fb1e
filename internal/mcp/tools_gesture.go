package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"molink/internal/editor"
)

// Gesture tools replay pointer input against the page's headless layout.
// Rectangles returned by get_page are in the same coordinate space.

func (s *Server) registerGestureTools() {
	// ── drag_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("drag_block",
		mcp.WithDescription("Drag a block by its handle and drop it at a point. Dropping on the upper half of a block inserts before it, "+
			"on the lower half after it. Use get_page for block rectangles."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("path", mcp.Description("Path of the block to drag"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("Drop X (optional, defaults to the dragged block's left edge)")),
		mcp.WithNumber("y", mcp.Description("Drop Y"), mcp.Required()),
	), s.handleDragBlock)

	// ── rubber_band_select ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rubber_band_select",
		mcp.WithDescription("Sweep a selection rectangle over empty canvas; every block it overlaps becomes selected"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithNumber("x0", mcp.Description("Start X"), mcp.Required()),
		mcp.WithNumber("y0", mcp.Description("Start Y"), mcp.Required()),
		mcp.WithNumber("x1", mcp.Description("End X"), mcp.Required()),
		mcp.WithNumber("y1", mcp.Description("End Y"), mcp.Required()),
	), s.handleRubberBand)

	// ── click_block ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("click_block",
		mcp.WithDescription("Click a block: it becomes the only selected block and the cursor moves to its end"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("path", mcp.Description("Path of the block"), mcp.Required()),
	), s.handleClickBlock)
}

// pointer replays a press-move-release sequence. A release the session
// ignored still ends the gesture.
func pointer(sess *editor.Session, down editor.PointerDown, x, y float64) error {
	for _, ev := range []editor.Event{down, editor.PointerMove{X: x, Y: y}, editor.PointerUp{X: x, Y: y}} {
		if err := sess.Dispatch(ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleDragBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, err := pathArg(args, "path")
	if err != nil {
		return nil, err
	}
	y, err := numberArg(args, "y")
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, req, func(sess *editor.Session) error {
		b, err := sess.Model().BlockAt(path)
		if err != nil {
			return fmt.Errorf("drag block: %w", err)
		}
		r, err := sess.Geometry().BlockRect(path)
		if err != nil {
			return fmt.Errorf("drag block: %w", err)
		}
		x := r.Left + 1
		if v, ok := args["x"].(float64); ok {
			x = v
		}
		down := editor.PointerDown{X: r.Left, Y: r.Top, Target: editor.TargetHandle{Path: path}}
		if err := pointer(sess, down, x, y); err != nil {
			return err
		}
		if at, ok := sess.Model().PathOf(b.ID); ok {
			s.log.Debug("block dragged", "from", path.String(), "to", at.String())
		}
		return nil
	})
}

func (s *Server) handleRubberBand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var coords [4]float64
	for i, key := range []string{"x0", "y0", "x1", "y1"} {
		v, err := numberArg(args, key)
		if err != nil {
			return nil, err
		}
		coords[i] = v
	}
	return s.edit(ctx, req, func(sess *editor.Session) error {
		down := editor.PointerDown{X: coords[0], Y: coords[1], Target: editor.TargetCanvas{}}
		return pointer(sess, down, coords[2], coords[3])
	})
}

func (s *Server) handleClickBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := pathArg(req.GetArguments(), "path")
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, req, func(sess *editor.Session) error {
		r, err := sess.Geometry().BlockRect(path)
		if err != nil {
			return fmt.Errorf("click block: %w", err)
		}
		x, y := r.Left+r.Width()/2, r.Top+r.Height()/2
		if err := sess.Dispatch(editor.PointerDown{X: x, Y: y, Target: editor.TargetBlock{Path: path}}); err != nil {
			return err
		}
		return sess.Dispatch(editor.PointerUp{X: x, Y: y})
	})
}

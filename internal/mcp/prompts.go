package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("write_outline",
		mcp.WithPromptDescription("Draft a structured outline on a new page using the editor's Markdown shortcuts"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Topic of the outline"),
			mcp.RequiredArgument(),
		),
	), s.handleOutlinePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("tidy_page",
		mcp.WithPromptDescription("Reorder and group the blocks of an existing page"),
		mcp.WithArgument("pageId",
			mcp.ArgumentDescription("Page to tidy"),
			mcp.RequiredArgument(),
		),
	), s.handleTidyPrompt)
}

func (s *Server) handleOutlinePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Outline: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Write an outline about "%s". Follow these steps:

1. Use create_page with the title "%s"
2. Use type_text to write the content the way a person would type it. Start each line with a shortcut:
   "# " for the title heading, "## " for sections, "- " for bullets, "[] " for action items
3. End every line with a newline so the next line becomes a new block
4. Call get_page at the end and check that every block has the expected type`, topic, topic),
				},
			},
		},
	}, nil
}

func (s *Server) handleTidyPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	pageID := req.Params.Arguments["pageId"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Tidy page %s", pageID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Tidy page %s. Follow these steps:

1. Call get_page to read the block tree with paths and rectangles
2. Group related blocks under the heading they belong to using move_block
   (paths refer to the page before each move; re-read the page after every move)
3. Check finished action items with toggle_todo
4. Call export_markdown and summarize what changed`, pageID),
				},
			},
		},
	}, nil
}

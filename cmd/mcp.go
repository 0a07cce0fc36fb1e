package cmd

import (
	"github.com/spf13/cobra"

	"molink/internal/app"
)

func newMCPCmd(a **app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the editor to AI agents over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout.

Agents edit pages with the same events a keyboard and pointer produce:
typed text runs through the Markdown shortcuts, and drag and rubber-band
gestures resolve against a headless layout. Edits are autosaved on the
configured schedule and linked Markdown files are re-imported on write.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return (*a).ServeMCP(cmd.Context())
		},
	}
}

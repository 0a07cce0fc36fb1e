package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"molink/internal/app"
)

func newExportCmd(a **app.App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <page-id>",
		Short: "Render a page as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := (*a).Workspace.ExportMarkdown(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), md)
				return err
			}
			if err := os.WriteFile(output, []byte(md), 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

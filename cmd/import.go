package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"molink/internal/app"
)

func newImportCmd(a **app.App) *cobra.Command {
	var link bool

	cmd := &cobra.Command{
		Use:   "import <file.md>",
		Short: "Create a page from a Markdown file",
		Long: `Create a page from a Markdown file and print its ID.

With --link the page stays linked to the file: while "molink mcp" runs,
every write to the file is re-imported into the page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := (*a).Workspace
			page, err := ws.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if link {
				if page, err = ws.LinkFile(cmd.Context(), page.ID, args[0]); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), page.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&link, "link", false, "Keep the page in sync with the file")
	return cmd
}

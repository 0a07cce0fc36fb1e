package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"molink/internal/app"
	"molink/internal/domain"
)

func newNewCmd(a **app.App) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create a new page",
		Long: `Create a new page holding one empty paragraph and print its ID.

Examples:
  molink new "meeting notes"
  cat draft.md | molink new --stdin     # title from the first "# " heading`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			var (
				page *domain.Page
				err  error
			)
			if fromStdin {
				src, rerr := io.ReadAll(cmd.InOrStdin())
				if rerr != nil {
					return fmt.Errorf("read stdin: %w", rerr)
				}
				page, err = (*a).Workspace.ImportMarkdown(cmd.Context(), src, title)
			} else {
				page, err = (*a).Pages.CreatePage(cmd.Context(), title)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), page.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the page content as Markdown from stdin")
	return cmd
}

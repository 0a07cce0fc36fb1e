package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"molink/internal/app"
)

func newRmCmd(a **app.App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <page-id>...",
		Aliases: []string{"delete"},
		Short:   "Delete pages and their blocks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := (*a).Workspace.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			return nil
		},
	}
}

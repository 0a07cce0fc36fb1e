package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"molink/internal/app"
	"molink/internal/config"
	"molink/internal/logger"
)

// Execute runs the molink command line with args. Output goes to out.
// Unsaved edits are flushed and the database closed before it returns,
// whether or not the command failed.
func Execute(ctx context.Context, args []string, out io.Writer) error {
	var (
		cfgFile string
		a       *app.App
		log     *logger.Logger
	)

	root := &cobra.Command{
		Use:          "molink",
		Short:        "Block editor for Markdown-style pages",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			log, err = logger.New(cfg.Log.Mode)
			if err != nil {
				return err
			}
			a, err = app.New(cfg, log)
			return err
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <data_dir>/config.yaml)")
	root.SetArgs(args)
	root.SetOut(out)

	root.AddCommand(newMCPCmd(&a))
	root.AddCommand(newNewCmd(&a))
	root.AddCommand(newListCmd(&a))
	root.AddCommand(newImportCmd(&a))
	root.AddCommand(newExportCmd(&a))
	root.AddCommand(newRmCmd(&a))

	err := root.ExecuteContext(ctx)
	if a != nil {
		err = errors.Join(err, a.Shutdown(context.WithoutCancel(ctx)))
	}
	if log != nil {
		log.Sync()
	}
	return err
}

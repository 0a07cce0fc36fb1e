package app

import (
	"context"
	"errors"
	"fmt"

	"molink/internal/filesync"
	mcpserver "molink/internal/mcp"
	"molink/internal/service"
)

// ServeMCP runs the app as an MCP server on stdin/stdout until the client
// disconnects or ctx is cancelled. Dirty pages are flushed by the autosaver
// while serving, and linked Markdown files are watched.
func (a *App) ServeMCP(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	autosaver := service.NewAutosaver(a.Workspace, a.cfg.Autosave.Schedule, a.log)
	if err := autosaver.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := autosaver.Stop(context.WithoutCancel(ctx)); err != nil {
			a.log.Error("final autosave", "error", err)
		}
	}()

	watcher, err := filesync.New(a.Workspace, a.log)
	if err != nil {
		return err
	}
	defer watcher.Close()
	linked, err := a.Pages.LinkedPages()
	if err != nil {
		return fmt.Errorf("list linked pages: %w", err)
	}
	watcher.WatchPages(linked)
	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("file watcher stopped", "error", err)
		}
	}()

	srv := mcpserver.New(mcpserver.Deps{
		Workspace: a.Workspace,
		Linker:    watcher,
		Log:       a.log,
	})

	done := make(chan error, 1)
	go func() { done <- srv.ServeStdio() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.log.Info("mcp server interrupted")
		return nil
	}
}

package app

import (
	"context"
	"errors"
	"fmt"

	"molink/internal/config"
	"molink/internal/logger"
	"molink/internal/service"
	"molink/internal/storage"
)

// App wires storage, services and the editing workspace together.
// The CLI and the MCP server both run on top of it.
type App struct {
	cfg *config.Config
	log *logger.Logger
	db  *storage.DB

	Pages     *service.PageService
	Workspace *service.Workspace
}

// New opens the configured database and builds the services.
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := storage.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Debug("database opened", "driver", db.Driver())

	emitter := service.LogEmitter{Log: log}
	pages := service.NewPageService(storage.NewPageStore(db), emitter, log)
	return &App{
		cfg:       cfg,
		log:       log,
		db:        db,
		Pages:     pages,
		Workspace: service.NewWorkspace(pages, emitter, log, cfg.Layout),
	}, nil
}

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Shutdown flushes unsaved edits and closes the database.
func (a *App) Shutdown(ctx context.Context) error {
	flushErr := a.Workspace.Shutdown(ctx)
	if flushErr != nil {
		a.log.Error("flush on shutdown", "error", flushErr)
	}
	return errors.Join(flushErr, a.db.Close())
}

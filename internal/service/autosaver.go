package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"molink/internal/logger"
)

// DefaultAutosaveSchedule flushes dirty pages every two seconds.
const DefaultAutosaveSchedule = "@every 2s"

// Autosaver periodically flushes the workspace's dirty pages on a cron schedule.
type Autosaver struct {
	ws       *Workspace
	schedule string
	log      *logger.Logger

	mu     sync.Mutex
	sched  *cron.Cron
	cancel context.CancelFunc
}

// NewAutosaver creates an autosaver; an empty schedule uses DefaultAutosaveSchedule.
func NewAutosaver(ws *Workspace, schedule string, log *logger.Logger) *Autosaver {
	if schedule == "" {
		schedule = DefaultAutosaveSchedule
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Autosaver{ws: ws, schedule: schedule, log: log.With("component", "autosave")}
}

// Start begins flushing on the schedule. Calling Start twice is a no-op.
func (a *Autosaver) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sched != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(a.schedule, func() { a.tick(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("autosave schedule %q: %w", a.schedule, err)
	}
	c.Start()
	a.sched = c
	a.cancel = cancel
	a.log.Info("autosave started", "schedule", a.schedule)
	return nil
}

func (a *Autosaver) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := a.ws.Flush(ctx); err != nil {
		a.log.Warn("autosave failed", "error", err)
	}
}

// Stop halts the schedule, waits for a running tick and flushes once more.
func (a *Autosaver) Stop(ctx context.Context) error {
	a.mu.Lock()
	c, cancel := a.sched, a.cancel
	a.sched, a.cancel = nil, nil
	a.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	cancel()
	a.log.Info("autosave stopped")
	return a.ws.Shutdown(ctx)
}

// ValidSchedule reports whether spec parses as a cron schedule.
func ValidSchedule(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}

package service

import (
	"context"
	"sync"

	"molink/internal/logger"
)

// Events emitted by the services.
const (
	EventPageCreated   = "page:created"
	EventPageUpdated   = "page:updated"
	EventPageDeleted   = "page:deleted"
	EventBlocksChanged = "page:blocks-changed"
	EventPageSaved     = "page:saved"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from whoever listens
// ─────────────────────────────────────────────────────────────

// EventEmitter is an interface for publishing service events.
// Services receive this interface instead of a concrete transport,
// which makes them independently testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter publishes events to the log. It is used when no client
// subscribes to events, e.g. from the CLI.
type LogEmitter struct {
	Log *logger.Logger
}

func (e LogEmitter) Emit(_ context.Context, event string, data any) {
	e.Log.Debug("event", "event", event, "data", data)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
// It is safe for concurrent use since the autosaver emits from its own goroutine.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded events with the given name.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

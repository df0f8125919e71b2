// Package analytics carries fire-and-forget product events out of the core
// stores. Callers never depend on delivery: a failing sink must not fail the
// operation that emitted the event.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sink receives named events with string properties.
type Sink interface {
	Emit(ctx context.Context, event string, props map[string]string) error
}

// Event is the serialized form carried on the bus.
type Event struct {
	Name  string            `json:"name"`
	Props map[string]string `json:"props,omitempty"`
	At    time.Time         `json:"at"`
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, string, map[string]string) error { return nil }

// LogSink writes each event as a debug log line.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Emit(ctx context.Context, event string, props map[string]string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "analytics event", "event", event, "props", props)
	return nil
}

// Recorder keeps every event in memory. Tests use it to assert emissions.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Emit(_ context.Context, event string, props map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[string]string, len(props))
	for k, v := range props {
		cp[k] = v
	}
	r.events = append(r.events, Event{Name: event, Props: cp, At: time.Now()})
	return r.Err
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

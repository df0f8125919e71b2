package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kalambet/lookbook/internal/metrics"
)

var (
	ErrQueueFull = errors.New("analytics queue full")
	ErrClosed    = errors.New("analytics sink closed")
)

// Async decouples emitters from a slow downstream Sink. Emit never blocks:
// when the queue is full the event is dropped and counted.
type Async struct {
	next   Sink
	queue  chan Event
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsync starts a dispatcher goroutine delivering to next.
// If buffer is <= 0, it defaults to 256.
func NewAsync(next Sink, buffer int) *Async {
	if buffer <= 0 {
		buffer = 256
	}
	a := &Async{
		next:   next,
		queue:  make(chan Event, buffer),
		logger: slog.Default(),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *Async) Emit(_ context.Context, event string, props map[string]string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		metrics.AnalyticsDropped.Inc()
		return ErrClosed
	}
	select {
	case a.queue <- Event{Name: event, Props: props, At: time.Now()}:
		return nil
	default:
		metrics.AnalyticsDropped.Inc()
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer a.wg.Done()
	for ev := range a.queue {
		if err := a.next.Emit(context.Background(), ev.Name, ev.Props); err != nil {
			a.logger.Debug("analytics delivery failed", "event", ev.Name, "error", err)
		}
	}
}

// Close drains queued events and stops the dispatcher. Safe to call twice.
func (a *Async) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()
	a.wg.Wait()
}

// Package dispatch delivers saved-event signals to in-process consumers.
//
// The recorder publishes a Signal only after the ledger write is durably
// committed, and the dispatcher hands it to subscribers on its own worker
// goroutine. A slow or panicking subscriber can therefore never block or
// unwind the write path. Delivery is at-most-once: a duplicate-suppressed
// write never fires a signal, and signals are dropped when the buffer is
// full rather than backpressuring the recorder.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
)

// Signal describes one successfully recorded, non-duplicate ledger write.
// Consumers must not assume ordering across different target IDs.
type Signal struct {
	EventID     id.ID
	Key         string
	Type        event.Type
	WorkspaceID string
	Actor       string
	Trigger     string
	OccurredAt  time.Time
}

// Handler consumes one saved-event signal. Handler errors and panics are
// contained at the dispatch boundary.
type Handler func(ctx context.Context, sig Signal)

// subscription pairs a handler with the type pattern it wants signals for.
type subscription struct {
	pattern string
	handler Handler
}

// Dispatcher fans saved-event signals out to subscribed handlers.
type Dispatcher struct {
	mu   sync.RWMutex
	subs []subscription

	ch     chan Signal
	logger *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a dispatcher with the given buffer capacity.
func New(buffer int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 1
	}
	return &Dispatcher{
		ch:     make(chan Signal, buffer),
		logger: logger,
	}
}

// Subscribe registers a handler for all saved-event signals.
func (d *Dispatcher) Subscribe(h Handler) {
	d.SubscribeTypes("*", h)
}

// SubscribeTypes registers a handler for signals whose activity type matches
// the pattern. Patterns support exact names ("pr.merged"), single-segment
// wildcards ("pr.*"), and "*" for everything.
func (d *Dispatcher) SubscribeTypes(pattern string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, subscription{pattern: pattern, handler: h})
}

// Start begins the dispatch worker.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(ctx)
	}()
}

// Stop cancels the worker and waits for in-flight deliveries to complete.
func (d *Dispatcher) Stop(_ context.Context) {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

// Publish enqueues a signal for delivery. Never blocks: when the buffer is
// full the signal is dropped with a warning, keeping the recorder's write
// path free of consumer backpressure.
func (d *Dispatcher) Publish(sig Signal) {
	select {
	case d.ch <- sig:
	default:
		d.logger.Warn("dispatch buffer full, dropping saved-event signal",
			"event_id", sig.EventID,
			"event_key", sig.Key,
		)
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-d.ch:
			d.deliver(ctx, sig)
		}
	}
}

// deliver hands one signal to every matching subscriber, containing panics
// so a broken consumer cannot take down the worker.
func (d *Dispatcher) deliver(ctx context.Context, sig Signal) {
	d.mu.RLock()
	subs := d.subs
	d.mu.RUnlock()

	for _, sub := range subs {
		if !matchType(sub.pattern, sig.Type.String()) {
			continue
		}
		h := sub.handler
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					d.logger.ErrorContext(ctx, "saved-event handler panicked",
						"event_id", sig.EventID,
						"event_key", sig.Key,
						"panic", rec,
					)
				}
			}()
			h(ctx, sig)
		}()
	}
}

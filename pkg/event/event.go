// Package event is an in-process publish/subscribe bus.
//
// Listeners run synchronously with Fire or on a bounded worker pool with
// FireAsync. Async dispatch detaches from the caller's cancellation so a
// finished HTTP request does not abort its side effects, but keeps the
// context values (request_id logger) for correlation.
package event

import (
	"context"
	"errors"
	"sync"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/metrics"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/workerpool"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload any) error

// Bus dispatches named events to registered handlers.
type Bus struct {
	pool *workerpool.Pool

	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus returns a Bus. A nil pool makes FireAsync run handlers inline.
func NewBus(pool *workerpool.Pool) *Bus {
	return &Bus{pool: pool, handlers: map[string][]Handler{}}
}

// Listen registers h for event.
func (b *Bus) Listen(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], h)
}

func (b *Bus) listeners(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[event]...)
}

// Fire runs every handler in registration order and joins their errors.
func (b *Bus) Fire(ctx context.Context, event string, payload any) error {
	var errs []error
	for _, h := range b.listeners(event) {
		if err := h(ctx, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FireAsync submits each handler to the pool and returns immediately.
// Handler errors and dropped submissions are logged, never returned.
func (b *Bus) FireAsync(ctx context.Context, event string, payload any) {
	ctx = context.WithoutCancel(ctx)
	log := logger.WithCtx(ctx)

	for _, h := range b.listeners(event) {
		run := func() {
			if err := h(ctx, payload); err != nil {
				log.Error("event listener failed", "event", event, "error", err)
			}
		}
		if b.pool == nil {
			run()
			continue
		}
		if err := b.pool.Submit(run); err != nil {
			metrics.AsyncDropped.WithLabelValues(event).Inc()
			log.Error("event listener dropped", "event", event, "error", err)
		}
	}
}

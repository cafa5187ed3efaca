package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/workticket-service/internal/worker"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type registry struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

func (r *registry) Subscribe(eventType EventType, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[eventType] = append(r.listeners[eventType], handler)
}

func (r *registry) handlers(eventType EventType) []EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]EventHandler{}, r.listeners[eventType]...)
}

// inMemoryDispatcher invokes handlers synchronously on the publishing goroutine.
type inMemoryDispatcher struct {
	registry
	logger *zap.Logger
}

// NewInMemoryDispatcher creates a synchronous dispatcher.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryDispatcher{
		registry: registry{listeners: make(map[EventType][]EventHandler)},
		logger:   logger,
	}
}

// Publish runs every handler; a failing handler does not stop the others.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	for _, handler := range d.handlers(event.Type) {
		if err := handler(ctx, event); err != nil {
			d.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return nil
}

// asyncDispatcher hands each handler invocation to a worker pool.
type asyncDispatcher struct {
	registry
	pool   *worker.Pool
	logger *zap.Logger
}

// NewAsyncDispatcher creates a dispatcher that runs handlers on pool.
// Handlers receive a context detached from the caller's cancellation.
func NewAsyncDispatcher(pool *worker.Pool, logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &asyncDispatcher{
		registry: registry{listeners: make(map[EventType][]EventHandler)},
		pool:     pool,
		logger:   logger,
	}
}

func (d *asyncDispatcher) Publish(ctx context.Context, event Event) error {
	detached := context.WithoutCancel(ctx)
	for _, handler := range d.handlers(event.Type) {
		handler := handler
		err := d.pool.Submit(detached, func(taskCtx context.Context) {
			if err := handler(taskCtx, event); err != nil {
				d.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

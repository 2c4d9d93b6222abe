package service

import (
	"context"
	"sync"

	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// EventHandler receives a trip event after it has been appended to the
// ledger. Handlers run asynchronously and must not block the bus.
type EventHandler func(ctx context.Context, ev types.TripEvent)

// EventBus fans processed trip events out to in-process subscribers such as
// anomaly logging. It is not a delivery guarantee: the ledger is the source
// of truth, the bus is a convenience.
type EventBus struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

func (b *EventBus) Subscribe(h EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers ev to all subscribers on their own goroutines.
func (b *EventBus) Publish(ctx context.Context, ev types.TripEvent) {
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()

	for _, h := range handlers {
		go h(ctx, ev)
	}
}

package eventing

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

// EventHandler consumes one published event.
type EventHandler func(ctx context.Context, event any) error

// EventBus is the minimal publish interface.
type EventBus interface {
	Publish(ctx context.Context, event any) error
}

// InMemoryBus delivers events synchronously to handlers registered by event type.
// Publish returns after every handler ran; the first handler error is returned.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

// NewInMemoryBus constructs a new bus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for an event type, see EventTypeOf.
func (b *InMemoryBus) Subscribe(eventType string, handler EventHandler) {
	if b == nil || handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish runs every handler subscribed to the event's type.
func (b *InMemoryBus) Publish(ctx context.Context, event any) error {
	if b == nil {
		return errors.New("eventbus: nil bus")
	}
	if event == nil {
		return errors.New("eventbus: nil event")
	}
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.handlers[EventType(event)]...)
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EventType returns the registry name of an event value. Pointers resolve to
// their element type.
func EventType(event any) string {
	t := reflect.TypeOf(event)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// EventTypeOf returns the registry name of T.
func EventTypeOf[T any]() string {
	var zero T
	return EventType(zero)
}

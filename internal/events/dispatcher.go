package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans ticket events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
	SubscribeAll(handler EventHandler)
}

type subscription struct {
	eventType EventType // empty matches every type
	handler   EventHandler
}

func (s subscription) matches(t EventType) bool {
	return s.eventType == "" || s.eventType == t
}

// syncDispatcher runs subscribers inline, in registration order.
type syncDispatcher struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewInMemoryDispatcher creates a synchronous in-process dispatcher.
func NewInMemoryDispatcher() Dispatcher {
	return &syncDispatcher{}
}

// Publish runs every matching subscriber even when earlier ones fail. Failures
// and panics come back joined, tagged with the event type.
func (d *syncDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subs := make([]subscription, 0, len(d.subs))
	for _, s := range d.subs {
		if s.matches(event.Type) {
			subs = append(subs, s)
		}
	}
	d.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := invoke(ctx, s.handler, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", event.Type, err))
		}
	}
	return errors.Join(errs...)
}

func invoke(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, event)
}

// Subscribe registers a handler for one event type.
func (d *syncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.add(subscription{eventType: eventType, handler: handler})
}

// SubscribeAll registers a handler for every event type.
func (d *syncDispatcher) SubscribeAll(handler EventHandler) {
	d.add(subscription{handler: handler})
}

func (d *syncDispatcher) add(s subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, s)
}

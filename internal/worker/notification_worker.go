package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/events"
)

// NotificationWorker delivers events to notification handlers off the request
// path. Events published while the queue is full are dropped.
type NotificationWorker struct {
	queue    chan events.Event
	handlers []events.EventHandler
	logger   *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// StartNotificationWorker subscribes to every event on dispatcher and runs
// handlers, in order, on a single goroutine until Stop is called.
func StartNotificationWorker(ctx context.Context, dispatcher events.Dispatcher, queueSize int, logger *zap.Logger, handlers ...events.EventHandler) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = 1
	}
	w := &NotificationWorker{
		queue:    make(chan events.Event, queueSize),
		handlers: handlers,
		logger:   logger,
		done:     make(chan struct{}),
	}
	dispatcher.SubscribeAll(w.enqueue)
	go w.run(context.WithoutCancel(ctx))
	return w
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full; event dropped",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID))
	}
	return nil
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer close(w.done)
	for event := range w.queue {
		for _, handle := range w.handlers {
			if err := handle(ctx, event); err != nil {
				w.logger.Warn("notification delivery failed",
					zap.String("event_type", string(event.Type)),
					zap.Int64("ticket_id", event.TicketID),
					zap.Error(err))
			}
		}
	}
}

// Stop drains queued events and waits for the worker to exit.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
}

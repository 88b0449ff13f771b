package events

import (
	"context"
	"fmt"

	"github.com/diagnosis/guestlobby/pkg/logger"
)

// Handler processes a single inbound event. Handlers must be idempotent:
// delivery is at-least-once and unordered.
type Handler func(ctx context.Context, msg *Message) error

// Dispatcher routes inbound events to exactly one registered handler per
// subject. Registration happens once at startup; the registry is read-only
// after Start. A handler error or panic is logged with event context and
// never halts dispatch of subsequent events.
type Dispatcher struct {
	bus      Subscriber
	queue    string
	handlers map[string]Handler
	started  bool
}

func NewDispatcher(bus Subscriber, queue string) *Dispatcher {
	return &Dispatcher{
		bus:      bus,
		queue:    queue,
		handlers: make(map[string]Handler),
	}
}

// Handle registers a handler for a subject. Duplicate or post-start
// registration is a wiring bug and is reported as an error.
func (d *Dispatcher) Handle(subject string, h Handler) error {
	if d.started {
		return fmt.Errorf("dispatcher already started, cannot register %s", subject)
	}
	if _, ok := d.handlers[subject]; ok {
		return fmt.Errorf("handler already registered for %s", subject)
	}
	d.handlers[subject] = h
	return nil
}

// Start queue-subscribes every registered subject. Queue subscription keeps
// concurrent service instances from double-handling a single delivery.
func (d *Dispatcher) Start() error {
	for subject, h := range d.handlers {
		subject, h := subject, h
		err := d.bus.QueueSubscribe(subject, d.queue, func(msg *Message) {
			d.dispatch(subject, h, msg)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
	}
	d.started = true
	return nil
}

func (d *Dispatcher) dispatch(subject string, h Handler, msg *Message) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Event handler panic",
				"subject", subject,
				"event_id", msg.ID,
				"panic", r,
			)
		}
	}()

	if err := h(ctx, msg); err != nil {
		logger.Error("Event handler failed",
			"subject", subject,
			"event_id", msg.ID,
			"error", err,
		)
	}
}

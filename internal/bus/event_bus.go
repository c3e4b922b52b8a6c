package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/lllypuk/corebus/internal/application/appcore"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/infrastructure/metrics"
)

// EventHandler is a function that handles domain events.
type EventHandler func(ctx context.Context, evt event.DomainEvent) error

// ErrEventTypeMismatch is returned by typed subscribers that receive an event
// of another Go type.
var ErrEventTypeMismatch = errors.New("event type mismatch")

// EventBus delivers events synchronously to every subscriber of their type,
// in subscription order. A failing subscriber never stops the others.
type EventBus struct {
	handlers   map[string][]EventHandler
	handlersMu sync.RWMutex
	logger     *slog.Logger
	metrics    *metrics.DispatchMetrics
}

// NewEventBus creates an in-process event bus.
func NewEventBus(opts ...Option) *EventBus {
	o := buildOptions(opts)
	return &EventBus{
		handlers: make(map[string][]EventHandler),
		logger:   o.logger,
		metrics:  o.metrics,
	}
}

// Subscribe registers an event handler for a specific event type.
// The same handler may be registered more than once.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) error {
	if eventType == "" {
		return errors.New("event type cannot be empty")
	}
	if handler == nil {
		return ErrNilHandler
	}

	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Subscribe registers a handler that receives events as E.
func Subscribe[E event.DomainEvent](b *EventBus, eventType string, handler func(ctx context.Context, evt E) error) error {
	if handler == nil {
		return ErrNilHandler
	}
	return b.Subscribe(eventType, func(ctx context.Context, evt event.DomainEvent) error {
		typed, ok := evt.(E)
		if !ok {
			return fmt.Errorf("%w: %s delivered as %T", ErrEventTypeMismatch, evt.EventType(), evt)
		}
		return handler(ctx, typed)
	})
}

// Publish runs every subscriber of evt's type on the caller's goroutine.
// Subscriber errors and panics are logged and counted, never returned.
func (b *EventBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	if evt == nil {
		return ErrNilEvent
	}

	b.handlersMu.RLock()
	handlers := slices.Clone(b.handlers[evt.EventType()])
	b.handlersMu.RUnlock()

	if b.metrics != nil {
		b.metrics.EventsPublished.WithLabelValues(evt.EventType()).Inc()
	}

	if len(handlers) == 0 {
		b.logger.DebugContext(ctx, "event has no subscribers",
			slog.String("event_type", evt.EventType()),
			slog.String("event_id", evt.EventID()),
		)
		return nil
	}

	ctx = subscriberContext(ctx, evt)
	for i, handler := range handlers {
		b.executeHandler(ctx, handler, evt, i)
	}
	return nil
}

// PublishAll publishes events in slice order.
func (b *EventBus) PublishAll(ctx context.Context, events ...event.DomainEvent) error {
	for _, evt := range events {
		if err := b.Publish(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// SubscriberCount returns the number of handlers registered for an event type.
func (b *EventBus) SubscriberCount(eventType string) int {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()
	return len(b.handlers[eventType])
}

// EventTypes returns the event types with at least one subscriber, sorted.
func (b *EventBus) EventTypes() []string {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()
	return slices.Sorted(maps.Keys(b.handlers))
}

func (b *EventBus) executeHandler(ctx context.Context, handler EventHandler, evt event.DomainEvent, index int) {
	defer func() {
		if recovered := recover(); recovered != nil {
			b.logger.ErrorContext(ctx, "event handler panicked",
				slog.String("event_type", evt.EventType()),
				slog.String("event_id", evt.EventID()),
				slog.Int("handler_index", index),
				slog.Any("panic", recovered),
			)
			b.countFailure(evt.EventType(), "panic")
		}
	}()

	if err := handler(ctx, evt); err != nil {
		b.logger.ErrorContext(ctx, "event handler failed",
			slog.String("event_type", evt.EventType()),
			slog.String("event_id", evt.EventID()),
			slog.Int("handler_index", index),
			slog.String("error", err.Error()),
		)
		b.countFailure(evt.EventType(), "error")
	}
}

// subscriberContext marks work done by subscribers as caused by evt and
// carries the event's correlation ID forward.
func subscriberContext(ctx context.Context, evt event.DomainEvent) context.Context {
	ctx = appcore.WithCausationID(ctx, evt.EventID())
	if correlationID := evt.Metadata().CorrelationID; correlationID != "" {
		if _, err := appcore.GetCorrelationID(ctx); err != nil {
			ctx = appcore.WithCorrelationID(ctx, correlationID)
		}
	}
	return ctx
}

func (b *EventBus) countFailure(eventType, reason string) {
	if b.metrics != nil {
		b.metrics.SubscriberFailures.WithLabelValues(eventType, reason).Inc()
	}
}

var _ event.Publisher = (*EventBus)(nil)

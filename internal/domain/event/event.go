// Package event defines domain events and the publishing contract used to
// deliver them.
package event

import (
	"context"
	"time"
)

// DomainEvent is a fact that already happened to an aggregate.
// EventType is the routing discriminator.
type DomainEvent interface {
	EventID() string
	EventType() string
	AggregateID() string
	AggregateType() string
	OccurredAt() time.Time
	// Version is the aggregate version this event produced.
	Version() int
	Metadata() Metadata
}

// Publisher delivers events to whoever is listening.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent) error
}

// BatchPublisher is a Publisher that can store several events in one call.
// PublishBatch either stores every event or returns an error; events that
// were already stored are skipped, so retrying a failed batch is safe.
type BatchPublisher interface {
	Publisher
	PublishBatch(ctx context.Context, events []DomainEvent) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, evt DomainEvent) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, evt DomainEvent) error {
	return f(ctx, evt)
}

// Handler processes one event.
type Handler func(ctx context.Context, evt DomainEvent) error

package event

import (
	"time"

	"github.com/lllypuk/corebus/internal/domain/uuid"
)

// BaseEvent carries the envelope fields every domain event shares.
// Concrete events embed it and add their payload as exported fields.
type BaseEvent struct {
	eventID       string
	eventType     string
	aggregateID   string
	aggregateType string
	occurredAt    time.Time
	version       int
	metadata      Metadata
}

// NewBaseEvent creates a BaseEvent stamped with a fresh ID and the current time.
func NewBaseEvent(eventType, aggregateID, aggregateType string, version int, metadata Metadata) BaseEvent {
	return BaseEvent{
		eventID:       uuid.NewUUID().String(),
		eventType:     eventType,
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		occurredAt:    time.Now().UTC(),
		version:       version,
		metadata:      metadata,
	}
}

func (e BaseEvent) EventID() string       { return e.eventID }
func (e BaseEvent) EventType() string     { return e.eventType }
func (e BaseEvent) AggregateID() string   { return e.aggregateID }
func (e BaseEvent) AggregateType() string { return e.aggregateType }
func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }
func (e BaseEvent) Version() int          { return e.version }
func (e BaseEvent) Metadata() Metadata    { return e.metadata }

package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the wire form of an event used by the outbox and the Redis forwarder.
type Envelope struct {
	ID            string          `json:"id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Version       int             `json:"version"`
	Metadata      Metadata        `json:"metadata"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps evt. The payload is the JSON encoding of the concrete event,
// which carries its exported fields only.
func NewEnvelope(evt DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return Envelope{
		ID:            evt.EventID(),
		EventType:     evt.EventType(),
		AggregateID:   evt.AggregateID(),
		AggregateType: evt.AggregateType(),
		OccurredAt:    evt.OccurredAt(),
		Version:       evt.Version(),
		Metadata:      evt.Metadata(),
		Payload:       payload,
	}, nil
}

// Event returns a DomainEvent view of the envelope.
func (e Envelope) Event() *RawEvent {
	return &RawEvent{envelope: e}
}

// RawEvent is a DomainEvent reconstructed from an Envelope. Subscribers that
// need the typed payload decode Payload().
type RawEvent struct {
	envelope Envelope
}

func (e *RawEvent) EventID() string       { return e.envelope.ID }
func (e *RawEvent) EventType() string     { return e.envelope.EventType }
func (e *RawEvent) AggregateID() string   { return e.envelope.AggregateID }
func (e *RawEvent) AggregateType() string { return e.envelope.AggregateType }
func (e *RawEvent) OccurredAt() time.Time { return e.envelope.OccurredAt }
func (e *RawEvent) Version() int          { return e.envelope.Version }
func (e *RawEvent) Metadata() Metadata    { return e.envelope.Metadata }

// Payload returns the raw JSON payload.
func (e *RawEvent) Payload() json.RawMessage { return e.envelope.Payload }

// DecodePayload unmarshals the payload into target.
func (e *RawEvent) DecodePayload(target any) error {
	if err := json.Unmarshal(e.envelope.Payload, target); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.envelope.EventType, err)
	}
	return nil
}

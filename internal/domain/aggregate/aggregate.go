// Package aggregate implements the uncommitted-event buffer of aggregate
// roots and the commit step that flushes it to a publisher.
package aggregate

import (
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

// Root is what the orchestrating code needs from an aggregate to commit it.
type Root interface {
	ID() uuid.UUID
	Version() int
	// PendingEvents returns the uncommitted events in the order they were recorded.
	PendingEvents() []event.DomainEvent
	// MarkPublished drops the first n pending events.
	MarkPublished(n int)
	// ClearPending drops every pending event.
	ClearPending()
}

// Events is the ordered buffer of uncommitted events. Aggregates keep it in
// an unexported field so that only their own methods can Record into it.
// The zero value is ready to use.
type Events struct {
	pending []event.DomainEvent
}

// Record appends evt to the buffer.
func (b *Events) Record(evt event.DomainEvent) {
	b.pending = append(b.pending, evt)
}

// Pending returns a copy of the buffered events.
func (b *Events) Pending() []event.DomainEvent {
	out := make([]event.DomainEvent, len(b.pending))
	copy(out, b.pending)
	return out
}

// Len returns the number of buffered events.
func (b *Events) Len() int { return len(b.pending) }

// MarkPublished drops the first n events. n is clamped to [0, Len()].
func (b *Events) MarkPublished(n int) {
	if n <= 0 {
		return
	}
	if n >= len(b.pending) {
		b.pending = nil
		return
	}
	b.pending = append([]event.DomainEvent(nil), b.pending[n:]...)
}

// Clear drops every buffered event.
func (b *Events) Clear() {
	b.pending = nil
}

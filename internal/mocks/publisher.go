package mocks

import (
	"context"
	"sync"

	"github.com/lllypuk/corebus/internal/domain/event"
)

// RecordingPublisher implements event.Publisher for testing. It records every
// published event and can be told to fail on the n-th call.
type RecordingPublisher struct {
	mu        sync.RWMutex
	published []event.DomainEvent
	calls     int
	failOn    int
	err       error
}

// NewRecordingPublisher creates a publisher that accepts everything.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// FailOnCall makes the n-th Publish call (1-based) and every later one return err.
func (p *RecordingPublisher) FailOnCall(n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failOn = n
	p.err = err
}

// Publish records the event
func (p *RecordingPublisher) Publish(_ context.Context, evt event.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.failOn > 0 && p.calls >= p.failOn {
		return p.err
	}
	p.published = append(p.published, evt)
	return nil
}

// PublishedCount returns the number of published events
func (p *RecordingPublisher) PublishedCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.published)
}

// PublishedEvents returns all published events
func (p *RecordingPublisher) PublishedEvents() []event.DomainEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]event.DomainEvent{}, p.published...)
}

// GetPublishedEventsByType returns events of a specific type
func (p *RecordingPublisher) GetPublishedEventsByType(eventType string) []event.DomainEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var events []event.DomainEvent
	for _, evt := range p.published {
		if evt.EventType() == eventType {
			events = append(events, evt)
		}
	}
	return events
}

// Reset clears recorded events and injected failures
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.published = nil
	p.calls = 0
	p.failOn = 0
	p.err = nil
}

var _ event.Publisher = (*RecordingPublisher)(nil)

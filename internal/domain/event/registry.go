package event

import (
	"encoding/json"
	"fmt"
	"sync"
)

// baseRestorer is satisfied by every struct embedding BaseEvent.
type baseRestorer interface {
	restoreBase(base BaseEvent)
}

func (e *BaseEvent) restoreBase(base BaseEvent) { *e = base }

// Registry maps event types to constructors of their concrete Go types, so
// that envelopes read back from the outbox or Redis can be turned into the
// same typed events the aggregates recorded.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]func() DomainEvent
}

// NewRegistry creates an empty event type registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() DomainEvent)}
}

// Register binds eventType to a factory returning a pointer to a zero event.
// Registering the same type again replaces the factory.
func (r *Registry) Register(eventType string, factory func() DomainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[eventType] = factory
}

// Known reports whether eventType has a registered factory.
func (r *Registry) Known(eventType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[eventType]
	return ok
}

// Decode rebuilds a domain event from its envelope. Unknown event types are
// returned as *RawEvent.
func (r *Registry) Decode(env Envelope) (DomainEvent, error) {
	r.mu.RLock()
	factory, ok := r.factories[env.EventType]
	r.mu.RUnlock()

	if !ok {
		return env.Event(), nil
	}

	evt := factory()
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, evt); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", env.EventType, err)
		}
	}

	if restorer, isRestorer := evt.(baseRestorer); isRestorer {
		restorer.restoreBase(BaseEvent{
			eventID:       env.ID,
			eventType:     env.EventType,
			aggregateID:   env.AggregateID,
			aggregateType: env.AggregateType,
			occurredAt:    env.OccurredAt,
			version:       env.Version,
			metadata:      env.Metadata,
		})
	}

	return evt, nil
}

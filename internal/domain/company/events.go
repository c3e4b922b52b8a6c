package company

import (
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

// AggregateType is the aggregate type recorded on company events
const AggregateType = "Company"

// Event types
const (
	EventTypeCreated     = "company.created"
	EventTypeRenamed     = "company.renamed"
	EventTypeDeactivated = "company.deactivated"
)

// Created is recorded when a company is created.
type Created struct {
	event.BaseEvent

	Name string `json:"name"`
	Code string `json:"code"`
}

// NewCreated creates a Created event.
func NewCreated(id uuid.UUID, name Name, code Code, version int, metadata event.Metadata) *Created {
	return &Created{
		BaseEvent: event.NewBaseEvent(EventTypeCreated, id.String(), AggregateType, version, metadata),
		Name:      name.String(),
		Code:      code.String(),
	}
}

// Renamed is recorded when a company's display name changes.
type Renamed struct {
	event.BaseEvent

	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

// NewRenamed creates a Renamed event.
func NewRenamed(id uuid.UUID, oldName, newName Name, version int, metadata event.Metadata) *Renamed {
	return &Renamed{
		BaseEvent: event.NewBaseEvent(EventTypeRenamed, id.String(), AggregateType, version, metadata),
		OldName:   oldName.String(),
		NewName:   newName.String(),
	}
}

// Deactivated is recorded when a company is deactivated.
type Deactivated struct {
	event.BaseEvent

	Code string `json:"code"`
}

// NewDeactivated creates a Deactivated event.
func NewDeactivated(id uuid.UUID, code Code, version int, metadata event.Metadata) *Deactivated {
	return &Deactivated{
		BaseEvent: event.NewBaseEvent(EventTypeDeactivated, id.String(), AggregateType, version, metadata),
		Code:      code.String(),
	}
}

// RegisterEvents binds the company event types to their concrete structs.
func RegisterEvents(registry *event.Registry) {
	registry.Register(EventTypeCreated, func() event.DomainEvent { return &Created{} })
	registry.Register(EventTypeRenamed, func() event.DomainEvent { return &Renamed{} })
	registry.Register(EventTypeDeactivated, func() event.DomainEvent { return &Deactivated{} })
}

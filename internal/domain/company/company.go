// Package company is the company bounded context: the Company aggregate,
// its value objects, events, errors and storage contract.
package company

import (
	"time"

	"github.com/lllypuk/corebus/internal/domain/aggregate"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/domain/result"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

// Company is the aggregate root of the company context.
type Company struct {
	id        uuid.UUID
	name      Name
	code      Code
	active    bool
	createdAt time.Time
	updatedAt time.Time

	version int
	events  aggregate.Events
}

// New creates an active company and records a Created event.
// Name and Code must come from NewName and NewCode.
func New(name Name, code Code, metadata event.Metadata) result.Result[*Company] {
	if name.IsZero() {
		return result.Fail[*Company](errs.NewValidationError("name", name.String(), "is required"))
	}
	if code.IsZero() {
		return result.Fail[*Company](errs.NewValidationError("code", code.String(), "is required"))
	}

	now := time.Now().UTC()
	c := &Company{
		id:        uuid.NewUUID(),
		name:      name,
		code:      code,
		active:    true,
		createdAt: now,
		updatedAt: now,
	}
	c.record(NewCreated(c.id, name, code, c.version+1, metadata))

	return result.Ok(c)
}

// Reconstruct rebuilds a company from storage without recording events.
// Used by repositories only.
func Reconstruct(
	id uuid.UUID,
	name, code string,
	active bool,
	createdAt, updatedAt time.Time,
	version int,
) *Company {
	return &Company{
		id:        id,
		name:      Name{value: name},
		code:      Code{value: code},
		active:    active,
		createdAt: createdAt,
		updatedAt: updatedAt,
		version:   version,
	}
}

// Rename changes the display name. Renaming to an equal name is a no-op.
func (c *Company) Rename(name Name, metadata event.Metadata) error {
	if name.IsZero() {
		return errs.NewValidationError("name", name.String(), "is required")
	}
	if !c.active {
		return errs.NewStateError("company", c.id.String(), "cannot rename an inactive company")
	}
	if c.name == name {
		return nil
	}

	old := c.name
	c.name = name
	c.updatedAt = time.Now().UTC()
	c.record(NewRenamed(c.id, old, name, c.version+1, metadata))
	return nil
}

// Deactivate marks the company inactive.
func (c *Company) Deactivate(metadata event.Metadata) error {
	if !c.active {
		return errs.NewStateError("company", c.id.String(), "already inactive")
	}

	c.active = false
	c.updatedAt = time.Now().UTC()
	c.record(NewDeactivated(c.id, c.code, c.version+1, metadata))
	return nil
}

func (c *Company) record(evt event.DomainEvent) {
	c.version++
	c.events.Record(evt)
}

func (c *Company) ID() uuid.UUID        { return c.id }
func (c *Company) Name() Name           { return c.name }
func (c *Company) Code() Code           { return c.code }
func (c *Company) IsActive() bool       { return c.active }
func (c *Company) CreatedAt() time.Time { return c.createdAt }
func (c *Company) UpdatedAt() time.Time { return c.updatedAt }

// Version is incremented once per recorded event.
func (c *Company) Version() int { return c.version }

// PendingEvents returns the uncommitted events in recording order.
func (c *Company) PendingEvents() []event.DomainEvent { return c.events.Pending() }

// MarkPublished drops the first n pending events.
func (c *Company) MarkPublished(n int) { c.events.MarkPublished(n) }

// ClearPending drops every pending event.
func (c *Company) ClearPending() { c.events.Clear() }

var _ aggregate.Root = (*Company)(nil)

package bus

import (
	"errors"
	"fmt"

	"github.com/lllypuk/corebus/internal/domain/errs"
)

var (
	// ErrResultTypeMismatch is wrapped when a handler's value does not match
	// the result type requested by the caller.
	ErrResultTypeMismatch = errors.New("handler result type mismatch")

	// ErrPayloadTypeMismatch is wrapped when a message reaches a handler
	// registered for a different Go type under the same name.
	ErrPayloadTypeMismatch = errors.New("message payload type mismatch")

	ErrNilEvent   = errors.New("event cannot be nil")
	ErrNilHandler = errors.New("handler cannot be nil")
	ErrEmptyName  = errors.New("message name cannot be empty")
	ErrNilMessage = errors.New("message cannot be nil")
)

// NoHandlerRegisteredError is returned when a command or query has no handler.
type NoHandlerRegisteredError struct {
	MessageKind MessageKind
	Name        string
}

func (e *NoHandlerRegisteredError) Error() string {
	return fmt.Sprintf("no handler registered for %s %q", e.MessageKind, e.Name)
}

func (e *NoHandlerRegisteredError) Kind() errs.Kind { return errs.KindNoHandler }

// DuplicateHandlerError is returned when a second handler is bound to a name.
type DuplicateHandlerError struct {
	MessageKind MessageKind
	Name        string
}

func (e *DuplicateHandlerError) Error() string {
	return fmt.Sprintf("handler already registered for %s %q", e.MessageKind, e.Name)
}

func (e *DuplicateHandlerError) Kind() errs.Kind { return errs.KindDuplicateHandler }

var (
	_ errs.AppError = (*NoHandlerRegisteredError)(nil)
	_ errs.AppError = (*DuplicateHandlerError)(nil)
)

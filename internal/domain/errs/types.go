package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports a value that failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Kind() Kind { return KindValidation }

// Unwrap lets callers match any validation failure with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NotFoundError reports a missing aggregate.
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Kind() Kind { return KindNotFound }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// StateError reports an operation rejected by the aggregate's current state.
type StateError struct {
	Resource string
	ID       string
	Reason   string
}

// NewStateError creates a StateError.
func NewStateError(resource, id, reason string) *StateError {
	return &StateError{Resource: resource, ID: id, Reason: reason}
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Resource, e.ID, e.Reason)
}

func (e *StateError) Kind() Kind { return KindInvalidState }

func (e *StateError) Unwrap() error { return ErrInvalidState }

// ConflictError reports a uniqueness violation that storage detected but
// that could not be attributed to a specific field.
type ConflictError struct {
	Resource string
	Reason   string
}

// NewConflictError creates a ConflictError.
func NewConflictError(resource, reason string) *ConflictError {
	return &ConflictError{Resource: resource, Reason: reason}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Resource, e.Reason)
}

func (e *ConflictError) Kind() Kind { return KindConflict }

func (e *ConflictError) Unwrap() error { return ErrAlreadyExists }

// UnexpectedError wraps an infrastructure fault or a recovered panic.
// Error() exposes only a generic message; the cause is reachable through
// Unwrap for logging.
type UnexpectedError struct {
	Cause error
}

// NewUnexpectedError wraps cause. A nil cause is recorded as "unknown cause".
func NewUnexpectedError(cause error) *UnexpectedError {
	if cause == nil {
		cause = errors.New("unknown cause")
	}
	return &UnexpectedError{Cause: cause}
}

// FromPanic converts a recovered panic value into an UnexpectedError.
func FromPanic(recovered any) *UnexpectedError {
	if err, ok := recovered.(error); ok {
		return NewUnexpectedError(fmt.Errorf("panic: %w", err))
	}
	return NewUnexpectedError(fmt.Errorf("panic: %v", recovered))
}

func (e *UnexpectedError) Error() string { return "an unexpected error occurred" }

func (e *UnexpectedError) Kind() Kind { return KindUnexpected }

func (e *UnexpectedError) Unwrap() error { return e.Cause }

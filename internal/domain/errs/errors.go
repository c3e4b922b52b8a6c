// Package errs defines the error taxonomy shared by the domain, the
// application layer and the dispatch engine.
package errs

import "errors"

var (
	// ErrNotFound is returned when an aggregate or record does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned by storage on a uniqueness violation
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput is returned when input data is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState is returned when an operation is not allowed in the aggregate's current state
	ErrInvalidState = errors.New("invalid aggregate state")

	// ErrConcurrentModification is returned when a version conflict occurs
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// Kind discriminates the closed set of application failures.
// Outer layers map a Kind to a transport status.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindConflict         Kind = "conflict"
	KindNotFound         Kind = "not_found"
	KindInvalidState     Kind = "invalid_state"
	KindUnexpected       Kind = "unexpected"
	KindNoHandler        Kind = "no_handler"
	KindDuplicateHandler Kind = "duplicate_handler"
)

// AppError is an error that belongs to the taxonomy.
type AppError interface {
	error
	Kind() Kind
}

// KindOf returns the Kind of the first AppError in err's chain,
// or KindUnexpected for anything outside the taxonomy.
func KindOf(err error) Kind {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}
	return KindUnexpected
}

// Package result provides Result and Either values for returning typed,
// recoverable failures without panics or sentinel zero values.
package result

import "fmt"

// Result holds either a success value or a failure error. Exactly one is set.
type Result[T any] struct {
	value T
	err   error
}

// Outcome is the non-generic view of a Result used by Combine.
type Outcome interface {
	IsFailure() bool
	Err() error
}

// Ok returns a successful Result holding v.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail returns a failed Result. A nil err is a programming error.
func Fail[T any](err error) Result[T] {
	if err == nil {
		panic("result: Fail called with nil error")
	}
	return Result[T]{err: err}
}

// Of builds a Result from the conventional (value, error) pair.
func Of[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

// IsSuccess reports whether r holds a value.
func (r Result[T]) IsSuccess() bool { return r.err == nil }

// IsFailure reports whether r holds an error.
func (r Result[T]) IsFailure() bool { return r.err != nil }

// Value returns the success value. Calling it on a failure panics:
// callers must check IsSuccess first.
func (r Result[T]) Value() T {
	if r.err != nil {
		panic(fmt.Sprintf("result: Value called on failure: %v", r.err))
	}
	return r.value
}

// Err returns the failure, or nil on success.
func (r Result[T]) Err() error { return r.err }

// ValueOr returns the success value or def on failure.
func (r Result[T]) ValueOr(def T) T {
	if r.err != nil {
		return def
	}
	return r.value
}

// Unpack returns the (value, error) pair.
func (r Result[T]) Unpack() (T, error) {
	return r.value, r.err
}

// Map applies fn to the value of a success and passes failures through unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return Ok(fn(r.value))
}

// FlatMap chains a Result-returning step after a success.
func FlatMap[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return fn(r.value)
}

// Combine is an all-or-nothing gate over independent results.
// It returns the first failure in argument order, or an empty success.
// Later failures are not collected.
func Combine(results ...Outcome) Result[struct{}] {
	for _, r := range results {
		if r.IsFailure() {
			return Fail[struct{}](r.Err())
		}
	}
	return Ok(struct{}{})
}

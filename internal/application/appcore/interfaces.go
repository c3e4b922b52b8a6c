// Package appcore provides core application interfaces and shared utilities.
package appcore

import (
	"context"
	"errors"

	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/result"
)

// UseCase is the contract of every command-side use case.
// C is the command (input), R the success value.
type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) result.Either[errs.AppError, R]
}

// Succeed wraps a success value.
func Succeed[R any](value R) result.Either[errs.AppError, R] {
	return result.Right[errs.AppError](value)
}

// Reject returns err as a Left. Errors outside the taxonomy become
// *errs.UnexpectedError so callers only ever see known kinds.
func Reject[R any](err error) result.Either[errs.AppError, R] {
	return result.Left[errs.AppError, R](AsAppError(err))
}

// AsAppError returns the first AppError in err's chain, or wraps err in an
// UnexpectedError.
func AsAppError(err error) errs.AppError {
	if err == nil {
		return errs.NewUnexpectedError(nil)
	}
	var appErr errs.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return errs.NewUnexpectedError(err)
}

// RecoverInto turns a panic in the calling use case into a Left
// UnexpectedError. It must be deferred directly:
//
//	defer appcore.RecoverInto(&res)
func RecoverInto[R any](out *result.Either[errs.AppError, R]) {
	if recovered := recover(); recovered != nil {
		*out = result.Left[errs.AppError, R](errs.FromPanic(recovered))
	}
}

// ToResult flattens a use-case outcome into the Result handed back by the bus.
func ToResult[R any](e result.Either[errs.AppError, R]) result.Result[R] {
	return result.EitherToResult(e)
}

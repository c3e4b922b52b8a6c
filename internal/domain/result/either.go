package result

import "fmt"

// Either is a two-sided value: Left by convention carries a failure,
// Right carries the success payload.
type Either[L, R any] struct {
	left    L
	right   R
	isRight bool
}

// Left builds a left-sided Either.
func Left[L, R any](l L) Either[L, R] {
	return Either[L, R]{left: l}
}

// Right builds a right-sided Either.
func Right[L, R any](r R) Either[L, R] {
	return Either[L, R]{right: r, isRight: true}
}

// IsLeft reports whether e holds a left value.
func (e Either[L, R]) IsLeft() bool { return !e.isRight }

// IsRight reports whether e holds a right value.
func (e Either[L, R]) IsRight() bool { return e.isRight }

// LeftValue returns the left value and panics on a right-sided Either.
func (e Either[L, R]) LeftValue() L {
	if e.isRight {
		panic("result: LeftValue called on Right")
	}
	return e.left
}

// RightValue returns the right value and panics on a left-sided Either.
func (e Either[L, R]) RightValue() R {
	if !e.isRight {
		panic(fmt.Sprintf("result: RightValue called on Left: %v", e.left))
	}
	return e.right
}

// Fold collapses e into a single value.
func Fold[L, R, T any](e Either[L, R], onLeft func(L) T, onRight func(R) T) T {
	if e.isRight {
		return onRight(e.right)
	}
	return onLeft(e.left)
}

// EitherToResult converts an Either whose left side is an error into a Result.
func EitherToResult[L error, R any](e Either[L, R]) Result[R] {
	if e.isRight {
		return Ok(e.right)
	}
	return Fail[R](e.left)
}

// Package uuid provides the identity type shared by aggregates and messages.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// UUID is the string form of an identifier. The zero value means "unset".
type UUID string

// NewUUID returns a new time-ordered (v7) identifier.
// Falls back to a random v4 identifier if the clock source fails.
func NewUUID() UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return UUID(uuid.NewString())
	}
	return UUID(id.String())
}

// ParseUUID validates s and returns it in canonical lower-case form.
func ParseUUID(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse uuid %q: %w", s, err)
	}
	return UUID(id.String()), nil
}

// MustParseUUID is ParseUUID that panics on invalid input. Use in tests and fixtures only.
func MustParseUUID(s string) UUID {
	id, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (u UUID) String() string { return string(u) }

// IsZero reports whether the identifier is unset.
func (u UUID) IsZero() bool { return u == "" }

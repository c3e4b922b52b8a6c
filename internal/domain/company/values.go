package company

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/result"
)

const (
	// MaxNameLength is the maximum company name length in characters
	MaxNameLength = 100
	// MinCodeLength is the minimum company code length
	MinCodeLength = 2
	// MaxCodeLength is the maximum company code length
	MaxCodeLength = 20
)

var codePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]*$`)

// Name is a validated company display name.
type Name struct {
	value string
}

// NewName trims raw and validates it.
func NewName(raw string) result.Result[Name] {
	value := strings.TrimSpace(raw)
	if value == "" {
		return result.Fail[Name](errs.NewValidationError("name", raw, "is required"))
	}
	if utf8.RuneCountInString(value) > MaxNameLength {
		return result.Fail[Name](errs.NewValidationError("name", raw,
			fmt.Sprintf("must be at most %d characters", MaxNameLength)))
	}
	return result.Ok(Name{value: value})
}

func (n Name) String() string { return n.value }

// IsZero reports whether n was not built through NewName.
func (n Name) IsZero() bool { return n.value == "" }

// Equals compares names case-insensitively.
func (n Name) Equals(other Name) bool { return strings.EqualFold(n.value, other.value) }

// Code is a validated, upper-case company code such as "ACME".
type Code struct {
	value string
}

// NewCode trims and upper-cases raw, then validates it.
func NewCode(raw string) result.Result[Code] {
	value := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case value == "":
		return result.Fail[Code](errs.NewValidationError("code", raw, "is required"))
	case len(value) < MinCodeLength || len(value) > MaxCodeLength:
		return result.Fail[Code](errs.NewValidationError("code", raw,
			fmt.Sprintf("must be between %d and %d characters", MinCodeLength, MaxCodeLength)))
	case !codePattern.MatchString(value):
		return result.Fail[Code](errs.NewValidationError("code", raw,
			"may contain only letters, digits, '-' and '_' and must start with a letter or digit"))
	}
	return result.Ok(Code{value: value})
}

func (c Code) String() string { return c.value }

// IsZero reports whether c was not built through NewCode.
func (c Code) IsZero() bool { return c.value == "" }

package appcore

import (
	"fmt"

	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

// Pagination limits for list queries.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ValidateUUID проверяет, что UUID валиден и не пустой
func ValidateUUID(field string, id uuid.UUID) error {
	if id.IsZero() {
		return errs.NewValidationError(field, id.String(), "is required")
	}
	if _, err := uuid.ParseUUID(id.String()); err != nil {
		return errs.NewValidationError(field, id.String(), "must be a valid UUID")
	}
	return nil
}

// ValidateNonNegative проверяет, что число неотрицательное
func ValidateNonNegative(field string, value int) error {
	if value < 0 {
		return errs.NewValidationError(field, value, "must be non-negative")
	}
	return nil
}

// ValidateRange проверяет, что значение находится в заданном диапазоне
func ValidateRange(field string, value, minValue, maxValue int) error {
	if value < minValue || value > maxValue {
		return errs.NewValidationError(field, value, fmt.Sprintf("must be between %d and %d", minValue, maxValue))
	}
	return nil
}

// NormalizePage applies the default limit to a zero limit and validates the
// resulting window.
func NormalizePage(offset, limit int) (int, int, error) {
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if err := ValidateNonNegative("offset", offset); err != nil {
		return 0, 0, err
	}
	if err := ValidateRange("limit", limit, 1, MaxPageLimit); err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

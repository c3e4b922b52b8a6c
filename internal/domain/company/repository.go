package company

import (
	"context"

	"github.com/lllypuk/corebus/internal/domain/uuid"
)

// Repository is the storage contract for companies. Implementations return
// errs.ErrNotFound for a missing company and errs.ErrAlreadyExists when a
// unique code or name is violated at write time. Any other error is an
// opaque infrastructure fault.
type Repository interface {
	// Create inserts a new company.
	Create(ctx context.Context, c *Company) error

	// Save updates an existing company.
	Save(ctx context.Context, c *Company) error

	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
	FindByCode(ctx context.Context, code Code) (*Company, error)

	// ExistsWithCode reports whether any company uses code.
	ExistsWithCode(ctx context.Context, code Code) (bool, error)

	// ExistsWithName reports whether any company uses name (case-insensitive).
	ExistsWithName(ctx context.Context, name Name) (bool, error)

	// List returns companies ordered by code.
	List(ctx context.Context, offset, limit int) ([]*Company, error)
	Count(ctx context.Context) (int, error)
}

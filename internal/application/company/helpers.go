package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/corebus/internal/domain/aggregate"
	companydomain "github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

const resourceCompany = "company"

// Option configures a use case.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for post-persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// unexpected wraps a repository fault. Callers get only the generic message.
func unexpected(operation string, err error) *errs.UnexpectedError {
	return errs.NewUnexpectedError(fmt.Errorf("%s: %w", operation, err))
}

// loadCompany maps a missing company to NotFoundError and anything else to
// UnexpectedError.
func loadCompany(ctx context.Context, repo companydomain.Repository, id uuid.UUID) (*companydomain.Company, error) {
	c, err := repo.FindByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.NewNotFoundError(resourceCompany, id.String())
	}
	if err != nil {
		return nil, unexpected("failed to load company", err)
	}
	return c, nil
}

// commitEvents flushes pending events after the company has been persisted.
// The change is already durable, so a failure is logged and the remaining
// events stay pending.
func commitEvents(
	ctx context.Context,
	logger *slog.Logger,
	publisher event.Publisher,
	c *companydomain.Company,
) {
	if err := aggregate.Commit(ctx, c, publisher); err != nil {
		logger.WarnContext(ctx, "failed to commit company events",
			slog.String("company_id", c.ID().String()),
			slog.Int("pending", len(c.PendingEvents())),
			slog.String("error", err.Error()),
		)
	}
}

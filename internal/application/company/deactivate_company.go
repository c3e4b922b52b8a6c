package company

import (
	"context"
	"log/slog"

	"github.com/lllypuk/corebus/internal/application/appcore"
	companydomain "github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/domain/result"
)

// DeactivateCompanyUseCase handles deactivating a company
type DeactivateCompanyUseCase struct {
	repo      companydomain.Repository
	publisher event.Publisher
	logger    *slog.Logger
}

// NewDeactivateCompanyUseCase creates a new DeactivateCompanyUseCase
func NewDeactivateCompanyUseCase(
	repo companydomain.Repository,
	publisher event.Publisher,
	opts ...Option,
) *DeactivateCompanyUseCase {
	o := buildOptions(opts)
	return &DeactivateCompanyUseCase{
		repo:      repo,
		publisher: publisher,
		logger:    o.logger,
	}
}

// Execute deactivates the company. Deactivating twice is an invalid state.
func (uc *DeactivateCompanyUseCase) Execute(
	ctx context.Context,
	cmd DeactivateCompanyCommand,
) (res result.Either[errs.AppError, *companydomain.Company]) {
	defer appcore.RecoverInto(&res)

	if err := appcore.ValidateUUID("companyID", cmd.CompanyID); err != nil {
		return appcore.Reject[*companydomain.Company](err)
	}

	company, err := loadCompany(ctx, uc.repo, cmd.CompanyID)
	if err != nil {
		return appcore.Reject[*companydomain.Company](err)
	}

	if deactivateErr := company.Deactivate(appcore.EventMetadata(ctx)); deactivateErr != nil {
		return appcore.Reject[*companydomain.Company](deactivateErr)
	}

	if saveErr := uc.repo.Save(ctx, company); saveErr != nil {
		return appcore.Reject[*companydomain.Company](unexpected("failed to save company", saveErr))
	}

	commitEvents(ctx, uc.logger, uc.publisher, company)

	return appcore.Succeed(company)
}

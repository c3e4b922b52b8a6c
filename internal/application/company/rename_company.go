package company

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lllypuk/corebus/internal/application/appcore"
	companydomain "github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/domain/result"
)

// RenameCompanyUseCase handles renaming a company
type RenameCompanyUseCase struct {
	repo      companydomain.Repository
	publisher event.Publisher
	logger    *slog.Logger
}

// NewRenameCompanyUseCase creates a new RenameCompanyUseCase
func NewRenameCompanyUseCase(
	repo companydomain.Repository,
	publisher event.Publisher,
	opts ...Option,
) *RenameCompanyUseCase {
	o := buildOptions(opts)
	return &RenameCompanyUseCase{
		repo:      repo,
		publisher: publisher,
		logger:    o.logger,
	}
}

// Execute performs renaming
func (uc *RenameCompanyUseCase) Execute(
	ctx context.Context,
	cmd RenameCompanyCommand,
) (res result.Either[errs.AppError, *companydomain.Company]) {
	defer appcore.RecoverInto(&res)

	if err := appcore.ValidateUUID("companyID", cmd.CompanyID); err != nil {
		return appcore.Reject[*companydomain.Company](err)
	}
	name := companydomain.NewName(cmd.Name)
	if name.IsFailure() {
		return appcore.Reject[*companydomain.Company](name.Err())
	}

	company, err := loadCompany(ctx, uc.repo, cmd.CompanyID)
	if err != nil {
		return appcore.Reject[*companydomain.Company](err)
	}

	// A change of letter case keeps the same name, which would otherwise
	// collide with the company itself.
	if !company.Name().Equals(name.Value()) {
		taken, existsErr := uc.repo.ExistsWithName(ctx, name.Value())
		if existsErr != nil {
			return appcore.Reject[*companydomain.Company](unexpected("failed to check company name", existsErr))
		}
		if taken {
			return appcore.Reject[*companydomain.Company](companydomain.NewNameExistError(name.Value()))
		}
	}

	if renameErr := company.Rename(name.Value(), appcore.EventMetadata(ctx)); renameErr != nil {
		return appcore.Reject[*companydomain.Company](renameErr)
	}
	if len(company.PendingEvents()) == 0 {
		return appcore.Succeed(company)
	}

	if saveErr := uc.repo.Save(ctx, company); saveErr != nil {
		// Only the name changes here, so a storage conflict is a name clash.
		if errors.Is(saveErr, errs.ErrAlreadyExists) {
			return appcore.Reject[*companydomain.Company](companydomain.NewNameExistError(name.Value()))
		}
		return appcore.Reject[*companydomain.Company](unexpected("failed to save company", saveErr))
	}

	commitEvents(ctx, uc.logger, uc.publisher, company)

	return appcore.Succeed(company)
}

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

// CreateCompanyUseCase handles the creation of a new company
type CreateCompanyUseCase struct {
	repo      companydomain.Repository
	publisher event.Publisher
	logger    *slog.Logger
}

// NewCreateCompanyUseCase creates a new CreateCompanyUseCase
func NewCreateCompanyUseCase(
	repo companydomain.Repository,
	publisher event.Publisher,
	opts ...Option,
) *CreateCompanyUseCase {
	o := buildOptions(opts)
	return &CreateCompanyUseCase{
		repo:      repo,
		publisher: publisher,
		logger:    o.logger,
	}
}

// Execute validates the input, checks code then name uniqueness, persists the
// company and commits its events. The repository is not touched when the
// input is invalid.
func (uc *CreateCompanyUseCase) Execute(
	ctx context.Context,
	cmd CreateCompanyCommand,
) (res result.Either[errs.AppError, *companydomain.Company]) {
	defer appcore.RecoverInto(&res)

	name := companydomain.NewName(cmd.Name)
	code := companydomain.NewCode(cmd.Code)
	if combined := result.Combine(name, code); combined.IsFailure() {
		return appcore.Reject[*companydomain.Company](combined.Err())
	}

	created := companydomain.New(name.Value(), code.Value(), appcore.EventMetadata(ctx))
	if created.IsFailure() {
		return appcore.Reject[*companydomain.Company](created.Err())
	}
	company := created.Value()

	if err := uc.ensureUnique(ctx, company); err != nil {
		return appcore.Reject[*companydomain.Company](err)
	}

	if err := uc.repo.Create(ctx, company); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return appcore.Reject[*companydomain.Company](uc.storeConflict(ctx, company))
		}
		return appcore.Reject[*companydomain.Company](unexpected("failed to create company", err))
	}

	commitEvents(ctx, uc.logger, uc.publisher, company)

	return appcore.Succeed(company)
}

// ensureUnique checks the code first, then the name.
func (uc *CreateCompanyUseCase) ensureUnique(ctx context.Context, company *companydomain.Company) error {
	codeTaken, err := uc.repo.ExistsWithCode(ctx, company.Code())
	if err != nil {
		return unexpected("failed to check company code", err)
	}
	if codeTaken {
		return companydomain.NewCodeExistError(company.Code())
	}

	nameTaken, err := uc.repo.ExistsWithName(ctx, company.Name())
	if err != nil {
		return unexpected("failed to check company name", err)
	}
	if nameTaken {
		return companydomain.NewNameExistError(company.Name())
	}
	return nil
}

// storeConflict names the field behind a uniqueness violation reported by
// storage after ensureUnique passed, which happens when two creates race.
func (uc *CreateCompanyUseCase) storeConflict(ctx context.Context, company *companydomain.Company) error {
	if err := uc.ensureUnique(ctx, company); err != nil {
		return err
	}
	return errs.NewConflictError(resourceCompany, "code or name already taken")
}

package company_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/corebus/internal/application/company"
	companydomain "github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/infrastructure/repository/memory"
	"github.com/lllypuk/corebus/internal/mocks"
)

// staleRepository answers the first staleChecks existence checks with false,
// as if another writer committed between the check and the write. A negative
// staleChecks keeps every check stale.
type staleRepository struct {
	companydomain.Repository

	staleChecks int64
	checks      atomic.Int64
}

func (r *staleRepository) stale() bool {
	n := r.checks.Add(1)
	return r.staleChecks < 0 || n <= r.staleChecks
}

func (r *staleRepository) ExistsWithCode(ctx context.Context, code companydomain.Code) (bool, error) {
	if r.stale() {
		return false, nil
	}
	return r.Repository.ExistsWithCode(ctx, code)
}

func (r *staleRepository) ExistsWithName(ctx context.Context, name companydomain.Name) (bool, error) {
	if r.stale() {
		return false, nil
	}
	return r.Repository.ExistsWithName(ctx, name)
}

func TestCreateCompanyUseCase_StorageConflict(t *testing.T) {
	t.Run("recheck names the taken code", func(t *testing.T) {
		store := memory.NewCompanyRepository()
		first := company.NewCreateCompanyUseCase(store, mocks.NewRecordingPublisher())
		requireRight(t, first.Execute(testContext(), company.CreateCompanyCommand{Name: "Acme", Code: "ACME"}))

		publisher := mocks.NewRecordingPublisher()
		racing := company.NewCreateCompanyUseCase(&staleRepository{Repository: store, staleChecks: 2}, publisher)

		err := requireLeft(t, racing.Execute(testContext(), company.CreateCompanyCommand{Name: "Other", Code: "acme"}))

		var codeErr *companydomain.CodeExistError
		require.ErrorAs(t, err, &codeErr)
		assert.Equal(t, "ACME", codeErr.Code)
		assert.Zero(t, publisher.PublishedCount())
	})

	t.Run("recheck names the taken name", func(t *testing.T) {
		store := memory.NewCompanyRepository()
		first := company.NewCreateCompanyUseCase(store, mocks.NewRecordingPublisher())
		requireRight(t, first.Execute(testContext(), company.CreateCompanyCommand{Name: "Acme", Code: "ACME"}))

		racing := company.NewCreateCompanyUseCase(&staleRepository{Repository: store, staleChecks: 2},
			mocks.NewRecordingPublisher())

		err := requireLeft(t, racing.Execute(testContext(), company.CreateCompanyCommand{Name: "acme", Code: "OTHER"}))

		var nameErr *companydomain.NameExistError
		require.ErrorAs(t, err, &nameErr)
	})

	t.Run("unattributed conflict keeps the conflict kind", func(t *testing.T) {
		store := memory.NewCompanyRepository()
		useCase := company.NewCreateCompanyUseCase(&staleRepository{Repository: store, staleChecks: -1},
			mocks.NewRecordingPublisher())

		requireRight(t, useCase.Execute(testContext(), company.CreateCompanyCommand{Name: "Acme", Code: "ACME"}))
		err := requireLeft(t, useCase.Execute(testContext(), company.CreateCompanyCommand{Name: "Acme", Code: "ACME"}))

		assert.Equal(t, errs.KindConflict, err.Kind())
		assert.ErrorIs(t, err, errs.ErrAlreadyExists)
		var conflict *errs.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})
}

func TestRenameCompanyUseCase_StorageConflict(t *testing.T) {
	store := memory.NewCompanyRepository()
	create := company.NewCreateCompanyUseCase(store, mocks.NewRecordingPublisher())
	requireRight(t, create.Execute(testContext(), company.CreateCompanyCommand{Name: "Acme", Code: "ACME"}))
	globex := requireRight(t, create.Execute(testContext(), company.CreateCompanyCommand{Name: "Globex", Code: "GLOBEX"}))

	publisher := mocks.NewRecordingPublisher()
	rename := company.NewRenameCompanyUseCase(&staleRepository{Repository: store, staleChecks: -1}, publisher)

	err := requireLeft(t, rename.Execute(testContext(),
		company.RenameCompanyCommand{CompanyID: globex.ID(), Name: "ACME"}))

	var nameErr *companydomain.NameExistError
	require.ErrorAs(t, err, &nameErr)
	assert.Equal(t, "ACME", nameErr.Name)
	assert.Zero(t, publisher.PublishedCount())
}

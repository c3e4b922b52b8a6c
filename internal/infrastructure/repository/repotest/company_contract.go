// Package repotest holds behaviour checks shared by every company.Repository
// implementation.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

// Factory returns an empty repository for one subtest.
type Factory func(t *testing.T) company.Repository

// NewCompany builds a committed company for seeding.
func NewCompany(t *testing.T, name, code string) *company.Company {
	t.Helper()

	created := company.New(
		company.NewName(name).Value(),
		company.NewCode(code).Value(),
		event.Metadata{},
	)
	require.NoError(t, created.Err())

	c := created.Value()
	c.ClearPending()
	return c
}

// RunCompanyRepository runs the storage contract against repositories built by newRepo.
func RunCompanyRepository(t *testing.T, newRepo Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("create then find by id and code", func(t *testing.T) {
		repo := newRepo(t)
		c := NewCompany(t, "Acme Corp", "ACME")
		require.NoError(t, repo.Create(ctx, c))

		byID, err := repo.FindByID(ctx, c.ID())
		require.NoError(t, err)
		assert.Equal(t, c.ID(), byID.ID())
		assert.Equal(t, "Acme Corp", byID.Name().String())
		assert.Equal(t, "ACME", byID.Code().String())
		assert.True(t, byID.IsActive())
		assert.Equal(t, c.Version(), byID.Version())
		assert.WithinDuration(t, c.CreatedAt(), byID.CreatedAt(), time.Millisecond)
		assert.Empty(t, byID.PendingEvents())

		byCode, err := repo.FindByCode(ctx, c.Code())
		require.NoError(t, err)
		assert.Equal(t, c.ID(), byCode.ID())
	})

	t.Run("missing company is not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByID(ctx, uuid.NewUUID())
		require.ErrorIs(t, err, errs.ErrNotFound)

		_, err = repo.FindByCode(ctx, company.NewCode("NOPE").Value())
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("duplicate code is rejected", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, NewCompany(t, "Acme", "ACME")))

		err := repo.Create(ctx, NewCompany(t, "Other", "ACME"))
		require.ErrorIs(t, err, errs.ErrAlreadyExists)
	})

	t.Run("duplicate name is rejected case-insensitively", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, NewCompany(t, "Acme", "ACME")))

		err := repo.Create(ctx, NewCompany(t, "ACME", "ACME2"))
		require.ErrorIs(t, err, errs.ErrAlreadyExists)
	})

	t.Run("exists checks", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, NewCompany(t, "Acme", "ACME")))

		ok, err := repo.ExistsWithCode(ctx, company.NewCode("acme").Value())
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsWithName(ctx, company.NewName("aCmE").Value())
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsWithCode(ctx, company.NewCode("OTHER").Value())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("save persists mutations", func(t *testing.T) {
		repo := newRepo(t)
		c := NewCompany(t, "Acme", "ACME")
		require.NoError(t, repo.Create(ctx, c))

		require.NoError(t, c.Rename(company.NewName("Acme Holdings").Value(), event.Metadata{}))
		require.NoError(t, c.Deactivate(event.Metadata{}))
		require.NoError(t, repo.Save(ctx, c))

		loaded, err := repo.FindByID(ctx, c.ID())
		require.NoError(t, err)
		assert.Equal(t, "Acme Holdings", loaded.Name().String())
		assert.False(t, loaded.IsActive())
		assert.Equal(t, c.Version(), loaded.Version())

		ok, err := repo.ExistsWithName(ctx, company.NewName("Acme").Value())
		require.NoError(t, err)
		assert.False(t, ok, "old name should be released")
	})

	t.Run("save of unknown company is not found", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.Save(ctx, NewCompany(t, "Ghost", "GHOST"))
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("list is ordered by code and paged", func(t *testing.T) {
		repo := newRepo(t)
		for _, code := range []string{"CHARLIE", "ALPHA", "BRAVO"} {
			require.NoError(t, repo.Create(ctx, NewCompany(t, "Company "+code, code)))
		}

		all, err := repo.List(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "ALPHA", all[0].Code().String())
		assert.Equal(t, "BRAVO", all[1].Code().String())
		assert.Equal(t, "CHARLIE", all[2].Code().String())

		page, err := repo.List(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "BRAVO", page[0].Code().String())

		past, err := repo.List(ctx, 5, 10)
		require.NoError(t, err)
		assert.Empty(t, past)

		total, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})
}

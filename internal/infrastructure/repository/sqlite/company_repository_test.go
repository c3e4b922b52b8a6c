package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/infrastructure/repository/repotest"
	"github.com/lllypuk/corebus/internal/infrastructure/repository/sqlite"
)

func openTestRepository(t *testing.T) *sqlite.CompanyRepository {
	t.Helper()

	repo, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "corebus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestCompanyRepository(t *testing.T) {
	repotest.RunCompanyRepository(t, func(t *testing.T) company.Repository {
		return openTestRepository(t)
	})
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), "  ")
	require.Error(t, err)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corebus.db")

	repo, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	c := repotest.NewCompany(t, "Acme", "ACME")
	require.NoError(t, repo.Create(ctx, c))
	require.NoError(t, repo.Close())

	reopened, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.FindByID(ctx, c.ID())
	require.NoError(t, err)
	assert.Equal(t, "Acme", loaded.Name().String())
}

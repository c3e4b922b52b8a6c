package company_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lllypuk/corebus/internal/application/appcore"
	companydomain "github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/domain/result"
	"github.com/lllypuk/corebus/internal/mocks"
)

// testContext creates a context for tests
func testContext() context.Context {
	return appcore.WithCorrelationID(context.Background(), "corr-test")
}

// seedCompany stores a committed company in repo
func seedCompany(t *testing.T, repo *mocks.MockCompanyRepository, name, code string) *companydomain.Company {
	t.Helper()
	created := companydomain.New(
		companydomain.NewName(name).Value(),
		companydomain.NewCode(code).Value(),
		event.Metadata{},
	)
	require.True(t, created.IsSuccess())
	c := created.Value()
	c.ClearPending()
	repo.Seed(c)
	return c
}

// requireLeft asserts a failed use case and returns its error
func requireLeft(t *testing.T, res result.Either[errs.AppError, *companydomain.Company]) errs.AppError {
	t.Helper()
	require.True(t, res.IsLeft(), "expected failure, got success")
	return res.LeftValue()
}

// requireRight asserts a successful use case and returns its value
func requireRight(t *testing.T, res result.Either[errs.AppError, *companydomain.Company]) *companydomain.Company {
	t.Helper()
	if res.IsLeft() {
		require.Failf(t, "expected success", "got %v", res.LeftValue())
	}
	return res.RightValue()
}

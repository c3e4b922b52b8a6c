package company_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/corebus/internal/application/company"
	"github.com/lllypuk/corebus/internal/bus"
	companydomain "github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/mocks"
)

func TestRegisterHandlers_EndToEnd(t *testing.T) {
	// Arrange
	commands := bus.NewCommandBus()
	queries := bus.NewQueryBus()
	events := bus.NewEventBus()
	repo := mocks.NewMockCompanyRepository()

	var received []string
	require.NoError(t, bus.Subscribe(events, companydomain.EventTypeCreated,
		func(_ context.Context, evt *companydomain.Created) error {
			received = append(received, evt.Code)
			return nil
		}))

	require.NoError(t, company.RegisterHandlers(commands, queries, repo, events, nil))

	// Act
	created := bus.DispatchCommand[*companydomain.Company](testContext(), commands,
		company.CreateCompanyCommand{Name: "Acme", Code: "acme"})

	// Assert
	require.True(t, created.IsSuccess(), "%v", created.Err())
	assert.Equal(t, []string{"ACME"}, received)

	found := bus.DispatchQuery[*companydomain.Company](testContext(), queries,
		company.FindCompanyByCodeQuery{Code: "ACME"})
	require.True(t, found.IsSuccess())
	assert.Equal(t, created.Value().ID(), found.Value().ID())

	list := bus.DispatchQuery[company.ListResult](testContext(), queries, company.ListCompaniesQuery{})
	require.True(t, list.IsSuccess())
	assert.Equal(t, 1, list.Value().Total)

	dup := bus.DispatchCommand[*companydomain.Company](testContext(), commands,
		company.CreateCompanyCommand{Name: "Acme 2", Code: "ACME"})
	assert.Equal(t, errs.KindConflict, errs.KindOf(dup.Err()))
	assert.Len(t, received, 1)
}

func TestRegisterHandlers_BindsEveryMessage(t *testing.T) {
	commands := bus.NewCommandBus()
	queries := bus.NewQueryBus()

	require.NoError(t, company.RegisterHandlers(commands, queries,
		mocks.NewMockCompanyRepository(), mocks.NewRecordingPublisher(), nil))

	assert.Equal(t, []string{"CreateCompany", "DeactivateCompany", "RenameCompany"}, commands.Handlers())
	assert.Equal(t, []string{"FindCompanyByCode", "GetCompany", "ListCompanies"}, queries.Handlers())

	err := company.RegisterHandlers(commands, queries, mocks.NewMockCompanyRepository(), event.PublisherFunc(nil), nil)
	var dup *bus.DuplicateHandlerError
	assert.ErrorAs(t, err, &dup)
}

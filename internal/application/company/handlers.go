package company

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lllypuk/corebus/internal/application/appcore"
	"github.com/lllypuk/corebus/internal/bus"
	companydomain "github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/domain/result"
)

// RegisterHandlers binds every company command and query to the buses.
// The publisher receives the events committed by the command side.
func RegisterHandlers(
	commands *bus.CommandBus,
	queries *bus.QueryBus,
	repo companydomain.Repository,
	publisher event.Publisher,
	logger *slog.Logger,
) error {
	if logger == nil {
		logger = slog.Default()
	}

	create := NewCreateCompanyUseCase(repo, publisher, WithLogger(logger))
	rename := NewRenameCompanyUseCase(repo, publisher, WithLogger(logger))
	deactivate := NewDeactivateCompanyUseCase(repo, publisher, WithLogger(logger))

	return errors.Join(
		bus.RegisterCommandHandler(commands, executeWith[CreateCompanyCommand, *companydomain.Company](create)),
		bus.RegisterCommandHandler(commands, executeWith[RenameCompanyCommand, *companydomain.Company](rename)),
		bus.RegisterCommandHandler(commands,
			executeWith[DeactivateCompanyCommand, *companydomain.Company](deactivate)),
		bus.RegisterQueryHandler(queries, NewGetCompanyHandler(repo).Handle),
		bus.RegisterQueryHandler(queries, NewFindCompanyByCodeHandler(repo).Handle),
		bus.RegisterQueryHandler(queries, NewListCompaniesHandler(repo).Handle),
	)
}

// executeWith adapts a use case to a command handler.
func executeWith[C bus.Command, R any](uc appcore.UseCase[C, R]) func(context.Context, C) result.Result[R] {
	return func(ctx context.Context, cmd C) result.Result[R] {
		return appcore.ToResult(uc.Execute(ctx, cmd))
	}
}

package bus

import (
	"context"
	"log/slog"

	"github.com/lllypuk/corebus/internal/domain/result"
)

// CommandHandlerFunc handles one command type.
type CommandHandlerFunc[C Command, R any] func(ctx context.Context, cmd C) result.Result[R]

// CommandBus routes each command to the single handler bound to its name.
type CommandBus struct {
	registry *registry
	dispatch Dispatcher
	logger   *slog.Logger
}

// NewCommandBus creates a command bus with the given middleware chain.
func NewCommandBus(opts ...Option) *CommandBus {
	o := buildOptions(opts)
	reg := newRegistry(KindCommand)
	return &CommandBus{
		registry: reg,
		dispatch: chain(reg.route, o.middlewares),
		logger:   o.logger,
	}
}

// RegisterCommandHandler binds h to the name reported by the zero value of C.
func RegisterCommandHandler[C Command, R any](
	b *CommandBus,
	h func(ctx context.Context, cmd C) result.Result[R],
) error {
	if h == nil {
		return ErrNilHandler
	}

	var zero C
	name := zero.CommandName()
	if err := b.registry.register(name, typedHandler[C, R](h)); err != nil {
		return err
	}

	b.logger.Debug("command handler registered", slog.String("command", name))
	return nil
}

// MustRegisterCommandHandler is like RegisterCommandHandler but panics on error.
func MustRegisterCommandHandler[C Command, R any](
	b *CommandBus,
	h func(ctx context.Context, cmd C) result.Result[R],
) {
	if err := RegisterCommandHandler(b, h); err != nil {
		panic(err)
	}
}

// DispatchCommand sends cmd to its handler and narrows the result to R.
// A missing handler, a handler panic and a result of the wrong type all come
// back as failures.
func DispatchCommand[R any](ctx context.Context, b *CommandBus, cmd Command) result.Result[R] {
	if cmd == nil {
		return result.Fail[R](ErrNilMessage)
	}

	msg := Message{Kind: KindCommand, Name: cmd.CommandName(), Payload: cmd}
	return typedResult[R](b.dispatch(ctx, msg), msg)
}

// HasHandler reports whether a handler is bound to name.
func (b *CommandBus) HasHandler(name string) bool { return b.registry.has(name) }

// Handlers returns the registered command names, sorted.
func (b *CommandBus) Handlers() []string { return b.registry.names() }

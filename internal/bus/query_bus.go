package bus

import (
	"context"
	"log/slog"

	"github.com/lllypuk/corebus/internal/domain/result"
)

// QueryHandlerFunc handles one query type.
type QueryHandlerFunc[Q Query, R any] func(ctx context.Context, q Q) result.Result[R]

// QueryBus routes each query to the single handler bound to its name.
type QueryBus struct {
	registry *registry
	dispatch Dispatcher
	logger   *slog.Logger
}

// NewQueryBus creates a query bus with the given middleware chain.
func NewQueryBus(opts ...Option) *QueryBus {
	o := buildOptions(opts)
	reg := newRegistry(KindQuery)
	return &QueryBus{
		registry: reg,
		dispatch: chain(reg.route, o.middlewares),
		logger:   o.logger,
	}
}

// RegisterQueryHandler binds h to the name reported by the zero value of Q. Query types
// must be plain structs, not pointers.
func RegisterQueryHandler[Q Query, R any](
	b *QueryBus,
	h func(ctx context.Context, q Q) result.Result[R],
) error {
	if h == nil {
		return ErrNilHandler
	}

	var zero Q
	name := zero.QueryName()
	if err := b.registry.register(name, typedHandler[Q, R](h)); err != nil {
		return err
	}

	b.logger.Debug("query handler registered", slog.String("query", name))
	return nil
}

// MustRegisterQueryHandler is like RegisterQueryHandler but panics on error.
func MustRegisterQueryHandler[Q Query, R any](
	b *QueryBus,
	h func(ctx context.Context, q Q) result.Result[R],
) {
	if err := RegisterQueryHandler(b, h); err != nil {
		panic(err)
	}
}

// DispatchQuery is the read-side counterpart of DispatchCommand.
func DispatchQuery[R any](ctx context.Context, b *QueryBus, q Query) result.Result[R] {
	if q == nil {
		return result.Fail[R](ErrNilMessage)
	}

	msg := Message{Kind: KindQuery, Name: q.QueryName(), Payload: q}
	return typedResult[R](b.dispatch(ctx, msg), msg)
}

// HasHandler reports whether a handler is bound to name.
func (b *QueryBus) HasHandler(name string) bool { return b.registry.has(name) }

// Handlers returns the registered query names, sorted.
func (b *QueryBus) Handlers() []string { return b.registry.names() }

package bus

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/result"
)

// registry holds exactly one Dispatcher per message name.
type registry struct {
	kind     MessageKind
	mu       sync.RWMutex
	handlers map[string]Dispatcher
}

func newRegistry(kind MessageKind) *registry {
	return &registry{
		kind:     kind,
		handlers: make(map[string]Dispatcher),
	}
}

func (r *registry) register(name string, handler Dispatcher) error {
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return &DuplicateHandlerError{MessageKind: r.kind, Name: name}
	}
	r.handlers[name] = handler
	return nil
}

func (r *registry) lookup(name string) (Dispatcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

func (r *registry) has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.handlers))
}

// route is the innermost Dispatcher of every bus: lookup, then invoke with
// panic recovery.
func (r *registry) route(ctx context.Context, msg Message) result.Result[any] {
	handler, ok := r.lookup(msg.Name)
	if !ok {
		return result.Fail[any](&NoHandlerRegisteredError{MessageKind: msg.Kind, Name: msg.Name})
	}
	return invoke(ctx, handler, msg)
}

func invoke(ctx context.Context, handler Dispatcher, msg Message) (res result.Result[any]) {
	defer func() {
		if recovered := recover(); recovered != nil {
			res = result.Fail[any](errs.FromPanic(recovered))
		}
	}()
	return handler(ctx, msg)
}

// typedHandler adapts a typed handler to a Dispatcher.
func typedHandler[M any, R any](h func(context.Context, M) result.Result[R]) Dispatcher {
	return func(ctx context.Context, msg Message) result.Result[any] {
		payload, ok := msg.Payload.(M)
		if !ok {
			return result.Fail[any](errs.NewUnexpectedError(
				fmt.Errorf("%w: %s %q got %T", ErrPayloadTypeMismatch, msg.Kind, msg.Name, msg.Payload)))
		}
		return result.Map(h(ctx, payload), func(v R) any { return v })
	}
}

// typedResult narrows an untyped dispatch result to R.
func typedResult[R any](res result.Result[any], msg Message) result.Result[R] {
	if res.IsFailure() {
		return result.Fail[R](res.Err())
	}

	value := res.Value()
	if value == nil {
		var zero R
		return result.Ok(zero)
	}

	typed, ok := value.(R)
	if !ok {
		return result.Fail[R](errs.NewUnexpectedError(fmt.Errorf("%w: %s %q returned %T, want %s",
			ErrResultTypeMismatch, msg.Kind, msg.Name, value, reflect.TypeFor[R]())))
	}
	return result.Ok(typed)
}

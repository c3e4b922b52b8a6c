// Package bus routes commands and queries to exactly one handler and
// publishes domain events to any number of in-process subscribers.
package bus

import (
	"context"

	"github.com/lllypuk/corebus/internal/domain/result"
)

// MessageKind distinguishes the message families handled by the buses.
type MessageKind string

const (
	KindCommand MessageKind = "command"
	KindQuery   MessageKind = "query"
	KindEvent   MessageKind = "event"
)

// Command is a request to change state. CommandName must be constant for a
// type and callable on its zero value.
type Command interface {
	CommandName() string
}

// Query is a read-only request. QueryName must be constant for a type and
// callable on its zero value.
type Query interface {
	QueryName() string
}

// Message is what middleware sees of a dispatched command or query.
type Message struct {
	Kind    MessageKind
	Name    string
	Payload any
}

// MessageName returns the routing discriminator.
func (m Message) MessageName() string { return m.Name }

// Dispatcher delivers a message and returns the handler's untyped result.
type Dispatcher func(ctx context.Context, msg Message) result.Result[any]

// Middleware decorates a Dispatcher.
type Middleware func(next Dispatcher) Dispatcher

// chain wraps final so that middlewares[0] is the outermost layer.
func chain(final Dispatcher, middlewares []Middleware) Dispatcher {
	d := final
	for i := len(middlewares) - 1; i >= 0; i-- {
		d = middlewares[i](d)
	}
	return d
}

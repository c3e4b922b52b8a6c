package bus

import (
	"log/slog"

	"github.com/lllypuk/corebus/internal/infrastructure/metrics"
)

type options struct {
	logger      *slog.Logger
	middlewares []Middleware
	metrics     *metrics.DispatchMetrics
}

// Option configures a bus.
type Option func(*options)

// WithLogger sets the logger for the bus.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMiddleware appends dispatch middleware. The first one registered is the
// outermost. Event buses ignore it.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, middlewares...)
	}
}

// WithMetrics sets the collectors used by the event bus for publish and
// subscriber failure counts.
func WithMetrics(m *metrics.DispatchMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

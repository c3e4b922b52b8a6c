package bus

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/result"
	"github.com/lllypuk/corebus/internal/infrastructure/metrics"
)

// LoggingMiddleware logs every dispatch with its duration and outcome.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Dispatcher) Dispatcher {
		return func(ctx context.Context, msg Message) result.Result[any] {
			start := time.Now()
			res := next(ctx, msg)

			attrs := []any{
				slog.String("kind", string(msg.Kind)),
				slog.String("message", msg.Name),
				slog.Duration("duration", time.Since(start)),
			}

			if res.IsSuccess() {
				logger.DebugContext(ctx, "message dispatched", attrs...)
				return res
			}

			attrs = append(attrs,
				slog.String("error_kind", string(errs.KindOf(res.Err()))),
				slog.String("error", res.Err().Error()),
			)
			var unexpected *errs.UnexpectedError
			if errors.As(res.Err(), &unexpected) {
				// Cause is only for logs, never for callers.
				attrs = append(attrs, slog.Any("cause", unexpected.Cause))
				logger.ErrorContext(ctx, "message dispatch failed", attrs...)
			} else {
				logger.WarnContext(ctx, "message dispatch rejected", attrs...)
			}
			return res
		}
	}
}

// TracingMiddleware opens one span per dispatch.
func TracingMiddleware(tracer trace.Tracer) Middleware {
	return func(next Dispatcher) Dispatcher {
		return func(ctx context.Context, msg Message) result.Result[any] {
			ctx, span := tracer.Start(ctx, string(msg.Kind)+" "+msg.Name,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(
					attribute.String("corebus.message.kind", string(msg.Kind)),
					attribute.String("corebus.message.name", msg.Name),
				),
			)
			defer span.End()

			res := next(ctx, msg)
			if res.IsFailure() {
				span.RecordError(res.Err())
				span.SetAttributes(attribute.String("corebus.error.kind", string(errs.KindOf(res.Err()))))
				span.SetStatus(codes.Error, res.Err().Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return res
		}
	}
}

// MetricsMiddleware counts dispatches and observes handler latency.
func MetricsMiddleware(m *metrics.DispatchMetrics) Middleware {
	return func(next Dispatcher) Dispatcher {
		return func(ctx context.Context, msg Message) result.Result[any] {
			start := time.Now()
			res := next(ctx, msg)

			status := metrics.StatusSuccess
			if res.IsFailure() {
				status = metrics.StatusFailure
			}
			m.DispatchTotal.WithLabelValues(string(msg.Kind), msg.Name, status).Inc()
			m.DispatchDuration.WithLabelValues(string(msg.Kind), msg.Name).Observe(time.Since(start).Seconds())
			return res
		}
	}
}

// Package telemetry configures OpenTelemetry tracing for the buses.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/lllypuk/corebus/internal/config"
)

// InstrumentationName names the tracer used by bus.TracingMiddleware.
const InstrumentationName = "github.com/lllypuk/corebus/internal/bus"

// Tracing holds the tracer handed to the buses and the function that flushes
// pending spans.
type Tracing struct {
	Tracer   trace.Tracer
	Shutdown func(context.Context) error
}

// Enabled reports whether spans are exported.
func (t Tracing) Enabled() bool {
	_, isNoop := t.Tracer.(noop.Tracer)
	return !isNoop
}

// Setup builds an OTLP/HTTP tracer provider and registers it globally.
// When cfg.OTLPEndpoint is empty it returns a no-op tracer and nothing is
// registered.
func Setup(ctx context.Context, cfg config.TelemetryConfig) (Tracing, error) {
	disabled := Tracing{
		Tracer:   noop.NewTracerProvider().Tracer(InstrumentationName),
		Shutdown: func(context.Context) error { return nil },
	}
	if !cfg.Enabled() {
		return disabled, nil
	}

	exporter, err := otlptracehttp.New(ctx, exporterOptions(cfg)...)
	if err != nil {
		return disabled, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return disabled, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return Tracing{
		Tracer:   tp.Tracer(InstrumentationName),
		Shutdown: tp.Shutdown,
	}, nil
}

// exporterOptions accepts either a full URL or a bare host:port endpoint.
func exporterOptions(cfg config.TelemetryConfig) []otlptracehttp.Option {
	if strings.Contains(cfg.OTLPEndpoint, "://") {
		return []otlptracehttp.Option{otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint)}
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

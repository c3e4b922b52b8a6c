package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/corebus/internal/config"
	"github.com/lllypuk/corebus/internal/infrastructure/telemetry"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	tracing, err := telemetry.Setup(context.Background(), config.TelemetryConfig{ServiceName: "test"})

	require.NoError(t, err)
	assert.False(t, tracing.Enabled())

	_, span := tracing.Tracer.Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, tracing.Shutdown(cancelled))
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		insecure bool
	}{
		// Non-routable addresses so no export actually happens.
		{name: "url", endpoint: "http://192.0.2.1:4318"},
		{name: "host and port", endpoint: "192.0.2.1:4318", insecure: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracing, err := telemetry.Setup(context.Background(), config.TelemetryConfig{
				OTLPEndpoint: tt.endpoint,
				Insecure:     tt.insecure,
				ServiceName:  "corebus-test",
				SampleRatio:  1,
			})
			require.NoError(t, err)
			assert.True(t, tracing.Enabled())

			// Shutdown flushes cleanly even though the endpoint is unreachable.
			require.NoError(t, tracing.Shutdown(context.Background()))
		})
	}
}

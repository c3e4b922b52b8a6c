package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/corebus/internal/infrastructure/healthcheck"
	"github.com/lllypuk/corebus/internal/infrastructure/httpserver"
)

func serve(t *testing.T, s *httpserver.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	s := httpserver.NewServer(httpserver.DefaultServerConfig(":0"), nil)

	require.NotNil(t, s.Echo())
	assert.True(t, s.Echo().HideBanner)
	assert.Equal(t, httpserver.DefaultReadTimeout, s.Echo().Server.ReadTimeout)
}

func TestHealth_AlwaysOK(t *testing.T) {
	s := httpserver.NewServer(httpserver.DefaultServerConfig(":0"), nil)
	s.RegisterHealth(healthcheck.NewPingChecker("down", func(context.Context) error {
		return errors.New("unreachable")
	}))

	rec := serve(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantCode   int
		wantStatus string
	}{
		{name: "all healthy", wantCode: http.StatusOK, wantStatus: httpserver.StatusReady},
		{
			name:       "component down",
			pingErr:    errors.New("unreachable"),
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: httpserver.StatusNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := httpserver.NewServer(httpserver.DefaultServerConfig(":0"), nil)
			s.RegisterHealth(
				healthcheck.NewPingChecker("mongodb", func(context.Context) error { return tt.pingErr }),
				healthcheck.NewPingChecker("redis", func(context.Context) error { return nil }),
			)

			rec := serve(t, s, "/ready")
			assert.Equal(t, tt.wantCode, rec.Code)

			var body httpserver.HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			require.Len(t, body.Components, 2)
			assert.Equal(t, "mongodb", body.Components[0].Name)
		})
	}
}

func TestReady_NoCheckers(t *testing.T) {
	s := httpserver.NewServer(httpserver.DefaultServerConfig(":0"), nil)
	s.RegisterHealth()

	rec := serve(t, s, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "corebus_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	s := httpserver.NewServer(httpserver.DefaultServerConfig(":0"), nil)
	s.RegisterMetrics(registry)

	rec := serve(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "corebus_test_total 1")
}

func TestShutdownWithoutStart(t *testing.T) {
	s := httpserver.NewServer(httpserver.DefaultServerConfig(":0"), nil)
	assert.NoError(t, s.Shutdown(context.Background()))
}

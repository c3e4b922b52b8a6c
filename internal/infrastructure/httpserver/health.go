package httpserver

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/corebus/internal/infrastructure/healthcheck"
)

// Health status values.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
)

// ComponentStatus represents the health status of a single component.
type ComponentStatus struct {
	Name    string         `json:"name"`
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthResponse represents the response for health endpoints.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components []ComponentStatus `json:"components,omitempty"`
}

// HealthEndpoints serves liveness and readiness probes.
type HealthEndpoints struct {
	checkers []healthcheck.Checker
}

// NewHealthEndpoints creates a new HealthEndpoints instance.
func NewHealthEndpoints(checkers ...healthcheck.Checker) *HealthEndpoints {
	return &HealthEndpoints{checkers: checkers}
}

// Register registers:
//   - GET /health - liveness, always 200
//   - GET /ready - 200 when every checker is healthy, 503 otherwise
func (h *HealthEndpoints) Register(e *echo.Echo) {
	e.GET("/health", h.handleHealth)
	e.GET("/ready", h.handleReady)
}

// RegisterHealth is a shortcut for NewHealthEndpoints(checkers...).Register.
func (s *Server) RegisterHealth(checkers ...healthcheck.Checker) {
	NewHealthEndpoints(checkers...).Register(s.echo)
}

func (h *HealthEndpoints) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: StatusHealthy})
}

func (h *HealthEndpoints) handleReady(c echo.Context) error {
	report, healthy := healthcheck.RunAll(c.Request().Context(), h.checkers...)

	components := make([]ComponentStatus, 0, len(report))
	for name, status := range report {
		comp := ComponentStatus{
			Name:    name,
			Status:  StatusHealthy,
			Message: status.Message,
			Details: status.Details,
		}
		if !status.Healthy {
			comp.Status = StatusUnhealthy
		}
		components = append(components, comp)
	}
	sort.Slice(components, func(i, j int) bool { return components[i].Name < components[j].Name })

	if healthy {
		return c.JSON(http.StatusOK, HealthResponse{Status: StatusReady, Components: components})
	}
	return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: StatusNotReady, Components: components})
}

// Package healthcheck provides health checks for the components behind the buses.
package healthcheck

import (
	"context"
	"fmt"
	"time"
)

// Checker checks the health of a single component.
type Checker interface {
	// Name returns the component name used in reports.
	Name() string

	// Check performs the health check.
	Check(ctx context.Context) Status
}

// Status is the outcome of a single check.
type Status struct {
	Healthy   bool           `json:"healthy"`
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}

// PingChecker reports a component healthy when its ping function succeeds.
type PingChecker struct {
	name    string
	ping    func(ctx context.Context) error
	timeout time.Duration
}

const defaultPingTimeout = 2 * time.Second

// NewPingChecker creates a checker named name that calls ping.
func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{
		name:    name,
		ping:    ping,
		timeout: defaultPingTimeout,
	}
}

// Name returns the name of this health checker.
func (c *PingChecker) Name() string {
	return c.name
}

// Check performs the health check.
func (c *PingChecker) Check(ctx context.Context) Status {
	pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	if err := c.ping(pingCtx); err != nil {
		return Status{
			Healthy:   false,
			Message:   fmt.Sprintf("%s ping failed: %v", c.name, err),
			CheckedAt: time.Now(),
		}
	}

	return Status{
		Healthy:   true,
		Message:   c.name + " reachable",
		Details:   map[string]any{"latency": time.Since(start).String()},
		CheckedAt: time.Now(),
	}
}

// RunAll runs every checker and reports whether all of them are healthy.
func RunAll(ctx context.Context, checkers ...Checker) (map[string]Status, bool) {
	report := make(map[string]Status, len(checkers))
	healthy := true
	for _, checker := range checkers {
		status := checker.Check(ctx)
		report[checker.Name()] = status
		healthy = healthy && status.Healthy
	}
	return report, healthy
}

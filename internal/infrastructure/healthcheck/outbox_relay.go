package healthcheck

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BacklogSource reports how many committed events wait for relay and when the
// oldest of them was committed.
type BacklogSource interface {
	Stats(ctx context.Context) (int64, time.Time, error)
}

// RelayLimits bound the outbox relay. A zero limit is not enforced.
type RelayLimits struct {
	MaxBacklog int64
	MaxLag     time.Duration
}

// OutboxRelayChecker reports the outbox unhealthy when the relay falls behind:
// too many events wait, or the oldest one has waited too long.
type OutboxRelayChecker struct {
	source BacklogSource
	limits RelayLimits
	now    func() time.Time
}

// NewOutboxRelayChecker creates a checker for the outbox behind source.
func NewOutboxRelayChecker(source BacklogSource, limits RelayLimits) *OutboxRelayChecker {
	return &OutboxRelayChecker{source: source, limits: limits, now: time.Now}
}

// Name returns the name of this health checker.
func (c *OutboxRelayChecker) Name() string {
	return "outbox_relay"
}

// Check performs the health check.
func (c *OutboxRelayChecker) Check(ctx context.Context) Status {
	now := c.now()
	pending, oldest, err := c.source.Stats(ctx)
	if err != nil {
		return Status{
			Healthy:   false,
			Message:   fmt.Sprintf("failed to read outbox stats: %v", err),
			CheckedAt: now,
		}
	}

	var lag time.Duration
	if pending > 0 && !oldest.IsZero() {
		lag = now.Sub(oldest)
	}

	details := map[string]any{
		"pending": pending,
		"lag":     lag.String(),
	}
	var breaches []string
	if c.limits.MaxBacklog > 0 {
		details["max_backlog"] = c.limits.MaxBacklog
		if pending >= c.limits.MaxBacklog {
			breaches = append(breaches, fmt.Sprintf("backlog %d >= %d", pending, c.limits.MaxBacklog))
		}
	}
	if c.limits.MaxLag > 0 {
		details["max_lag"] = c.limits.MaxLag.String()
		if lag >= c.limits.MaxLag {
			breaches = append(breaches, fmt.Sprintf("lag %v >= %v", lag.Round(time.Second), c.limits.MaxLag))
		}
	}

	if len(breaches) > 0 {
		return Status{
			Healthy:   false,
			Message:   "outbox relay behind: " + strings.Join(breaches, ", "),
			Details:   details,
			CheckedAt: now,
		}
	}

	message := "outbox relay idle"
	if pending > 0 {
		message = fmt.Sprintf("outbox relay: %d pending, lag %v", pending, lag.Round(time.Millisecond))
	}
	return Status{
		Healthy:   true,
		Message:   message,
		Details:   details,
		CheckedAt: now,
	}
}

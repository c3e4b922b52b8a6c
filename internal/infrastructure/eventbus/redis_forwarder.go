// Package eventbus bridges the in-process event bus to Redis Pub/Sub so that
// other processes can observe committed domain events.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/corebus/internal/bus"
	"github.com/lllypuk/corebus/internal/domain/event"
)

// Default retry configuration constants. Forward runs on the goroutine that
// published the event, so retries are off by default.
const (
	defaultMaxRetries     = 0
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultBackoffFactor  = 2.0

	// DefaultChannelPrefix is prepended to the event type to form the channel name.
	DefaultChannelPrefix = "corebus:events:"
)

// RetryConfig configures retries of a failed Redis publish. Backoff sleeps
// block the publisher of the event: with direct delivery that is the command
// handler, with outbox delivery it is the outbox worker.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     defaultMaxRetries,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		BackoffFactor:  defaultBackoffFactor,
	}
}

// next returns the backoff that follows current.
func (c RetryConfig) next(current time.Duration) time.Duration {
	backoff := time.Duration(float64(current) * c.BackoffFactor)
	return min(backoff, c.MaxBackoff)
}

// Publisher is the part of redis.Client used for forwarding.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Forwarder publishes domain events to Redis channels named
// <prefix><event type>. Messages are JSON event.Envelope values.
type Forwarder struct {
	client        Publisher
	logger        *slog.Logger
	retryConfig   RetryConfig
	channelPrefix string
}

// Option configures a Forwarder or a Listener.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	retryConfig   RetryConfig
	channelPrefix string
}

func buildOptions(opts []Option) options {
	o := options{
		logger:        slog.Default(),
		retryConfig:   DefaultRetryConfig(),
		channelPrefix: DefaultChannelPrefix,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRetryConfig sets the publish retry configuration.
func WithRetryConfig(config RetryConfig) Option {
	return func(o *options) {
		o.retryConfig = config
	}
}

// WithChannelPrefix sets a prefix for Redis channel names.
func WithChannelPrefix(prefix string) Option {
	return func(o *options) {
		o.channelPrefix = prefix
	}
}

// NewForwarder creates a forwarder over client.
func NewForwarder(client Publisher, opts ...Option) *Forwarder {
	o := buildOptions(opts)
	return &Forwarder{
		client:        client,
		logger:        o.logger,
		retryConfig:   o.retryConfig,
		channelPrefix: o.channelPrefix,
	}
}

// ChannelName returns the Redis channel for an event type.
func (f *Forwarder) ChannelName(eventType string) string {
	return f.channelPrefix + eventType
}

// Attach subscribes the forwarder to eventTypes on b.
func (f *Forwarder) Attach(b *bus.EventBus, eventTypes ...string) error {
	var errs []error
	for _, eventType := range eventTypes {
		errs = append(errs, b.Subscribe(eventType, f.Forward))
	}
	return errors.Join(errs...)
}

// Forward publishes evt, retrying with exponential backoff when MaxRetries is
// positive. It runs synchronously as an event bus subscriber.
func (f *Forwarder) Forward(ctx context.Context, evt event.DomainEvent) error {
	if evt == nil {
		return errors.New("event cannot be nil")
	}

	envelope, err := event.NewEnvelope(evt)
	if err != nil {
		return fmt.Errorf("failed to create event envelope: %w", err)
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := f.ChannelName(evt.EventType())
	backoff := f.retryConfig.InitialBackoff

	var lastErr error
	for attempt := 0; attempt <= f.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("forward %s cancelled: %w", evt.EventType(), ctx.Err())
			case <-time.After(backoff):
			}
			backoff = f.retryConfig.next(backoff)
		}

		if lastErr = f.client.Publish(ctx, channel, data).Err(); lastErr == nil {
			f.logger.DebugContext(ctx, "event forwarded",
				slog.String("event_id", evt.EventID()),
				slog.String("event_type", evt.EventType()),
				slog.String("channel", channel),
			)
			return nil
		}

		f.logger.WarnContext(ctx, "failed to forward event",
			slog.String("event_type", evt.EventType()),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)
	}

	return fmt.Errorf("failed to publish event to Redis after %d attempts: %w",
		f.retryConfig.MaxRetries+1, lastErr)
}

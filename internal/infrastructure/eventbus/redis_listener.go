package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/corebus/internal/domain/event"
)

// Listener consumes forwarded events from Redis and republishes them to a
// local event.Publisher, usually the in-process bus of another process.
type Listener struct {
	client        *redis.Client
	target        event.Publisher
	registry      *event.Registry
	logger        *slog.Logger
	channelPrefix string
	eventTypes    []string

	runningMu sync.Mutex
	running   bool
}

// NewListener creates a listener for eventTypes. registry may be nil, in
// which case the target receives event.RawEvent values.
func NewListener(
	client *redis.Client,
	target event.Publisher,
	registry *event.Registry,
	eventTypes []string,
	opts ...Option,
) *Listener {
	o := buildOptions(opts)
	return &Listener{
		client:        client,
		target:        target,
		registry:      registry,
		logger:        o.logger,
		channelPrefix: o.channelPrefix,
		eventTypes:    eventTypes,
	}
}

// Run subscribes and relays messages until ctx is cancelled. It returns
// once the subscription is closed.
func (l *Listener) Run(ctx context.Context) error {
	l.runningMu.Lock()
	if l.running {
		l.runningMu.Unlock()
		return errors.New("listener is already running")
	}
	l.running = true
	l.runningMu.Unlock()

	defer func() {
		l.runningMu.Lock()
		l.running = false
		l.runningMu.Unlock()
	}()

	if len(l.eventTypes) == 0 {
		return errors.New("listener has no event types")
	}

	channels := make([]string, 0, len(l.eventTypes))
	for _, eventType := range l.eventTypes {
		channels = append(channels, l.channelPrefix+eventType)
	}

	pubsub := l.client.Subscribe(ctx, channels...)
	defer pubsub.Close()

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channels: %w", err)
	}

	l.logger.InfoContext(ctx, "redis listener started",
		slog.Any("channels", channels),
	)

	msgCh := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			l.logger.InfoContext(ctx, "redis listener stopped")
			return ctx.Err()

		case msg, ok := <-msgCh:
			if !ok {
				l.logger.WarnContext(ctx, "message channel closed")
				return nil
			}
			l.handleMessage(ctx, msg)
		}
	}
}

func (l *Listener) handleMessage(ctx context.Context, msg *redis.Message) {
	evt, err := l.decode([]byte(msg.Payload))
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to decode forwarded event",
			slog.String("channel", msg.Channel),
			slog.String("error", err.Error()),
		)
		return
	}

	if err = l.target.Publish(ctx, evt); err != nil {
		l.logger.ErrorContext(ctx, "failed to republish forwarded event",
			slog.String("event_type", evt.EventType()),
			slog.String("event_id", evt.EventID()),
			slog.String("error", err.Error()),
		)
	}
}

func (l *Listener) decode(data []byte) (event.DomainEvent, error) {
	var envelope event.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	if l.registry == nil {
		return envelope.Event(), nil
	}
	return l.registry.Decode(envelope)
}

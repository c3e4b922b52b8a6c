package bus_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/corebus/internal/application/appcore"
	"github.com/lllypuk/corebus/internal/bus"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/infrastructure/metrics"
)

type thingCreated struct {
	event.BaseEvent

	Name string `json:"name"`
}

func newThingCreated(name string) *thingCreated {
	return &thingCreated{
		BaseEvent: event.NewBaseEvent("thing.created", "agg-1", "Thing", 1, event.Metadata{}),
		Name:      name,
	}
}

func TestEventBus_SubscribersRunInRegistrationOrder(t *testing.T) {
	b := bus.NewEventBus()
	var calls []string

	for _, name := range []string{"first", "second", "third"} {
		require.NoError(t, b.Subscribe("thing.created", func(_ context.Context, _ event.DomainEvent) error {
			calls = append(calls, name)
			return nil
		}))
	}

	require.NoError(t, b.Publish(context.Background(), newThingCreated("a")))

	assert.Equal(t, []string{"first", "second", "third"}, calls)
	assert.Equal(t, 3, b.SubscriberCount("thing.created"))
}

func TestEventBus_FailingSubscribersAreIsolated(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	registry := prometheus.NewRegistry()
	dispatchMetrics := metrics.NewDispatchMetrics(registry)

	b := bus.NewEventBus(bus.WithLogger(logger), bus.WithMetrics(dispatchMetrics))
	var calls []string

	require.NoError(t, b.Subscribe("thing.created", func(_ context.Context, _ event.DomainEvent) error {
		calls = append(calls, "s1")
		return errors.New("s1 failed")
	}))
	require.NoError(t, b.Subscribe("thing.created", func(_ context.Context, _ event.DomainEvent) error {
		calls = append(calls, "s2")
		panic("s2 exploded")
	}))
	require.NoError(t, b.Subscribe("thing.created", func(_ context.Context, _ event.DomainEvent) error {
		calls = append(calls, "s3")
		return nil
	}))

	err := b.Publish(context.Background(), newThingCreated("a"))

	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s3"}, calls)
	assert.Contains(t, logs.String(), "s1 failed")
	assert.Contains(t, logs.String(), "s2 exploded")
	assert.InDelta(t, 1, testutil.ToFloat64(
		dispatchMetrics.SubscriberFailures.WithLabelValues("thing.created", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(
		dispatchMetrics.SubscriberFailures.WithLabelValues("thing.created", "panic")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(
		dispatchMetrics.EventsPublished.WithLabelValues("thing.created")), 0)
}

func TestEventBus_NoSubscribers(t *testing.T) {
	b := bus.NewEventBus()

	require.NoError(t, b.Publish(context.Background(), newThingCreated("a")))
	assert.Zero(t, b.SubscriberCount("thing.created"))
}

func TestEventBus_NilEvent(t *testing.T) {
	b := bus.NewEventBus()

	assert.ErrorIs(t, b.Publish(context.Background(), nil), bus.ErrNilEvent)
}

func TestEventBus_SubscribeValidation(t *testing.T) {
	b := bus.NewEventBus()

	require.Error(t, b.Subscribe("", func(context.Context, event.DomainEvent) error { return nil }))
	require.ErrorIs(t, b.Subscribe("thing.created", nil), bus.ErrNilHandler)
	assert.Empty(t, b.EventTypes())
}

func TestEventBus_OnlyMatchingTypeIsDelivered(t *testing.T) {
	b := bus.NewEventBus()
	var other int
	require.NoError(t, b.Subscribe("thing.deleted", func(context.Context, event.DomainEvent) error {
		other++
		return nil
	}))

	require.NoError(t, b.Publish(context.Background(), newThingCreated("a")))

	assert.Zero(t, other)
}

func TestEventBus_PublishAllKeepsOrder(t *testing.T) {
	b := bus.NewEventBus()
	var names []string
	require.NoError(t, bus.Subscribe(b, "thing.created", func(_ context.Context, evt *thingCreated) error {
		names = append(names, evt.Name)
		return nil
	}))

	err := b.PublishAll(context.Background(), newThingCreated("a"), newThingCreated("b"), newThingCreated("c"))

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestSubscribe_TypeMismatchIsLoggedNotReturned(t *testing.T) {
	var logs bytes.Buffer
	b := bus.NewEventBus(bus.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	called := false
	require.NoError(t, bus.Subscribe(b, "thing.created", func(_ context.Context, _ *thingCreated) error {
		called = true
		return nil
	}))

	raw := event.NewBaseEvent("thing.created", "agg-1", "Thing", 1, event.Metadata{})
	require.NoError(t, b.Publish(context.Background(), raw))

	assert.False(t, called)
	assert.Contains(t, logs.String(), bus.ErrEventTypeMismatch.Error())
}

func TestEventBus_LateSubscriptionDuringPublish(t *testing.T) {
	b := bus.NewEventBus()
	var calls int
	require.NoError(t, b.Subscribe("thing.created", func(context.Context, event.DomainEvent) error {
		calls++
		// registering from inside a subscriber must not deadlock
		return b.Subscribe("thing.created", func(context.Context, event.DomainEvent) error {
			calls++
			return nil
		})
	}))

	require.NoError(t, b.Publish(context.Background(), newThingCreated("a")))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, b.SubscriberCount("thing.created"))
}

func TestEventBus_SubscriberContextCarriesCausation(t *testing.T) {
	b := bus.NewEventBus()
	evt := &thingCreated{
		BaseEvent: event.NewBaseEvent("thing.created", "agg-1", "Thing", 1,
			event.Metadata{CorrelationID: "corr-7"}),
	}

	var causation, correlation string
	require.NoError(t, b.Subscribe("thing.created", func(ctx context.Context, _ event.DomainEvent) error {
		causation = appcore.GetCausationID(ctx)
		correlation, _ = appcore.GetCorrelationID(ctx)
		return nil
	}))

	require.NoError(t, b.Publish(context.Background(), evt))

	assert.Equal(t, evt.EventID(), causation)
	assert.Equal(t, "corr-7", correlation)
}

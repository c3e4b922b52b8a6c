// Package worker contains background processes that run next to the buses.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lllypuk/corebus/internal/application/appcore"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/infrastructure/metrics"
	"github.com/lllypuk/corebus/internal/infrastructure/outbox"
)

// Default outbox worker configuration values.
const (
	defaultOutboxPollInterval    = 100 * time.Millisecond
	defaultOutboxBatchSize       = 100
	defaultOutboxMaxRetries      = 5
	defaultOutboxCleanupAge      = 7 * 24 * time.Hour // 7 days
	defaultOutboxCleanupInterval = time.Hour
)

// OutboxWorkerConfig contains configuration for the outbox worker.
type OutboxWorkerConfig struct {
	// PollInterval is the time between polling the outbox for new events.
	PollInterval time.Duration

	// BatchSize is the maximum number of events to process in each poll cycle.
	BatchSize int

	// MaxRetries is how many failed relays an entry gets before it is parked.
	MaxRetries int

	// CleanupAge is the age after which processed entries are cleaned up.
	CleanupAge time.Duration

	// CleanupInterval is how often to run the cleanup process.
	CleanupInterval time.Duration

	// Enabled determines if the worker should run.
	Enabled bool
}

// DefaultOutboxWorkerConfig returns sensible default configuration.
func DefaultOutboxWorkerConfig() OutboxWorkerConfig {
	return OutboxWorkerConfig{
		PollInterval:    defaultOutboxPollInterval,
		BatchSize:       defaultOutboxBatchSize,
		MaxRetries:      defaultOutboxMaxRetries,
		CleanupAge:      defaultOutboxCleanupAge,
		CleanupInterval: defaultOutboxCleanupInterval,
		Enabled:         true,
	}
}

// OutboxWorker relays committed events from the outbox to the in-process
// event bus. Delivery is at-least-once: an entry is marked processed only
// after Publish returns.
type OutboxWorker struct {
	outbox   appcore.Outbox
	bus      event.Publisher
	registry *event.Registry
	logger   *slog.Logger
	config   OutboxWorkerConfig
	metrics  *metrics.RelayMetrics
}

// OutboxWorkerOption configures OutboxWorker.
type OutboxWorkerOption func(*OutboxWorker)

// WithLogger sets the worker logger.
func WithLogger(logger *slog.Logger) OutboxWorkerOption {
	return func(w *OutboxWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetrics enables Prometheus relay metrics.
func WithMetrics(m *metrics.RelayMetrics) OutboxWorkerOption {
	return func(w *OutboxWorker) {
		w.metrics = m
	}
}

// NewOutboxWorker creates a new outbox worker. registry rebuilds typed
// events from stored envelopes; a nil registry relays event.RawEvent values.
func NewOutboxWorker(
	ob appcore.Outbox,
	bus event.Publisher,
	registry *event.Registry,
	config OutboxWorkerConfig,
	opts ...OutboxWorkerOption,
) *OutboxWorker {
	w := &OutboxWorker{
		outbox:   ob,
		bus:      bus,
		registry: registry,
		logger:   slog.Default(),
		config:   config,
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.config.PollInterval <= 0 {
		w.config.PollInterval = defaultOutboxPollInterval
	}
	if w.config.CleanupInterval <= 0 {
		w.config.CleanupInterval = defaultOutboxCleanupInterval
	}
	if w.config.BatchSize <= 0 {
		w.config.BatchSize = defaultOutboxBatchSize
	}

	return w
}

// Run starts the outbox worker and runs until the context is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	if !w.config.Enabled {
		w.logger.InfoContext(ctx, "outbox worker is disabled")
		return nil
	}

	w.logger.InfoContext(ctx, "starting outbox worker",
		slog.Duration("poll_interval", w.config.PollInterval),
		slog.Int("batch_size", w.config.BatchSize),
		slog.Int("max_retries", w.config.MaxRetries),
	)

	pollTicker := time.NewTicker(w.config.PollInterval)
	defer pollTicker.Stop()

	cleanupTicker := time.NewTicker(w.config.CleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "outbox worker stopped")
			return ctx.Err()

		case <-pollTicker.C:
			w.observeBacklog(ctx)

			if err := w.processBatch(ctx); err != nil {
				w.logger.ErrorContext(ctx, "failed to process outbox batch",
					slog.String("error", err.Error()),
				)
			}

		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

// ProcessOnce processes a single batch of events.
func (w *OutboxWorker) ProcessOnce(ctx context.Context) error {
	return w.processBatch(ctx)
}

func (w *OutboxWorker) processBatch(ctx context.Context) error {
	entries, err := w.outbox.Poll(ctx, w.config.BatchSize, w.config.MaxRetries)
	if err != nil {
		return fmt.Errorf("failed to poll outbox: %w", err)
	}

	if len(entries) == 0 {
		return nil
	}

	var processed, failed int
	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if processErr := w.processEntry(ctx, entry); processErr != nil {
			failed++
			w.logger.WarnContext(ctx, "failed to process outbox entry",
				slog.String("entry_id", entry.ID),
				slog.String("event_type", entry.EventType),
				slog.Int("retry_count", entry.RetryCount),
				slog.String("error", processErr.Error()),
			)
		} else {
			processed++
		}
	}

	w.logger.DebugContext(ctx, "outbox batch completed",
		slog.Int("processed", processed),
		slog.Int("failed", failed),
	)

	return nil
}

// processEntry decodes one entry and publishes it to the event bus.
func (w *OutboxWorker) processEntry(ctx context.Context, entry appcore.OutboxEntry) error {
	evt, err := outbox.DecodeEntry(entry, w.registry)
	if err == nil {
		err = w.bus.Publish(ctx, evt)
	}
	if w.metrics != nil {
		w.metrics.ObserveRelay(entry.EventType, entry.CreatedAt, err)
	}

	if err != nil {
		w.recordFailure(ctx, entry, err)
		return err
	}

	if markErr := w.outbox.MarkProcessed(ctx, entry.ID); markErr != nil {
		return fmt.Errorf("failed to mark entry as processed: %w", markErr)
	}
	return nil
}

func (w *OutboxWorker) recordFailure(ctx context.Context, entry appcore.OutboxEntry, cause error) {
	if markErr := w.outbox.MarkFailed(ctx, entry.ID, cause); markErr != nil {
		w.logger.ErrorContext(ctx, "failed to mark outbox entry as failed",
			slog.String("entry_id", entry.ID),
			slog.String("error", markErr.Error()),
		)
		return
	}

	if w.config.MaxRetries > 0 && entry.RetryCount+1 >= w.config.MaxRetries {
		if w.metrics != nil {
			w.metrics.Parked.WithLabelValues(entry.EventType).Inc()
		}
		w.logger.ErrorContext(ctx, "outbox entry exceeded max retries and is parked",
			slog.String("entry_id", entry.ID),
			slog.String("event_type", entry.EventType),
			slog.String("last_error", cause.Error()),
		)
	}
}

func (w *OutboxWorker) cleanup(ctx context.Context) {
	deleted, err := w.outbox.Cleanup(ctx, w.config.CleanupAge)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to cleanup outbox",
			slog.String("error", err.Error()),
		)
		return
	}
	if w.metrics != nil && deleted > 0 {
		w.metrics.CleanedUp.Add(float64(deleted))
	}
}

// OutboxStats contains outbox statistics for monitoring.
type OutboxStats struct {
	PendingCount int64
	OldestEntry  time.Time
}

// GetStats returns current outbox statistics.
func (w *OutboxWorker) GetStats(ctx context.Context) (OutboxStats, error) {
	count, oldest, err := w.outbox.Stats(ctx)
	if err != nil {
		return OutboxStats{}, err
	}
	return OutboxStats{PendingCount: count, OldestEntry: oldest}, nil
}

// observeBacklog refreshes the backlog gauges from the outbox.
func (w *OutboxWorker) observeBacklog(ctx context.Context) {
	if w.metrics == nil {
		return
	}

	count, oldest, err := w.outbox.Stats(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "failed to get outbox stats for metrics",
			slog.String("error", err.Error()),
		)
		return
	}
	w.metrics.ObserveBacklog(count, oldest, time.Now())
}

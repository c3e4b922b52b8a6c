package appcore

import (
	"context"
	"time"

	"github.com/lllypuk/corebus/internal/domain/event"
)

// OutboxEntry represents an event waiting to be published to the event bus.
// Payload holds the JSON event.Envelope.
type OutboxEntry struct {
	ID            string
	EventID       string
	EventType     string
	AggregateID   string
	AggregateType string
	Payload       []byte
	CreatedAt     time.Time
	ProcessedAt   *time.Time
	RetryCount    int
	LastError     string
}

// Outbox stores committed events durably so that a worker can relay them to
// the event bus after the request that produced them has returned.
type Outbox interface {
	// BatchPublisher lets aggregate.Commit store all pending events of an
	// aggregate in one call. Publish and PublishBatch alias Add and AddBatch.
	event.BatchPublisher

	// Add inserts an event into the outbox.
	Add(ctx context.Context, evt event.DomainEvent) error

	// AddBatch inserts events in order. It is not atomic: if it fails, some
	// events may already be stored. Events whose ID is already stored are
	// skipped, so calling it again with the same events completes the batch.
	AddBatch(ctx context.Context, events []event.DomainEvent) error

	// Poll retrieves unprocessed events up to the specified batch size, skipping
	// entries that failed maxRetries times.
	// Events are returned ordered by creation time (oldest first).
	Poll(ctx context.Context, batchSize, maxRetries int) ([]OutboxEntry, error)

	// MarkProcessed marks an event as successfully published.
	MarkProcessed(ctx context.Context, entryID string) error

	// MarkFailed records a publishing failure for retry.
	MarkFailed(ctx context.Context, entryID string, err error) error

	// Cleanup removes old processed entries older than the specified duration.
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)

	// Stats returns statistics about the outbox (count and oldest entry timestamp).
	Stats(ctx context.Context) (count int64, oldest time.Time, err error)
}

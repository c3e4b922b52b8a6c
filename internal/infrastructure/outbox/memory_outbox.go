package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lllypuk/corebus/internal/application/appcore"
	"github.com/lllypuk/corebus/internal/domain/event"
)

// MemoryOutbox is a process-local appcore.Outbox. It gives the outbox
// delivery mode to the memory and sqlite storage drivers; entries do not
// survive a restart.
type MemoryOutbox struct {
	mu      sync.Mutex
	entries []*appcore.OutboxEntry
	ids     map[string]struct{}
	logger  *slog.Logger
}

// NewMemoryOutbox creates an empty in-memory outbox.
func NewMemoryOutbox(logger *slog.Logger) *MemoryOutbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryOutbox{ids: make(map[string]struct{}), logger: logger}
}

func (o *MemoryOutbox) Publish(ctx context.Context, evt event.DomainEvent) error {
	return o.Add(ctx, evt)
}

// Add stores evt unless an entry with the same event ID exists.
func (o *MemoryOutbox) Add(ctx context.Context, evt event.DomainEvent) error {
	if evt == nil {
		return errors.New("event cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := eventToDocument(evt)
	if err != nil {
		return fmt.Errorf("failed to convert event to entry: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.ids[doc.EventID]; ok {
		o.logger.DebugContext(ctx, "event already in outbox", slog.String("event_id", doc.EventID))
		return nil
	}
	entry := documentToEntry(doc)
	o.entries = append(o.entries, &entry)
	o.ids[doc.EventID] = struct{}{}
	return nil
}

// PublishBatch stores all events of one commit.
func (o *MemoryOutbox) PublishBatch(ctx context.Context, events []event.DomainEvent) error {
	return o.AddBatch(ctx, events)
}

// AddBatch converts every event before taking the lock, so the batch is
// stored whole or not at all.
func (o *MemoryOutbox) AddBatch(ctx context.Context, events []event.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	docs := make([]*outboxDocument, 0, len(events))
	for i, evt := range events {
		if evt == nil {
			return fmt.Errorf("event at index %d cannot be nil", i)
		}
		doc, err := eventToDocument(evt)
		if err != nil {
			return fmt.Errorf("failed to convert event at index %d: %w", i, err)
		}
		docs = append(docs, doc)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, doc := range docs {
		if _, ok := o.ids[doc.EventID]; ok {
			continue
		}
		entry := documentToEntry(doc)
		o.entries = append(o.entries, &entry)
		o.ids[doc.EventID] = struct{}{}
	}
	return nil
}

// Poll returns copies of unprocessed entries, oldest first.
func (o *MemoryOutbox) Poll(_ context.Context, batchSize, maxRetries int) ([]appcore.OutboxEntry, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	var out []appcore.OutboxEntry
	for _, entry := range o.entries {
		if len(out) == batchSize {
			break
		}
		if entry.ProcessedAt != nil || (maxRetries > 0 && entry.RetryCount >= maxRetries) {
			continue
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (o *MemoryOutbox) find(entryID string) (*appcore.OutboxEntry, error) {
	for _, entry := range o.entries {
		if entry.ID == entryID {
			return entry, nil
		}
	}
	return nil, fmt.Errorf("outbox entry not found: %s", entryID)
}

func (o *MemoryOutbox) MarkProcessed(_ context.Context, entryID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry, err := o.find(entryID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	entry.ProcessedAt = &now
	return nil
}

func (o *MemoryOutbox) MarkFailed(_ context.Context, entryID string, publishErr error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry, err := o.find(entryID)
	if err != nil {
		return err
	}
	entry.RetryCount++
	if publishErr != nil {
		entry.LastError = publishErr.Error()
	}
	return nil
}

func (o *MemoryOutbox) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	o.mu.Lock()
	defer o.mu.Unlock()

	before := len(o.entries)
	o.entries = slices.DeleteFunc(o.entries, func(e *appcore.OutboxEntry) bool {
		if e.ProcessedAt != nil && !e.ProcessedAt.After(cutoff) {
			delete(o.ids, e.EventID)
			return true
		}
		return false
	})
	return int64(before - len(o.entries)), nil
}

func (o *MemoryOutbox) Stats(_ context.Context) (int64, time.Time, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var (
		count  int64
		oldest time.Time
	)
	for _, entry := range o.entries {
		if entry.ProcessedAt != nil {
			continue
		}
		if count == 0 || entry.CreatedAt.Before(oldest) {
			oldest = entry.CreatedAt
		}
		count++
	}
	return count, oldest, nil
}

var _ appcore.Outbox = (*MemoryOutbox)(nil)

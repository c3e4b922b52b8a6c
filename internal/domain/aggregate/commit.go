package aggregate

import (
	"context"
	"errors"
	"fmt"

	"github.com/lllypuk/corebus/internal/domain/event"
)

// CommitError reports a publish failure in the middle of a commit.
// Events before the failing one were published and are no longer pending.
type CommitError struct {
	AggregateID string
	EventType   string
	Published   int
	Remaining   int
	Err         error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit aggregate %s: publish %s (published %d, remaining %d): %v",
		e.AggregateID, e.EventType, e.Published, e.Remaining, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// Commit publishes the root's pending events in order. After each event is
// published it is removed from the buffer, so a retry after a failure resumes
// at the first unpublished event and never re-publishes. Committing an empty
// buffer is a no-op.
//
// A publisher implementing event.BatchPublisher receives all pending events
// in one call instead, and the buffer is drained only when the whole batch
// was stored.
func Commit(ctx context.Context, root Root, publisher event.Publisher) error {
	if root == nil {
		return errors.New("aggregate cannot be nil")
	}
	if publisher == nil {
		return errors.New("publisher cannot be nil")
	}

	pending := root.PendingEvents()
	if len(pending) == 0 {
		return nil
	}

	if batch, ok := publisher.(event.BatchPublisher); ok {
		if err := batch.PublishBatch(ctx, pending); err != nil {
			return &CommitError{
				AggregateID: root.ID().String(),
				EventType:   pending[0].EventType(),
				Remaining:   len(pending),
				Err:         err,
			}
		}
		root.MarkPublished(len(pending))
		return nil
	}

	for i, evt := range pending {
		if err := publisher.Publish(ctx, evt); err != nil {
			return &CommitError{
				AggregateID: root.ID().String(),
				EventType:   evt.EventType(),
				Published:   i,
				Remaining:   len(pending) - i,
				Err:         err,
			}
		}
		root.MarkPublished(1)
	}

	return nil
}

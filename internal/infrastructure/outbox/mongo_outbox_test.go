//go:build integration

package outbox_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/infrastructure/mongodb"
	"github.com/lllypuk/corebus/internal/infrastructure/outbox"
	"github.com/lllypuk/corebus/internal/testutil"
)

// setupTestCollection returns an indexed outbox collection in a fresh database.
func setupTestCollection(t *testing.T) *mongo.Collection {
	t.Helper()

	db := testutil.SetupTestMongoDB(t)
	require.NoError(t, mongodb.CreateCollectionIndexes(context.Background(), db, mongodb.CollectionOutbox))
	return db.Collection(mongodb.CollectionOutbox)
}

func TestMongoOutbox_Add(t *testing.T) {
	collection := setupTestCollection(t)
	ob := outbox.NewMongoOutbox(collection)
	ctx := context.Background()

	require.NoError(t, ob.Add(ctx, newCreatedEvent("ACME")))

	count, err := collection.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMongoOutbox_AddTwiceIsDeduplicated(t *testing.T) {
	collection := setupTestCollection(t)
	ob := outbox.NewMongoOutbox(collection)
	ctx := context.Background()
	evt := newCreatedEvent("ACME")

	require.NoError(t, ob.Add(ctx, evt))
	require.NoError(t, ob.Publish(ctx, evt))

	count, err := collection.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMongoOutbox_AddBatch(t *testing.T) {
	collection := setupTestCollection(t)
	ob := outbox.NewMongoOutbox(collection)
	ctx := context.Background()
	first := newCreatedEvent("ONE")
	require.NoError(t, ob.Add(ctx, first))

	err := ob.AddBatch(ctx, []event.DomainEvent{first, newCreatedEvent("TWO"), newCreatedEvent("THREE")})
	require.NoError(t, err)

	count, err := collection.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestMongoOutbox_Poll(t *testing.T) {
	collection := setupTestCollection(t)
	ob := outbox.NewMongoOutbox(collection)
	ctx := context.Background()
	first := newCreatedEvent("ONE")
	require.NoError(t, ob.Add(ctx, first))
	require.NoError(t, ob.Add(ctx, newCreatedEvent("TWO")))

	entries, err := ob.Poll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, first.EventID(), entries[0].EventID)
	assert.Equal(t, first.AggregateID(), entries[0].AggregateID)
	assert.Equal(t, "Company", entries[0].AggregateType)

	limited, err := ob.Poll(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMongoOutbox_MarkProcessed(t *testing.T) {
	collection := setupTestCollection(t)
	ob := outbox.NewMongoOutbox(collection)
	ctx := context.Background()
	require.NoError(t, ob.Add(ctx, newCreatedEvent("ACME")))

	entries, err := ob.Poll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, ob.MarkProcessed(ctx, entries[0].ID))

	entries, err = ob.Poll(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMongoOutbox_MarkFailedRespectsMaxRetries(t *testing.T) {
	collection := setupTestCollection(t)
	ob := outbox.NewMongoOutbox(collection)
	ctx := context.Background()
	require.NoError(t, ob.Add(ctx, newCreatedEvent("ACME")))

	entries, err := ob.Poll(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	id := entries[0].ID

	require.NoError(t, ob.MarkFailed(ctx, id, errors.New("relay down")))

	entries, err = ob.Poll(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].RetryCount)
	assert.Equal(t, "relay down", entries[0].LastError)

	require.NoError(t, ob.MarkFailed(ctx, id, errors.New("relay down")))

	entries, err = ob.Poll(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, entries, "entry past max retries should be parked")
}

func TestMongoOutbox_CleanupAndStats(t *testing.T) {
	collection := setupTestCollection(t)
	ob := outbox.NewMongoOutbox(collection)
	ctx := context.Background()
	require.NoError(t, ob.Add(ctx, newCreatedEvent("ONE")))
	require.NoError(t, ob.Add(ctx, newCreatedEvent("TWO")))

	count, oldest, err := ob.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.False(t, oldest.IsZero())

	entries, err := ob.Poll(ctx, 10, 0)
	require.NoError(t, err)
	require.NoError(t, ob.MarkProcessed(ctx, entries[0].ID))

	pending, _, err := ob.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	deleted, err := ob.Cleanup(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestMongoOutbox_Errors(t *testing.T) {
	collection := setupTestCollection(t)
	ob := outbox.NewMongoOutbox(collection)
	ctx := context.Background()

	require.Error(t, ob.Add(ctx, nil))
	require.Error(t, ob.AddBatch(ctx, []event.DomainEvent{newCreatedEvent("ACME"), nil}))
	require.Error(t, ob.MarkProcessed(ctx, "non-existent-id"))
	require.Error(t, ob.MarkFailed(ctx, "non-existent-id", errors.New("x")))
}

//go:build integration

package mongodb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lllypuk/corebus/internal/infrastructure/mongodb"
	"github.com/lllypuk/corebus/internal/testutil"
)

func TestCreateAllIndexes(t *testing.T) {
	db := testutil.SetupTestMongoDB(t)
	ctx := context.Background()

	require.NoError(t, mongodb.CreateAllIndexes(ctx, db))
	// idempotent
	require.NoError(t, mongodb.CreateAllIndexes(ctx, db))

	for _, collName := range []string{mongodb.CollectionCompanies, mongodb.CollectionOutbox} {
		cursor, err := db.Collection(collName).Indexes().List(ctx)
		require.NoError(t, err)

		var indexes []bson.M
		require.NoError(t, cursor.All(ctx, &indexes))
		assert.GreaterOrEqual(t, len(indexes), 3, "collection %s should have indexes", collName)
	}
}

func TestCreateCollectionIndexes_Unknown(t *testing.T) {
	db := testutil.SetupTestMongoDB(t)

	err := mongodb.CreateCollectionIndexes(context.Background(), db, "nope")

	require.Error(t, err)
}

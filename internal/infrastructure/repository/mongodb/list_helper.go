package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// listDocuments loads one page of documents sorted ascending by sortField
// and converts each through decoder.
//
// The returned slice is never nil. A document that fails to decode fails the
// whole call: a silently shortened page would disagree with Count.
func listDocuments[T any, R any](
	ctx context.Context,
	collection *mongo.Collection,
	offset, limit int,
	sortField string,
	decoder func(*T) (R, error),
	collectionName string,
) ([]R, error) {
	limit = DefaultLimitWithMax(limit, DefaultPaginationLimit, MaxPaginationLimit)

	cursor, err := collection.Find(ctx, bson.M{}, FindWithPagination(offset, limit, sortField, 1))
	if err != nil {
		return nil, HandleMongoError(err, collectionName)
	}
	defer cursor.Close(ctx)

	results := make([]R, 0, limit)
	for cursor.Next(ctx) {
		var doc T
		if decodeErr := cursor.Decode(&doc); decodeErr != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", collectionName, decodeErr)
		}

		item, docErr := decoder(&doc)
		if docErr != nil {
			return nil, docErr
		}

		results = append(results, item)
	}

	if err = cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return results, nil
}

// Package mongodb implements the company repository on MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/corebus/internal/domain/errs"
)

const (
	// DefaultPaginationLimit - дефолтный лимит для пагинации запросов.
	DefaultPaginationLimit = 50

	// MaxPaginationLimit - максимальный лимит для пагинации запросов.
	MaxPaginationLimit = 100
)

// HandleMongoError maps a driver error onto the storage contract:
//   - nil if err == nil
//   - errs.ErrNotFound if no document matched
//   - errs.ErrAlreadyExists on a unique index violation
//   - a wrapped error otherwise
func HandleMongoError(err error, resourceType string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrNotFound
	}

	if mongo.IsDuplicateKeyError(err) {
		return errs.ErrAlreadyExists
	}

	return fmt.Errorf("failed to operate on %s: %w", resourceType, err)
}

// BaseDocument holds the timestamps shared by stored documents.
type BaseDocument struct {
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// FindWithPagination returns find options with skip, limit and a single sort key.
// sortOrder is 1 for ascending and -1 for descending.
func FindWithPagination(offset, limit int, sortField string, sortOrder int) *options.FindOptionsBuilder {
	return options.Find().
		SetSort(bson.D{{Key: sortField, Value: sortOrder}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
}

// CountAll counts every document in coll.
func CountAll(ctx context.Context, coll *mongo.Collection) (int, error) {
	count, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// DefaultLimitWithMax clamps limit into (0, maxLimit], using defaultLimit for
// non-positive values.
func DefaultLimitWithMax(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

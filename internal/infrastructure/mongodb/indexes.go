// Package mongodb provides MongoDB infrastructure components including index management.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names as constants for consistency.
const (
	CollectionCompanies = "companies"
	CollectionOutbox    = "outbox"
)

// IndexDefinition describes a MongoDB index to be created.
type IndexDefinition struct {
	Collection string
	Name       string
	Keys       bson.D
	Unique     bool
}

func (d IndexDefinition) model() mongo.IndexModel {
	opts := options.Index().SetName(d.Name)
	if d.Unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: d.Keys, Options: opts}
}

// CreateAllIndexes creates all necessary indexes for the application.
// This function is idempotent - calling it multiple times is safe.
func CreateAllIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, GetAllIndexDefinitions())
}

// GetAllIndexDefinitions returns all index definitions for all collections.
func GetAllIndexDefinitions() []IndexDefinition {
	var indexes []IndexDefinition

	indexes = append(indexes, GetCompanyIndexes()...)
	indexes = append(indexes, GetOutboxIndexes()...)

	return indexes
}

// GetCompanyIndexes returns index definitions for the companies collection.
func GetCompanyIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionCompanies,
			Name:       "idx_companies_id_unique",
			Keys:       bson.D{{Key: "company_id", Value: 1}},
			Unique:     true,
		},
		{
			// Codes are stored upper-cased, so a plain unique index is enough
			Collection: CollectionCompanies,
			Name:       "idx_companies_code_unique",
			Keys:       bson.D{{Key: "code", Value: 1}},
			Unique:     true,
		},
		{
			// name_key is the lower-cased name, making uniqueness case-insensitive
			Collection: CollectionCompanies,
			Name:       "idx_companies_name_key_unique",
			Keys:       bson.D{{Key: "name_key", Value: 1}},
			Unique:     true,
		},
	}
}

// GetOutboxIndexes returns index definitions for the outbox collection.
func GetOutboxIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			// Primary index for polling unprocessed entries ordered by time
			Collection: CollectionOutbox,
			Name:       "idx_outbox_poll",
			Keys:       bson.D{{Key: "processed_at", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			// One entry per domain event, a retried commit is deduplicated here
			Collection: CollectionOutbox,
			Name:       "idx_outbox_event_id_unique",
			Keys:       bson.D{{Key: "event_id", Value: 1}},
			Unique:     true,
		},
		{
			// Index for monitoring by event type
			Collection: CollectionOutbox,
			Name:       "idx_outbox_event_type",
			Keys:       bson.D{{Key: "event_type", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
}

// CreateCollectionIndexes creates indexes for a specific collection only.
func CreateCollectionIndexes(ctx context.Context, db *mongo.Database, collectionName string) error {
	switch collectionName {
	case CollectionCompanies:
		return createIndexes(ctx, db, GetCompanyIndexes())
	case CollectionOutbox:
		return createIndexes(ctx, db, GetOutboxIndexes())
	default:
		return fmt.Errorf("unknown collection: %s", collectionName)
	}
}

func createIndexes(ctx context.Context, db *mongo.Database, indexes []IndexDefinition) error {
	for _, idx := range indexes {
		if _, err := db.Collection(idx.Collection).Indexes().CreateOne(ctx, idx.model()); err != nil {
			return fmt.Errorf("failed to create index %s on collection %s: %w", idx.Name, idx.Collection, err)
		}
	}
	return nil
}

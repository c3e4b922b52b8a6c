package mongodb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/corebus/internal/infrastructure/mongodb"
)

func TestGetCompanyIndexes(t *testing.T) {
	t.Parallel()

	indexes := mongodb.GetCompanyIndexes()

	require.Len(t, indexes, 3)
	for _, idx := range indexes {
		assert.Equal(t, mongodb.CollectionCompanies, idx.Collection)
		assert.True(t, idx.Unique, "%s should be unique", idx.Name)
	}

	code := findIndexByName(indexes, "idx_companies_code_unique")
	require.NotNil(t, code)
	assert.Equal(t, "code", code.Keys[0].Key)

	name := findIndexByName(indexes, "idx_companies_name_key_unique")
	require.NotNil(t, name)
	assert.Equal(t, "name_key", name.Keys[0].Key)
}

func TestGetOutboxIndexes(t *testing.T) {
	t.Parallel()

	indexes := mongodb.GetOutboxIndexes()

	poll := findIndexByName(indexes, "idx_outbox_poll")
	require.NotNil(t, poll)
	assert.False(t, poll.Unique)
	assert.Len(t, poll.Keys, 2)

	eventID := findIndexByName(indexes, "idx_outbox_event_id_unique")
	require.NotNil(t, eventID)
	assert.True(t, eventID.Unique)
}

func TestGetAllIndexDefinitions_UniqueNames(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, idx := range mongodb.GetAllIndexDefinitions() {
		assert.False(t, seen[idx.Name], "duplicate index name %s", idx.Name)
		seen[idx.Name] = true
	}
	assert.Len(t, seen, len(mongodb.GetCompanyIndexes())+len(mongodb.GetOutboxIndexes()))
}

func findIndexByName(indexes []mongodb.IndexDefinition, name string) *mongodb.IndexDefinition {
	for i := range indexes {
		if indexes[i].Name == name {
			return &indexes[i]
		}
	}
	return nil
}

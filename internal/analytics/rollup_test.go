package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex1431999/keyword-monitor/internal/mention"
)

func TestRollUpEntitiesMergesByValue(t *testing.T) {
	merged := rollUpEntities([]mention.Entity{
		{Value: "Acme", Count: 2, Score: 0.5},
		{Value: "Acme", Count: 3, Score: 0.9},
	}, 0)

	require.Len(t, merged, 1)
	assert.Equal(t, "Acme", merged[0].Value)
	assert.Equal(t, int64(5), merged[0].Count)
	assert.InDelta(t, 0.7, merged[0].Score, 1e-9)
}

func TestRollUpEntitiesSortsByCountThenValue(t *testing.T) {
	merged := rollUpEntities([]mention.Entity{
		{Value: "beta", Count: 1, Score: 0.1},
		{Value: "alpha", Count: 4, Score: 0.2},
		{Value: "gamma", Count: 4, Score: 0.3},
	}, 0)

	require.Len(t, merged, 3)
	assert.Equal(t, "alpha", merged[0].Value)
	assert.Equal(t, "gamma", merged[1].Value)
	assert.Equal(t, "beta", merged[2].Value)
}

func TestRollUpEntitiesLimit(t *testing.T) {
	input := []mention.Entity{
		{Value: "a", Count: 3, Score: 0.1},
		{Value: "b", Count: 2, Score: 0.2},
		{Value: "c", Count: 1, Score: 0.3},
	}

	merged := rollUpEntities(input, 2)
	require.Len(t, merged, 2)
	assert.Equal(t, "a", merged[0].Value)
	assert.Equal(t, "b", merged[1].Value)

	unbounded := rollUpEntities(input, 0)
	assert.Len(t, unbounded, 3)
}

func TestRollUpEntitiesEmpty(t *testing.T) {
	merged := rollUpEntities(nil, 10)
	require.NotNil(t, merged)
	assert.Empty(t, merged)
}

func TestRollUpCategoriesAveragesConfidence(t *testing.T) {
	merged := rollUpCategories([]mention.Category{
		{Value: "Technology", Count: 1, Confidence: 0.6},
		{Value: "Technology", Count: 1, Confidence: 0.8},
		{Value: "Finance", Count: 5, Confidence: 0.9},
	}, 0)

	require.Len(t, merged, 2)
	assert.Equal(t, "Finance", merged[0].Value)
	assert.Equal(t, int64(5), merged[0].Count)
	assert.Equal(t, "Technology", merged[1].Value)
	assert.Equal(t, int64(2), merged[1].Count)
	assert.InDelta(t, 0.7, merged[1].Confidence, 1e-9)
}

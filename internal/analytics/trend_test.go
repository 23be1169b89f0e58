package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketTrendSplitsAtGranularity(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []scoredRow{
		{Timestamp: base, Score: 0.2},
		{Timestamp: base.Add(32 * time.Minute), Score: 0.4},
		{Timestamp: base.Add(62 * time.Minute), Score: 0.6},
		{Timestamp: base.Add(92 * time.Minute), Score: 0.8},
	}

	points := bucketTrend(rows, time.Hour)

	require.Len(t, points, 2)
	assert.Equal(t, base, points[0].Timestamp)
	assert.InDelta(t, 0.3, points[0].Score, 1e-9)
	assert.Equal(t, 2, points[0].Count)
	assert.Equal(t, base.Add(62*time.Minute), points[1].Timestamp)
	assert.InDelta(t, 0.7, points[1].Score, 1e-9)
	assert.Equal(t, 2, points[1].Count)
}

func TestBucketTrendWindowEndInclusive(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []scoredRow{
		{Timestamp: base, Score: 0.0},
		{Timestamp: base.Add(time.Hour), Score: 1.0},
	}

	points := bucketTrend(rows, time.Hour)

	require.Len(t, points, 1)
	assert.InDelta(t, 0.5, points[0].Score, 1e-9)
	assert.Equal(t, 2, points[0].Count)
}

func TestBucketTrendEmptyInput(t *testing.T) {
	points := bucketTrend(nil, time.Hour)
	require.NotNil(t, points)
	assert.Empty(t, points)
}

func TestBucketTrendSingleRow(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	points := bucketTrend([]scoredRow{{Timestamp: base, Score: 0.9}}, time.Hour)

	require.Len(t, points, 1)
	assert.Equal(t, base, points[0].Timestamp)
	assert.InDelta(t, 0.9, points[0].Score, 1e-9)
	assert.Equal(t, 1, points[0].Count)
}

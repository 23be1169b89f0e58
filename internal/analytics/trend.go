package analytics

import (
	"time"
)

// TrendPoint is one bucket of the sentiment trend: the bucket's opening
// timestamp, the mean score of the mentions inside it, and how many mentions
// contributed.
type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
	Count     int       `json:"count"`
}

// scoredRow is one scored mention as fetched for trend bucketing, already
// sorted by timestamp ascending.
type scoredRow struct {
	Timestamp time.Time
	Score     float64
}

// bucketTrend folds scored rows into contiguous time buckets. A bucket opens
// at the first uncovered row's timestamp and absorbs every row up to and
// including granularity past the open; the next row outside that window opens
// the next bucket. Rows must be sorted by timestamp ascending. An empty input
// yields an empty, non-nil slice.
func bucketTrend(rows []scoredRow, granularity time.Duration) []TrendPoint {
	points := []TrendPoint{}
	i := 0
	for i < len(rows) {
		open := rows[i].Timestamp
		end := open.Add(granularity)

		var sum float64
		count := 0
		for i < len(rows) && !rows[i].Timestamp.After(end) {
			sum += rows[i].Score
			count++
			i++
		}

		points = append(points, TrendPoint{
			Timestamp: open,
			Score:     sum / float64(count),
			Count:     count,
		})
	}
	return points
}

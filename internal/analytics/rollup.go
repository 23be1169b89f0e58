package analytics

import (
	"sort"

	"github.com/alex1431999/keyword-monitor/internal/mention"
)

// rollUpEntities merges per-mention entity annotations into one ranked list.
// Occurrences sharing a value have their counts summed and their scores
// averaged without count weighting. The result is sorted by summed count
// descending, value ascending on ties, and truncated at limit when limit is
// positive.
func rollUpEntities(entities []mention.Entity, limit int) []mention.Entity {
	type acc struct {
		count    int64
		scoreSum float64
		n        int
	}
	byValue := make(map[string]*acc)
	order := []string{}
	for _, e := range entities {
		a, ok := byValue[e.Value]
		if !ok {
			a = &acc{}
			byValue[e.Value] = a
			order = append(order, e.Value)
		}
		a.count += e.Count
		a.scoreSum += e.Score
		a.n++
	}

	merged := make([]mention.Entity, 0, len(order))
	for _, value := range order {
		a := byValue[value]
		merged = append(merged, mention.Entity{
			Value: value,
			Count: a.count,
			Score: a.scoreSum / float64(a.n),
		})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Count != merged[j].Count {
			return merged[i].Count > merged[j].Count
		}
		return merged[i].Value < merged[j].Value
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// rollUpCategories is the category counterpart of rollUpEntities, averaging
// confidence instead of score.
func rollUpCategories(categories []mention.Category, limit int) []mention.Category {
	type acc struct {
		count   int64
		confSum float64
		n       int
	}
	byValue := make(map[string]*acc)
	order := []string{}
	for _, c := range categories {
		a, ok := byValue[c.Value]
		if !ok {
			a = &acc{}
			byValue[c.Value] = a
			order = append(order, c.Value)
		}
		a.count += c.Count
		a.confSum += c.Confidence
		a.n++
	}

	merged := make([]mention.Category, 0, len(order))
	for _, value := range order {
		a := byValue[value]
		merged = append(merged, mention.Category{
			Value:      value,
			Count:      a.count,
			Confidence: a.confSum / float64(a.n),
		})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Count != merged[j].Count {
			return merged[i].Count > merged[j].Count
		}
		return merged[i].Value < merged[j].Value
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// Package analytics computes read-side views over the mention store: the
// time-bucketed sentiment trend, the keyword-wide average score, ranked
// entity and category roll-ups, and the raw text listing. Views are cached
// in Redis per keyword and invalidated on annotation writes.
package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alex1431999/keyword-monitor/internal/mention"
	"github.com/alex1431999/keyword-monitor/pkg/config"
	"github.com/alex1431999/keyword-monitor/pkg/metrics"
	"github.com/alex1431999/keyword-monitor/pkg/postgres"
)

// Text is one mention's raw text with its score and timestamp, as returned
// by the Texts view.
type Text struct {
	Text      string    `json:"text"`
	Score     *float64  `json:"score,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Pipeline answers analytics queries for a single keyword.
type Pipeline struct {
	db      *postgres.Client
	cache   *Cache
	cfg     config.AnalyticsConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPipeline creates an analytics pipeline. cache and m may be nil when
// caching or metrics are not wired.
func NewPipeline(db *postgres.Client, cache *Cache, cfg config.AnalyticsConfig, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		db:      db,
		cache:   cache,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "analytics-pipeline"),
	}
}

// PlottingData returns the keyword's sentiment trend bucketed at the given
// granularity, considering only mentions at or after since. A zero since
// means no cutoff; granularity <= 0 falls back to the configured default.
// Unscored mentions are excluded; a keyword with no scored mentions yields
// an empty slice.
func (p *Pipeline) PlottingData(ctx context.Context, keywordID uuid.UUID, since time.Time, granularity time.Duration) ([]TrendPoint, error) {
	if granularity <= 0 {
		granularity = p.cfg.DefaultGranularity
	}
	defer p.observe("trend")()

	var points []TrendPoint
	key := cacheKey("trend", keywordID,
		fmt.Sprintf("since=%d:gran=%s", since.Unix(), granularity))
	err := p.cache.getOrCompute(ctx, key, &points, func() (any, error) {
		rows, err := p.scoredRows(ctx, keywordID, since)
		if err != nil {
			return nil, err
		}
		return bucketTrend(rows, granularity), nil
	})
	return points, err
}

// AverageScore returns the mean score across the keyword's scored mentions,
// or nil when none are scored. Unscored mentions do not drag the average
// toward zero; they are simply absent.
func (p *Pipeline) AverageScore(ctx context.Context, keywordID uuid.UUID) (*float64, error) {
	defer p.observe("average")()

	var avg *float64
	key := cacheKey("average", keywordID, "all")
	err := p.cache.getOrCompute(ctx, key, &avg, func() (any, error) {
		var value sql.NullFloat64
		err := p.db.DB.QueryRowContext(ctx,
			`SELECT AVG(score) FROM mentions WHERE keyword_ref = $1`, keywordID,
		).Scan(&value)
		if err != nil {
			return nil, fmt.Errorf("averaging scores: %w", err)
		}
		if !value.Valid {
			return (*float64)(nil), nil
		}
		return &value.Float64, nil
	})
	return avg, err
}

// Entities returns the keyword's entity roll-up, ranked by summed count
// descending and truncated at limit. limit <= 0 means unbounded; limits
// above the configured maximum are clamped.
func (p *Pipeline) Entities(ctx context.Context, keywordID uuid.UUID, limit int) ([]mention.Entity, error) {
	limit = p.clampLimit(limit)
	defer p.observe("entities")()

	var entities []mention.Entity
	key := cacheKey("entities", keywordID, fmt.Sprintf("limit=%d", limit))
	err := p.cache.getOrCompute(ctx, key, &entities, func() (any, error) {
		rows, err := p.db.DB.QueryContext(ctx,
			`SELECT entities FROM mentions WHERE keyword_ref = $1`, keywordID,
		)
		if err != nil {
			return nil, fmt.Errorf("querying mention entities: %w", err)
		}
		defer rows.Close()

		flat := []mention.Entity{}
		for rows.Next() {
			var data []byte
			if err := rows.Scan(&data); err != nil {
				return nil, fmt.Errorf("scanning mention entities: %w", err)
			}
			var batch []mention.Entity
			if err := json.Unmarshal(data, &batch); err != nil {
				return nil, fmt.Errorf("unmarshaling mention entities: %w", err)
			}
			flat = append(flat, batch...)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return rollUpEntities(flat, limit), nil
	})
	return entities, err
}

// Categories returns the keyword's category roll-up, with the same ranking
// and limit semantics as Entities.
func (p *Pipeline) Categories(ctx context.Context, keywordID uuid.UUID, limit int) ([]mention.Category, error) {
	limit = p.clampLimit(limit)
	defer p.observe("categories")()

	var categories []mention.Category
	key := cacheKey("categories", keywordID, fmt.Sprintf("limit=%d", limit))
	err := p.cache.getOrCompute(ctx, key, &categories, func() (any, error) {
		rows, err := p.db.DB.QueryContext(ctx,
			`SELECT categories FROM mentions WHERE keyword_ref = $1`, keywordID,
		)
		if err != nil {
			return nil, fmt.Errorf("querying mention categories: %w", err)
		}
		defer rows.Close()

		flat := []mention.Category{}
		for rows.Next() {
			var data []byte
			if err := rows.Scan(&data); err != nil {
				return nil, fmt.Errorf("scanning mention categories: %w", err)
			}
			var batch []mention.Category
			if err := json.Unmarshal(data, &batch); err != nil {
				return nil, fmt.Errorf("unmarshaling mention categories: %w", err)
			}
			flat = append(flat, batch...)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return rollUpCategories(flat, limit), nil
	})
	return categories, err
}

// Texts returns the keyword's mention texts newest first, truncated at
// limit. limit <= 0 means unbounded. Unscored mentions are included with a
// nil score.
func (p *Pipeline) Texts(ctx context.Context, keywordID uuid.UUID, limit int) ([]Text, error) {
	defer p.observe("texts")()

	var texts []Text
	key := cacheKey("texts", keywordID, fmt.Sprintf("limit=%d", limit))
	err := p.cache.getOrCompute(ctx, key, &texts, func() (any, error) {
		query := `SELECT text, score, ts FROM mentions WHERE keyword_ref = $1 ORDER BY ts DESC`
		args := []any{keywordID}
		if limit > 0 {
			query += ` LIMIT $2`
			args = append(args, limit)
		}

		rows, err := p.db.DB.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("querying mention texts: %w", err)
		}
		defer rows.Close()

		result := []Text{}
		for rows.Next() {
			var t Text
			var score sql.NullFloat64
			if err := rows.Scan(&t.Text, &score, &t.Timestamp); err != nil {
				return nil, fmt.Errorf("scanning mention text: %w", err)
			}
			if score.Valid {
				t.Score = &score.Float64
			}
			result = append(result, t)
		}
		return result, rows.Err()
	})
	return texts, err
}

// Invalidate drops every cached view of the given keyword. Called by the
// ingest handlers after any write touching the keyword's mentions.
func (p *Pipeline) Invalidate(ctx context.Context, keywordID uuid.UUID) error {
	return p.cache.Invalidate(ctx, keywordID)
}

// scoredRows fetches the keyword's scored mentions at or after since, sorted
// by timestamp.
func (p *Pipeline) scoredRows(ctx context.Context, keywordID uuid.UUID, since time.Time) ([]scoredRow, error) {
	rows, err := p.db.DB.QueryContext(ctx,
		`SELECT ts, score FROM mentions
		 WHERE keyword_ref = $1 AND score IS NOT NULL AND ts >= $2
		 ORDER BY ts`,
		keywordID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("querying scored mentions: %w", err)
	}
	defer rows.Close()

	var result []scoredRow
	for rows.Next() {
		var r scoredRow
		if err := rows.Scan(&r.Timestamp, &r.Score); err != nil {
			return nil, fmt.Errorf("scanning scored mention: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// clampLimit bounds a roll-up limit at the configured maximum.
func (p *Pipeline) clampLimit(limit int) int {
	if p.cfg.MaxRollupLimit > 0 && limit > p.cfg.MaxRollupLimit {
		return p.cfg.MaxRollupLimit
	}
	return limit
}

// observe counts the query and returns a stopper recording its duration.
func (p *Pipeline) observe(view string) func() {
	if p.metrics == nil {
		return func() {}
	}
	p.metrics.AnalyticsQueriesTotal.WithLabelValues(view).Inc()
	start := time.Now()
	return func() {
		p.metrics.AnalyticsQueryDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
	}
}

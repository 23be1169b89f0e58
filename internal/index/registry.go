package index

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/alex1431999/keyword-monitor/internal/identity"
	apperrors "github.com/alex1431999/keyword-monitor/pkg/errors"
	"github.com/alex1431999/keyword-monitor/pkg/metrics"
	"github.com/alex1431999/keyword-monitor/pkg/postgres"
)

const selectColumns = `id, name, index_type, users, deleted`

// Registry provides all index persistence operations.
type Registry struct {
	db      *postgres.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRegistry creates an index registry. m may be nil when metrics are not
// wired.
func NewRegistry(db *postgres.Client, m *metrics.Metrics) *Registry {
	return &Registry{
		db:      db,
		metrics: m,
		logger:  slog.Default().With("component", "index-registry"),
	}
}

// Add creates an index named name owned by username, or joins username onto
// the existing index of that name. A join also clears the deleted flag:
// growing membership implies liveness.
func (r *Registry) Add(ctx context.Context, name string, indexType Type, username string) (*Index, error) {
	if !indexType.Valid() {
		return nil, apperrors.Newf(
			apperrors.ErrUnsupportedIndexType,
			http.StatusBadRequest,
			"unsupported index type %q", indexType,
		)
	}

	existing, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		_, err := r.db.DB.ExecContext(ctx,
			`UPDATE indexes
			 SET users = CASE WHEN $2 = ANY(users) THEN users ELSE array_append(users, $2) END,
			     deleted = FALSE
			 WHERE id = $1`,
			existing.ID, username,
		)
		if err != nil {
			return nil, fmt.Errorf("adding user to index: %w", err)
		}
		r.countMutation("join")
		return r.Get(ctx, name)
	}

	id := identity.New()
	_, err = r.db.DB.ExecContext(ctx,
		`INSERT INTO indexes (id, name, index_type, users, deleted)
		 VALUES ($1, $2, $3, $4, FALSE)`,
		id, name, string(indexType), pq.Array([]string{username}),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting index: %w", err)
	}
	r.countMutation("create")
	r.logger.Info("index created", "name", name, "type", indexType, "user", username)
	return r.Get(ctx, name)
}

// Get returns the index with the given unique name, or nil when none exists.
func (r *Registry) Get(ctx context.Context, name string) (*Index, error) {
	return scanIndex(r.db.DB.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM indexes WHERE name = $1`, name,
	))
}

// GetByID returns the index with the given ID, or nil when none exists.
func (r *Registry) GetByID(ctx context.Context, id uuid.UUID) (*Index, error) {
	return scanIndex(r.db.DB.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM indexes WHERE id = $1`, id,
	))
}

// ByType returns every index of the given type that username belongs to.
// It fails with ErrUnsupportedIndexType for a type outside the enum.
func (r *Registry) ByType(ctx context.Context, indexType Type, username string) ([]Index, error) {
	if !indexType.Valid() {
		return nil, apperrors.Newf(
			apperrors.ErrUnsupportedIndexType,
			http.StatusBadRequest,
			"unsupported index type %q", indexType,
		)
	}

	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM indexes WHERE index_type = $1 AND $2 = ANY(users)`,
		string(indexType), username,
	)
	if err != nil {
		return nil, fmt.Errorf("querying indexes by type: %w", err)
	}
	defer rows.Close()
	return scanIndexes(rows)
}

// ForUser returns every index username belongs to.
func (r *Registry) ForUser(ctx context.Context, username string) ([]Index, error) {
	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM indexes WHERE $1 = ANY(users)`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("querying indexes for user: %w", err)
	}
	defer rows.Close()
	return scanIndexes(rows)
}

func (r *Registry) countMutation(op string) {
	if r.metrics != nil {
		r.metrics.MembershipMutationsTotal.WithLabelValues("index", op).Inc()
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIndexFields(s rowScanner) (*Index, error) {
	var idx Index
	var users pq.StringArray
	if err := s.Scan(&idx.ID, &idx.Name, &idx.Type, &users, &idx.Deleted); err != nil {
		return nil, err
	}
	idx.Users = []string(users)
	return &idx, nil
}

func scanIndex(row *sql.Row) (*Index, error) {
	idx, err := scanIndexFields(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning index: %w", err)
	}
	return idx, nil
}

func scanIndexes(rows *sql.Rows) ([]Index, error) {
	var indexes []Index
	for rows.Next() {
		idx, err := scanIndexFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning index row: %w", err)
		}
		indexes = append(indexes, *idx)
	}
	return indexes, rows.Err()
}

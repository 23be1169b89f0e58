package keyword

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/alex1431999/keyword-monitor/internal/identity"
	"github.com/alex1431999/keyword-monitor/internal/meta"
	apperrors "github.com/alex1431999/keyword-monitor/pkg/errors"
	"github.com/alex1431999/keyword-monitor/pkg/metrics"
	"github.com/alex1431999/keyword-monitor/pkg/postgres"
)

const selectColumns = `id, keyword_string, language, users, indexes, deleted`

// Registry provides all keyword persistence operations.
type Registry struct {
	db      *postgres.Client
	meta    *meta.Registry
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRegistry creates a keyword registry. meta resolves the public-keyword
// allowlist; m may be nil when metrics are not wired.
func NewRegistry(db *postgres.Client, metaRegistry *meta.Registry, m *metrics.Metrics) *Registry {
	return &Registry{
		db:      db,
		meta:    metaRegistry,
		metrics: m,
		logger:  slog.Default().With("component", "keyword-registry"),
	}
}

// Add creates a keyword for (keywordString, language) owned by username, or
// joins username onto the existing keyword. Joining is idempotent: users has
// set semantics. The deleted flag is recomputed after a join.
func (r *Registry) Add(ctx context.Context, keywordString, language, username string) (*Keyword, error) {
	if !IsSupportedLanguage(language) {
		return nil, apperrors.Newf(
			apperrors.ErrUnsupportedLanguage,
			http.StatusBadRequest,
			"unsupported language %q", language,
		)
	}

	existing, err := r.Get(ctx, keywordString, language, "")
	if err != nil {
		return nil, err
	}

	if existing != nil {
		_, err := r.db.DB.ExecContext(ctx,
			`UPDATE keywords
			 SET users = CASE WHEN $2 = ANY(users) THEN users ELSE array_append(users, $2) END
			 WHERE id = $1`,
			existing.ID, username,
		)
		if err != nil {
			return nil, fmt.Errorf("adding user to keyword: %w", err)
		}
		if err := r.setDeletedFlag(ctx, existing.ID); err != nil {
			return nil, err
		}
		r.countMutation("keyword", "join")
		return r.Get(ctx, keywordString, language, username)
	}

	id := identity.New()
	_, err = r.db.DB.ExecContext(ctx,
		`INSERT INTO keywords (id, keyword_string, language, users, indexes, deleted)
		 VALUES ($1, $2, $3, $4, '{}', FALSE)`,
		id, keywordString, language, pq.Array([]string{username}),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting keyword: %w", err)
	}
	r.countMutation("keyword", "create")
	r.logger.Info("keyword created",
		"keyword", keywordString,
		"language", language,
		"user", username,
	)
	return r.Get(ctx, keywordString, language, username)
}

// Get returns the keyword matching (keywordString, language), or nil when
// none matches. A non-empty username additionally requires membership.
func (r *Registry) Get(ctx context.Context, keywordString, language, username string) (*Keyword, error) {
	query := `SELECT ` + selectColumns + ` FROM keywords WHERE keyword_string = $1 AND language = $2`
	args := []any{keywordString, language}
	if username != "" {
		query += ` AND $3 = ANY(users)`
		args = append(args, username)
	}
	return scanKeyword(r.db.DB.QueryRowContext(ctx, query, args...))
}

// GetByID returns the keyword with the given ID, or nil when none exists.
// A non-empty username additionally requires membership.
func (r *Registry) GetByID(ctx context.Context, id uuid.UUID, username string) (*Keyword, error) {
	query := `SELECT ` + selectColumns + ` FROM keywords WHERE id = $1`
	args := []any{id}
	if username != "" {
		query += ` AND $2 = ANY(users)`
		args = append(args, username)
	}
	return scanKeyword(r.db.DB.QueryRowContext(ctx, query, args...))
}

// ForUser returns every keyword username belongs to.
func (r *Registry) ForUser(ctx context.Context, username string) ([]Keyword, error) {
	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM keywords WHERE $1 = ANY(users)`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("querying keywords for user: %w", err)
	}
	defer rows.Close()
	return scanKeywords(rows)
}

// Delete removes username from the keyword's users set and recomputes the
// deleted flag. It returns the number of rows the removal modified, which is
// zero when username was not a member.
func (r *Registry) Delete(ctx context.Context, id uuid.UUID, username string) (int64, error) {
	res, err := r.db.DB.ExecContext(ctx,
		`UPDATE keywords SET users = array_remove(users, $2)
		 WHERE id = $1 AND $2 = ANY(users)`,
		id, username,
	)
	if err != nil {
		return 0, fmt.Errorf("removing user from keyword: %w", err)
	}
	modified, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}

	// Recompute regardless of whether the removal changed anything, so a
	// stale flag from an earlier race is corrected here.
	if err := r.setDeletedFlag(ctx, id); err != nil {
		return modified, err
	}
	r.countMutation("keyword", "leave")
	return modified, nil
}

// AddIndex adds indexID to the keyword's indexes set (idempotent) and
// returns the refreshed keyword, or nil when the keyword does not exist.
func (r *Registry) AddIndex(ctx context.Context, keywordID, indexID uuid.UUID) (*Keyword, error) {
	res, err := r.db.DB.ExecContext(ctx,
		`UPDATE keywords
		 SET indexes = CASE WHEN $2::text = ANY(indexes) THEN indexes ELSE array_append(indexes, $2::text) END
		 WHERE id = $1`,
		keywordID, indexID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("adding index to keyword: %w", err)
	}
	matched, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("reading rows affected: %w", err)
	}
	if matched == 0 {
		return nil, nil
	}
	if err := r.setDeletedFlag(ctx, keywordID); err != nil {
		return nil, err
	}
	r.countMutation("keyword", "link-index")
	return r.GetByID(ctx, keywordID, "")
}

// RemoveIndex removes indexID from the keyword's indexes set (idempotent)
// and returns the refreshed keyword, or nil when the keyword does not exist.
func (r *Registry) RemoveIndex(ctx context.Context, keywordID, indexID uuid.UUID) (*Keyword, error) {
	res, err := r.db.DB.ExecContext(ctx,
		`UPDATE keywords SET indexes = array_remove(indexes, $2::text) WHERE id = $1`,
		keywordID, indexID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("removing index from keyword: %w", err)
	}
	matched, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("reading rows affected: %w", err)
	}
	if matched == 0 {
		return nil, nil
	}
	if err := r.setDeletedFlag(ctx, keywordID); err != nil {
		return nil, err
	}
	r.countMutation("keyword", "unlink-index")
	return r.GetByID(ctx, keywordID, "")
}

// ByIndex returns every keyword linked to indexID.
func (r *Registry) ByIndex(ctx context.Context, indexID uuid.UUID) ([]Keyword, error) {
	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM keywords WHERE $1 = ANY(indexes)`,
		indexID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying keywords by index: %w", err)
	}
	defer rows.Close()
	return scanKeywords(rows)
}

// Public resolves the admin-curated public keyword list. IDs that no longer
// resolve to a keyword are dropped silently.
func (r *Registry) Public(ctx context.Context) ([]Keyword, error) {
	ids, err := r.meta.PublicKeywordIDs(ctx)
	if err != nil {
		return nil, err
	}

	keywords := make([]Keyword, 0, len(ids))
	for _, id := range ids {
		kw, err := r.GetByID(ctx, id, "")
		if err != nil {
			return nil, err
		}
		if kw != nil {
			keywords = append(keywords, *kw)
		}
	}
	return keywords, nil
}

// EachBatch scans the whole keywords table in id-ordered batches of the
// given size, invoking fn for each batch. Keyset pagination keeps each round
// trip short so bulk jobs never hold a long-lived server-side cursor.
func (r *Registry) EachBatch(ctx context.Context, size int, fn func(batch []Keyword) error) error {
	if size <= 0 {
		size = 100
	}
	var after uuid.UUID
	for {
		rows, err := r.db.DB.QueryContext(ctx,
			`SELECT `+selectColumns+` FROM keywords WHERE id > $1 ORDER BY id LIMIT $2`,
			after, size,
		)
		if err != nil {
			return fmt.Errorf("querying keyword batch: %w", err)
		}
		batch, err := scanKeywords(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		after = batch[len(batch)-1].ID
	}
}

// setDeletedFlag re-reads the keyword's membership and persists
// deleted = (no users and no indexes). Read-then-write: a concurrent
// membership change may leave the flag stale until the next mutation.
func (r *Registry) setDeletedFlag(ctx context.Context, id uuid.UUID) error {
	var users, indexes pq.StringArray
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT users, indexes FROM keywords WHERE id = $1`, id,
	).Scan(&users, &indexes)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading keyword membership: %w", err)
	}

	deleted := len(users) == 0 && len(indexes) == 0
	if _, err := r.db.DB.ExecContext(ctx,
		`UPDATE keywords SET deleted = $2 WHERE id = $1`, id, deleted,
	); err != nil {
		return fmt.Errorf("persisting deleted flag: %w", err)
	}
	return nil
}

func (r *Registry) countMutation(entity, op string) {
	if r.metrics != nil {
		r.metrics.MembershipMutationsTotal.WithLabelValues(entity, op).Inc()
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKeywordFields(s rowScanner) (*Keyword, error) {
	var k Keyword
	var users, indexes pq.StringArray
	if err := s.Scan(&k.ID, &k.KeywordString, &k.Language, &users, &indexes, &k.Deleted); err != nil {
		return nil, err
	}
	k.Users = []string(users)
	k.Indexes = make([]uuid.UUID, 0, len(indexes))
	for _, raw := range indexes {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing stored index id %q: %w", raw, err)
		}
		k.Indexes = append(k.Indexes, id)
	}
	return &k, nil
}

func scanKeyword(row *sql.Row) (*Keyword, error) {
	kw, err := scanKeywordFields(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning keyword: %w", err)
	}
	return kw, nil
}

func scanKeywords(rows *sql.Rows) ([]Keyword, error) {
	var keywords []Keyword
	for rows.Next() {
		kw, err := scanKeywordFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning keyword row: %w", err)
		}
		keywords = append(keywords, *kw)
	}
	return keywords, rows.Err()
}

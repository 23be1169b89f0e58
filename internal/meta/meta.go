// Package meta owns the singleton meta record: admin-curated settings that
// cut across the rest of the data model, currently the set of publicly
// visible keywords. The record exists zero or one times per database.
package meta

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "github.com/alex1431999/keyword-monitor/pkg/errors"
	"github.com/alex1431999/keyword-monitor/pkg/postgres"
)

// Registry provides access to the singleton meta record.
type Registry struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewRegistry creates a meta registry.
func NewRegistry(db *postgres.Client) *Registry {
	return &Registry{
		db:     db,
		logger: slog.Default().With("component", "meta-registry"),
	}
}

// SetPublicKeywordIDs replaces the public-keyword allowlist, creating the
// meta record if it does not exist yet.
func (r *Registry) SetPublicKeywordIDs(ctx context.Context, ids []uuid.UUID) error {
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}

	_, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO meta (singleton, keywords_public_ids) VALUES (TRUE, $1)
		 ON CONFLICT (singleton) DO UPDATE SET keywords_public_ids = EXCLUDED.keywords_public_ids`,
		pq.Array(raw),
	)
	if err != nil {
		return fmt.Errorf("setting public keyword ids: %w", err)
	}
	r.logger.Info("public keyword ids set", "count", len(ids))
	return nil
}

// PublicKeywordIDs returns the public-keyword allowlist. It fails with
// ErrMetaUninitialized when the meta record has never been written.
func (r *Registry) PublicKeywordIDs(ctx context.Context) ([]uuid.UUID, error) {
	var raw pq.StringArray
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT keywords_public_ids FROM meta WHERE singleton`,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(
			apperrors.ErrMetaUninitialized,
			http.StatusNotFound,
			"no meta record exists",
		)
	}
	if err != nil {
		return nil, fmt.Errorf("reading public keyword ids: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parsing stored public keyword id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IsInitialised reports whether the meta record exists.
func (r *Registry) IsInitialised(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM meta WHERE singleton)`,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking meta existence: %w", err)
	}
	return exists, nil
}

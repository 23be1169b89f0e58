// Package schema declares the required shape of every stored entity and
// applies it to the database. Constraints (NOT NULL, CHECK, unique and
// partial unique indexes) make the store itself reject writes that violate
// the declared shape, so validation does not depend on every writer being
// well behaved.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/alex1431999/keyword-monitor/pkg/postgres"
)

// statements are applied in order; each is idempotent.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS keywords (
		id             UUID PRIMARY KEY,
		keyword_string TEXT NOT NULL,
		language       TEXT NOT NULL CHECK (language IN ('zh','en','fr','de','it','ja','ko','pt','es')),
		users          TEXT[] NOT NULL DEFAULT '{}',
		indexes        TEXT[] NOT NULL DEFAULT '{}',
		deleted        BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (keyword_string, language)
	)`,

	`CREATE TABLE IF NOT EXISTS indexes (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		index_type TEXT NOT NULL CHECK (index_type IN ('COMPANY','COMPETITION','BRANCH','MARKET')),
		users      TEXT[] NOT NULL DEFAULT '{}',
		deleted    BOOLEAN NOT NULL DEFAULT FALSE
	)`,

	`CREATE TABLE IF NOT EXISTS mentions (
		id          UUID PRIMARY KEY,
		keyword_ref UUID NOT NULL,
		source_type TEXT NOT NULL CHECK (source_type IN ('TWITTER','NEWS','NYT')),
		text        TEXT NOT NULL,
		ts          TIMESTAMPTZ NOT NULL,
		score       DOUBLE PRECISION,
		entities    JSONB NOT NULL DEFAULT '[]',
		categories  JSONB NOT NULL DEFAULT '[]',
		tweet_id    BIGINT,
		likes       INTEGER,
		retweets    INTEGER,
		author      TEXT,
		title       TEXT,
		article_id  TEXT
	)`,

	// Natural keys: one per source type. Re-crawling the same item updates
	// the existing row through these indexes.
	`CREATE UNIQUE INDEX IF NOT EXISTS mentions_tweet_id_key
		ON mentions (tweet_id) WHERE source_type = 'TWITTER'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS mentions_author_title_key
		ON mentions (author, title) WHERE source_type = 'NEWS'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS mentions_article_id_key
		ON mentions (article_id) WHERE source_type = 'NYT'`,

	`CREATE INDEX IF NOT EXISTS mentions_keyword_ts_idx
		ON mentions (keyword_ref, ts)`,
	`CREATE INDEX IF NOT EXISTS mentions_unscored_idx
		ON mentions (ts) WHERE score IS NULL`,

	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,

	// Single-row table: the CHECK pins the only legal primary key value.
	`CREATE TABLE IF NOT EXISTS meta (
		singleton           BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
		keywords_public_ids TEXT[] NOT NULL DEFAULT '{}'
	)`,
}

// Ensure applies every schema statement against the database. The statements
// run in a single transaction so a partially applied schema never survives a
// failure.
func Ensure(ctx context.Context, db *postgres.Client) error {
	logger := slog.Default().With("component", "schema")
	err := db.InTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("applying schema statement: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("schema ensured", "statements", len(statements))
	return nil
}

// Drop removes every table. Test harness use only.
func Drop(ctx context.Context, db *postgres.Client) error {
	for _, table := range []string{"mentions", "keywords", "indexes", "users", "meta"} {
		if _, err := db.DB.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
			return fmt.Errorf("dropping table %s: %w", table, err)
		}
	}
	return nil
}

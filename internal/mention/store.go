package mention

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alex1431999/keyword-monitor/internal/identity"
	"github.com/alex1431999/keyword-monitor/pkg/postgres"
)

// mentionColumns is the shared projection for reads, joined with the parent
// keyword for denormalized display fields. The join is LEFT: a keyword whose
// membership was emptied may dangle, and its mentions stay readable.
const mentionColumns = `
	m.id, m.keyword_ref, m.source_type, m.text, m.ts, m.score,
	m.entities, m.categories,
	m.tweet_id, m.likes, m.retweets, m.author, m.title, m.article_id,
	k.keyword_string, k.language`

const mentionFrom = ` FROM mentions m LEFT JOIN keywords k ON k.id = m.keyword_ref`

// Store provides all mention persistence operations.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewStore creates a mention store.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "mention-store"),
	}
}

// AddTwitter upserts a Twitter mention keyed on its tweet id. Re-ingesting
// an existing tweet refreshes the ingest fields only: an already-assigned
// score and annotation arrays are left untouched. Returns the stored row's
// id.
func (s *Store) AddTwitter(ctx context.Context, keywordID uuid.UUID, tweetID int64, text string, likes, retweets int, timestamp time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.DB.QueryRowContext(ctx,
		`INSERT INTO mentions (id, keyword_ref, source_type, text, ts, tweet_id, likes, retweets, entities, categories)
		 VALUES ($1, $2, 'TWITTER', $3, $4, $5, $6, $7, '[]', '[]')
		 ON CONFLICT (tweet_id) WHERE source_type = 'TWITTER'
		 DO UPDATE SET keyword_ref = EXCLUDED.keyword_ref,
		               text        = EXCLUDED.text,
		               ts          = EXCLUDED.ts,
		               likes       = EXCLUDED.likes,
		               retweets    = EXCLUDED.retweets
		 RETURNING id`,
		identity.New(), keywordID, text, timestamp, tweetID, likes, retweets,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upserting twitter mention: %w", err)
	}
	return id, nil
}

// AddNews upserts a news mention keyed on (author, title), with the same
// non-destructive update discipline as AddTwitter.
func (s *Store) AddNews(ctx context.Context, keywordID uuid.UUID, author, title, text string, timestamp time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.DB.QueryRowContext(ctx,
		`INSERT INTO mentions (id, keyword_ref, source_type, text, ts, author, title, entities, categories)
		 VALUES ($1, $2, 'NEWS', $3, $4, $5, $6, '[]', '[]')
		 ON CONFLICT (author, title) WHERE source_type = 'NEWS'
		 DO UPDATE SET keyword_ref = EXCLUDED.keyword_ref,
		               text        = EXCLUDED.text,
		               ts          = EXCLUDED.ts
		 RETURNING id`,
		identity.New(), keywordID, text, timestamp, author, title,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upserting news mention: %w", err)
	}
	return id, nil
}

// AddNYT upserts a long-form article mention keyed on its article id, with
// the same non-destructive update discipline as AddTwitter.
func (s *Store) AddNYT(ctx context.Context, keywordID uuid.UUID, articleID, text string, timestamp time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.DB.QueryRowContext(ctx,
		`INSERT INTO mentions (id, keyword_ref, source_type, text, ts, article_id, entities, categories)
		 VALUES ($1, $2, 'NYT', $3, $4, $5, '[]', '[]')
		 ON CONFLICT (article_id) WHERE source_type = 'NYT'
		 DO UPDATE SET keyword_ref = EXCLUDED.keyword_ref,
		               text        = EXCLUDED.text,
		               ts          = EXCLUDED.ts
		 RETURNING id`,
		identity.New(), keywordID, text, timestamp, articleID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upserting nyt mention: %w", err)
	}
	return id, nil
}

// GetByID returns the mention with the given id, joined with its parent
// keyword, or nil when none exists.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Mention, error) {
	return scanMention(s.db.DB.QueryRowContext(ctx,
		`SELECT `+mentionColumns+mentionFrom+` WHERE m.id = $1`, id,
	))
}

// GetTwitterByTweetID returns the Twitter mention with the given tweet id,
// or nil when none exists.
func (s *Store) GetTwitterByTweetID(ctx context.Context, tweetID int64) (*Mention, error) {
	return scanMention(s.db.DB.QueryRowContext(ctx,
		`SELECT `+mentionColumns+mentionFrom+` WHERE m.source_type = 'TWITTER' AND m.tweet_id = $1`,
		tweetID,
	))
}

// GetNewsByNaturalKey returns the news mention with the given author and
// title, or nil when none exists.
func (s *Store) GetNewsByNaturalKey(ctx context.Context, author, title string) (*Mention, error) {
	return scanMention(s.db.DB.QueryRowContext(ctx,
		`SELECT `+mentionColumns+mentionFrom+` WHERE m.source_type = 'NEWS' AND m.author = $1 AND m.title = $2`,
		author, title,
	))
}

// GetNYTByArticleID returns the long-form article mention with the given
// article id, or nil when none exists.
func (s *Store) GetNYTByArticleID(ctx context.Context, articleID string) (*Mention, error) {
	return scanMention(s.db.DB.QueryRowContext(ctx,
		`SELECT `+mentionColumns+mentionFrom+` WHERE m.source_type = 'NYT' AND m.article_id = $1`,
		articleID,
	))
}

// Unprocessed returns mentions the scoring processor has not annotated yet,
// oldest first, joined with their parent keyword. limit <= 0 means
// unbounded. The scan streams over a single connection; no server-side
// cursor with a lifetime is held.
func (s *Store) Unprocessed(ctx context.Context, limit int) ([]Mention, error) {
	query := `SELECT ` + mentionColumns + mentionFrom + ` WHERE m.score IS NULL ORDER BY m.ts`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying unprocessed mentions: %w", err)
	}
	defer rows.Close()
	return scanMentions(rows)
}

// CountUnprocessed returns how many mentions still lack a score.
func (s *Store) CountUnprocessed(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mentions WHERE score IS NULL`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unprocessed mentions: %w", err)
	}
	return count, nil
}

// SetScore assigns the sentiment score, marking the mention processed.
// Returns the number of rows modified.
func (s *Store) SetScore(ctx context.Context, id uuid.UUID, score float64) (int64, error) {
	res, err := s.db.DB.ExecContext(ctx,
		`UPDATE mentions SET score = $2 WHERE id = $1`, id, score,
	)
	if err != nil {
		return 0, fmt.Errorf("setting mention score: %w", err)
	}
	return res.RowsAffected()
}

// SetEntities replaces the mention's entity annotations wholesale.
func (s *Store) SetEntities(ctx context.Context, id uuid.UUID, entities []Entity) (int64, error) {
	if entities == nil {
		entities = []Entity{}
	}
	data, err := json.Marshal(entities)
	if err != nil {
		return 0, fmt.Errorf("marshaling entities: %w", err)
	}
	res, err := s.db.DB.ExecContext(ctx,
		`UPDATE mentions SET entities = $2 WHERE id = $1`, id, data,
	)
	if err != nil {
		return 0, fmt.Errorf("setting mention entities: %w", err)
	}
	return res.RowsAffected()
}

// SetCategories replaces the mention's category annotations wholesale.
func (s *Store) SetCategories(ctx context.Context, id uuid.UUID, categories []Category) (int64, error) {
	if categories == nil {
		categories = []Category{}
	}
	data, err := json.Marshal(categories)
	if err != nil {
		return 0, fmt.Errorf("marshaling categories: %w", err)
	}
	res, err := s.db.DB.ExecContext(ctx,
		`UPDATE mentions SET categories = $2 WHERE id = $1`, id, data,
	)
	if err != nil {
		return 0, fmt.Errorf("setting mention categories: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMentionFields(s rowScanner) (*Mention, error) {
	var m Mention
	var score sql.NullFloat64
	var entities, categories []byte
	var tweetID, likes, retweets sql.NullInt64
	var author, title, articleID sql.NullString
	var keywordString, language sql.NullString

	err := s.Scan(
		&m.ID, &m.KeywordRef, &m.SourceType, &m.Text, &m.Timestamp, &score,
		&entities, &categories,
		&tweetID, &likes, &retweets, &author, &title, &articleID,
		&keywordString, &language,
	)
	if err != nil {
		return nil, err
	}

	if score.Valid {
		m.Score = &score.Float64
	}
	m.Entities = []Entity{}
	if len(entities) > 0 {
		if err := json.Unmarshal(entities, &m.Entities); err != nil {
			return nil, fmt.Errorf("unmarshaling entities: %w", err)
		}
	}
	m.Categories = []Category{}
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &m.Categories); err != nil {
			return nil, fmt.Errorf("unmarshaling categories: %w", err)
		}
	}
	m.KeywordString = keywordString.String
	m.Language = language.String

	switch m.SourceType {
	case SourceTwitter:
		m.Twitter = &TwitterFields{
			TweetID:  tweetID.Int64,
			Likes:    int(likes.Int64),
			Retweets: int(retweets.Int64),
		}
	case SourceNews:
		m.News = &NewsFields{
			Author: author.String,
			Title:  title.String,
		}
	case SourceNYT:
		m.NYT = &NYTFields{
			ArticleID: articleID.String,
		}
	}
	return &m, nil
}

func scanMention(row *sql.Row) (*Mention, error) {
	m, err := scanMentionFields(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning mention: %w", err)
	}
	return m, nil
}

func scanMentions(rows *sql.Rows) ([]Mention, error) {
	var mentions []Mention
	for rows.Next() {
		m, err := scanMentionFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning mention row: %w", err)
		}
		mentions = append(mentions, *m)
	}
	return mentions, rows.Err()
}

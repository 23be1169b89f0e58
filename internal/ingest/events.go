// Package ingest consumes crawler and processor events from Kafka and applies
// them to the mention store, invalidating cached analytics views per keyword.
package ingest

import (
	"time"

	"github.com/alex1431999/keyword-monitor/internal/mention"
)

// MentionEvent is one crawled mention as published by a crawler. SourceType
// selects which of the source-specific fields are meaningful.
type MentionEvent struct {
	KeywordID  string    `json:"keyword_id"`
	SourceType string    `json:"source_type"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`

	TweetID  int64 `json:"tweet_id,omitempty"`
	Likes    int   `json:"likes,omitempty"`
	Retweets int   `json:"retweets,omitempty"`

	Author string `json:"author,omitempty"`
	Title  string `json:"title,omitempty"`

	ArticleID string `json:"article_id,omitempty"`
}

// AnnotationEvent carries the scoring processor's output for one mention.
// Nil fields are left untouched on the stored mention.
type AnnotationEvent struct {
	MentionID  string             `json:"mention_id"`
	Score      *float64           `json:"score,omitempty"`
	Entities   []mention.Entity   `json:"entities,omitempty"`
	Categories []mention.Category `json:"categories,omitempty"`
}

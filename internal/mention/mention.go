// Package mention owns per-source mention documents: social posts, news
// articles and long-form articles are unified behind one collection with a
// source-type discriminant. Mentions arrive unscored from the crawlers and
// are later annotated by the scoring processor.
package mention

import (
	"time"

	"github.com/google/uuid"
)

// SourceType discriminates which source a mention was crawled from.
type SourceType string

const (
	SourceTwitter SourceType = "TWITTER"
	SourceNews    SourceType = "NEWS"
	SourceNYT     SourceType = "NYT"
)

// Entity is one named entity extracted from a mention's text, with the
// occurrence count and salience score the processor assigned within that
// mention. Values are not unique within a single mention; deduplication
// happens at aggregation time.
type Entity struct {
	Value string  `json:"value"`
	Count int64   `json:"count"`
	Score float64 `json:"score"`
}

// Category is one content category assigned to a mention.
type Category struct {
	Value      string  `json:"value"`
	Count      int64   `json:"count"`
	Confidence float64 `json:"confidence"`
}

// TwitterFields carries the source-specific payload of a Twitter mention.
// TweetID is the natural key.
type TwitterFields struct {
	TweetID  int64 `json:"tweet_id"`
	Likes    int   `json:"likes"`
	Retweets int   `json:"retweets"`
}

// NewsFields carries the source-specific payload of a news mention.
// (Author, Title) is the composite natural key.
type NewsFields struct {
	Author string `json:"author"`
	Title  string `json:"title"`
}

// NYTFields carries the source-specific payload of a long-form article
// mention. ArticleID is the natural key.
type NYTFields struct {
	ArticleID string `json:"article_id"`
}

// Mention is one crawled occurrence of a keyword. Exactly one of the source
// payloads is non-nil, matching SourceType. Score is nil until the scoring
// processor has run; Entities and Categories stay empty until annotated.
//
// KeywordString and Language are denormalized from the referenced keyword on
// reads; they are empty when the keyword reference dangles.
type Mention struct {
	ID         uuid.UUID  `json:"id"`
	KeywordRef uuid.UUID  `json:"keyword_ref"`
	SourceType SourceType `json:"source_type"`
	Text       string     `json:"text"`
	Timestamp  time.Time  `json:"timestamp"`
	Score      *float64   `json:"score,omitempty"`
	Entities   []Entity   `json:"entities"`
	Categories []Category `json:"categories"`

	KeywordString string `json:"keyword_string,omitempty"`
	Language      string `json:"language,omitempty"`

	Twitter *TwitterFields `json:"twitter,omitempty"`
	News    *NewsFields    `json:"news,omitempty"`
	NYT     *NYTFields     `json:"nyt,omitempty"`
}

// Processed reports whether the scoring processor has annotated the mention.
func (m *Mention) Processed() bool {
	return m.Score != nil
}

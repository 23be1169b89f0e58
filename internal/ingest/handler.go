package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alex1431999/keyword-monitor/internal/identity"
	"github.com/alex1431999/keyword-monitor/internal/mention"
	"github.com/alex1431999/keyword-monitor/pkg/kafka"
	"github.com/alex1431999/keyword-monitor/pkg/logger"
	"github.com/alex1431999/keyword-monitor/pkg/metrics"
)

// mentionWriter is the slice of the mention store the ingest handler needs.
type mentionWriter interface {
	AddTwitter(ctx context.Context, keywordID uuid.UUID, tweetID int64, text string, likes, retweets int, timestamp time.Time) (uuid.UUID, error)
	AddNews(ctx context.Context, keywordID uuid.UUID, author, title, text string, timestamp time.Time) (uuid.UUID, error)
	AddNYT(ctx context.Context, keywordID uuid.UUID, articleID, text string, timestamp time.Time) (uuid.UUID, error)
}

// annotator is the slice of the mention store the annotation handler needs.
type annotator interface {
	GetByID(ctx context.Context, id uuid.UUID) (*mention.Mention, error)
	SetScore(ctx context.Context, id uuid.UUID, score float64) (int64, error)
	SetEntities(ctx context.Context, id uuid.UUID, entities []mention.Entity) (int64, error)
	SetCategories(ctx context.Context, id uuid.UUID, categories []mention.Category) (int64, error)
}

// invalidator drops cached analytics views for a keyword.
type invalidator interface {
	Invalidate(ctx context.Context, keywordID uuid.UUID) error
}

// MentionHandler applies crawled MentionEvents to the mention store.
type MentionHandler struct {
	store   mentionWriter
	cache   invalidator
	metrics *metrics.Metrics
}

// NewMentionHandler creates a handler for the mention ingest topic. m may be
// nil when metrics are not wired.
func NewMentionHandler(store mentionWriter, cache invalidator, m *metrics.Metrics) *MentionHandler {
	return &MentionHandler{
		store:   store,
		cache:   cache,
		metrics: m,
	}
}

// Handle decodes and applies one mention event. Malformed events are logged
// and skipped so they do not wedge the partition; store failures are
// returned so the message is redelivered.
func (h *MentionHandler) Handle(ctx context.Context, key, value []byte) error {
	log := logger.FromContext(ctx).With("component", "mention-handler")

	event, err := kafka.DecodeJSON[MentionEvent](value)
	if err != nil {
		log.Warn("skipping undecodable mention event", "key", string(key), "error", err)
		h.countError("decode")
		return nil
	}

	keywordID, err := identity.Parse(event.KeywordID)
	if err != nil {
		log.Warn("skipping mention event with bad keyword id",
			"keyword_id", event.KeywordID, "error", err)
		h.countError("identity")
		return nil
	}

	sourceType := mention.SourceType(event.SourceType)
	switch sourceType {
	case mention.SourceTwitter:
		_, err = h.store.AddTwitter(ctx, keywordID, event.TweetID, event.Text, event.Likes, event.Retweets, event.Timestamp)
	case mention.SourceNews:
		_, err = h.store.AddNews(ctx, keywordID, event.Author, event.Title, event.Text, event.Timestamp)
	case mention.SourceNYT:
		_, err = h.store.AddNYT(ctx, keywordID, event.ArticleID, event.Text, event.Timestamp)
	default:
		log.Warn("skipping mention event with unknown source type",
			"source_type", event.SourceType)
		h.countError("decode")
		return nil
	}
	if err != nil {
		h.countError("store")
		return fmt.Errorf("storing mention: %w", err)
	}

	if h.metrics != nil {
		h.metrics.MentionsIngestedTotal.WithLabelValues(string(sourceType)).Inc()
	}
	if err := h.cache.Invalidate(ctx, keywordID); err != nil {
		log.Warn("cache invalidation failed", "keyword_id", keywordID, "error", err)
	}
	return nil
}

// AnnotationHandler applies processor AnnotationEvents to stored mentions.
type AnnotationHandler struct {
	store   annotator
	cache   invalidator
	metrics *metrics.Metrics
}

// NewAnnotationHandler creates a handler for the annotation topic. m may be
// nil when metrics are not wired.
func NewAnnotationHandler(store annotator, cache invalidator, m *metrics.Metrics) *AnnotationHandler {
	return &AnnotationHandler{
		store:   store,
		cache:   cache,
		metrics: m,
	}
}

// Handle decodes and applies one annotation event, with the same skip versus
// redeliver split as MentionHandler. An annotation for a mention that no
// longer exists is skipped.
func (h *AnnotationHandler) Handle(ctx context.Context, key, value []byte) error {
	log := logger.FromContext(ctx).With("component", "annotation-handler")

	event, err := kafka.DecodeJSON[AnnotationEvent](value)
	if err != nil {
		log.Warn("skipping undecodable annotation event", "key", string(key), "error", err)
		h.countError("decode")
		return nil
	}

	mentionID, err := identity.Parse(event.MentionID)
	if err != nil {
		log.Warn("skipping annotation event with bad mention id",
			"mention_id", event.MentionID, "error", err)
		h.countError("identity")
		return nil
	}

	stored, err := h.store.GetByID(ctx, mentionID)
	if err != nil {
		h.countError("store")
		return fmt.Errorf("reading mention for annotation: %w", err)
	}
	if stored == nil {
		log.Warn("skipping annotation for unknown mention", "mention_id", mentionID)
		return nil
	}

	if event.Score != nil {
		if _, err := h.store.SetScore(ctx, mentionID, *event.Score); err != nil {
			h.countError("store")
			return fmt.Errorf("applying score: %w", err)
		}
		h.countApplied("score")
	}
	if event.Entities != nil {
		if _, err := h.store.SetEntities(ctx, mentionID, event.Entities); err != nil {
			h.countError("store")
			return fmt.Errorf("applying entities: %w", err)
		}
		h.countApplied("entities")
	}
	if event.Categories != nil {
		if _, err := h.store.SetCategories(ctx, mentionID, event.Categories); err != nil {
			h.countError("store")
			return fmt.Errorf("applying categories: %w", err)
		}
		h.countApplied("categories")
	}

	if err := h.cache.Invalidate(ctx, stored.KeywordRef); err != nil {
		log.Warn("cache invalidation failed", "keyword_id", stored.KeywordRef, "error", err)
	}
	return nil
}

func (h *MentionHandler) countError(stage string) {
	if h.metrics != nil {
		h.metrics.IngestErrorsTotal.WithLabelValues(stage).Inc()
	}
}

func (h *AnnotationHandler) countError(stage string) {
	if h.metrics != nil {
		h.metrics.IngestErrorsTotal.WithLabelValues(stage).Inc()
	}
}

func (h *AnnotationHandler) countApplied(kind string) {
	if h.metrics != nil {
		h.metrics.AnnotationsAppliedTotal.WithLabelValues(kind).Inc()
	}
}

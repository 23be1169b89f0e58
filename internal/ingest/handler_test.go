package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex1431999/keyword-monitor/internal/mention"
)

type fakeStore struct {
	twitter []MentionEvent
	news    []MentionEvent
	nyt     []MentionEvent

	mentions   map[uuid.UUID]*mention.Mention
	scores     map[uuid.UUID]float64
	entities   map[uuid.UUID][]mention.Entity
	categories map[uuid.UUID][]mention.Category
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		mentions:   make(map[uuid.UUID]*mention.Mention),
		scores:     make(map[uuid.UUID]float64),
		entities:   make(map[uuid.UUID][]mention.Entity),
		categories: make(map[uuid.UUID][]mention.Category),
	}
}

func (f *fakeStore) AddTwitter(_ context.Context, keywordID uuid.UUID, tweetID int64, text string, likes, retweets int, ts time.Time) (uuid.UUID, error) {
	f.twitter = append(f.twitter, MentionEvent{
		KeywordID: keywordID.String(), TweetID: tweetID, Text: text,
		Likes: likes, Retweets: retweets, Timestamp: ts,
	})
	return uuid.New(), nil
}

func (f *fakeStore) AddNews(_ context.Context, keywordID uuid.UUID, author, title, text string, ts time.Time) (uuid.UUID, error) {
	f.news = append(f.news, MentionEvent{
		KeywordID: keywordID.String(), Author: author, Title: title, Text: text, Timestamp: ts,
	})
	return uuid.New(), nil
}

func (f *fakeStore) AddNYT(_ context.Context, keywordID uuid.UUID, articleID, text string, ts time.Time) (uuid.UUID, error) {
	f.nyt = append(f.nyt, MentionEvent{
		KeywordID: keywordID.String(), ArticleID: articleID, Text: text, Timestamp: ts,
	})
	return uuid.New(), nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*mention.Mention, error) {
	return f.mentions[id], nil
}

func (f *fakeStore) SetScore(_ context.Context, id uuid.UUID, score float64) (int64, error) {
	f.scores[id] = score
	return 1, nil
}

func (f *fakeStore) SetEntities(_ context.Context, id uuid.UUID, entities []mention.Entity) (int64, error) {
	f.entities[id] = entities
	return 1, nil
}

func (f *fakeStore) SetCategories(_ context.Context, id uuid.UUID, categories []mention.Category) (int64, error) {
	f.categories[id] = categories
	return 1, nil
}

type fakeInvalidator struct {
	invalidated []uuid.UUID
}

func (f *fakeInvalidator) Invalidate(_ context.Context, keywordID uuid.UUID) error {
	f.invalidated = append(f.invalidated, keywordID)
	return nil
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestMentionHandlerStoresTwitterEvent(t *testing.T) {
	store := newFakeStore()
	cache := &fakeInvalidator{}
	handler := NewMentionHandler(store, cache, nil)

	keywordID := uuid.New()
	value := encode(t, MentionEvent{
		KeywordID:  keywordID.String(),
		SourceType: "TWITTER",
		Text:       "great product",
		Timestamp:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		TweetID:    42,
		Likes:      7,
		Retweets:   2,
	})

	require.NoError(t, handler.Handle(context.Background(), nil, value))
	require.Len(t, store.twitter, 1)
	assert.Equal(t, int64(42), store.twitter[0].TweetID)
	assert.Equal(t, 7, store.twitter[0].Likes)
	assert.Equal(t, []uuid.UUID{keywordID}, cache.invalidated)
}

func TestMentionHandlerSkipsMalformedPayload(t *testing.T) {
	store := newFakeStore()
	cache := &fakeInvalidator{}
	handler := NewMentionHandler(store, cache, nil)

	require.NoError(t, handler.Handle(context.Background(), nil, []byte("not json")))
	assert.Empty(t, store.twitter)
	assert.Empty(t, cache.invalidated)
}

func TestMentionHandlerSkipsBadKeywordID(t *testing.T) {
	store := newFakeStore()
	handler := NewMentionHandler(store, &fakeInvalidator{}, nil)

	value := encode(t, MentionEvent{
		KeywordID:  "5e5c1d0d8bbb1a8f4e1f2a3b",
		SourceType: "TWITTER",
		Text:       "text",
	})
	require.NoError(t, handler.Handle(context.Background(), nil, value))
	assert.Empty(t, store.twitter)
}

func TestMentionHandlerSkipsUnknownSourceType(t *testing.T) {
	store := newFakeStore()
	handler := NewMentionHandler(store, &fakeInvalidator{}, nil)

	value := encode(t, MentionEvent{
		KeywordID:  uuid.NewString(),
		SourceType: "RSS",
		Text:       "text",
	})
	require.NoError(t, handler.Handle(context.Background(), nil, value))
	assert.Empty(t, store.twitter)
	assert.Empty(t, store.news)
	assert.Empty(t, store.nyt)
}

func TestAnnotationHandlerAppliesAllFields(t *testing.T) {
	store := newFakeStore()
	cache := &fakeInvalidator{}
	handler := NewAnnotationHandler(store, cache, nil)

	mentionID := uuid.New()
	keywordID := uuid.New()
	store.mentions[mentionID] = &mention.Mention{ID: mentionID, KeywordRef: keywordID}

	score := 0.8
	value := encode(t, AnnotationEvent{
		MentionID: mentionID.String(),
		Score:     &score,
		Entities:  []mention.Entity{{Value: "Acme", Count: 1, Score: 0.9}},
		Categories: []mention.Category{
			{Value: "Technology", Count: 1, Confidence: 0.7},
		},
	})

	require.NoError(t, handler.Handle(context.Background(), nil, value))
	assert.Equal(t, 0.8, store.scores[mentionID])
	assert.Len(t, store.entities[mentionID], 1)
	assert.Len(t, store.categories[mentionID], 1)
	assert.Equal(t, []uuid.UUID{keywordID}, cache.invalidated)
}

func TestAnnotationHandlerSkipsUnknownMention(t *testing.T) {
	store := newFakeStore()
	cache := &fakeInvalidator{}
	handler := NewAnnotationHandler(store, cache, nil)

	score := 0.5
	value := encode(t, AnnotationEvent{
		MentionID: uuid.NewString(),
		Score:     &score,
	})

	require.NoError(t, handler.Handle(context.Background(), nil, value))
	assert.Empty(t, store.scores)
	assert.Empty(t, cache.invalidated)
}

func TestAnnotationHandlerPartialUpdate(t *testing.T) {
	store := newFakeStore()
	handler := NewAnnotationHandler(store, &fakeInvalidator{}, nil)

	mentionID := uuid.New()
	store.mentions[mentionID] = &mention.Mention{ID: mentionID, KeywordRef: uuid.New()}

	score := 0.3
	value := encode(t, AnnotationEvent{MentionID: mentionID.String(), Score: &score})

	require.NoError(t, handler.Handle(context.Background(), nil, value))
	assert.Equal(t, 0.3, store.scores[mentionID])
	assert.Empty(t, store.entities)
	assert.Empty(t, store.categories)
}

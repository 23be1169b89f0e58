package keyword_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex1431999/keyword-monitor/internal/keyword"
	"github.com/alex1431999/keyword-monitor/internal/meta"
	"github.com/alex1431999/keyword-monitor/internal/testdb"
	apperrors "github.com/alex1431999/keyword-monitor/pkg/errors"
)

func newRegistry(t *testing.T) *keyword.Registry {
	db := testdb.New(t)
	return keyword.NewRegistry(db, meta.NewRegistry(db), nil)
}

func TestAddRejectsUnsupportedLanguage(t *testing.T) {
	reg := newRegistry(t)

	_, err := reg.Add(context.Background(), "coffee", "xx", "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedLanguage))
}

func TestAddCreatesThenJoins(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	created, err := reg.Add(ctx, "coffee", "en", "alice")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, []string{"alice"}, created.Users)
	assert.False(t, created.Deleted)

	joined, err := reg.Add(ctx, "coffee", "en", "bob")
	require.NoError(t, err)
	require.NotNil(t, joined)
	assert.Equal(t, created.ID, joined.ID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, joined.Users)

	// Joining again is a no-op on membership.
	again, err := reg.Add(ctx, "coffee", "en", "bob")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, again.Users)
}

func TestGetFiltersByMembership(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	_, err := reg.Add(ctx, "coffee", "en", "alice")
	require.NoError(t, err)

	kw, err := reg.Get(ctx, "coffee", "en", "alice")
	require.NoError(t, err)
	require.NotNil(t, kw)

	missing, err := reg.Get(ctx, "coffee", "en", "mallory")
	require.NoError(t, err)
	assert.Nil(t, missing)

	absent, err := reg.Get(ctx, "tea", "en", "")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestDeleteRemovesMembershipAndFlags(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	kw, err := reg.Add(ctx, "coffee", "en", "alice")
	require.NoError(t, err)
	_, err = reg.Add(ctx, "coffee", "en", "bob")
	require.NoError(t, err)

	modified, err := reg.Delete(ctx, kw.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), modified)

	after, err := reg.GetByID(ctx, kw.ID, "")
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, []string{"bob"}, after.Users)
	assert.False(t, after.Deleted)

	// Removing a non-member modifies nothing.
	modified, err = reg.Delete(ctx, kw.ID, "mallory")
	require.NoError(t, err)
	assert.Zero(t, modified)

	modified, err = reg.Delete(ctx, kw.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), modified)

	empty, err := reg.GetByID(ctx, kw.ID, "")
	require.NoError(t, err)
	require.NotNil(t, empty)
	assert.True(t, empty.Deleted)
}

func TestIndexMembershipKeepsKeywordAlive(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	kw, err := reg.Add(ctx, "coffee", "en", "alice")
	require.NoError(t, err)

	indexID := uuid.New()
	linked, err := reg.AddIndex(ctx, kw.ID, indexID)
	require.NoError(t, err)
	require.NotNil(t, linked)
	assert.Equal(t, []uuid.UUID{indexID}, linked.Indexes)

	// Last user leaves, but the index reference keeps the keyword live.
	_, err = reg.Delete(ctx, kw.ID, "alice")
	require.NoError(t, err)
	after, err := reg.GetByID(ctx, kw.ID, "")
	require.NoError(t, err)
	assert.False(t, after.Deleted)

	unlinked, err := reg.RemoveIndex(ctx, kw.ID, indexID)
	require.NoError(t, err)
	require.NotNil(t, unlinked)
	assert.Empty(t, unlinked.Indexes)
	assert.True(t, unlinked.Deleted)
}

func TestAddIndexUnknownKeyword(t *testing.T) {
	reg := newRegistry(t)

	kw, err := reg.AddIndex(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, kw)
}

func TestByIndex(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	first, err := reg.Add(ctx, "coffee", "en", "alice")
	require.NoError(t, err)
	second, err := reg.Add(ctx, "tea", "en", "alice")
	require.NoError(t, err)

	indexID := uuid.New()
	_, err = reg.AddIndex(ctx, first.ID, indexID)
	require.NoError(t, err)
	_, err = reg.AddIndex(ctx, second.ID, indexID)
	require.NoError(t, err)

	linked, err := reg.ByIndex(ctx, indexID)
	require.NoError(t, err)
	assert.Len(t, linked, 2)
}

func TestPublicDropsDanglingIDs(t *testing.T) {
	db := testdb.New(t)
	metaReg := meta.NewRegistry(db)
	reg := keyword.NewRegistry(db, metaReg, nil)
	ctx := context.Background()

	kw, err := reg.Add(ctx, "coffee", "en", "alice")
	require.NoError(t, err)

	require.NoError(t, metaReg.SetPublicKeywordIDs(ctx, []uuid.UUID{kw.ID, uuid.New()}))

	public, err := reg.Public(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, kw.ID, public[0].ID)
}

func TestEachBatchVisitsEverything(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	words := []string{"coffee", "tea", "cocoa", "mate", "juice"}
	for _, w := range words {
		_, err := reg.Add(ctx, w, "en", "alice")
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	err := reg.EachBatch(ctx, 2, func(batch []keyword.Keyword) error {
		assert.LessOrEqual(t, len(batch), 2)
		for _, kw := range batch {
			seen[kw.KeywordString] = true
		}
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, len(words))
}

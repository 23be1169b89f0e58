package meta_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex1431999/keyword-monitor/internal/meta"
	"github.com/alex1431999/keyword-monitor/internal/testdb"
	apperrors "github.com/alex1431999/keyword-monitor/pkg/errors"
)

func TestPublicKeywordIDsUninitialized(t *testing.T) {
	reg := meta.NewRegistry(testdb.New(t))

	_, err := reg.PublicKeywordIDs(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMetaUninitialized))

	initialised, err := reg.IsInitialised(context.Background())
	require.NoError(t, err)
	assert.False(t, initialised)
}

func TestSetPublicKeywordIDsRoundTrip(t *testing.T) {
	reg := meta.NewRegistry(testdb.New(t))
	ctx := context.Background()

	first := []uuid.UUID{uuid.New(), uuid.New()}
	require.NoError(t, reg.SetPublicKeywordIDs(ctx, first))

	got, err := reg.PublicKeywordIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	initialised, err := reg.IsInitialised(ctx)
	require.NoError(t, err)
	assert.True(t, initialised)

	// The record stays a singleton across replacements.
	second := []uuid.UUID{uuid.New()}
	require.NoError(t, reg.SetPublicKeywordIDs(ctx, second))
	got, err = reg.PublicKeywordIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestSetPublicKeywordIDsEmpty(t *testing.T) {
	reg := meta.NewRegistry(testdb.New(t))
	ctx := context.Background()

	require.NoError(t, reg.SetPublicKeywordIDs(ctx, nil))
	got, err := reg.PublicKeywordIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

package index_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex1431999/keyword-monitor/internal/index"
	"github.com/alex1431999/keyword-monitor/internal/testdb"
	apperrors "github.com/alex1431999/keyword-monitor/pkg/errors"
)

func TestTypeValid(t *testing.T) {
	for _, typ := range index.Types {
		assert.True(t, typ.Valid())
	}
	assert.False(t, index.Type("SECTOR").Valid())
	assert.False(t, index.Type("").Valid())
}

func TestAddRejectsUnknownType(t *testing.T) {
	reg := index.NewRegistry(testdb.New(t), nil)

	_, err := reg.Add(context.Background(), "tech giants", "SECTOR", "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedIndexType))
}

func TestAddCreatesThenJoins(t *testing.T) {
	reg := index.NewRegistry(testdb.New(t), nil)
	ctx := context.Background()

	created, err := reg.Add(ctx, "tech giants", index.TypeCompany, "alice")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, []string{"alice"}, created.Users)
	assert.Equal(t, index.TypeCompany, created.Type)
	assert.False(t, created.Deleted)

	joined, err := reg.Add(ctx, "tech giants", index.TypeCompany, "bob")
	require.NoError(t, err)
	assert.Equal(t, created.ID, joined.ID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, joined.Users)
}

func TestGetByIDAbsent(t *testing.T) {
	reg := index.NewRegistry(testdb.New(t), nil)

	idx, err := reg.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, idx)
}

func TestByTypeFiltersOnMembership(t *testing.T) {
	reg := index.NewRegistry(testdb.New(t), nil)
	ctx := context.Background()

	_, err := reg.Add(ctx, "tech giants", index.TypeCompany, "alice")
	require.NoError(t, err)
	_, err = reg.Add(ctx, "eu markets", index.TypeMarket, "alice")
	require.NoError(t, err)
	_, err = reg.Add(ctx, "rivals", index.TypeCompany, "bob")
	require.NoError(t, err)

	companies, err := reg.ByType(ctx, index.TypeCompany, "alice")
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "tech giants", companies[0].Name)

	_, err = reg.ByType(ctx, "SECTOR", "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedIndexType))
}

func TestForUser(t *testing.T) {
	reg := index.NewRegistry(testdb.New(t), nil)
	ctx := context.Background()

	_, err := reg.Add(ctx, "tech giants", index.TypeCompany, "alice")
	require.NoError(t, err)
	_, err = reg.Add(ctx, "eu markets", index.TypeMarket, "alice")
	require.NoError(t, err)

	mine, err := reg.ForUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := reg.ForUser(ctx, "mallory")
	require.NoError(t, err)
	assert.Empty(t, none)
}

package widget

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/leaderboard/score"
)

func TestCache(t *testing.T) {
	ctx := context.Background()
	cache := NewCache("mem://localhost/widget/" + t.Name())

	_, ok, err := cache.Scores(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	name, err := cache.PlayerName(ctx)
	require.NoError(t, err)
	assert.Empty(t, name)

	require.NoError(t, cache.SaveScores(ctx, []score.Entry{{Name: "a", Score: 1, Timestamp: "t"}}))
	require.NoError(t, cache.SavePlayerName(ctx, "a"))

	entries, ok, err := cache.Scores(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []score.Entry{{Name: "a", Score: 1, Timestamp: "t"}}, entries)
	name, err = cache.PlayerName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", name)
}

func TestCache_File(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(t.TempDir())
	require.NoError(t, cache.SaveScores(ctx, nil))
	entries, ok, err := cache.Scores(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, entries)
}

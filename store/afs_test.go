package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/leaderboard/score"
)

func memURL(t *testing.T) string {
	return "mem://localhost/store/" + strings.ReplaceAll(t.Name(), "/", "_") + "/scores.json"
}

func TestAFS_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewAFS(memURL(t))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Entries)
	assert.Empty(t, snap.Revision)

	res, err := s.Save(ctx, &Update{Entries: []score.Entry{{Name: "a", Score: 3, Timestamp: "t"}}})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Revision)

	snap, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Revision, snap.Revision)
	assert.Equal(t, []score.Entry{{Name: "a", Score: 3, Timestamp: "t"}}, snap.Entries)
}

func TestAFS_StaleRevisionConflicts(t *testing.T) {
	ctx := context.Background()
	s := NewAFS(memURL(t))
	first, err := s.Save(ctx, &Update{Entries: []score.Entry{{Name: "a", Score: 1}}})
	require.NoError(t, err)
	_, err = s.Save(ctx, &Update{Entries: []score.Entry{{Name: "b", Score: 1}}, Revision: first.Revision})
	require.NoError(t, err)
	_, err = s.Save(ctx, &Update{Entries: []score.Entry{{Name: "c", Score: 1}}, Revision: first.Revision})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAFS_File(t *testing.T) {
	ctx := context.Background()
	s := NewAFS(filepath.Join(t.TempDir(), "scores.json"))
	_, err := s.Save(ctx, &Update{Entries: []score.Entry{{Name: "a", Score: 1}}})
	require.NoError(t, err)
	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Entries, 1)
}

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/leaderboard/cloudflare/adapter"
	"github.com/viant/leaderboard/score"
)

type fakeKV struct {
	values map[string][]byte
	err    error
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[key]
	if !ok {
		return nil, &adapter.StatusError{Op: "kv get", Status: 404, Err: adapter.ErrNotFound}
	}
	return v, nil
}

func (f *fakeKV) Put(_ context.Context, key string, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.values[key] = value
	return nil
}

func TestKV_RoundTrip(t *testing.T) {
	api := &fakeKV{values: map[string][]byte{}}
	kv := newKV("", api)

	snap, err := kv.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Entries)

	_, err = kv.Save(context.Background(), &Update{Entries: []score.Entry{{Name: "a", Score: 2}}})
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"a","score":2}]`, string(api.values["scores"]))

	snap, err = kv.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []score.Entry{{Name: "a", Score: 2}}, snap.Entries)
	assert.Empty(t, snap.Revision)
}

func TestKV_Errors(t *testing.T) {
	boom := errors.New("boom")
	kv := newKV("k", &fakeKV{err: boom})
	_, err := kv.Load(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = kv.Save(context.Background(), &Update{})
	assert.ErrorIs(t, err, boom)
}

func TestNewKV_RequiresNamespace(t *testing.T) {
	_, err := NewKV(&KVConfig{AccountID: "a"})
	assert.Error(t, err)
}

package adapter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewWithBase(srv.URL, "acc", "ns", "TKN", srv.Client())
}

func TestClient_Get(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acc/storage/kv/namespaces/ns/values/scores", r.URL.Path)
		assert.Equal(t, "Bearer TKN", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"name":"a","score":1}]`)
	})
	data, err := cli.Get(context.Background(), "scores")
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"a","score":1}]`, string(data))
}

func TestClient_Get_NotFound(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"success":false,"errors":[{"code":10009,"message":"get: 'key not found'"}]}`)
	})
	_, err := cli.Get(context.Background(), "scores")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "key not found")
}

func TestClient_Put(t *testing.T) {
	var got string
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		_, _ = io.WriteString(w, `{"success":true,"errors":[],"messages":[],"result":{}}`)
	})
	require.NoError(t, cli.Put(context.Background(), "scores", []byte("[]")))
	assert.Equal(t, "[]", got)
}

func TestClient_Put_Failures(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"success":false,"errors":[{"code":10000,"message":"Authentication error"}]}`)
	})
	err := cli.Put(context.Background(), "scores", []byte("[]"))
	assert.True(t, errors.Is(err, ErrUnauthorized))

	cli = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"errors":[{"code":1,"message":"boom"}]}`)
	})
	err = cli.Put(context.Background(), "scores", []byte("[]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

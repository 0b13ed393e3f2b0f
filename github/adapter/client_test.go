package adapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewWithBase(srv.URL, srv.Client())
}

func Test_GetFile(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/yeti/board/contents/scores.json" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ref"); got != "main" {
			t.Fatalf("unexpected ref: %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer TKN" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "yeti-sync-worker" {
			t.Fatalf("unexpected user agent: %q", got)
		}
		enc := base64.StdEncoding.EncodeToString([]byte(`[{"name":"a","score":1}]`))
		// GitHub wraps base64 content at 60 columns
		wrapped := enc[:10] + "\n" + enc[10:]
		_ = json.NewEncoder(w).Encode(map[string]any{"type": "file", "path": "scores.json", "sha": "abc", "content": wrapped, "encoding": "base64"})
	})
	f, err := cli.GetFile(context.Background(), "TKN", "yeti", "board", "scores.json", "main")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if f.Sha != "abc" || string(f.Content) != `[{"name":"a","score":1}]` {
		t.Fatalf("unexpected file: %+v %q", f, f.Content)
	}
}

func Test_GetFile_NotFound(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	_, err := cli.GetFile(context.Background(), "TKN", "yeti", "board", "scores.json", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusNotFound {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
}

func Test_PutFile(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		content, _ := base64.StdEncoding.DecodeString(payload["content"])
		if string(content) != "[]" || payload["sha"] != "old" || payload["branch"] != "main" || payload["message"] != "msg" {
			t.Fatalf("unexpected payload: %v", payload)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"content": map[string]string{"sha": "new"}, "commit": map[string]string{"sha": "c1"}})
	})
	res, err := cli.PutFile(context.Background(), "TKN", "yeti", "board", "scores.json", &PutRequest{Message: "msg", Content: []byte("[]"), Branch: "main", Sha: "old"})
	if err != nil {
		t.Fatalf("put error: %v", err)
	}
	if res.ContentSha != "new" || res.CommitSha != "c1" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func Test_PutFile_Conflict(t *testing.T) {
	var testCases = []struct {
		status int
		body   string
	}{
		{status: http.StatusConflict, body: `{"message":"scores.json does not match abc"}`},
		{status: http.StatusUnprocessableEntity, body: `{"message":"Invalid request.\n\n\"sha\" wasn't supplied."}`},
	}
	for _, tc := range testCases {
		cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, tc.body, tc.status)
		})
		_, err := cli.PutFile(context.Background(), "TKN", "yeti", "board", "scores.json", &PutRequest{Content: []byte("[]")})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("status %d: expected ErrConflict, got %v", tc.status, err)
		}
	}
}

func Test_classify(t *testing.T) {
	var testCases = []struct {
		status int
		header map[string]string
		expect error
	}{
		{status: http.StatusUnauthorized, expect: ErrBadCredentials},
		{status: http.StatusForbidden, header: map[string]string{"X-GitHub-SSO": "required; url=x"}, expect: ErrSSORequired},
		{status: http.StatusForbidden, header: map[string]string{"X-RateLimit-Remaining": "0"}, expect: ErrRateLimited},
		{status: http.StatusForbidden, expect: ErrForbidden},
	}
	for _, tc := range testCases {
		rec := httptest.NewRecorder()
		for k, v := range tc.header {
			rec.Header().Set(k, v)
		}
		rec.WriteHeader(tc.status)
		if err := classify(rec.Result(), "op"); !errors.Is(err, tc.expect) {
			t.Fatalf("status %d: got %v want %v", tc.status, err, tc.expect)
		}
	}
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusOK)
	if err := classify(rec.Result(), "op"); err != nil {
		t.Fatalf("expected nil for 200, got %v", err)
	}
}

func Test_authHeader(t *testing.T) {
	if got := authHeader("pat"); got != "Bearer pat" {
		t.Fatalf("unexpected bearer header: %q", got)
	}
	if got := authHeader("u:p"); got != "Basic "+base64.StdEncoding.EncodeToString([]byte("u:p")) {
		t.Fatalf("unexpected basic header: %q", got)
	}
}

func Test_GetRepoDefaultBranch(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"default_branch":"trunk"}`)
	})
	got, err := cli.GetRepoDefaultBranch(context.Background(), "TKN", "yeti", "board")
	if err != nil || got != "trunk" {
		t.Fatalf("unexpected default branch: %q %v", got, err)
	}
}

func Test_ValidateToken(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer good" {
			http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"login": "yeti"})
	})
	if err := cli.ValidateToken(context.Background(), "good"); err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if err := cli.ValidateToken(context.Background(), "stale"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
}

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func Test_Check(t *testing.T) {
	svc := New("s3cret")
	var testCases = []struct {
		description string
		header      string
		value       string
		expect      error
	}{
		{description: "match", header: DefaultHeader, value: "s3cret"},
		{description: "mismatch", header: DefaultHeader, value: "nope", expect: ErrUnauthorized},
		{description: "missing", expect: ErrUnauthorized},
		{description: "prefix only", header: DefaultHeader, value: "s3c", expect: ErrUnauthorized},
	}
	for _, tc := range testCases {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if tc.header != "" {
			req.Header.Set(tc.header, tc.value)
		}
		if err := svc.Check(req); !errors.Is(err, tc.expect) {
			t.Fatalf("%s: got %v want %v", tc.description, err, tc.expect)
		}
	}
}

func Test_Check_EmptyKeyRejectsAll(t *testing.T) {
	svc := New("")
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(DefaultHeader, "")
	if err := svc.Check(req); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
	var nilSvc *Service
	if err := nilSvc.Verify("x"); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey for nil service, got %v", err)
	}
}

func Test_Middleware(t *testing.T) {
	svc := &Service{Key: "k", Header: "X-Admin"}
	h := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if body := rr.Body.String(); body != "{\"error\":\"Unauthorized\",\"success\":false}\n" {
		t.Fatalf("unexpected body: %q", body)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Admin", "k")
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func Test_Guard(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	var testCases = []struct {
		description string
		key         string
		path        string
		value       string
		expect      int
	}{
		{description: "unguarded path", key: "k", path: "/scores", expect: http.StatusNoContent},
		{description: "guarded without key", key: "k", path: "/mcp", expect: http.StatusUnauthorized},
		{description: "guarded with key", key: "k", path: "/mcp", value: "k", expect: http.StatusNoContent},
		{description: "no key configured", path: "/mcp", value: "anything", expect: http.StatusUnauthorized},
	}
	for _, tc := range testCases {
		h := New(tc.key).Guard("/mcp")(next)
		req := httptest.NewRequest(http.MethodPost, tc.path, nil)
		if tc.value != "" {
			req.Header.Set(DefaultHeader, tc.value)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.expect {
			t.Fatalf("%s: got %d want %d", tc.description, rec.Code, tc.expect)
		}
	}
}

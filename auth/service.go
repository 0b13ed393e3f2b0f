// Package auth guards write access to the score endpoint with a shared static key.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// DefaultHeader carries the shared key on requests from the widget.
const DefaultHeader = "x-api-key"

var (
	ErrMissingKey   = errors.New("api key not configured")
	ErrUnauthorized = errors.New("unauthorized")
)

// Service compares a request key with the configured key.
type Service struct {
	// Key is the shared secret; when empty every check fails.
	Key string
	// Header names the request header carrying the key (default x-api-key).
	Header string
}

// New returns a Service for key using the default header.
func New(key string) *Service {
	return &Service{Key: key, Header: DefaultHeader}
}

// HeaderName returns the configured header or DefaultHeader.
func (s *Service) HeaderName() string {
	if s == nil || strings.TrimSpace(s.Header) == "" {
		return DefaultHeader
	}
	return s.Header
}

// Check validates the key carried by r.
func (s *Service) Check(r *http.Request) error {
	if s == nil || s.Key == "" {
		return ErrMissingKey
	}
	return s.Verify(r.Header.Get(s.HeaderName()))
}

// Verify compares candidate with the configured key in constant time.
func (s *Service) Verify(candidate string) error {
	if s == nil || s.Key == "" {
		return ErrMissingKey
	}
	if candidate == "" || subtle.ConstantTimeCompare([]byte(candidate), []byte(s.Key)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Middleware rejects requests failing Check with a 401 JSON body.
// Headers already set on w (CORS) are preserved.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.Check(r); err != nil {
			Reject(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Guard applies Middleware to requests whose path starts with prefix and
// passes every other request through.
func (s *Service) Guard(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		protected := s.Middleware(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, prefix) {
				protected.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Reject writes the unauthorized response used by the score endpoint.
func Reject(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Unauthorized"})
}

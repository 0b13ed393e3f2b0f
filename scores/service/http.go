package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/viant/leaderboard/score"
)

// RequestIDHeader echoes the per-request correlation id.
const RequestIDHeader = "X-Request-Id"

// Envelope is the object form of a POST body.
type Envelope struct {
	Scores []score.Entry `json:"scores"`
	Mode   string        `json:"mode,omitempty"`
}

type updateResponse struct {
	Success bool   `json:"success"`
	OK      bool   `json:"ok"`
	Count   int    `json:"count"`
	Commit  string `json:"commit,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

// RegisterHTTP mounts the endpoint on / and /scores.
func (s *Service) RegisterHTTP(mux *http.ServeMux) {
	h := s.Handler()
	mux.Handle("/", h)
	mux.Handle("/scores", h)
}

// Handler returns the endpoint handler with request logging.
func (s *Service) Handler() http.Handler {
	return s.withRequestLog(http.HandlerFunc(s.serve))
}

func (s *Service) serve(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w.Header())
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		if s.config.ProtectReads {
			s.auth.Middleware(http.HandlerFunc(s.handleList)).ServeHTTP(w, r)
			return
		}
		s.handleList(w, r)
	case http.MethodPost:
		s.auth.Middleware(http.HandlerFunc(s.handleUpdate)).ServeHTTP(w, r)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = io.WriteString(w, "Method Not Allowed")
	}
}

func (s *Service) setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", s.config.AllowedOrigin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, "+s.auth.HeaderName())
	h.Set("Access-Control-Max-Age", "86400")
	h.Add("Vary", "Origin")
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := score.Encode(entries, false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	mode, entries, err := s.decodeBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
		return
	}
	out, err := s.Update(r.Context(), mode, entries)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updateResponse{Success: true, OK: true, Count: out.Count, Commit: out.Commit})
}

// decodeBody accepts a bare array or an Envelope.
func (s *Service) decodeBody(r *http.Request) (score.Mode, []score.Entry, error) {
	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		return "", nil, err
	}
	data = bytes.TrimSpace(data)
	switch {
	case len(data) > 0 && data[0] == '[':
		var entries []score.Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return "", nil, err
		}
		return score.ParseMode(s.config.BareArrayMode), entries, nil
	case len(data) > 0 && data[0] == '{':
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return "", nil, err
		}
		return score.ParseMode(env.Mode), env.Scores, nil
	}
	return "", nil, errors.New("body must be a JSON array or object")
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var opErr *OpError
	if errors.As(err, &opErr) {
		s.logger.Error(opErr.Message(), zap.String("requestId", w.Header().Get(RequestIDHeader)), zap.Error(err))
		writeJSON(w, opErr.Status(), errorResponse{Error: opErr.Message(), Detail: opErr.Err.Error()})
		return
	}
	s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal error", Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Service) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			zap.String("requestId", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.code),
			zap.Duration("duration", time.Since(started)))
	})
}

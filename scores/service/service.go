// Package service implements the score sync endpoint: a CORS-enabled HTTP
// handler that reads and updates the shared score array in a store.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/viant/leaderboard/auth"
	cfadapter "github.com/viant/leaderboard/cloudflare/adapter"
	ghadapter "github.com/viant/leaderboard/github/adapter"
	"github.com/viant/leaderboard/logging"
	"github.com/viant/leaderboard/score"
	"github.com/viant/leaderboard/store"
)

// Stage names the store step an OpError failed in.
type Stage string

const (
	StageFetch Stage = "fetch"
	StageSave  Stage = "save"
)

// OpError is a store failure surfaced to clients.
type OpError struct {
	Stage Stage
	Err   error
}

func (e *OpError) Error() string { return fmt.Sprintf("%s scores: %v", e.Stage, e.Err) }
func (e *OpError) Unwrap() error { return e.Err }

// Message is the client-facing error text.
func (e *OpError) Message() string {
	if e.Stage == StageSave {
		return "Failed to save scores"
	}
	return "Failed to fetch scores"
}

// Status surfaces upstream 4xx statuses and otherwise reports 502.
func (e *OpError) Status() int {
	status := 0
	var gh *ghadapter.StatusError
	var cf *cfadapter.StatusError
	switch {
	case errors.As(e.Err, &gh):
		status = gh.Status
	case errors.As(e.Err, &cf):
		status = cf.Status
	case errors.Is(e.Err, store.ErrConflict):
		status = http.StatusConflict
	}
	if status >= 400 && status < 500 {
		return status
	}
	return http.StatusBadGateway
}

// UpdateOutput reports a completed write.
type UpdateOutput struct {
	Count  int    `json:"count"`
	Commit string `json:"commit,omitempty"`
	// Attempts is the number of load/save rounds used.
	Attempts int           `json:"-"`
	Entries  []score.Entry `json:"-"`
}

// Service reads and updates the stored score array.
type Service struct {
	config *Config
	store  store.Store
	auth   *auth.Service
	logger *zap.Logger
	now    func() time.Time

	writeMu sync.Mutex
	reads   singleflight.Group
}

// Option customises a Service.
type Option func(s *Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(logger) }
}

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service over an opened store.
func New(cfg *Config, st store.Store, opts ...Option) *Service {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Init()
	ret := &Service{
		config: cfg,
		store:  st,
		auth:   &auth.Service{Key: cfg.APIKey, Header: cfg.APIKeyHeader},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Config returns the effective configuration.
func (s *Service) Config() *Config { return s.config }

// UseTextField reports whether tool results go in the text field.
func (s *Service) UseTextField() bool { return !s.config.UseData }

// Auth returns the key guard.
func (s *Service) Auth() *auth.Service { return s.auth }

// List returns the stored array, coalescing concurrent reads.
// The shared load ignores the caller's cancellation; a caller whose ctx ends
// stops waiting without failing the others.
func (s *Service) List(ctx context.Context) ([]score.Entry, error) {
	loadCtx := context.WithoutCancel(ctx)
	ch := s.reads.DoChan("scores", func() (any, error) {
		snap, err := s.store.Load(loadCtx)
		if err != nil {
			return nil, err
		}
		return snap.Entries, nil
	})
	select {
	case <-ctx.Done():
		return nil, &OpError{Stage: StageFetch, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, &OpError{Stage: StageFetch, Err: res.Err}
		}
		return score.Clone(res.Val.([]score.Entry)), nil
	}
}

// Update applies incoming to the stored array using mode and saves it.
// Writes are serialised; a merge hitting a stale revision is re-read and
// re-merged up to ConflictRetries times.
func (s *Service) Update(ctx context.Context, mode score.Mode, incoming []score.Entry) (*UpdateOutput, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	incoming = score.InRange(*s.config.Limits, score.Sanitize(incoming))
	retries := 0
	if mode == score.ModeMerge {
		retries = max(s.config.ConflictRetries, 0)
	}
	for attempt := 1; ; attempt++ {
		snap, err := s.store.Load(ctx)
		if err != nil {
			return nil, &OpError{Stage: StageFetch, Err: err}
		}
		updated := score.Apply(mode, snap.Entries, incoming, s.now())
		res, err := s.store.Save(ctx, &store.Update{
			Entries:  updated,
			Revision: snap.Revision,
			Message:  fmt.Sprintf(s.config.CommitMessage, mode),
		})
		if err == nil {
			return &UpdateOutput{Count: len(updated), Commit: res.Commit, Attempts: attempt, Entries: updated}, nil
		}
		if !errors.Is(err, store.ErrConflict) || attempt > retries {
			return nil, &OpError{Stage: StageSave, Err: err}
		}
		s.logger.Warn("revision conflict, retrying", zap.Int("attempt", attempt), zap.String("mode", string(mode)))
	}
}

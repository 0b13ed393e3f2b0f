package widget

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/viant/leaderboard/logging"
	"github.com/viant/leaderboard/score"
)

const (
	DefaultCooldown = 4 * time.Second
	DefaultRefresh  = 60 * time.Second

	// UnreachableMessage is the banner shown when Validate fails.
	UnreachableMessage = "Worker unreachable. Check the endpoint URL and deployment."
)

// ErrCooldown rejects a submit made too soon after the previous one.
var ErrCooldown = errors.New("submit cooldown active")

// Level classifies status messages.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Backend is the endpoint a Session syncs with.
type Backend interface {
	Fetch(ctx context.Context) ([]score.Entry, error)
	Push(ctx context.Context, entries []score.Entry, mode score.Mode) error
	Probe(ctx context.Context) error
}

// Config tunes a Session.
type Config struct {
	// URL is checked by Validate.
	URL string
	// Mode is sent with pushes; empty posts a bare array.
	Mode     score.Mode
	Cooldown time.Duration
	Refresh  time.Duration
	// HostSuffix optionally restricts the endpoint host (e.g. ".workers.dev").
	HostSuffix string
}

// Session holds the client-side score state.
type Session struct {
	backend Backend
	cache   *Cache
	config  Config
	logger  *zap.Logger
	now     func() time.Time

	onStatus  func(level Level, message string)
	onLeader  func(prev, next string)
	onBanner  func(message string)
	onRefresh func(err error)

	op sync.Mutex // serialises Refresh, Submit and Sync

	mu          sync.RWMutex
	scores      []score.Entry
	leader      string
	lastAttempt time.Time
	lastUpdated time.Time
	player      string
}

// Option customises a Session.
type Option func(s *Session)

func WithCache(cache *Cache) Option { return func(s *Session) { s.cache = cache } }

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logging.OrNop(logger) }
}

func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// WithStatus receives transient status messages.
func WithStatus(fn func(level Level, message string)) Option {
	return func(s *Session) { s.onStatus = fn }
}

// WithLeaderChange fires when the top player changes.
func WithLeaderChange(fn func(prev, next string)) Option {
	return func(s *Session) { s.onLeader = fn }
}

// WithBanner receives the setup banner; an empty message hides it.
func WithBanner(fn func(message string)) Option {
	return func(s *Session) { s.onBanner = fn }
}

// WithRefresh is called by Watch after every refresh attempt.
func WithRefresh(fn func(err error)) Option {
	return func(s *Session) { s.onRefresh = fn }
}

// NewSession creates a session over backend.
func NewSession(backend Backend, cfg Config, opts ...Option) *Session {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = DefaultRefresh
	}
	ret := &Session{backend: backend, config: cfg, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Scores returns a copy of the current scores.
func (s *Session) Scores() []score.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return score.Clone(s.scores)
}

// LastUpdated is the time of the last successful refresh.
func (s *Session) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// PlayerName is the last player who submitted.
func (s *Session) PlayerName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.player
}

// Board projects the current scores.
func (s *Session) Board(opts score.BoardOptions) *score.Board {
	if opts.Me == "" {
		opts.Me = s.PlayerName()
	}
	return score.NewBoard(s.Scores(), opts)
}

// Restore loads cached scores and the player name, if a cache is set.
func (s *Session) Restore(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	entries, ok, err := s.cache.Scores(ctx)
	if err != nil {
		return err
	}
	name, err := s.cache.PlayerName(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if ok {
		s.scores = entries
	}
	s.player = name
	s.mu.Unlock()
	return nil
}

// Refresh fetches the shared scores and flags changed rows. On failure
// the cached copy, when present, replaces the current scores.
func (s *Session) Refresh(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()
	fetched, err := s.backend.Fetch(ctx)
	if err != nil {
		s.logger.Warn("unable to load scores", zap.Error(err))
		if s.cache != nil {
			if cached, ok, cerr := s.cache.Scores(ctx); cerr == nil && ok {
				s.setScores(cached)
			}
		}
		return err
	}
	s.mu.Lock()
	next := score.Diff(s.scores, fetched)
	s.scores = next
	s.lastUpdated = s.now()
	s.mu.Unlock()
	s.persist(ctx, next)
	s.checkLeader(next)
	return nil
}

// Submit validates and records a score locally, then pushes the scores.
// A failed push restores the previous scores.
func (s *Session) Submit(ctx context.Context, name, scoreText string) error {
	s.op.Lock()
	defer s.op.Unlock()
	s.mu.RLock()
	last := s.lastAttempt
	s.mu.RUnlock()
	if !last.IsZero() && s.now().Sub(last) < s.config.Cooldown {
		return ErrCooldown
	}
	name, value, err := score.ParseInput(name, scoreText)
	if err != nil {
		s.status(LevelError, "Invalid input")
		return err
	}

	s.mu.Lock()
	prev := score.Clone(s.scores)
	next := score.Submit(s.scores, name, value)
	s.scores = next
	s.player = name
	s.mu.Unlock()
	s.persist(ctx, next)
	if s.cache != nil {
		if err := s.cache.SavePlayerName(ctx, name); err != nil {
			s.logger.Warn("unable to cache player name", zap.Error(err))
		}
	}

	defer func() {
		s.mu.Lock()
		s.lastAttempt = s.now()
		s.mu.Unlock()
	}()
	s.status(LevelInfo, "Syncing...")
	if err := s.backend.Push(ctx, next, s.config.Mode); err != nil {
		s.setScores(prev)
		s.persist(ctx, prev)
		s.status(LevelError, "Sync failed: "+err.Error())
		return err
	}
	s.status(LevelSuccess, "Scores synced ✅")
	s.checkLeader(next)
	return nil
}

// Sync pushes the current scores as they are.
func (s *Session) Sync(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()
	current := s.Scores()
	s.status(LevelInfo, "Syncing...")
	if err := s.backend.Push(ctx, current, s.config.Mode); err != nil {
		s.status(LevelError, "Sync failed: "+err.Error())
		return err
	}
	s.status(LevelSuccess, "Scores synced ✅")
	s.checkLeader(current)
	return nil
}

// Watch refreshes immediately and then every interval until ctx is done.
// A non-positive interval uses Config.Refresh.
func (s *Session) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = s.config.Refresh
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		err := s.Refresh(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.logger.Debug("refresh failed", zap.Error(err))
		}
		if s.onRefresh != nil {
			s.onRefresh(err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Validate checks the endpoint URL and probes it, driving the banner.
func (s *Session) Validate(ctx context.Context) error {
	err := s.validateURL()
	if err == nil {
		err = s.backend.Probe(ctx)
	}
	if err != nil {
		s.logger.Error("endpoint unreachable", zap.String("url", s.config.URL), zap.Error(err))
		s.banner(UnreachableMessage)
		return err
	}
	s.banner("")
	return nil
}

func (s *Session) validateURL() error {
	u, err := url.Parse(strings.TrimSpace(s.config.URL))
	if err != nil {
		return fmt.Errorf("invalid endpoint URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid endpoint URL %q", s.config.URL)
	}
	if s.config.HostSuffix != "" && !strings.HasSuffix(u.Hostname(), s.config.HostSuffix) {
		return fmt.Errorf("endpoint host %q does not end with %q", u.Hostname(), s.config.HostSuffix)
	}
	return nil
}

func (s *Session) setScores(entries []score.Entry) {
	s.mu.Lock()
	s.scores = entries
	s.mu.Unlock()
}

func (s *Session) persist(ctx context.Context, entries []score.Entry) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveScores(ctx, entries); err != nil {
		s.logger.Warn("unable to cache scores", zap.Error(err))
	}
}

// checkLeader compares the top of the ranked scores with the last seen leader.
func (s *Session) checkLeader(entries []score.Entry) {
	leader, _ := score.Leader(score.Sorted(entries))
	s.mu.Lock()
	prev := s.leader
	s.leader = leader
	s.mu.Unlock()
	if prev != "" && leader != "" && leader != prev && s.onLeader != nil {
		s.onLeader(prev, leader)
	}
}

func (s *Session) status(level Level, message string) {
	if s.onStatus != nil {
		s.onStatus(level, message)
	}
}

func (s *Session) banner(message string) {
	if s.onBanner != nil {
		s.onBanner(message)
	}
}

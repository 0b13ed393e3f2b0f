// Package store persists the shared score array in a remote backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/leaderboard/score"
)

// ErrConflict reports that the stored document changed since it was loaded.
var ErrConflict = errors.New("store: revision conflict")

// Snapshot is the stored array with the revision it was read at.
// An empty Revision means the backend does not track revisions or nothing is stored yet.
type Snapshot struct {
	Entries  []score.Entry
	Revision string
}

// Update replaces the stored array. A non-empty Revision makes the write
// conditional on the document still being at that revision.
type Update struct {
	Entries  []score.Entry
	Revision string
	Message  string
}

// Result describes a completed write.
type Result struct {
	Revision string
	// Commit is the backend commit id, when the backend has one (GitHub).
	Commit string
}

// Store reads and writes the score array.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, update *Update) (*Result, error)
	Close() error
}

const (
	KindGitHub = "github"
	KindKV     = "kv"
	KindAFS    = "afs"
	KindSQLite = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Kind   string       `yaml:"kind" json:"kind"`
	GitHub GitHubConfig `yaml:"github" json:"github,omitempty"`
	KV     KVConfig     `yaml:"kv" json:"kv,omitempty"`
	// URL is the viant/afs document location for the afs backend.
	URL string `yaml:"url" json:"url,omitempty"`
	// Path is the database file for the sqlite backend.
	Path string `yaml:"path" json:"path,omitempty"`
}

// New opens the configured backend.
func New(ctx context.Context, cfg *Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store config is nil")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case KindGitHub:
		return NewGitHub(&cfg.GitHub)
	case KindKV, "cloudflare":
		return NewKV(&cfg.KV)
	case KindAFS, "":
		if cfg.URL == "" {
			return nil, fmt.Errorf("store: afs backend requires url")
		}
		return NewAFS(cfg.URL), nil
	case KindSQLite:
		return OpenSQLite(ctx, cfg.Path)
	}
	return nil, fmt.Errorf("store: unsupported kind %q", cfg.Kind)
}

func encode(entries []score.Entry, indent bool) ([]byte, error) {
	data, err := score.Encode(entries, indent)
	if err != nil {
		return nil, fmt.Errorf("encode scores: %w", err)
	}
	return data, nil
}

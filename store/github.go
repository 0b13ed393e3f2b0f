package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/leaderboard/github/adapter"
	"github.com/viant/leaderboard/score"
)

// GitHubConfig points at a JSON file in a repository.
type GitHubConfig struct {
	Domain    string `yaml:"domain" json:"domain,omitempty"`
	BaseURL   string `yaml:"baseURL" json:"baseURL,omitempty"`
	Owner     string `yaml:"owner" json:"owner"`
	Repo      string `yaml:"repo" json:"repo"`
	Branch    string `yaml:"branch" json:"branch,omitempty"`
	Path      string `yaml:"path" json:"path,omitempty"`
	Token     string `yaml:"token" json:"-"`
	UserAgent string `yaml:"userAgent" json:"userAgent,omitempty"`
}

const (
	defaultGitHubPath   = "scores.json"
	defaultGitHubBranch = "main"
)

type contentAPI interface {
	GetFile(ctx context.Context, token, owner, name, path, ref string) (*adapter.File, error)
	PutFile(ctx context.Context, token, owner, name, path string, in *adapter.PutRequest) (*adapter.PutResult, error)
	GetRepoDefaultBranch(ctx context.Context, token, owner, name string) (string, error)
	ValidateToken(ctx context.Context, token string) error
}

// GitHub stores scores as a pretty-printed JSON file; the blob sha is the revision.
type GitHub struct {
	cfg GitHubConfig
	api contentAPI

	branchMu sync.Mutex
	branch   string
}

// NewGitHub validates cfg and creates the store.
func NewGitHub(cfg *GitHubConfig) (*GitHub, error) {
	if cfg == nil || strings.TrimSpace(cfg.Owner) == "" || strings.TrimSpace(cfg.Repo) == "" {
		return nil, fmt.Errorf("store: github backend requires owner and repo")
	}
	c := *cfg
	if c.Path == "" {
		c.Path = defaultGitHubPath
	}
	var cli *adapter.Client
	if c.BaseURL != "" {
		cli = adapter.NewWithBase(c.BaseURL, nil)
	} else {
		cli = adapter.New(c.Domain)
	}
	cli.SetUserAgent(c.UserAgent)
	return newGitHub(c, cli), nil
}

func newGitHub(cfg GitHubConfig, api contentAPI) *GitHub {
	return &GitHub{cfg: cfg, api: api, branch: cfg.Branch}
}

// Branch resolves the target branch: configured, else the repo default, else main.
// Only a successful default-branch lookup is cached; after a failed lookup
// the call uses main and the next call asks again.
func (g *GitHub) Branch(ctx context.Context) string {
	g.branchMu.Lock()
	defer g.branchMu.Unlock()
	if g.branch != "" {
		return g.branch
	}
	def, err := g.api.GetRepoDefaultBranch(ctx, g.cfg.Token, g.cfg.Owner, g.cfg.Repo)
	if err != nil || def == "" {
		return defaultGitHubBranch
	}
	g.branch = def
	return g.branch
}

// Check verifies the configured token against the API.
func (g *GitHub) Check(ctx context.Context) error {
	return g.api.ValidateToken(ctx, g.cfg.Token)
}

func (g *GitHub) Load(ctx context.Context) (*Snapshot, error) {
	f, err := g.api.GetFile(ctx, g.cfg.Token, g.cfg.Owner, g.cfg.Repo, g.cfg.Path, g.Branch(ctx))
	if err != nil {
		if errors.Is(err, adapter.ErrNotFound) {
			return &Snapshot{Entries: []score.Entry{}}, nil
		}
		return nil, err
	}
	entries, err := score.Decode(f.Content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", g.cfg.Path, err)
	}
	return &Snapshot{Entries: entries, Revision: f.Sha}, nil
}

func (g *GitHub) Save(ctx context.Context, update *Update) (*Result, error) {
	data, err := encode(update.Entries, true)
	if err != nil {
		return nil, err
	}
	msg := update.Message
	if msg == "" {
		msg = "Update " + g.cfg.Path
	}
	res, err := g.api.PutFile(ctx, g.cfg.Token, g.cfg.Owner, g.cfg.Repo, g.cfg.Path, &adapter.PutRequest{
		Message: msg,
		Content: data,
		Branch:  g.Branch(ctx),
		Sha:     update.Revision,
	})
	if err != nil {
		if errors.Is(err, adapter.ErrConflict) {
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return nil, err
	}
	return &Result{Revision: res.ContentSha, Commit: res.CommitSha}, nil
}

func (g *GitHub) Close() error { return nil }

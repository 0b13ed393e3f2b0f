package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/viant/leaderboard/score"
	"github.com/viant/leaderboard/store"
)

const (
	defaultAllowedOrigin   = "*"
	defaultConflictRetries = 2
	defaultMaxBodyBytes    = int64(1 << 20)
	defaultCommitMessage   = "Update scores.json from Yeti Scoreboard (%s)"
)

// Config controls the score sync endpoint.
type Config struct {
	// AllowedOrigin is echoed in Access-Control-Allow-Origin (default "*").
	AllowedOrigin string `yaml:"allowedOrigin" json:"allowedOrigin,omitempty"`
	// APIKey guards writes; an empty key rejects every write.
	APIKey string `yaml:"apiKey" json:"-"`
	// APIKeyHeader names the request header carrying the key (default x-api-key).
	APIKeyHeader string `yaml:"apiKeyHeader" json:"apiKeyHeader,omitempty"`
	// ProtectReads requires the key on GET as well.
	ProtectReads bool `yaml:"protectReads" json:"protectReads,omitempty"`
	// BareArrayMode is applied to POST bodies that are a plain array (default overwrite).
	BareArrayMode string `yaml:"bareArrayMode" json:"bareArrayMode,omitempty"`
	// ConflictRetries caps re-merge attempts on a stale revision (default 2, negative disables).
	ConflictRetries int `yaml:"conflictRetries" json:"conflictRetries,omitempty"`
	// Limits bounds stored scores; entries outside are dropped.
	Limits *score.Limits `yaml:"limits" json:"limits,omitempty"`
	// MaxBodyBytes caps a POST body (default 1 MiB).
	MaxBodyBytes int64 `yaml:"maxBodyBytes" json:"maxBodyBytes,omitempty"`
	// CommitMessage is a fmt template taking the mode.
	CommitMessage string `yaml:"commitMessage" json:"commitMessage,omitempty"`
	// UseData returns MCP tool results as structured content instead of text.
	UseData bool `yaml:"useData" json:"useData,omitempty"`

	Store store.Config `yaml:"store" json:"store"`
	Log   LogConfig    `yaml:"log" json:"log"`
}

// LogConfig selects the zap level and encoding.
type LogConfig struct {
	Level  string `yaml:"level" json:"level,omitempty"`
	Format string `yaml:"format" json:"format,omitempty"`
}

// Init fills in defaults.
func (c *Config) Init() {
	if strings.TrimSpace(c.AllowedOrigin) == "" {
		c.AllowedOrigin = defaultAllowedOrigin
	}
	if c.BareArrayMode == "" {
		c.BareArrayMode = string(score.ModeOverwrite)
	}
	if c.ConflictRetries == 0 {
		c.ConflictRetries = defaultConflictRetries
	}
	if c.Limits == nil {
		limits := score.DefaultLimits
		c.Limits = &limits
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.CommitMessage == "" {
		c.CommitMessage = defaultCommitMessage
	}
	if c.Store.Kind == "" {
		switch {
		case c.Store.GitHub.Repo != "":
			c.Store.Kind = store.KindGitHub
		case c.Store.KV.NamespaceID != "":
			c.Store.Kind = store.KindKV
		}
	}
}

// LoadConfig reads a YAML config from URL (any afs location) and applies
// environment overrides. An empty or missing URL yields defaults plus env.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	cfg := &Config{}
	if URL != "" {
		fs := afs.New()
		exists, err := fs.Exists(ctx, URL)
		if err != nil {
			return nil, fmt.Errorf("failed to check config %s: %w", URL, err)
		}
		if exists {
			data, err := fs.DownloadWithURL(ctx, URL)
			if err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.Init()
	return cfg, nil
}

// ApplyEnv overrides fields from the worker-style environment bindings.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
	if v, ok := get("ALLOWED_ORIGIN"); ok {
		c.AllowedOrigin = v
	}
	if v, ok := get("API_KEY", "ADMIN_SECRET"); ok {
		c.APIKey = v
	}
	if v, ok := get("PROTECT_READS"); ok {
		c.ProtectReads, _ = strconv.ParseBool(v)
	}
	if v, ok := get("GITHUB_TOKEN"); ok {
		c.Store.GitHub.Token = v
	}
	if v, ok := get("REPO_OWNER"); ok {
		c.Store.GitHub.Owner = v
	}
	if v, ok := get("REPO_NAME"); ok {
		c.Store.GitHub.Repo = v
	}
	if v, ok := get("REPO_BRANCH"); ok {
		c.Store.GitHub.Branch = v
	}
	if v, ok := get("CF_ACCOUNT_ID"); ok {
		c.Store.KV.AccountID = v
	}
	if v, ok := get("CF_NAMESPACE_ID"); ok {
		c.Store.KV.NamespaceID = v
	}
	if v, ok := get("CF_API_TOKEN"); ok {
		c.Store.KV.Token = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

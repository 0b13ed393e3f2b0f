package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/viant/afs"

	"github.com/viant/leaderboard/score"
)

const (
	scoresKey     = "scores"
	playerNameKey = "playerName"
)

// Cache keeps the last known scores and player name under an afs base URL
// (file://~/.leaderboard, mem://localhost/leaderboard, gs://bucket/path).
type Cache struct {
	baseURL string
	fs      afs.Service
}

// NewCache creates a cache rooted at baseURL.
func NewCache(baseURL string) *Cache {
	return &Cache{baseURL: strings.TrimRight(baseURL, "/"), fs: afs.New()}
}

func (c *Cache) location(key string) string {
	return c.baseURL + "/" + key + ".json"
}

func (c *Cache) load(ctx context.Context, key string, dest any) (bool, error) {
	URL := c.location(key)
	exists, err := c.fs.Exists(ctx, URL)
	if err != nil || !exists {
		return false, err
	}
	data, err := c.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", URL, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", URL, err)
	}
	return true, nil
}

func (c *Cache) save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	URL := c.location(key)
	if err := c.fs.Upload(ctx, URL, 0o600, strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("write %s: %w", URL, err)
	}
	return nil
}

// Scores returns the cached scores; ok is false when nothing is cached.
func (c *Cache) Scores(ctx context.Context) ([]score.Entry, bool, error) {
	var entries []score.Entry
	ok, err := c.load(ctx, scoresKey, &entries)
	if err != nil || !ok {
		return nil, false, err
	}
	return score.Sanitize(entries), true, nil
}

// SaveScores replaces the cached scores.
func (c *Cache) SaveScores(ctx context.Context, entries []score.Entry) error {
	return c.save(ctx, scoresKey, nonNil(entries))
}

// PlayerName returns the remembered player name or "".
func (c *Cache) PlayerName(ctx context.Context) (string, error) {
	var name string
	if _, err := c.load(ctx, playerNameKey, &name); err != nil {
		return "", err
	}
	return name, nil
}

// SavePlayerName remembers the last submitting player.
func (c *Cache) SavePlayerName(ctx context.Context, name string) error {
	return c.save(ctx, playerNameKey, name)
}

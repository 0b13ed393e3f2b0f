package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/leaderboard/cloudflare/adapter"
	"github.com/viant/leaderboard/score"
)

// KVConfig points at one key of a Cloudflare KV namespace.
type KVConfig struct {
	BaseURL     string `yaml:"baseURL" json:"baseURL,omitempty"`
	AccountID   string `yaml:"accountID" json:"accountID"`
	NamespaceID string `yaml:"namespaceID" json:"namespaceID"`
	Key         string `yaml:"key" json:"key,omitempty"`
	Token       string `yaml:"token" json:"-"`
}

const defaultKVKey = "scores"

type kvAPI interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// KV stores scores as a compact JSON value. KV has no conditional writes,
// so revisions are not tracked and the last write wins.
type KV struct {
	key string
	api kvAPI
}

// NewKV validates cfg and creates the store.
func NewKV(cfg *KVConfig) (*KV, error) {
	if cfg == nil || strings.TrimSpace(cfg.AccountID) == "" || strings.TrimSpace(cfg.NamespaceID) == "" {
		return nil, fmt.Errorf("store: kv backend requires accountID and namespaceID")
	}
	return newKV(cfg.Key, adapter.NewWithBase(cfg.BaseURL, cfg.AccountID, cfg.NamespaceID, cfg.Token, nil)), nil
}

func newKV(key string, api kvAPI) *KV {
	if key == "" {
		key = defaultKVKey
	}
	return &KV{key: key, api: api}
}

func (k *KV) Load(ctx context.Context) (*Snapshot, error) {
	data, err := k.api.Get(ctx, k.key)
	if err != nil {
		if errors.Is(err, adapter.ErrNotFound) {
			return &Snapshot{Entries: []score.Entry{}}, nil
		}
		return nil, err
	}
	entries, err := score.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode kv %s: %w", k.key, err)
	}
	return &Snapshot{Entries: entries}, nil
}

func (k *KV) Save(ctx context.Context, update *Update) (*Result, error) {
	data, err := encode(update.Entries, false)
	if err != nil {
		return nil, err
	}
	if err := k.api.Put(ctx, k.key, data); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (k *KV) Close() error { return nil }

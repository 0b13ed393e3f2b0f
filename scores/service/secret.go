package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/scy"
	"github.com/viant/scy/cred"
	_ "github.com/viant/scy/kms/blowfish"
)

// LoadSecret resolves a scy EncodedResource ("<URL>|<kmsKey>") holding a
// cred.Basic and returns its password. An empty ref returns "".
func LoadSecret(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	res := scy.EncodedResource(ref).Decode(ctx, cred.Basic{})
	sec, err := scy.New().Load(ctx, res)
	if err != nil {
		return "", fmt.Errorf("failed to load secret %s: %w", res.URL, err)
	}
	basic, ok := sec.Target.(*cred.Basic)
	if !ok {
		return "", fmt.Errorf("secret %s is not of type cred.Basic", res.URL)
	}
	if basic.Password == "" {
		return "", fmt.Errorf("secret %s has empty password", res.URL)
	}
	return basic.Password, nil
}

// Secrets lists optional scy references for the credentials in Config.
type Secrets struct {
	APIKeyRef      string
	GitHubTokenRef string
	KVTokenRef     string
}

// Resolve loads every non-empty reference into cfg.
func (s *Secrets) Resolve(ctx context.Context, cfg *Config) error {
	targets := []struct {
		ref  string
		dest *string
	}{
		{s.APIKeyRef, &cfg.APIKey},
		{s.GitHubTokenRef, &cfg.Store.GitHub.Token},
		{s.KVTokenRef, &cfg.Store.KV.Token},
	}
	for _, target := range targets {
		if target.ref == "" {
			continue
		}
		v, err := LoadSecret(ctx, target.ref)
		if err != nil {
			return err
		}
		*target.dest = v
	}
	return nil
}

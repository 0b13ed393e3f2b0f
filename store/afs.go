package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/leaderboard/score"
)

// AFS stores scores as a JSON document at any viant/afs URL (mem://, file://, gs://, s3://).
// The revision is the sha256 of the stored bytes.
type AFS struct {
	URL string
	fs  afs.Service
	mu  sync.Mutex
}

// NewAFS creates a document store at URL.
func NewAFS(URL string) *AFS {
	return &AFS{URL: URL, fs: afs.New()}
}

func (a *AFS) read(ctx context.Context) ([]byte, bool, error) {
	exists, err := a.fs.Exists(ctx, a.URL)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	rc, err := a.fs.OpenURL(ctx, a.URL)
	if err != nil {
		return nil, false, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func revisionOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (a *AFS) Load(ctx context.Context) (*Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok, err := a.read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a.URL, err)
	}
	if !ok {
		return &Snapshot{Entries: []score.Entry{}}, nil
	}
	entries, err := score.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", a.URL, err)
	}
	return &Snapshot{Entries: entries, Revision: revisionOf(data)}, nil
}

func (a *AFS) Save(ctx context.Context, update *Update) (*Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if update.Revision != "" {
		current, ok, err := a.read(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", a.URL, err)
		}
		if !ok || revisionOf(current) != update.Revision {
			return nil, ErrConflict
		}
	}
	data, err := encode(update.Entries, true)
	if err != nil {
		return nil, err
	}
	if err := a.fs.Upload(ctx, a.URL, 0o644, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("write %s: %w", a.URL, err)
	}
	return &Result{Revision: revisionOf(data)}, nil
}

func (a *AFS) Close() error { return nil }

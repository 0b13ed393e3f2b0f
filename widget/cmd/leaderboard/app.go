package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/viant/leaderboard/logging"
	"github.com/viant/leaderboard/score"
	"github.com/viant/leaderboard/scores/service"
	"github.com/viant/leaderboard/widget"
)

// Options are shared by every command.
type Options struct {
	URL          string `short:"u" long:"url" env:"LEADERBOARD_URL" description:"score sync endpoint URL"`
	APIKey       string `short:"k" long:"api-key" env:"LEADERBOARD_API_KEY" description:"write key sent in the api key header"`
	APIKeyRef    string `long:"api-key-ref" description:"scy EncodedResource holding the key (cred.Basic password)"`
	APIKeyHeader string `long:"api-key-header" default:"x-api-key" description:"request header carrying the write key"`
	Cache        string `long:"cache" env:"LEADERBOARD_CACHE" description:"afs base URL for the local cache (default ~/.leaderboard)"`
	Mode         string `short:"m" long:"mode" description:"push mode: merge, overwrite, or empty for a bare array"`
	HostSuffix   string `long:"host-suffix" description:"required endpoint host suffix, e.g. .workers.dev"`
	LogLevel     string `long:"log-level" default:"warn" description:"debug, info, warn or error"`
}

// App wires a widget session from Options.
type App struct {
	Options Options
	out     io.Writer
	logger  *zap.Logger
}

func (a *App) stdout() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

func (a *App) session(ctx context.Context, extra ...widget.Option) (*widget.Session, error) {
	opts := a.Options
	if strings.TrimSpace(opts.URL) == "" {
		return nil, fmt.Errorf("missing --url/LEADERBOARD_URL")
	}
	key := opts.APIKey
	if opts.APIKeyRef != "" {
		v, err := service.LoadSecret(ctx, opts.APIKeyRef)
		if err != nil {
			return nil, err
		}
		key = v
	}
	if a.logger == nil {
		logger, err := logging.New(opts.LogLevel, logging.FormatConsole)
		if err != nil {
			return nil, err
		}
		a.logger = logger
	}
	var mode score.Mode
	if opts.Mode != "" {
		mode = score.ParseMode(opts.Mode)
	}
	out := a.stdout()
	options := []widget.Option{
		widget.WithCache(widget.NewCache(cacheURL(opts.Cache))),
		widget.WithLogger(a.logger),
		widget.WithStatus(func(level widget.Level, message string) {
			fmt.Fprintf(out, "[%s] %s\n", level, message)
		}),
		widget.WithLeaderChange(func(prev, next string) {
			fmt.Fprintf(out, "🎉 New leader: %s (was %s)\n", next, prev)
		}),
		widget.WithBanner(func(message string) {
			if message != "" {
				fmt.Fprintln(out, message)
			}
		}),
	}
	var clientOptions []widget.ClientOption
	if opts.APIKeyHeader != "" {
		clientOptions = append(clientOptions, widget.WithHeader(opts.APIKeyHeader))
	}
	s := widget.NewSession(widget.NewClient(opts.URL, key, clientOptions...), widget.Config{URL: opts.URL, Mode: mode, HostSuffix: opts.HostSuffix}, append(options, extra...)...)
	if err := s.Restore(ctx); err != nil {
		a.logger.Warn("unable to restore cache", zap.Error(err))
	}
	return s, nil
}

func cacheURL(base string) string {
	if base != "" {
		return base
	}
	dir, _ := os.UserHomeDir()
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, ".leaderboard")
}

func (a *App) printBoard(s *widget.Session, showAll bool, topN int) error {
	out := a.stdout()
	if err := widget.Render(out, s.Board(score.BoardOptions{TopN: topN, ShowAll: showAll})); err != nil {
		return err
	}
	if t := s.LastUpdated(); !t.IsZero() {
		_, err := fmt.Fprintf(out, "Last updated: %s\n", t.Local().Format("15:04"))
		return err
	}
	return nil
}

// SubmitCommand submits a score.
type SubmitCommand struct {
	app  *App
	Args struct {
		Name  string `positional-arg-name:"name" required:"yes"`
		Score string `positional-arg-name:"score" required:"yes"`
	} `positional-args:"yes"`
}

func (c *SubmitCommand) Execute(_ []string) error {
	ctx := context.Background()
	s, err := c.app.session(ctx)
	if err != nil {
		return err
	}
	// merge against the latest shared scores before pushing the whole array
	_ = s.Refresh(ctx)
	if err := s.Submit(ctx, c.Args.Name, c.Args.Score); err != nil {
		return err
	}
	return c.app.printBoard(s, false, 0)
}

// ListCommand prints the board.
type ListCommand struct {
	app  *App
	All  bool `short:"a" long:"all" description:"show every row"`
	TopN int  `short:"n" long:"top" default:"10" description:"rows shown when collapsed"`
}

func (c *ListCommand) Execute(_ []string) error {
	ctx := context.Background()
	s, err := c.app.session(ctx)
	if err != nil {
		return err
	}
	if err := s.Refresh(ctx); err != nil {
		fmt.Fprintf(c.app.stdout(), "Unable to load scores, showing cached copy: %v\n", err)
	}
	return c.app.printBoard(s, c.All, c.TopN)
}

// SyncCommand pushes the cached scores.
type SyncCommand struct {
	app *App
}

func (c *SyncCommand) Execute(_ []string) error {
	ctx := context.Background()
	s, err := c.app.session(ctx)
	if err != nil {
		return err
	}
	return s.Sync(ctx)
}

// WatchCommand refreshes until interrupted.
type WatchCommand struct {
	app      *App
	Interval time.Duration `short:"i" long:"interval" default:"60s" description:"refresh interval"`
	All      bool          `short:"a" long:"all" description:"show every row"`
}

func (c *WatchCommand) Execute(_ []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	var s *widget.Session
	s, err := c.app.session(ctx, widget.WithRefresh(func(err error) {
		if err != nil {
			fmt.Fprintf(c.app.stdout(), "Unable to load scores: %v\n", err)
		}
		_ = c.app.printBoard(s, c.All, 0)
	}))
	if err != nil {
		return err
	}
	if err := s.Watch(ctx, c.Interval); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// CheckCommand validates the endpoint.
type CheckCommand struct {
	app *App
}

func (c *CheckCommand) Execute(_ []string) error {
	ctx := context.Background()
	s, err := c.app.session(ctx)
	if err != nil {
		return err
	}
	if err := s.Validate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.app.stdout(), "Endpoint reachable")
	return nil
}

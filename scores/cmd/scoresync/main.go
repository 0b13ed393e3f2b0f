package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/viant/mcp-protocol/schema"
	mcpsrv "github.com/viant/mcp/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/viant/leaderboard/logging"
	scoresmcp "github.com/viant/leaderboard/scores/mcp"
	"github.com/viant/leaderboard/scores/service"
	"github.com/viant/leaderboard/store"
)

// Options defines CLI flags for the score sync server.
type Options struct {
	HTTPAddr       string `short:"a" long:"addr" default:":8787" description:"HTTP listen address"`
	Config         string `short:"c" long:"config" description:"YAML config URL (file path or afs URL, e.g. gs://bucket/scoresync.yaml)"`
	Store          string `long:"store" description:"store kind override: github, kv, afs or sqlite"`
	StoreURL       string `long:"store-url" description:"document URL for the afs store (e.g., mem://localhost/scores.json)"`
	StorePath      string `long:"store-path" description:"database file for the sqlite store"`
	APIKeyRef      string `long:"api-key-ref" description:"scy EncodedResource for the write API key (cred.Basic password)"`
	GitHubTokenRef string `long:"github-token-ref" description:"scy EncodedResource for the GitHub token (cred.Basic password)"`
	KVTokenRef     string `long:"cf-token-ref" description:"scy EncodedResource for the Cloudflare API token (cred.Basic password)"`
	MCP            bool   `long:"mcp" description:"serve MCP tools on /mcp and the score endpoint on /scores"`
	LogLevel       string `long:"log-level" description:"debug, info, warn or error"`
	LogFormat      string `long:"log-format" description:"json or console"`
}

func main() {
	var opts Options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		os.Exit(2)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := service.LoadConfig(ctx, opts.Config)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	applyOptions(&opts, cfg)
	secrets := &service.Secrets{APIKeyRef: opts.APIKeyRef, GitHubTokenRef: opts.GitHubTokenRef, KVTokenRef: opts.KVTokenRef}
	if err := secrets.Resolve(ctx, cfg); err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	if cfg.APIKey == "" {
		logger.Warn("no API key configured, every write will be rejected")
	}

	st, err := store.New(ctx, &cfg.Store)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()
	if gh, ok := st.(*store.GitHub); ok {
		if err := gh.Check(ctx); err != nil {
			logger.Warn("github token check failed, writes will likely fail", zap.Error(err))
		}
	}
	svc := service.New(cfg, st, service.WithLogger(logger))

	server, err := newServer(ctx, &opts, svc)
	if err != nil {
		logger.Fatal("failed to build server", zap.Error(err))
	}
	logger.Info("listening", zap.String("addr", opts.HTTPAddr), zap.String("store", cfg.Store.Kind), zap.Bool("mcp", opts.MCP))

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		return server.Shutdown(shutdownCtx)
	})
	if err := group.Wait(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func applyOptions(opts *Options, cfg *service.Config) {
	if opts.Store != "" {
		cfg.Store.Kind = opts.Store
	}
	if opts.StoreURL != "" {
		cfg.Store.URL = opts.StoreURL
		if opts.Store == "" {
			cfg.Store.Kind = store.KindAFS
		}
	}
	if opts.StorePath != "" {
		cfg.Store.Path = opts.StorePath
		if opts.Store == "" {
			cfg.Store.Kind = store.KindSQLite
		}
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	if cfg.Store.Kind == "" && cfg.Store.URL == "" {
		cfg.Store.Kind = store.KindAFS
		cfg.Store.URL = "mem://localhost/scoresync/scores.json"
	}
}

func newServer(ctx context.Context, opts *Options, svc *service.Service) (*http.Server, error) {
	if !opts.MCP {
		mux := http.NewServeMux()
		svc.RegisterHTTP(mux)
		return &http.Server{Addr: opts.HTTPAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}, nil
	}
	handler := svc.Handler()
	options := []mcpsrv.Option{
		mcpsrv.WithImplementation(schema.Implementation{Name: "leaderboard-mcp", Version: "0.1.0"}),
		mcpsrv.WithNewHandler(scoresmcp.NewHandler(svc)),
		mcpsrv.WithEndpointAddress(opts.HTTPAddr),
		mcpsrv.WithRootRedirect(true),
		mcpsrv.WithStreamableURI("/mcp"),
		mcpsrv.WithCustomHTTPHandler("/scores", handler.ServeHTTP),
		// /scores applies its own key and CORS rules
		mcpsrv.WithAuthorizer(svc.Auth().Guard("/mcp")),
	}
	server, err := mcpsrv.New(options...)
	if err != nil {
		return nil, err
	}
	// Enable streamable HTTP so /mcp endpoint is active
	server.UseStreamableHTTP(true)
	return server.HTTP(ctx, opts.HTTPAddr), nil
}

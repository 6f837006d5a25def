package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexigen-app/lexigen/internal/cache"
	"github.com/lexigen-app/lexigen/internal/config"
	"github.com/lexigen-app/lexigen/internal/database"
	"github.com/lexigen-app/lexigen/internal/dataset"
	"github.com/lexigen-app/lexigen/internal/fetch"
	"github.com/lexigen-app/lexigen/internal/generator"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// app bundles everything a command needs and owns the resources that
// must be released on exit.
type app struct {
	config *config.Config
	cache  *cache.Cache
	chain  *fetch.Chain
	client *generator.Client
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loadConfig() > %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("openStore() > %w", err)
	}
	resultCache := cache.New(store, cfg.Cache.TTL())

	local, err := dataset.Load(cfg.Dataset.Directory)
	if err != nil {
		return nil, fmt.Errorf("dataset.Load() > %w", err)
	}

	a := &app{
		config: cfg,
		cache:  resultCache,
	}

	var options []fetch.ChainOption
	var remote fetch.RemoteSource
	if cfg.Generator.BaseURL != "" {
		a.client = generator.NewClient(
			cfg.Generator.BaseURL,
			cfg.Generator.APIKey,
			cfg.Generator.Model,
			cfg.Generator.RetryAttempts,
		)
		remote = fetch.NewRemoteGenerator(a.client, pollerConfig(cfg.Generator))
		options = append(options, fetch.WithEnricher(
			fetch.NewUsageEnricher(resultCache, a.client.StreamAdditional),
		))
	} else {
		slog.Default().Debug("no generator base URL configured, remote generation disabled")
	}

	a.chain = fetch.NewChain(resultCache, local, remote, dataset.Fallback(), options...)
	return a, nil
}

func (a *app) Close() error {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			return fmt.Errorf("client.Close() > %w", err)
		}
	}
	if err := a.cache.Close(); err != nil {
		return fmt.Errorf("cache.Close() > %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "mysql":
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database.Open() > %w", err)
		}
		store := cache.NewSQLStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("store.EnsureSchema() > %w", err)
		}
		return store, nil
	default:
		store, err := cache.OpenBadger(cache.BadgerConfig{
			Path:       cfg.Cache.Directory,
			SyncWrites: cfg.Cache.SyncWrites,
		})
		if err != nil {
			return nil, fmt.Errorf("cache.OpenBadger() > %w", err)
		}
		return store, nil
	}
}

func pollerConfig(cfg config.GeneratorConfig) generator.PollerConfig {
	pollerCfg := generator.DefaultPollerConfig()
	pollerCfg.Interval = cfg.PollInterval()
	pollerCfg.OverallTimeout = cfg.PollTimeout()
	return pollerCfg
}

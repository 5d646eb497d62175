package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/packagefeed/pkg/config"
	"github.com/rhuss/packagefeed/pkg/feed"
	"github.com/rhuss/packagefeed/pkg/outputcache"
	outputmemory "github.com/rhuss/packagefeed/pkg/outputcache/memory"
	outputredis "github.com/rhuss/packagefeed/pkg/outputcache/redis"
	"github.com/rhuss/packagefeed/pkg/query"
	"github.com/rhuss/packagefeed/pkg/search"
	"github.com/rhuss/packagefeed/pkg/storage"
	"github.com/rhuss/packagefeed/pkg/storage/memory"
	"github.com/rhuss/packagefeed/pkg/storage/postgres"
	transporthttp "github.com/rhuss/packagefeed/pkg/transport/http"
)

// app holds the wired feed and the resources it must release.
type app struct {
	repo    storage.PackageRepository
	cache   outputcache.Store
	handler http.Handler
}

func (a *app) Close() error {
	return errors.Join(a.cache.Close(), a.repo.Close())
}

// build wires every component named by cfg.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	repo, err := openRepository(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	var engine search.Engine
	if cfg.Search.Enabled() {
		client, err := search.NewClient(search.Config{
			BaseURL: cfg.Search.URL,
			APIKey:  cfg.Search.APIKey,
			Timeout: cfg.Search.Timeout,
			Breaker: search.BreakerConfig{
				MaxFailures: cfg.Search.Breaker.MaxFailures,
				Timeout:     cfg.Search.Breaker.Timeout,
			},
		}, logger)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("creating search client: %w", err)
		}
		engine = client
		logger.Info("search paging enabled", "url", cfg.Search.URL)
	}

	cache, err := openCache(ctx, cfg.Cache, logger)
	if err != nil {
		repo.Close()
		return nil, err
	}

	engines, err := buildEngines(cfg.Feed, repo, engine, logger)
	if err != nil {
		cache.Close()
		repo.Close()
		return nil, err
	}

	adapterCfg := transporthttp.DefaultConfig()
	adapterCfg.TrustForwardedProto = cfg.Server.TrustForwardedProto
	adapterCfg.MetricsPath = ""
	if cfg.Observability.Metrics.Enabled {
		adapterCfg.MetricsPath = cfg.Observability.Metrics.Path
	}
	adapterCfg.Cache = cache
	adapterCfg.Search = engine
	adapterCfg.Logger = logger

	return &app{
		repo:    repo,
		cache:   cache,
		handler: transporthttp.NewAdapter(repo, engines, adapterCfg).Handler(),
	}, nil
}

// buildEngines creates one policy service and query engine per feed version.
func buildEngines(cfg config.FeedConfig, repo storage.PackageRepository, engine search.Engine, logger *slog.Logger) ([]*query.Engine, error) {
	links := feed.NewLinkResolver(cfg.SiteRoots(), schemePolicy(cfg.LinkScheme))

	versions := []struct {
		name    string
		content feed.ContentAddresser
	}{
		{"v1", feed.V1Content(links)},
		{"v2", feed.V2Content(links)},
	}
	engines := make([]*query.Engine, 0, len(versions))
	for _, v := range versions {
		svc, err := feed.NewService(v.content, feed.Options{
			Links:       links,
			Search:      engine,
			MaxPageSize: cfg.MaxPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("creating %s feed: %w", v.name, err)
		}
		engines = append(engines, query.NewEngine(repo, svc, v.name, logger))
	}
	return engines, nil
}

func schemePolicy(linkScheme string) feed.SchemePolicy {
	switch linkScheme {
	case "https":
		return feed.ForceHTTPS
	case "http":
		return feed.ForceHTTP
	default:
		return feed.MirrorRequestScheme
	}
}

func openRepository(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.PackageRepository, error) {
	switch cfg.Type {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres repository: %w", err)
		}
		logger.Info("repository opened", "type", "postgres", "max_conns", cfg.Postgres.MaxConns)
		return store, nil
	default:
		logger.Info("repository opened", "type", "memory")
		return memory.New(), nil
	}
}

func openCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (outputcache.Store, error) {
	switch cfg.Type {
	case "redis":
		store, err := outputredis.New(ctx, outputredis.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("opening redis output cache: %w", err)
		}
		logger.Info("output cache enabled", "type", "redis", "addr", cfg.Redis.Addr)
		return store, nil
	case "none":
		logger.Info("output cache disabled")
		return outputcache.NullStore{}, nil
	default:
		logger.Info("output cache enabled", "type", "memory", "max_entries", cfg.MaxEntries)
		return outputmemory.New(cfg.MaxEntries), nil
	}
}

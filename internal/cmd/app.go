package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/masahif/pwascout/internal/config"
	"github.com/masahif/pwascout/internal/crawler"
	"github.com/masahif/pwascout/internal/logging"
	"github.com/masahif/pwascout/internal/queue"
	"github.com/masahif/pwascout/internal/storage"
)

// app holds the long-lived collaborators a command needs
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *storage.Store
	redis    *redis.Client
	frontier *queue.RedisFrontier
	registry *prometheus.Registry
	metrics  *crawler.Metrics
	closers  []io.Closer
}

type appOptions struct {
	store    bool
	frontier bool
}

// newApp validates cfg, sets up logging and opens the requested stores
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, logCloser, err := logging.NewLogger(logging.FromConfig(cfg.Log))
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  crawler.NewMetrics(registry),
		closers:  []io.Closer{logCloser},
	}

	if opts.store {
		store, err := storage.Open(ctx, cfg.Database, cfg.DomainThreshold)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to open visited store: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store)
	}

	if opts.frontier {
		client, err := queue.NewClient(ctx, cfg.Redis)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to connect to queue store: %w", err)
		}
		a.redis = client
		a.frontier = queue.NewRedisFrontier(client, cfg.Redis.QueueKey)
		a.closers = append(a.closers, client)
	}

	return a, nil
}

// newCrawler builds the crawl engine on top of the opened stores
func (a *app) newCrawler() (*crawler.Crawler, func(), error) {
	fetcher := crawler.NewHTTPFetcher(a.cfg, a.logger, a.metrics)

	processor, err := crawler.NewPageProcessor(a.cfg, a.store, a.frontier, fetcher, a.logger, a.metrics)
	if err != nil {
		fetcher.Close()
		return nil, nil, err
	}

	return crawler.NewCrawler(a.cfg, processor, a.frontier, a.logger, a.metrics), fetcher.Close, nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

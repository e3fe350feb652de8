package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/deusflow/toranews/internal/config"
	"github.com/deusflow/toranews/internal/news"
	"github.com/deusflow/toranews/internal/notify"
	"github.com/deusflow/toranews/internal/retry"
	"github.com/deusflow/toranews/internal/rss"
	"github.com/deusflow/toranews/internal/scraper"
	"github.com/deusflow/toranews/internal/storage"
)

// FromConfig builds a Pipeline and its adapters from cfg. The returned closer
// releases the registry's resources.
func FromConfig(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Pipeline, func() error, error) {
	rules := news.DefaultRules()
	if cfg.RulesFile != "" {
		loaded, err := news.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, nil, err
		}
		rules = loaded
	}

	fetcher := scraper.NewFetcher(scraper.FetcherOptions{
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.FetchRPS,
		RespectRobots:     cfg.RespectRobots,
		Logger:            log,
	})

	var lister Lister
	switch cfg.ListingSource {
	case "rss":
		lister = rss.NewFeedSource(fetcher, cfg.ListingFeedURL)
	default:
		lister = scraper.NewListingSource(fetcher, cfg.ListingURL, scraper.DefaultListingSelectors)
	}

	registry, closer, err := newRegistry(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	client := &http.Client{Timeout: cfg.RequestTimeout}
	webhook := notify.NewWebhook(cfg.WebhookURL, client, retry.Config{
		MaxAttempts: cfg.WebhookRetries,
		Delay:       cfg.WebhookRetryDelay,
		Backoff:     true,
	})

	p := New(Deps{
		Lister:    lister,
		Filter:    news.NewFilter(rules, log),
		Registry:  registry,
		Assembler: scraper.NewAssembler(fetcher, cfg.ArticleMaxPages, log),
		Sender:    webhook,
		Logger:    log,
	}, Options{
		AvatarURL:       cfg.AvatarURL,
		ItemDelay:       cfg.ItemDelay,
		RegisterMode:    RegisterMode(cfg.RegisterMode),
		ContinueOnError: cfg.ContinueOnError,
	})
	return p, closer, nil
}

func newRegistry(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Registry, func() error, error) {
	noop := func() error { return nil }

	switch cfg.DedupeBackend {
	case "postgres":
		pg, err := storage.NewPostgresRegistry(ctx, cfg.DatabaseURL, cfg.CacheTTLHours, log)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Cleanup(ctx); err != nil {
			log.Warn("registry cleanup failed", "error", err)
		}
		return pg, pg.Close, nil
	case "file":
		fr, err := storage.NewFileRegistry(cfg.CacheFilePath, cfg.CacheTTLHours)
		if err != nil {
			return nil, nil, err
		}
		log.Info("file registry loaded", "path", cfg.CacheFilePath, "entries", fr.Len())
		return fr, noop, nil
	case "memory":
		return storage.NewMemoryRegistry(time.Duration(cfg.CacheTTLHours) * time.Hour), noop, nil
	case "service":
		client := &http.Client{Timeout: cfg.RequestTimeout}
		return storage.NewServiceRegistry(cfg.DedupeBatchURL, cfg.DedupeURL, cfg.DedupeServiceKey, client), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown dedupe backend %q", cfg.DedupeBackend)
	}
}

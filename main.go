package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentry "github.com/getsentry/sentry-go"

	"tgmirror/internal/config"
	"tgmirror/internal/media"
	"tgmirror/internal/retry"
	"tgmirror/internal/site"
	"tgmirror/internal/storage"
	"tgmirror/internal/syncer"
	"tgmirror/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Initialize Sentry (if DSN is provided)
	err = sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.AppEnv,
		Release:     cfg.Version,
		Debug:       cfg.Debug,
	})
	if err != nil {
		logger.Error("sentry.Init failed", "error", err)
		os.Exit(1)
	}
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		sentry.CaptureException(err)
		logger.Error("sync failed", "error", err)
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store := storage.New(cfg.DocsDir, logger)

	retryOpts := retry.DefaultOptions()
	if cfg.Sync.MaxRetries > 0 {
		retryOpts.Retries = cfg.Sync.MaxRetries
	}
	if cfg.Sync.Backoff > 0 {
		retryOpts.Backoff = cfg.Sync.Backoff
	}

	return telegram.Run(ctx, cfg.Telegram, retryOpts, logger, func(ctx context.Context, client *telegram.Client) error {
		fetcher := media.NewFetcher(client, store, cfg.Sync.MediaMaxBytes, retryOpts, logger)
		s := syncer.New(client, store, fetcher, cfg.Sync, cfg.Telegram.Channel, logger)

		result, err := s.Run(ctx)
		if err != nil {
			return err
		}

		if cfg.Sync.DryRun || !cfg.Sync.GenerateSiteFiles {
			return nil
		}
		if !result.Changed {
			logger.Info("nothing changed, site outputs left untouched")
			return nil
		}
		return site.NewGenerator(store, cfg.Sync, logger).Generate(result.Meta, result.Posts)
	})
}

// Package main runs a Telegram bot that greets its subscribers whenever it is
// 9 AM in one of the time zones it knows about.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"timely-greeter/config"
	"timely-greeter/dispatch"
	"timely-greeter/poll"
	"timely-greeter/registry"
	"timely-greeter/server"
	stores "timely-greeter/storage"
	"timely-greeter/telegram"
	"timely-greeter/timezone"
)

// stateStore persists both the subscriber list and the update watermark.
type stateStore interface {
	registry.Store
	poll.WatermarkStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logger.Level),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Greeter stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Greeter stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, closeStore, err := openStore(ctx, &cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	reg, err := registry.Load(ctx, store, logger)
	if err != nil {
		return err
	}

	client := telegram.New(telegram.Options{
		Logger:      logger,
		BaseURL:     cfg.Telegram.APIURL,
		Token:       cfg.Telegram.Token,
		PollTimeout: cfg.Telegram.PollTimeout,
		SendRate:    cfg.Telegram.SendRate,
	})
	var sender telegram.Sender = client
	if cfg.Telegram.MockSend {
		logger.Info("Mock send mode enabled, messages will only be logged")
		sender = telegram.NewMock(logger)
	}

	zones := timezone.Zones()
	scheduler := timezone.NewScheduler(zones,
		timezone.WithHour(cfg.Greeter.Hour),
		timezone.WithWindow(cfg.Greeter.Window))

	poller := poll.New(client, reg, sender, store, logger,
		poll.WithTimeout(cfg.Telegram.PollTimeout),
		poll.WithBackoff(cfg.Telegram.PollBackoff))

	loop, err := dispatch.New(dispatch.Config{
		Scheduler:   scheduler,
		Subscribers: reg,
		Sender:      sender,
		Logger:      logger,
		Cron:        cfg.Greeter.Cron,
		StickerID:   cfg.Telegram.StickerID,
		SendTimeout: cfg.Telegram.SendTimeout,
		QueueSize:   cfg.Greeter.QueueSize,
	})
	if err != nil {
		return fmt.Errorf("create dispatch loop: %w", err)
	}

	srv := server.New(&server.Config{
		Subscribers: reg,
		Scheduler:   scheduler,
		Poller:      poller,
		Logger:      logger,
		Zones:       zones,
	})

	logger.Info("Greeter starting",
		"zones", len(zones),
		"subscribers", reg.Len(),
		"greet_hour", cfg.Greeter.Hour,
		"storage", cfg.Storage.Backend())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return poller.Run(gctx) })
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx, cfg.Server.Port) })
	return g.Wait()
}

// openStore picks the storage backend: SQLite, then Cloud Storage, then a
// local directory. The returned func releases the backend.
func openStore(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (stateStore, func(), error) {
	switch cfg.Backend() {
	case config.BackendSQLite:
		db, err := stores.OpenSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return db, func() {
			if err := db.Close(); err != nil {
				logger.Warn("Failed to close database", "error", err)
			}
		}, nil

	case config.BackendGCS:
		client, err := storageClient(ctx, cfg.CredentialsJSON)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize storage client: %w", err)
		}
		logger.Info("Using Cloud Storage", "bucket", cfg.Bucket)
		return stores.New(client, cfg.Bucket, "", logger), func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close storage client", "error", err)
			}
		}, nil

	default:
		if err := os.MkdirAll(cfg.LocalPath, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create local storage directory: %w", err)
		}
		logger.Info("Running with local storage", "storage_path", cfg.LocalPath)
		return stores.New(nil, "", cfg.LocalPath, logger), func() {}, nil
	}
}

func storageClient(ctx context.Context, credsJSON string) (*storage.Client, error) {
	// Explicit credentials first, for running outside GCP
	if credsJSON != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credsJSON)))
	}

	// On Cloud Run, Application Default Credentials come from the service account
	if isCloudRun(ctx) {
		return storage.NewClient(ctx)
	}

	return nil, errors.New("GOOGLE_CREDENTIALS_JSON required when not running in Cloud Run")
}

// isCloudRun checks if we're running in a GCP environment by querying the metadata server.
func isCloudRun(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://metadata.google.internal/computeMetadata/v1/project/project-id", http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("Metadata-Flavor", "Google")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	return resp.StatusCode == http.StatusOK
}

func logLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lite-hq/lite/pkg/chat"
	"lite-hq/lite/pkg/cli"
	"lite-hq/lite/pkg/config"
	"lite-hq/lite/pkg/providerfactory"
	"lite-hq/lite/pkg/storage"
	"lite-hq/lite/pkg/telemetry"
	"lite-hq/lite/pkg/telemetry/logging"
)

// app holds the components shared by the commands that touch storage or
// providers.
type app struct {
	cfg       *config.Config
	path      string
	telemetry *telemetry.Telemetry
	logger    *slog.Logger
	store     storage.Store
	manager   *providerfactory.Manager
	chat      *chat.Service
}

// loadConfig reads the configuration selected by --config and applies the
// --log-level override.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path := configPath(cmd)
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, path, cli.NewConfigError("", err)
	}
	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, path, cli.NewConfigError("log-level", err)
		}
	}
	config.SetConfig(cfg)
	return cfg, path, nil
}

// newApp loads configuration, installs the logger, opens the store, seeds
// configured providers and builds the provider registry and chat service.
// logs receives log output; nil means stderr.
func newApp(ctx context.Context, cmd *cobra.Command, logs io.Writer) (*app, error) {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = os.Stderr
	}

	tel, err := telemetry.New(&cfg.Telemetry, telemetry.Options{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
		LogWriter: logs,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry", err)
	}
	logging.SetDefault(tel.Logger)
	logger := tel.Logger.Slog()

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if len(cfg.Providers) > 0 {
		res, err := storage.SeedProviders(ctx, store, cfg.Providers)
		if err != nil {
			store.Close()
			_ = tel.Shutdown(ctx)
			return nil, fmt.Errorf("failed to seed providers: %w", err)
		}
		logger.Debug("providers seeded", "created", res.Created, "updated", res.Updated)
	}

	manager := providerfactory.NewManager(
		providerfactory.WithModelCacheTTL(cfg.Cache.ModelTTL),
		providerfactory.WithProviderOptions(providerfactory.WithMetrics(tel.Metrics)),
		providerfactory.WithManagerMetrics(tel.Metrics),
	)

	svc := chat.NewService(store, manager,
		chat.WithLogger(logger.With("component", "chat")),
		chat.WithDefaultModelFunc(config.ChatDefaultModel),
		chat.WithUsageRecorder(tel.Metrics),
	)

	return &app{
		cfg:       cfg,
		path:      path,
		telemetry: tel,
		logger:    logger,
		store:     store,
		manager:   manager,
		chat:      svc,
	}, nil
}

// Close releases the store and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	return errors.Join(a.store.Close(), a.telemetry.Shutdown(ctx))
}

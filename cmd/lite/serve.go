package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lite-hq/lite/pkg/cli"
	"lite-hq/lite/pkg/config"
	"lite-hq/lite/pkg/retention"
	"lite-hq/lite/pkg/server"
	"lite-hq/lite/pkg/storage"
)

var serveFlags struct {
	listenAddress string
	dryRun        bool
	watch         bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the lite HTTP API server with the specified configuration.

Providers listed in the configuration are upserted into the store on startup
and again whenever the configuration file changes.

Examples:
  # Start with lite.yaml in the working directory
  lite serve

  # Start with a custom config
  lite serve --config /etc/lite/lite.yaml

  # Override listen address
  lite serve --listen 0.0.0.0:8080

  # Validate config and storage without starting the server
  lite serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config and open storage without serving")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", true, "reload the config file when it changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := cli.SignalContext(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(shutdownCtx); err != nil {
			a.logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	if serveFlags.listenAddress != "" {
		a.cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	if serveFlags.dryRun {
		if err := a.store.Ping(ctx); err != nil {
			return fmt.Errorf("storage check failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Storage reachable")
		return nil
	}

	registerHealthChecks(a)

	pruner := retention.NewPruner(a.store, a.manager, a.cfg.Retention.ChatDays,
		retention.WithRecorder(a.telemetry.Metrics),
		retention.WithLogger(a.logger),
	)
	scheduler := retention.NewScheduler(pruner, retention.Schedules{
		Chats:      scheduleOrEmpty(a.cfg.Retention.PruneSchedule),
		ModelCache: scheduleOrEmpty(a.cfg.Cache.PruneSchedule),
	})
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewConfigError("retention", err)
	}
	defer scheduler.Stop()

	if serveFlags.watch && a.path != "" {
		stop, err := watchConfig(ctx, a)
		if err != nil {
			a.logger.Warn("config watcher disabled", "error", err)
		} else {
			defer stop()
		}
	}

	metricsPath := ""
	if a.cfg.Telemetry.Metrics.Enabled {
		metricsPath = a.cfg.Telemetry.Metrics.Path
	}

	srv, err := server.New(a.cfg.Server, server.Deps{
		Store:       a.store,
		Chat:        a.chat,
		Registry:    a.manager,
		Telemetry:   a.telemetry,
		MetricsPath: metricsPath,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}

	a.logger.Info("lite starting",
		"version", Version,
		"listen", a.cfg.Server.ListenAddress,
		"storage", a.cfg.Storage.Backend,
		"metrics", metricsPath,
		"tracing", a.telemetry.Tracer.Enabled(),
	)

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	if cli.Interrupted(ctx) {
		a.logger.Info("shutdown complete")
	}
	return nil
}

// registerHealthChecks makes storage critical for readiness. Having no
// provider only degrades it, since providers can be added over the API.
func registerHealthChecks(a *app) {
	a.telemetry.Health.RegisterCritical("storage", a.store.Ping)
	a.telemetry.Health.Register("providers", func(ctx context.Context) error {
		_, err := a.store.DefaultProvider(ctx)
		if errors.Is(err, storage.ErrNotFound) {
			return errors.New("no default provider configured")
		}
		return err
	})
}

// watchConfig reloads the config file on change. The watcher publishes the
// new configuration, which the chat default model follows; the log level is
// applied and configured providers are upserted again.
func watchConfig(ctx context.Context, a *app) (func(), error) {
	w, err := config.NewWatcher(a.path, a.logger)
	if err != nil {
		return nil, err
	}

	go func() {
		err := w.Watch(ctx, func(cfg *config.Config) {
			if logLevel == "" {
				if err := a.telemetry.Logger.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
					a.logger.Warn("log level not applied", "error", err)
				}
			}

			res, err := storage.SeedProviders(ctx, a.store, cfg.Providers)
			if err != nil {
				a.logger.Error("failed to re-seed providers", "error", err)
				return
			}
			a.logger.Info("providers re-seeded", "created", res.Created, "updated", res.Updated)
		})
		if err != nil {
			a.logger.Error("config watcher stopped", "error", err)
		}
	}()

	return func() {
		if err := w.Stop(); err != nil {
			a.logger.Debug("config watcher close failed", "error", err)
		}
	}, nil
}

// scheduleOrEmpty maps the "off" sentinel to the scheduler's empty schedule.
func scheduleOrEmpty(spec string) string {
	if spec == config.ScheduleOff {
		return ""
	}
	return spec
}

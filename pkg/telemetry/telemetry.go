package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"lite-hq/lite/pkg/config"
	"lite-hq/lite/pkg/telemetry/health"
	"lite-hq/lite/pkg/telemetry/logging"
	"lite-hq/lite/pkg/telemetry/metrics"
	"lite-hq/lite/pkg/telemetry/tracing"
)

// Telemetry bundles the process-wide observability components.
type Telemetry struct {
	Logger  *logging.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Health  *health.Checker
	Version health.VersionInfo
}

// Options carries build information and optional output overrides.
type Options struct {
	Version   string
	Commit    string
	BuildTime string

	// LogWriter overrides the logging destination (stderr).
	LogWriter io.Writer

	// HealthTimeout bounds each readiness check.
	HealthTimeout time.Duration
}

// New builds logging, metrics, tracing and health from cfg. The collector
// is created even when metrics are disabled so callers never hold a nil
// observer; the server simply does not expose it.
func New(cfg *config.TelemetryConfig, opts Options) (*Telemetry, error) {
	logCfg := logging.ConfigFrom(cfg.Logging)
	if opts.LogWriter != nil {
		logCfg.Writer = opts.LogWriter
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tracer, err := tracing.New(&cfg.Tracing, tracing.WithServiceVersion(opts.Version))
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	return &Telemetry{
		Logger:  logger,
		Metrics: metrics.NewCollector(&cfg.Metrics, nil),
		Tracer:  tracer,
		Health:  health.New(opts.HealthTimeout),
		Version: health.NewVersionInfo(opts.Version, opts.Commit, opts.BuildTime),
	}, nil
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := t.Tracer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer: %w", err)
	}
	return nil
}

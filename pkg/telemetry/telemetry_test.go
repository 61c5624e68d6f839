package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"lite-hq/lite/pkg/config"
)

func TestNew(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.Tracing.Enabled = false

	var buf bytes.Buffer
	tel, err := New(&cfg, Options{Version: "1.0.0", Commit: "abc", LogWriter: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tel.Shutdown(context.Background())

	if tel.Tracer.Enabled() {
		t.Error("tracer should be disabled")
	}
	if tel.Metrics.Registry() == nil {
		t.Error("metrics registry is nil")
	}
	if tel.Version.Version != "1.0.0" {
		t.Errorf("Version = %+v", tel.Version)
	}

	tel.Logger.Info("started", "api_key", "sk-abcdefghijklmnop")
	if out := buf.String(); strings.Contains(out, "abcdefghijklmnop") {
		t.Errorf("log output leaked the key: %s", out)
	}
}

func TestNew_InvalidLogLevel(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.Logging.Level = "verbose"

	if _, err := New(&cfg, Options{}); err == nil {
		t.Error("expected error for invalid log level")
	}
}

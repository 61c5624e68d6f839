package config

import (
	"errors"
	"strings"
	"testing"

	"lite-hq/lite/pkg/providers"
)

func validEntry(name string, t providers.ProviderType) ProviderEntry {
	return ProviderEntry{Name: name, ProviderConfig: providers.ProviderConfig{Type: t, APIKey: "k"}}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantField string
	}{
		{
			name:      "bad listen address",
			mutate:    func(cfg *Config) { cfg.Server.ListenAddress = "localhost" },
			wantField: "server.listen_address",
		},
		{
			name: "wildcard origin with credentials",
			mutate: func(cfg *Config) {
				cfg.Server.CORS.AllowCredentials = true
			},
			wantField: "server.cors.allowed_origins",
		},
		{
			name:      "unknown backend",
			mutate:    func(cfg *Config) { cfg.Storage.Backend = "postgres" },
			wantField: "storage.backend",
		},
		{
			name:      "unknown driver",
			mutate:    func(cfg *Config) { cfg.Storage.SQLite.Driver = "sqlite4" },
			wantField: "storage.sqlite.driver",
		},
		{
			name: "idle above open",
			mutate: func(cfg *Config) {
				cfg.Storage.SQLite.MaxOpenConns = 2
				cfg.Storage.SQLite.MaxIdleConns = 3
			},
			wantField: "storage.sqlite.max_idle_conns",
		},
		{
			name: "unsupported provider type",
			mutate: func(cfg *Config) {
				cfg.Providers = []ProviderEntry{validEntry("g", "gemini")}
			},
			wantField: "providers[0].type",
		},
		{
			name: "custom without base url",
			mutate: func(cfg *Config) {
				cfg.Providers = []ProviderEntry{validEntry("local", providers.TypeCustom)}
			},
			wantField: "providers[0].base_url",
		},
		{
			name: "relative base url",
			mutate: func(cfg *Config) {
				e := validEntry("oa", providers.TypeOpenAI)
				e.BaseURL = "api/v1"
				cfg.Providers = []ProviderEntry{e}
			},
			wantField: "providers[0].base_url",
		},
		{
			name: "duplicate names",
			mutate: func(cfg *Config) {
				cfg.Providers = []ProviderEntry{validEntry("a", providers.TypeOpenAI), validEntry("a", providers.TypeAnthropic)}
			},
			wantField: "providers[1].name",
		},
		{
			name: "two defaults",
			mutate: func(cfg *Config) {
				a, b := validEntry("a", providers.TypeOpenAI), validEntry("b", providers.TypeAnthropic)
				a.Default, b.Default = true, true
				cfg.Providers = []ProviderEntry{a, b}
			},
			wantField: "providers",
		},
		{
			name:      "bad cron",
			mutate:    func(cfg *Config) { cfg.Retention.PruneSchedule = "every day" },
			wantField: "retention.prune_schedule",
		},
		{
			name:      "negative retention",
			mutate:    func(cfg *Config) { cfg.Retention.ChatDays = -1 },
			wantField: "retention.chat_days",
		},
		{
			name:      "bad log level",
			mutate:    func(cfg *Config) { cfg.Telemetry.Logging.Level = "loud" },
			wantField: "telemetry.logging.level",
		},
		{
			name: "bad redact pattern",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Logging.RedactPatterns = []RedactPattern{{Name: "x", Pattern: "("}}
			},
			wantField: "telemetry.logging.redact_patterns[0].pattern",
		},
		{
			name: "tracing ratio out of range",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Tracing.Enabled = true
				cfg.Telemetry.Tracing.SampleRatio = 1.5
			},
			wantField: "telemetry.tracing.sample_ratio",
		},
		{
			name: "tracing exporter",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Tracing.Enabled = true
				cfg.Telemetry.Tracing.Exporter = "zipkin"
			},
			wantField: "telemetry.tracing.exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			var found bool
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidate_DisabledTracingIgnored(t *testing.T) {
	cfg := Default()
	cfg.Telemetry.Tracing.Exporter = "zipkin"

	if err := Validate(cfg); err != nil {
		t.Errorf("disabled tracing should not be validated: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("unexpected single error text %q", got)
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	got := multi.Error()
	if !strings.Contains(got, "2 errors") || !strings.Contains(got, "  - b: worse") {
		t.Errorf("unexpected multi error text %q", got)
	}
}

func TestValidate_ScheduleOff(t *testing.T) {
	cfg := Default()
	cfg.Cache.PruneSchedule = ScheduleOff
	cfg.Retention.PruneSchedule = ScheduleOff

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

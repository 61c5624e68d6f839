package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"lite-hq/lite/pkg/providers"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "LITE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It starts from Default, decodes the file over it, fills remaining
// defaults and validates. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML over Default and applies defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention LITE_SECTION_FIELD (e.g., LITE_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from Default.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if cfg, err = Parse(data); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envInt("SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	envBool("SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)
	envList("SERVER_CORS_ALLOWED_ORIGINS", &cfg.Server.CORS.AllowedOrigins)

	// Storage overrides
	envString("STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("STORAGE_SQLITE_PATH", &cfg.Storage.SQLite.Path)
	envString("STORAGE_SQLITE_DRIVER", &cfg.Storage.SQLite.Driver)
	envBool("STORAGE_SQLITE_WAL_MODE", &cfg.Storage.SQLite.WALMode)
	envDuration("STORAGE_SQLITE_BUSY_TIMEOUT", &cfg.Storage.SQLite.BusyTimeout)

	// Cache and retention overrides
	envDuration("CACHE_MODEL_TTL", &cfg.Cache.ModelTTL)
	envString("CACHE_PRUNE_SCHEDULE", &cfg.Cache.PruneSchedule)
	envInt("RETENTION_CHAT_DAYS", &cfg.Retention.ChatDays)
	envString("RETENTION_PRUNE_SCHEDULE", &cfg.Retention.PruneSchedule)

	// Chat overrides
	envString("CHAT_DEFAULT_MODEL", &cfg.Chat.DefaultModel)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_REDACT_SECRETS", &cfg.Telemetry.Logging.RedactSecrets)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_EXPORTER", &cfg.Telemetry.Tracing.Exporter)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)

	// Provider overrides: every configured entry, plus the built-in
	// vendor names so a key in the environment alone is enough.
	names := map[string]bool{}
	for _, p := range cfg.Providers {
		names[p.Name] = true
	}
	for _, t := range []providers.ProviderType{providers.TypeOpenAI, providers.TypeAnthropic, providers.TypeOpenRouter} {
		if !names[string(t)] {
			applyProviderEnvOverrides(cfg, string(t), t)
		}
	}
	for i := range cfg.Providers {
		overrideProvider(&cfg.Providers[i])
	}
}

// applyProviderEnvOverrides creates an entry for name when its API key is
// present in the environment. Provider variables follow the format
// LITE_PROVIDERS_<NAME>_<FIELD> where NAME is the uppercase provider name.
func applyProviderEnvOverrides(cfg *Config, name string, providerType providers.ProviderType) {
	if os.Getenv(providerEnvPrefix(name)+"API_KEY") == "" {
		return
	}

	entry := ProviderEntry{Name: name}
	entry.Type = providerType
	overrideProvider(&entry)
	cfg.Providers = append(cfg.Providers, entry)
}

func overrideProvider(entry *ProviderEntry) {
	prefix := providerEnvPrefix(entry.Name)

	if val := os.Getenv(prefix + "TYPE"); val != "" {
		entry.Type = providers.ProviderType(val)
	}
	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		entry.APIKey = val
	}
	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		entry.BaseURL = val
	}
	if val := os.Getenv(prefix + "ORGANIZATION"); val != "" {
		entry.Organization = val
	}
	if val := os.Getenv(prefix + "TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			entry.Timeout = d
		}
	}
	if val := os.Getenv(prefix + "DEFAULT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			entry.Default = b
		}
	}
}

func providerEnvPrefix(name string) string {
	upper := strings.ToUpper(strings.NewReplacer("-", "_", " ", "_", ".", "_").Replace(name))
	return EnvPrefix + "PROVIDERS_" + upper + "_"
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envList(key string, dst *[]string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

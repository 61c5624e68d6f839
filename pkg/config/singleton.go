package config

import (
	"fmt"
	"sync/atomic"
)

// current is the process-wide configuration. cmd/lite publishes the file it
// loaded at startup and the Watcher republishes on every reload that
// validates. Components that follow reloads read it through GetConfig
// instead of keeping their own copy.
var current atomic.Pointer[Config]

// GetConfig returns the published configuration, or nil before the first
// SetConfig or ReloadConfig.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig publishes cfg.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// ReloadConfig loads path with environment overrides and publishes the
// result. On failure the published configuration is left as it was.
func ReloadConfig(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}
	SetConfig(cfg)
	return cfg, nil
}

// ChatDefaultModel returns the published chat default model, falling back
// to DefaultChatModel when nothing is published yet.
func ChatDefaultModel() string {
	if cfg := GetConfig(); cfg != nil && cfg.Chat.DefaultModel != "" {
		return cfg.Chat.DefaultModel
	}
	return DefaultChatModel
}

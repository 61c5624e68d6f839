package providerfactory

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"lite-hq/lite/pkg/providers"
	"lite-hq/lite/pkg/providers/anthropic"
	"lite-hq/lite/pkg/providers/openai"
	"lite-hq/lite/pkg/providers/openrouter"
)

// Option customizes adapters built by NewProvider.
type Option func(*options)

type options struct {
	transport []providers.TransportOption
}

// WithHTTPClient makes every adapter use client instead of its pooled default.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.transport = append(o.transport, providers.WithHTTPClient(client))
	}
}

// WithMetrics reports every outbound vendor call to observer.
func WithMetrics(observer providers.Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.transport = append(o.transport, providers.WithObserver(observer))
		}
	}
}

// NewProvider creates a new provider instance based on the configuration.
//
// Supported provider types:
//   - "openai": OpenAI API
//   - "anthropic": Anthropic Messages API
//   - "openrouter": OpenRouter
//   - "custom": any OpenAI-compatible endpoint (requires BaseURL)
//
// Example:
//
//	provider, err := NewProvider(providers.ProviderConfig{
//	    Type:   providers.TypeOpenAI,
//	    APIKey: "sk-...",
//	})
//	if err != nil {
//	    return err
//	}
func NewProvider(cfg providers.ProviderConfig, opts ...Option) (providers.Provider, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	slog.Debug("creating provider",
		"type", cfg.Type,
		"base_url", cfg.BaseURL,
	)

	var (
		provider providers.Provider
		err      error
	)

	switch cfg.Type {
	case providers.TypeOpenAI, providers.TypeCustom:
		provider, err = openai.NewProvider(cfg, o.transport...)

	case providers.TypeAnthropic:
		provider, err = anthropic.NewProvider(cfg, o.transport...)

	case providers.TypeOpenRouter:
		provider, err = openrouter.NewProvider(cfg, o.transport...)

	default:
		return nil, &providers.ConfigurationError{
			Provider: cfg.Type,
			Field:    "type",
			Message:  fmt.Sprintf("unsupported provider type: %q (supported: %s)", cfg.Type, supportedList()),
			Cause:    providers.ErrUnsupportedProviderType,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", cfg.Type, err)
	}

	slog.Debug("provider created", "type", cfg.Type)

	return provider, nil
}

func supportedList() string {
	names := make([]string, len(providers.SupportedTypes))
	for i, t := range providers.SupportedTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

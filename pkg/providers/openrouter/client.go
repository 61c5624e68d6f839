// Package openrouter implements the OpenRouter provider adapter.
//
// OpenRouter speaks the OpenAI wire format, so chat and completion calls are
// served by the openai adapter. This package adds the attribution headers
// OpenRouter expects and its richer model listing.
package openrouter

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"lite-hq/lite/pkg/providers"
	"lite-hq/lite/pkg/providers/openai"
)

const (
	// DefaultBaseURL is the OpenRouter API root.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultTitle is sent as X-Title unless overridden.
	DefaultTitle = "Lite"
)

// Provider is the OpenRouter adapter.
type Provider struct {
	*openai.Provider
	logger *slog.Logger
}

// NewProvider creates a new OpenRouter provider instance.
func NewProvider(cfg providers.ProviderConfig, opts ...providers.TransportOption) (*Provider, error) {
	auth := map[string]string{
		"HTTP-Referer": lookupHeader(cfg.CustomHeaders, "HTTP-Referer", ""),
		"X-Title":      lookupHeader(cfg.CustomHeaders, "X-Title", DefaultTitle),
	}

	inner, err := openai.NewCompatible(providers.TypeOpenRouter, cfg, DefaultBaseURL, auth, opts...)
	if err != nil {
		return nil, err
	}

	return &Provider{
		Provider: inner,
		logger:   slog.Default().With("component", "providers.openrouter"),
	}, nil
}

type modelList struct {
	Data []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		ContextLength int    `json:"context_length"`
		Pricing       *struct {
			Prompt     string `json:"prompt"`
			Completion string `json:"completion"`
		} `json:"pricing"`
	} `json:"data"`
}

// Models lists every model OpenRouter routes to. Vendor prices are decimal
// strings per token and are converted to per 1M tokens.
func (p *Provider) Models(ctx context.Context) ([]providers.Model, error) {
	var list modelList
	if err := p.Transport().SendJSON(ctx, http.MethodGet, p.BaseURL()+"/models", nil, &list, nil); err != nil {
		return nil, err
	}

	models := make([]providers.Model, 0, len(list.Data))
	for _, m := range list.Data {
		model := providers.Model{
			ID:                 m.ID,
			Name:               m.Name,
			Provider:           providers.TypeOpenRouter,
			ContextWindow:      m.ContextLength,
			SupportsChat:       true,
			SupportsCompletion: true,
		}
		if model.Name == "" {
			model.Name = m.ID
		}
		if m.Pricing != nil {
			model.Pricing = parsePricing(m.Pricing.Prompt, m.Pricing.Completion)
		}
		models = append(models, model)
	}

	p.logger.Debug("listed models", "count", len(models))

	return models, nil
}

// parsePricing returns nil when either price is not a number.
func parsePricing(prompt, completion string) *providers.Pricing {
	pp, err := strconv.ParseFloat(prompt, 64)
	if err != nil {
		return nil
	}
	cp, err := strconv.ParseFloat(completion, 64)
	if err != nil {
		return nil
	}
	return &providers.Pricing{Prompt: pp * 1e6, Completion: cp * 1e6}
}

func lookupHeader(headers map[string]string, name, fallback string) string {
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == http.CanonicalHeaderKey(name) && v != "" {
			return v
		}
	}
	return fallback
}

var _ providers.Provider = (*Provider)(nil)

package openai

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"lite-hq/lite/pkg/providers"
)

// DefaultBaseURL is the OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// Provider is the OpenAI-compatible adapter. It implements providers.Provider.
type Provider struct {
	providerType providers.ProviderType
	baseURL      string
	transport    *providers.Transport
	logger       *slog.Logger
}

// NewProvider creates an adapter for cfg. cfg.Type may be openai or custom;
// custom requires a base URL.
func NewProvider(cfg providers.ProviderConfig, opts ...providers.TransportOption) (*Provider, error) {
	providerType := cfg.Type
	if providerType == "" {
		providerType = providers.TypeOpenAI
	}

	if providerType == providers.TypeCustom && cfg.BaseURL == "" {
		return nil, &providers.ConfigurationError{
			Provider: providerType,
			Field:    "base_url",
			Message:  "base URL is required for custom providers",
		}
	}

	auth := map[string]string{}
	if cfg.Organization != "" {
		auth["OpenAI-Organization"] = cfg.Organization
	}

	return NewCompatible(providerType, cfg, DefaultBaseURL, auth, opts...)
}

// NewCompatible creates an adapter for another vendor that speaks the
// OpenAI wire format. The bearer token is always added; extraAuth carries
// any vendor-specific headers that sit at auth precedence.
func NewCompatible(providerType providers.ProviderType, cfg providers.ProviderConfig, defaultBaseURL string, extraAuth map[string]string, opts ...providers.TransportOption) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, &providers.ConfigurationError{
			Provider: providerType,
			Field:    "api_key",
			Message:  "API key is required for " + string(providerType) + " provider",
		}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	auth := map[string]string{"Authorization": "Bearer " + cfg.APIKey}
	for k, v := range extraAuth {
		auth[k] = v
	}

	p := &Provider{
		providerType: providerType,
		baseURL:      strings.TrimRight(baseURL, "/"),
		transport:    providers.NewTransport(providerType, cfg, auth, opts...),
		logger:       slog.Default().With("component", "providers."+string(providerType)),
	}

	p.logger.Debug("provider initialized", "base_url", p.baseURL)

	return p, nil
}

// Type returns the configured provider type.
func (p *Provider) Type() providers.ProviderType {
	return p.providerType
}

// BaseURL returns the resolved API root.
func (p *Provider) BaseURL() string {
	return p.baseURL
}

// Transport exposes the underlying transport to wrapping adapters.
func (p *Provider) Transport() *providers.Transport {
	return p.transport
}

// Models lists the vendor's GPT models.
func (p *Provider) Models(ctx context.Context) ([]providers.Model, error) {
	var list modelList
	if err := p.transport.SendJSON(ctx, http.MethodGet, p.baseURL+"/models", nil, &list, nil); err != nil {
		return nil, err
	}

	models := make([]providers.Model, 0, len(list.Data))
	for _, m := range list.Data {
		if !strings.Contains(m.ID, "gpt") {
			continue
		}
		models = append(models, describeModel(p.providerType, m.ID))
	}

	p.logger.Debug("listed models", "count", len(models), "upstream", len(list.Data))

	return models, nil
}

// ChatCompletion sends a blocking chat request.
func (p *Provider) ChatCompletion(ctx context.Context, req *providers.ChatCompletionRequest) (*providers.ChatCompletionResponse, error) {
	if err := providers.ValidateChatRequest(req); err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := p.transport.SendJSON(ctx, http.MethodPost, p.baseURL+"/chat/completions", newChatRequest(req, false), &resp, nil); err != nil {
		return nil, err
	}

	return resp.normalize(), nil
}

// ChatCompletionStream opens a streaming chat request.
func (p *Provider) ChatCompletionStream(ctx context.Context, req *providers.ChatCompletionRequest) (providers.Stream, error) {
	if err := providers.ValidateChatRequest(req); err != nil {
		return nil, err
	}

	resp, err := p.transport.Send(ctx, http.MethodPost, p.baseURL+"/chat/completions", newChatRequest(req, true), streamHeaders)
	if err != nil {
		return nil, err
	}

	return providers.NewStream(p.providerType, resp.Body, decodeChatChunk), nil
}

// Completion sends a blocking legacy completion request.
func (p *Provider) Completion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := providers.ValidateCompletionRequest(req); err != nil {
		return nil, err
	}

	var resp completionResponse
	if err := p.transport.SendJSON(ctx, http.MethodPost, p.baseURL+"/completions", newCompletionRequest(req, false), &resp, nil); err != nil {
		return nil, err
	}

	return resp.normalize(), nil
}

// CompletionStream opens a streaming legacy completion request.
func (p *Provider) CompletionStream(ctx context.Context, req *providers.CompletionRequest) (providers.Stream, error) {
	if err := providers.ValidateCompletionRequest(req); err != nil {
		return nil, err
	}

	resp, err := p.transport.Send(ctx, http.MethodPost, p.baseURL+"/completions", newCompletionRequest(req, true), streamHeaders)
	if err != nil {
		return nil, err
	}

	return providers.NewStream(p.providerType, resp.Body, decodeCompletionChunk), nil
}

var streamHeaders = map[string]string{"Accept": "text/event-stream"}

var _ providers.Provider = (*Provider)(nil)

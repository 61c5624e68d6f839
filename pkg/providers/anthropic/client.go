package anthropic

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"lite-hq/lite/pkg/providers"
)

const (
	// DefaultBaseURL is the Anthropic API root.
	DefaultBaseURL = "https://api.anthropic.com/v1"

	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"

	// DefaultMaxTokens is used when a request leaves max_tokens unset;
	// the Messages API requires it.
	DefaultMaxTokens = 4096
)

// Provider is the Anthropic Messages API adapter.
// It implements the providers.Provider interface.
type Provider struct {
	baseURL   string
	transport *providers.Transport
	logger    *slog.Logger
}

// NewProvider creates a new Anthropic provider instance.
func NewProvider(cfg providers.ProviderConfig, opts ...providers.TransportOption) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, &providers.ConfigurationError{
			Provider: providers.TypeAnthropic,
			Field:    "api_key",
			Message:  "API key is required for anthropic provider",
		}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	auth := map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": APIVersion,
	}

	p := &Provider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: providers.NewTransport(providers.TypeAnthropic, cfg, auth, opts...),
		logger:    slog.Default().With("component", "providers.anthropic"),
	}

	p.logger.Debug("provider initialized", "base_url", p.baseURL)

	return p, nil
}

// Type returns providers.TypeAnthropic.
func (p *Provider) Type() providers.ProviderType {
	return providers.TypeAnthropic
}

// BaseURL returns the resolved API root.
func (p *Provider) BaseURL() string {
	return p.baseURL
}

// Models returns the static Claude catalog. Anthropic exposes no listing
// endpoint this adapter relies on, so no request is made.
func (p *Provider) Models(ctx context.Context) ([]providers.Model, error) {
	return catalog(), nil
}

// ChatCompletion sends a blocking Messages API request.
func (p *Provider) ChatCompletion(ctx context.Context, req *providers.ChatCompletionRequest) (*providers.ChatCompletionResponse, error) {
	body, err := newMessagesRequest(req, false)
	if err != nil {
		return nil, err
	}

	var resp messagesResponse
	if err := p.transport.SendJSON(ctx, http.MethodPost, p.baseURL+"/messages", body, &resp, nil); err != nil {
		return nil, err
	}

	return resp.normalize(), nil
}

// ChatCompletionStream opens a streaming Messages API request.
func (p *Provider) ChatCompletionStream(ctx context.Context, req *providers.ChatCompletionRequest) (providers.Stream, error) {
	body, err := newMessagesRequest(req, true)
	if err != nil {
		return nil, err
	}

	resp, err := p.transport.Send(ctx, http.MethodPost, p.baseURL+"/messages", body, map[string]string{"Accept": "text/event-stream"})
	if err != nil {
		return nil, err
	}

	return providers.NewStream(providers.TypeAnthropic, resp.Body, decodeStreamEvent), nil
}

// Completion is not supported; use ChatCompletion.
func (p *Provider) Completion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	return nil, p.unsupported("text completions")
}

// CompletionStream is not supported; use ChatCompletionStream.
func (p *Provider) CompletionStream(ctx context.Context, req *providers.CompletionRequest) (providers.Stream, error) {
	return nil, p.unsupported("streaming text completions")
}

func (p *Provider) unsupported(op string) error {
	return &providers.UnsupportedOperationError{Provider: providers.TypeAnthropic, Operation: op}
}

var _ providers.Provider = (*Provider)(nil)

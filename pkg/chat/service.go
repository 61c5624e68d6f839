package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lite-hq/lite/pkg/config"
	"lite-hq/lite/pkg/providers"
	"lite-hq/lite/pkg/storage"
	"lite-hq/lite/pkg/telemetry/logging"
	"lite-hq/lite/pkg/telemetry/tracing"
)

// ErrNoProvider is returned when no provider is configured, or the
// requested one does not exist.
var ErrNoProvider = errors.New("no provider configuration found")

// Registry is the part of providerfactory.Manager the service uses.
type Registry interface {
	Models(ctx context.Context, cfg providers.ProviderConfig, useCache bool) ([]providers.Model, error)
	ChatCompletion(ctx context.Context, cfg providers.ProviderConfig, req *providers.ChatCompletionRequest) (*providers.ChatCompletionResponse, error)
	ChatCompletionStream(ctx context.Context, cfg providers.ProviderConfig, req *providers.ChatCompletionRequest) (providers.Stream, error)
}

// UsageRecorder receives token usage of completed non-streaming replies.
type UsageRecorder interface {
	RecordUsage(provider, model string, usage *providers.Usage, pricing *providers.Pricing)
}

// SendRequest is one user turn.
type SendRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`

	// ProviderID selects a stored provider; nil uses the default one.
	ProviderID *int64 `json:"providerId,omitempty"`

	// Model overrides the service's default model.
	Model string `json:"model,omitempty"`
}

// Reply is the persisted result of Complete.
type Reply struct {
	Message      *storage.Message       `json:"message"`
	FinishReason providers.FinishReason `json:"finishReason"`
	Usage        *providers.Usage       `json:"usage,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) Option {
	return func(s *Service) {
		if model != "" {
			s.defaultModel = func() string { return model }
		}
	}
}

// WithDefaultModelFunc reads the default model on every request, so it can
// follow configuration reloads. An empty result falls back to
// config.DefaultChatModel.
func WithDefaultModelFunc(model func() string) Option {
	return func(s *Service) {
		if model != nil {
			s.defaultModel = model
		}
	}
}

// WithUsageRecorder attaches a usage and cost observer.
func WithUsageRecorder(r UsageRecorder) Option {
	return func(s *Service) {
		s.usage = r
	}
}

// Service runs chat turns: it loads history, persists both sides of the
// conversation and keeps model preferences current.
type Service struct {
	store        storage.Store
	registry     Registry
	logger       *slog.Logger
	defaultModel func() string
	usage        UsageRecorder
	tracer       trace.Tracer
}

// NewService creates a chat service.
func NewService(store storage.Store, registry Registry, opts ...Option) *Service {
	s := &Service{
		store:        store,
		registry:     registry,
		logger:       slog.Default().With("component", "chat"),
		defaultModel: func() string { return config.DefaultChatModel },
		tracer:       otel.Tracer(tracing.InstrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultModel returns the model used when a request names none.
func (s *Service) DefaultModel() string {
	if model := s.defaultModel(); model != "" {
		return model
	}
	return config.DefaultChatModel
}

// ResolveProvider returns the provider with id, or the default provider
// when id is nil.
func (s *Service) ResolveProvider(ctx context.Context, id *int64) (*storage.ProviderRecord, error) {
	var (
		rec *storage.ProviderRecord
		err error
	)
	if id != nil {
		rec, err = s.store.GetProvider(ctx, *id)
	} else {
		rec, err = s.store.DefaultProvider(ctx)
	}

	switch {
	case errors.Is(err, storage.ErrNotFound) && id != nil:
		return nil, fmt.Errorf("%w: provider %d", ErrNoProvider, *id)
	case errors.Is(err, storage.ErrNotFound):
		return nil, ErrNoProvider
	case err != nil:
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}
	return rec, nil
}

// Models lists the models of a provider through the registry cache.
func (s *Service) Models(ctx context.Context, providerID *int64, useCache bool) ([]providers.Model, error) {
	rec, err := s.ResolveProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return s.registry.Models(ctx, rec.Config(), useCache)
}

// turn is a validated request with its provider and history resolved and
// the user message saved.
type turn struct {
	req      SendRequest
	model    string
	provider *storage.ProviderRecord
	messages []providers.Message
}

func (s *Service) prepare(ctx context.Context, req SendRequest) (*turn, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, &providers.ValidationError{Field: "message", Message: "message is required"}
	}
	if req.ChatID == "" {
		return nil, &providers.ValidationError{Field: "chatId", Message: "chat id is required"}
	}

	rec, err := s.ResolveProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}

	history, err := s.store.ListMessages(ctx, req.ChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	_, err = s.store.SaveMessage(ctx, &storage.Message{
		ChatID:  req.ChatID,
		Role:    providers.RoleUser,
		Content: req.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	messages := make([]providers.Message, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, providers.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, providers.Message{Role: providers.RoleUser, Content: req.Message})

	model := req.Model
	if model == "" {
		model = s.DefaultModel()
	}

	return &turn{req: req, model: model, provider: rec, messages: messages}, nil
}

// Send saves the user message and opens a streamed reply. The returned
// stream passes chunks through unchanged. When it is exhausted cleanly the
// accumulated reply is saved as an assistant message and the model
// preference is touched. A stream that fails or is abandoned saves nothing.
// The caller must range over the returned stream; the request span and the
// vendor response stay open until it does.
func (s *Service) Send(ctx context.Context, req SendRequest) (providers.Stream, error) {
	ctx = logging.WithChatID(ctx, req.ChatID)

	t, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithProvider(ctx, string(t.provider.Type))
	ctx = logging.WithModel(ctx, t.model)

	ctx, span := s.tracer.Start(ctx, "chat.send", trace.WithAttributes(
		attribute.String(tracing.AttrChatID, req.ChatID),
		attribute.Int64(tracing.AttrProviderID, t.provider.ID),
	))
	tracing.SetProviderAttributes(span, t.provider.Type, t.model)

	upstream, err := s.registry.ChatCompletionStream(ctx, t.provider.Config(), &providers.ChatCompletionRequest{
		Model:    t.model,
		Messages: t.messages,
	})
	if err != nil {
		tracing.SetError(span, err)
		span.End()
		s.logger.WarnContext(ctx, "chat stream failed to open", "error", err)
		return nil, err
	}

	return func(yield func(providers.StreamChunk, error) bool) {
		defer span.End()

		var (
			reply  strings.Builder
			finish providers.FinishReason
			chunks int
		)
		for chunk, err := range upstream {
			if err != nil {
				tracing.SetError(span, err)
				s.logger.WarnContext(ctx, "chat stream failed",
					"error", err,
					"chunks", chunks,
				)
				yield(providers.StreamChunk{}, err)
				return
			}
			chunks++
			reply.WriteString(chunk.Delta)
			if chunk.FinishReason != providers.FinishReasonNone {
				finish = chunk.FinishReason
			}
			if !yield(chunk, nil) {
				s.logger.DebugContext(ctx, "chat stream abandoned by consumer", "chunks", chunks)
				return
			}
		}

		span.SetAttributes(attribute.Int(tracing.AttrChunks, chunks))
		tracing.SetFinishReason(span, finish)

		if err := s.finish(ctx, t, reply.String(), nil); err != nil {
			tracing.SetError(span, err)
			yield(providers.StreamChunk{}, err)
			return
		}

		s.logger.InfoContext(ctx, "chat reply saved",
			"chunks", chunks,
			"chars", reply.Len(),
			"finish_reason", string(finish),
		)
	}, nil
}

// Complete runs a turn without streaming. The vendor-reported usage is
// stored on the assistant message and passed to the usage recorder.
func (s *Service) Complete(ctx context.Context, req SendRequest) (*Reply, error) {
	ctx = logging.WithChatID(ctx, req.ChatID)

	t, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithProvider(ctx, string(t.provider.Type))
	ctx = logging.WithModel(ctx, t.model)

	ctx, span := s.tracer.Start(ctx, "chat.complete", trace.WithAttributes(
		attribute.String(tracing.AttrChatID, req.ChatID),
		attribute.Int64(tracing.AttrProviderID, t.provider.ID),
	))
	defer span.End()
	tracing.SetProviderAttributes(span, t.provider.Type, t.model)

	cfg := t.provider.Config()
	resp, err := s.registry.ChatCompletion(ctx, cfg, &providers.ChatCompletionRequest{
		Model:    t.model,
		Messages: t.messages,
	})
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}
	tracing.SetUsageAttributes(span, resp.Usage)
	tracing.SetFinishReason(span, resp.FinishReason)

	msg := &storage.Message{}
	if err := s.finish(ctx, t, resp.Content, func(m *storage.Message) {
		if resp.Usage != nil {
			prompt, completion := resp.Usage.PromptTokens, resp.Usage.CompletionTokens
			m.TokensPrompt = &prompt
			m.TokensCompletion = &completion
		}
		msg = m
	}); err != nil {
		tracing.SetError(span, err)
		return nil, err
	}

	if s.usage != nil && resp.Usage != nil {
		s.usage.RecordUsage(string(t.provider.Type), t.model, resp.Usage, s.pricing(ctx, cfg, t.model))
	}

	return &Reply{Message: msg, FinishReason: resp.FinishReason, Usage: resp.Usage}, nil
}

// finish saves the assistant reply and touches the model preference. A
// preference failure is logged, not returned.
func (s *Service) finish(ctx context.Context, t *turn, content string, decorate func(*storage.Message)) error {
	providerID := t.provider.ID
	msg := &storage.Message{
		ChatID:     t.req.ChatID,
		Role:       providers.RoleAssistant,
		Content:    content,
		Model:      t.model,
		ProviderID: &providerID,
	}
	if decorate != nil {
		decorate(msg)
	}

	if _, err := s.store.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to save assistant message: %w", err)
	}

	if err := s.store.TouchModelPreference(ctx, providerID, t.model, t.model); err != nil {
		s.logger.WarnContext(ctx, "failed to update model preference", "error", err)
	}
	return nil
}

// pricing looks the model up in the cached model list. It returns nil
// when the list is unavailable or the vendor publishes no price.
func (s *Service) pricing(ctx context.Context, cfg providers.ProviderConfig, model string) *providers.Pricing {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	models, err := s.registry.Models(ctx, cfg, true)
	if err != nil {
		s.logger.DebugContext(ctx, "pricing unavailable", "error", err)
		return nil
	}
	for _, m := range models {
		if m.ID == model {
			return m.Pricing
		}
	}
	return nil
}

package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lite-hq/lite/pkg/providers"
)

// Attribute keys. Provider and model follow the gen_ai semantic
// conventions; the rest use the lite.* namespace.
const (
	AttrProvider     = "gen_ai.system"
	AttrModel        = "gen_ai.request.model"
	AttrFinishReason = "gen_ai.response.finish_reasons"

	AttrTokensPrompt     = "gen_ai.usage.input_tokens"
	AttrTokensCompletion = "gen_ai.usage.output_tokens"

	AttrChatID     = "lite.chat_id"
	AttrProviderID = "lite.provider_id"
	AttrRequestID  = "lite.request_id"
	AttrCacheHit   = "lite.cache.hit"
	AttrChunks     = "lite.stream.chunks"

	AttrErrorMessage = "error.message"
)

// SetProviderAttributes sets provider and model on a span.
func SetProviderAttributes(span trace.Span, provider providers.ProviderType, model string) {
	attrs := []attribute.KeyValue{attribute.String(AttrProvider, string(provider))}
	if model != "" {
		attrs = append(attrs, attribute.String(AttrModel, model))
	}
	span.SetAttributes(attrs...)
}

// SetUsageAttributes records vendor-reported token usage. A nil usage is ignored.
func SetUsageAttributes(span trace.Span, usage *providers.Usage) {
	if usage == nil {
		return
	}
	span.SetAttributes(
		attribute.Int(AttrTokensPrompt, usage.PromptTokens),
		attribute.Int(AttrTokensCompletion, usage.CompletionTokens),
	)
}

// SetFinishReason records why a generation stopped.
func SetFinishReason(span trace.Span, reason providers.FinishReason) {
	if reason == providers.FinishReasonNone {
		return
	}
	span.SetAttributes(attribute.StringSlice(AttrFinishReason, []string{string(reason)}))
}

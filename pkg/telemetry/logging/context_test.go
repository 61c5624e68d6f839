package logging

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithChatID(ctx, "chat-1")
	ctx = WithProvider(ctx, "anthropic")
	ctx = WithModel(ctx, "claude-3-5-sonnet-latest")

	if GetRequestID(ctx) != "req-1" {
		t.Errorf("unexpected request id %q", GetRequestID(ctx))
	}
	if GetChatID(ctx) != "chat-1" {
		t.Errorf("unexpected chat id %q", GetChatID(ctx))
	}
	if GetProvider(ctx) != "anthropic" {
		t.Errorf("unexpected provider %q", GetProvider(ctx))
	}
	if GetModel(ctx) != "claude-3-5-sonnet-latest" {
		t.Errorf("unexpected model %q", GetModel(ctx))
	}
}

func TestContextHelpers_Empty(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetChatID(ctx) != "" || GetProvider(ctx) != "" || GetModel(ctx) != "" {
		t.Error("expected empty values from bare context")
	}
	if attrs := contextAttrs(ctx); len(attrs) != 0 {
		t.Errorf("expected no attrs, got %v", attrs)
	}
}

func TestContextAttrs_Span(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(WithRequestID(context.Background(), "r"), sc)

	got := map[string]string{}
	for _, a := range contextAttrs(ctx) {
		got[a.Key] = a.Value.String()
	}

	if got["request_id"] != "r" {
		t.Errorf("missing request_id: %v", got)
	}
	if got["trace_id"] != "4bf92f3577b34da6a3ce929d0e0e4736" || got["span_id"] != "00f067aa0ba902b7" {
		t.Errorf("missing span identifiers: %v", got)
	}
}

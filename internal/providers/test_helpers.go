package providers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"lite-hq/lite/pkg/providers"
)

// TestConfig returns a provider config pointed at baseURL.
func TestConfig(providerType providers.ProviderType, baseURL string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Type:    providerType,
		APIKey:  "sk-test-key-0123456789",
		BaseURL: baseURL,
	}
}

// ChatRequest builds a chat request for model with the given messages.
func ChatRequest(model string, messages ...providers.Message) *providers.ChatCompletionRequest {
	return &providers.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
}

// UserMessage returns a user-role message.
func UserMessage(content string) providers.Message {
	return providers.Message{Role: providers.RoleUser, Content: content}
}

// CollectStream drains a stream, returning the chunks seen before any error.
func CollectStream(t *testing.T, stream providers.Stream) ([]providers.StreamChunk, error) {
	t.Helper()

	var chunks []providers.StreamChunk
	for chunk, err := range stream {
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// JoinDeltas concatenates every chunk's delta.
func JoinDeltas(chunks []providers.StreamChunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Delta)
	}
	return b.String()
}

// AssertTransportError fails unless err is a *providers.TransportError with
// the given status and message.
func AssertTransportError(t *testing.T, err error, status int, message string) {
	t.Helper()

	var terr *providers.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *providers.TransportError, got %T: %v", err, err)
	}
	if terr.StatusCode != status {
		t.Errorf("expected status %d, got %d", status, terr.StatusCode)
	}
	if message != "" && terr.Message != message {
		t.Errorf("expected message %q, got %q", message, terr.Message)
	}
}

// TrackingBody is a response body that records whether it was closed.
type TrackingBody struct {
	io.Reader
	mu     sync.Mutex
	closed bool
}

// Close marks the body released.
func (b *TrackingBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called.
func (b *TrackingBody) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// StubTransport is an http.RoundTripper that answers every request with a
// 200 SSE response whose body is Body.
type StubTransport struct {
	Body *TrackingBody
}

// NewStubTransport returns a StubTransport serving raw.
func NewStubTransport(raw string) *StubTransport {
	return &StubTransport{Body: &TrackingBody{Reader: strings.NewReader(raw)}}
}

// RoundTrip implements http.RoundTripper.
func (s *StubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:       s.Body,
		Request:    req,
	}, nil
}

// Client returns an http.Client using the stub.
func (s *StubTransport) Client() *http.Client {
	return &http.Client{Transport: s}
}

package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockServer is a mock vendor API for adapter tests. Responses are keyed by
// URL path; every request is recorded for later inspection.
type MockServer struct {
	server    *httptest.Server
	responses map[string]MockResponse
	requests  []RecordedRequest
	mu        sync.Mutex
}

// MockResponse defines a canned response.
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Headers    map[string]string

	// Events are written as "data: <event>\n\n" lines, followed by
	// "data: [DONE]\n\n" unless OmitDone is set.
	Events   []string
	OmitDone bool

	// Raw is written verbatim after Events, for framing tests.
	Raw string
}

// RecordedRequest is one request the server received.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded body into a generic map.
func (r RecordedRequest) JSON() map[string]interface{} {
	var out map[string]interface{}
	_ = json.Unmarshal(r.Body, &out)
	return out
}

// NewMockServer creates and starts a mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close shuts the server down.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse registers a response for path.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// RequestCount returns how many requests were received.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.requests)
}

// LastRequest returns the most recent request. It panics if there is none.
func (ms *MockServer) LastRequest() RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requests[len(ms.requests)-1]
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requests = append(ms.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	if len(response.Events) > 0 || response.Raw != "" {
		ms.handleStream(w, response)
		return
	}

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	switch v := response.Body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, v)
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (ms *MockServer) handleStream(w http.ResponseWriter, response MockResponse) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	for _, ev := range response.Events {
		fmt.Fprintf(w, "data: %s\n\n", ev)
		flush()
	}
	if response.Raw != "" {
		_, _ = io.WriteString(w, response.Raw)
		flush()
	}
	if !response.OmitDone {
		fmt.Fprint(w, "data: [DONE]\n\n")
		flush()
	}
}

// ErrorResponse builds a vendor error payload in the common
// {"error":{"message":...}} shape.
func ErrorResponse(statusCode int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body: map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
				"type":    "invalid_request_error",
			},
		},
	}
}

// OpenAIChatChunk renders one chat.completion.chunk event.
func OpenAIChatChunk(delta string, finishReason string) string {
	choice := map[string]interface{}{
		"index": 0,
		"delta": map[string]interface{}{"content": delta},
	}
	if finishReason != "" {
		choice["finish_reason"] = finishReason
	} else {
		choice["finish_reason"] = nil
	}

	data, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"model":   "gpt-4o",
		"choices": []interface{}{choice},
	})
	return string(data)
}

// AnthropicTextDelta renders a content_block_delta event.
func AnthropicTextDelta(text string) string {
	data, _ := json.Marshal(map[string]interface{}{
		"type":  "content_block_delta",
		"index": 0,
		"delta": map[string]interface{}{"type": "text_delta", "text": text},
	})
	return string(data)
}

// AnthropicMessageDelta renders a message_delta event carrying stopReason.
func AnthropicMessageDelta(stopReason string) string {
	data, _ := json.Marshal(map[string]interface{}{
		"type":  "message_delta",
		"delta": map[string]interface{}{"stop_reason": stopReason},
		"usage": map[string]interface{}{"output_tokens": 12},
	})
	return string(data)
}

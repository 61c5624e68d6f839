package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 1 << 20

const tracerName = "lite/providers"

// Observer receives one callback per outbound HTTP call. It is how the
// metrics collector sees provider traffic without this package importing it.
type Observer interface {
	ObserveProviderRequest(provider ProviderType, endpoint string, statusCode int, duration time.Duration, err error)
}

// TransportOption customizes a Transport.
type TransportOption func(*Transport)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *Transport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithObserver attaches a request observer.
func WithObserver(o Observer) TransportOption {
	return func(t *Transport) {
		t.observer = o
	}
}

// Transport issues vendor HTTP calls with uniform header injection and
// error normalization. Adapters own one Transport each. It never retries.
type Transport struct {
	provider      ProviderType
	client        *http.Client
	authHeaders   map[string]string
	customHeaders map[string]string
	observer      Observer
	logger        *slog.Logger
}

// NewTransport creates a Transport for cfg. authHeaders are the adapter's
// credentials and sit between the Content-Type default and cfg's custom
// headers in precedence.
func NewTransport(provider ProviderType, cfg ProviderConfig, authHeaders map[string]string, opts ...TransportOption) *Transport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	t := &Transport{
		provider: provider,
		client: &http.Client{
			// No Client.Timeout: it would also cover reading a stream body.
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				ForceAttemptHTTP2:     true,
			},
		},
		authHeaders:   authHeaders,
		customHeaders: cfg.CustomHeaders,
		logger:        slog.Default().With("component", "providers.transport", "provider", string(provider)),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Headers returns the merged header set for a request carrying extra.
// Later sources win: Content-Type default, auth, custom, extra.
func (t *Transport) Headers(extra map[string]string) map[string]string {
	merged := map[string]string{"Content-Type": "application/json"}
	for _, src := range []map[string]string{t.authHeaders, t.customHeaders, extra} {
		for k, v := range src {
			merged[http.CanonicalHeaderKey(k)] = v
		}
	}
	return merged
}

// Send performs one HTTP call. body is JSON-encoded unless it is nil or
// already a []byte. On a 2xx status the caller owns resp.Body. Any other
// outcome returns a *TransportError and no response.
func (t *Transport) Send(ctx context.Context, method, url string, body any, headers map[string]string) (*http.Response, error) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, &TransportError{Provider: t.provider, Message: "failed to encode request body", Cause: err}
		}
		reader = bytes.NewReader(encoded)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "provider.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", string(t.provider)),
			attribute.String("http.request.method", method),
			attribute.String("url.full", url),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, t.fail(span, &TransportError{Provider: t.provider, Message: err.Error(), Cause: err})
	}
	for k, v := range t.Headers(headers) {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		terr := &TransportError{Provider: t.provider, Message: err.Error(), Cause: err}
		t.observe(req, 0, duration, terr)
		t.logger.Warn("provider request failed", "method", method, "url", url, "error", err)
		return nil, t.fail(span, terr)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		terr := t.errorFromResponse(resp)
		t.observe(req, resp.StatusCode, duration, terr)
		t.logger.Warn("provider returned error status",
			"method", method,
			"url", url,
			"status", resp.StatusCode,
			"message", terr.Message,
		)
		return nil, t.fail(span, terr)
	}

	t.observe(req, resp.StatusCode, duration, nil)
	t.logger.Debug("provider request completed",
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// SendJSON performs Send and decodes a successful body into out.
func (t *Transport) SendJSON(ctx context.Context, method, url string, body, out any, headers map[string]string) error {
	resp, err := t.Send(ctx, method, url, body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Provider: t.provider, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{
			Provider:   t.provider,
			StatusCode: resp.StatusCode,
			Message:    "failed to decode response body",
			Body:       data,
			Cause:      err,
		}
	}
	return nil
}

// errorFromResponse consumes and closes resp.Body.
func (t *Transport) errorFromResponse(resp *http.Response) *TransportError {
	defer resp.Body.Close()

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	terr := &TransportError{
		Provider:   t.provider,
		StatusCode: resp.StatusCode,
		Body:       data,
		Cause:      readErr,
	}

	if msg := vendorMessage(data); msg != "" {
		terr.Message = msg
		return terr
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		terr.Message = text
		return terr
	}
	terr.Message = "API request failed with status " + strconv.Itoa(resp.StatusCode)
	return terr
}

// vendorMessage extracts error.message, then message, from a JSON body.
func vendorMessage(data []byte) string {
	var payload struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if len(data) == 0 || json.Unmarshal(data, &payload) != nil {
		return ""
	}
	if payload.Error != nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return payload.Message
}

func (t *Transport) observe(req *http.Request, status int, d time.Duration, err error) {
	if t.observer == nil {
		return
	}
	t.observer.ObserveProviderRequest(t.provider, req.URL.Path, status, d, err)
}

func (t *Transport) fail(span trace.Span, err *TransportError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Message)
	return err
}

// String identifies the transport in logs.
func (t *Transport) String() string {
	return fmt.Sprintf("Transport{provider=%s}", t.provider)
}

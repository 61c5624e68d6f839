package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"lite-hq/lite/pkg/config"
)

// ProviderMetrics tracks vendor API traffic.
//
// Metrics:
//   - lite_provider_requests_total: calls by provider, endpoint and status code
//   - lite_provider_request_duration_seconds: call latency
//   - lite_provider_errors_total: failures by error type
//   - lite_provider_streams_total: finished streams by outcome
//   - lite_provider_stream_chunks: chunks delivered per stream
//   - lite_provider_stream_duration_seconds: time from first pull to end
type ProviderMetrics struct {
	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	streams         *prometheus.CounterVec
	streamChunks    *prometheus.HistogramVec
	streamDurations *prometheus.HistogramVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of HTTP calls to LLM providers",
			},
			[]string{"provider", "endpoint", "status"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Provider API call latency in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider", "endpoint"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_errors_total",
				Help:      "Total number of provider errors by type",
			},
			[]string{"provider", "error_type"},
		),

		streams: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_streams_total",
				Help:      "Total number of finished streams by outcome",
			},
			[]string{"provider", "outcome"},
		),

		streamChunks: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_stream_chunks",
				Help:      "Chunks delivered per stream",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"provider"},
		),

		streamDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_stream_duration_seconds",
				Help:      "Stream consumption time in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		pm.requests,
		pm.latency,
		pm.errors,
		pm.streams,
		pm.streamChunks,
		pm.streamDurations,
	)

	return pm
}

// RecordRequest records one provider call. A status code of 0 means no
// response was received.
func (pm *ProviderMetrics) RecordRequest(provider, endpoint string, statusCode int, duration time.Duration) {
	pm.requests.WithLabelValues(provider, endpoint, strconv.Itoa(statusCode)).Inc()
	pm.latency.WithLabelValues(provider, endpoint).Observe(duration.Seconds())
}

// RecordError records an error from a provider.
func (pm *ProviderMetrics) RecordError(provider, errorType string) {
	pm.errors.WithLabelValues(provider, errorType).Inc()
}

// RecordStream records a finished stream. outcome is "complete" or "error".
func (pm *ProviderMetrics) RecordStream(provider string, chunks int, duration time.Duration, err error) {
	outcome := "complete"
	if err != nil {
		outcome = "error"
	}
	pm.streams.WithLabelValues(provider, outcome).Inc()
	pm.streamChunks.WithLabelValues(provider).Observe(float64(chunks))
	pm.streamDurations.WithLabelValues(provider).Observe(duration.Seconds())
}

// ClassifyError maps a failed call onto a small set of error types:
//   - "timeout": the deadline passed
//   - "canceled": the caller went away
//   - "network": no response was received
//   - "auth": 401 or 403
//   - "rate_limit": 429
//   - "client_error": other 4xx
//   - "server_error": 5xx
//   - "parse": a 2xx body could not be decoded
func ClassifyError(statusCode int, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case statusCode == 0:
		return "network"
	case statusCode == 401 || statusCode == 403:
		return "auth"
	case statusCode == 429:
		return "rate_limit"
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	default:
		return "parse"
	}
}

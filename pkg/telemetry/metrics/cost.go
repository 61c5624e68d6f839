package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"lite-hq/lite/pkg/config"
	"lite-hq/lite/pkg/providers"
)

// UsageMetrics tracks token consumption and its cost.
//
// Metrics:
//   - lite_tokens_total: tokens by provider, model and kind (prompt, completion)
//   - lite_cost_usd_total: estimated spend in USD
//   - lite_cost_per_request_usd: estimated spend per generation
type UsageMetrics struct {
	tokensTotal    *prometheus.CounterVec
	costTotal      *prometheus.CounterVec
	costPerRequest *prometheus.HistogramVec
}

// NewUsageMetrics creates and registers usage metrics with the provided registry.
func NewUsageMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UsageMetrics {
	um := &UsageMetrics{
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "tokens_total",
				Help:      "Total tokens reported by providers",
			},
			[]string{"provider", "model", "kind"},
		),

		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "cost_usd_total",
				Help:      "Estimated spend in USD by provider and model",
			},
			[]string{"provider", "model"},
		),

		costPerRequest: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "cost_per_request_usd",
				Help:      "Estimated spend per generation in USD",
				Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(
		um.tokensTotal,
		um.costTotal,
		um.costPerRequest,
	)

	return um
}

// RecordTokens adds prompt and completion token counts.
func (um *UsageMetrics) RecordTokens(provider, model string, prompt, completion int) {
	if prompt > 0 {
		um.tokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		um.tokensTotal.WithLabelValues(provider, model, "completion").Add(float64(completion))
	}
}

// RecordCost records the estimated cost of one generation.
func (um *UsageMetrics) RecordCost(provider, model string, usd float64) {
	if usd < 0 {
		return
	}
	um.costTotal.WithLabelValues(provider, model).Add(usd)
	um.costPerRequest.WithLabelValues(provider, model).Observe(usd)
}

// Cost prices usage with per-million-token rates.
func Cost(usage *providers.Usage, pricing *providers.Pricing) float64 {
	if usage == nil || pricing == nil {
		return 0
	}
	return (float64(usage.PromptTokens)*pricing.Prompt + float64(usage.CompletionTokens)*pricing.Completion) / 1_000_000
}

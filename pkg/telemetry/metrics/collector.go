package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"lite-hq/lite/pkg/config"
	"lite-hq/lite/pkg/providers"
)

// maxModelLabels caps distinct provider/model label pairs; the rest are
// aggregated under model="other".
const maxModelLabels = 1000

// Collector owns every Prometheus metric Lite exports. It satisfies
// providers.Observer and providerfactory.Metrics, so it can be handed
// straight to the transport and the registry.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	providerMetrics *ProviderMetrics
	cacheMetrics    *CacheMetrics
	usageMetrics    *UsageMetrics
	jobMetrics      *JobMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector. If registry is nil a fresh one is
// created and the Go runtime and process collectors are added to it.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = append([]float64(nil), config.DefaultRequestDurationBuckets...)
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		requestMetrics:     NewRequestMetrics(cfg, registry),
		providerMetrics:    NewProviderMetrics(cfg, registry),
		cacheMetrics:       NewCacheMetrics(cfg, registry),
		usageMetrics:       NewUsageMetrics(cfg, registry),
		jobMetrics:         NewJobMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(maxModelLabels),
	}
}

// ObserveProviderRequest records one outbound vendor HTTP call.
func (c *Collector) ObserveProviderRequest(provider providers.ProviderType, endpoint string, statusCode int, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}

	c.providerMetrics.RecordRequest(string(provider), endpoint, statusCode, duration)
	if err != nil {
		c.providerMetrics.RecordError(string(provider), ClassifyError(statusCode, err))
	}
}

// ObserveStream records a finished stream.
func (c *Collector) ObserveStream(provider providers.ProviderType, chunks int, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}

	c.providerMetrics.RecordStream(string(provider), chunks, duration, err)
}

// ObserveModelCache records a model-list cache lookup.
func (c *Collector) ObserveModelCache(provider providers.ProviderType, hit bool) {
	if !c.config.Enabled {
		return
	}

	if hit {
		c.cacheMetrics.RecordHit("models", string(provider))
	} else {
		c.cacheMetrics.RecordMiss("models", string(provider))
	}
}

// UpdateCacheSize sets the number of live entries in a cache.
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.UpdateSize(cacheName, size)
}

// RecordCacheEvictions counts entries dropped from a cache.
func (c *Collector) RecordCacheEvictions(cacheName string, n int) {
	if !c.config.Enabled || n <= 0 {
		return
	}

	c.cacheMetrics.RecordEvictions(cacheName, n)
}

// RecordHTTPRequest records one request served by the API.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.requestMetrics.RecordRequest(method, route, status, duration)
}

// RecordUsage records token usage and, when pricing is known, cost for a
// completed generation.
func (c *Collector) RecordUsage(provider, model string, usage *providers.Usage, pricing *providers.Pricing) {
	if !c.config.Enabled || usage == nil {
		return
	}

	if !c.cardinalityLimiter.Allow(fmt.Sprintf("%s:%s", provider, model)) {
		model = "other"
	}

	c.usageMetrics.RecordTokens(provider, model, usage.PromptTokens, usage.CompletionTokens)
	if pricing != nil {
		c.usageMetrics.RecordCost(provider, model, Cost(usage, pricing))
	}
}

// RecordJob records one run of a scheduled job.
func (c *Collector) RecordJob(job string, affected int, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}

	c.jobMetrics.RecordRun(job, affected, duration, err)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already tracked or fits under the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}

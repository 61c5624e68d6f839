package providerfactory

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"lite-hq/lite/pkg/providers"
)

// DefaultModelCacheTTL is how long a fetched model list is served from cache.
const DefaultModelCacheTTL = time.Hour

// Metrics receives cache and stream observations from a Manager.
type Metrics interface {
	ObserveModelCache(provider providers.ProviderType, hit bool)
	ObserveStream(provider providers.ProviderType, chunks int, duration time.Duration, err error)
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithClock replaces time.Now for cache expiry decisions.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithModelCacheTTL sets the model-list lifetime.
func WithModelCacheTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithFactory replaces NewProvider, typically to inject fakes in tests.
func WithFactory(factory func(providers.ProviderConfig) (providers.Provider, error)) ManagerOption {
	return func(m *Manager) {
		if factory != nil {
			m.factory = factory
		}
	}
}

// WithProviderOptions passes opts to NewProvider for every adapter built.
// It has no effect together with WithFactory.
func WithProviderOptions(opts ...Option) ManagerOption {
	return func(m *Manager) {
		m.providerOpts = append(m.providerOpts, opts...)
	}
}

// WithManagerMetrics attaches a cache and stream observer.
func WithManagerMetrics(metrics Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

type modelEntry struct {
	models    []providers.Model
	expiresAt time.Time
}

// Manager is the provider registry. It memoizes one adapter per cache key
// and caches model lists with a TTL. Completions are delegated, never cached.
//
// Manager is thread-safe. Concurrent misses for the same key may each build
// an adapter or fetch models; the last write wins.
type Manager struct {
	mu       sync.RWMutex
	adapters map[string]providers.Provider
	models   map[string]modelEntry

	factory      func(providers.ProviderConfig) (providers.Provider, error)
	providerOpts []Option
	now          func() time.Time
	ttl          time.Duration
	metrics      Metrics
	logger       *slog.Logger
}

// NewManager creates an empty registry.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		adapters: make(map[string]providers.Provider),
		models:   make(map[string]modelEntry),
		now:      time.Now,
		ttl:      DefaultModelCacheTTL,
		logger:   slog.Default().With("component", "providerfactory.manager"),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.factory == nil {
		m.factory = func(cfg providers.ProviderConfig) (providers.Provider, error) {
			return NewProvider(cfg, m.providerOpts...)
		}
	}

	return m
}

// CacheKey derives the registry key for cfg: type, base URL (or "default")
// and the first 8 characters of the API key. Two keys sharing type, base URL
// and key prefix collide; that is accepted.
func CacheKey(cfg providers.ProviderConfig) string {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "default"
	}
	prefix := cfg.APIKey
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return string(cfg.Type) + ":" + baseURL + ":" + prefix
}

// Provider returns the memoized adapter for cfg, building it on first use.
// Construction errors are returned and nothing is cached.
func (m *Manager) Provider(cfg providers.ProviderConfig) (providers.Provider, error) {
	key := CacheKey(cfg)

	m.mu.RLock()
	p, ok := m.adapters[key]
	m.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := m.factory(cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.adapters[key] = p
	count := len(m.adapters)
	m.mu.Unlock()

	m.logger.Debug("adapter cached", "type", cfg.Type, "adapters", count)

	return p, nil
}

// Models returns cfg's model list. With useCache, an unexpired entry is
// returned without a network call; otherwise the list is fetched and the
// cache entry replaced.
func (m *Manager) Models(ctx context.Context, cfg providers.ProviderConfig, useCache bool) ([]providers.Model, error) {
	key := CacheKey(cfg)

	if useCache {
		m.mu.RLock()
		entry, ok := m.models[key]
		m.mu.RUnlock()

		if ok && entry.models != nil && m.now().Before(entry.expiresAt) {
			m.observeCache(cfg.Type, true)
			return slices.Clone(entry.models), nil
		}
	}
	m.observeCache(cfg.Type, false)

	p, err := m.Provider(cfg)
	if err != nil {
		return nil, err
	}

	models, err := p.Models(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.models[key] = modelEntry{models: models, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()

	return slices.Clone(models), nil
}

// ChatCompletion delegates to cfg's adapter.
func (m *Manager) ChatCompletion(ctx context.Context, cfg providers.ProviderConfig, req *providers.ChatCompletionRequest) (*providers.ChatCompletionResponse, error) {
	p, err := m.Provider(cfg)
	if err != nil {
		return nil, err
	}
	return p.ChatCompletion(ctx, req)
}

// ChatCompletionStream delegates to cfg's adapter.
func (m *Manager) ChatCompletionStream(ctx context.Context, cfg providers.ProviderConfig, req *providers.ChatCompletionRequest) (providers.Stream, error) {
	p, err := m.Provider(cfg)
	if err != nil {
		return nil, err
	}
	stream, err := p.ChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.observeStream(p.Type(), stream), nil
}

// Completion delegates to cfg's adapter.
func (m *Manager) Completion(ctx context.Context, cfg providers.ProviderConfig, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	p, err := m.Provider(cfg)
	if err != nil {
		return nil, err
	}
	return p.Completion(ctx, req)
}

// CompletionStream delegates to cfg's adapter.
func (m *Manager) CompletionStream(ctx context.Context, cfg providers.ProviderConfig, req *providers.CompletionRequest) (providers.Stream, error) {
	p, err := m.Provider(cfg)
	if err != nil {
		return nil, err
	}
	stream, err := p.CompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.observeStream(p.Type(), stream), nil
}

// ClearCache drops every model list. Adapters are kept; only
// RemoveProvider evicts one.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.models = make(map[string]modelEntry)
}

// ClearProviderCache drops cfg's model list only.
func (m *Manager) ClearProviderCache(cfg providers.ProviderConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.models, CacheKey(cfg))
}

// RemoveProvider drops cfg's adapter and model list.
func (m *Manager) RemoveProvider(cfg providers.ProviderConfig) {
	key := CacheKey(cfg)

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.adapters, key)
	delete(m.models, key)
}

// PruneExpired drops model lists whose expiry has passed and reports how
// many were removed.
func (m *Manager) PruneExpired() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.models {
		if !now.Before(entry.expiresAt) {
			delete(m.models, key)
			removed++
		}
	}
	return removed
}

// Stats reports cache sizes.
func (m *Manager) Stats() (adapters, modelLists int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.adapters), len(m.models)
}

func (m *Manager) observeCache(t providers.ProviderType, hit bool) {
	if m.metrics != nil {
		m.metrics.ObserveModelCache(t, hit)
	}
}

// observeStream reports chunk count and duration once the caller stops
// ranging over stream.
func (m *Manager) observeStream(t providers.ProviderType, stream providers.Stream) providers.Stream {
	if m.metrics == nil {
		return stream
	}

	return func(yield func(providers.StreamChunk, error) bool) {
		start := m.now()
		chunks := 0
		var streamErr error

		defer func() {
			m.metrics.ObserveStream(t, chunks, m.now().Sub(start), streamErr)
		}()

		for chunk, err := range stream {
			if err != nil {
				streamErr = err
				yield(chunk, err)
				return
			}
			chunks++
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Cache names reported to the metrics recorder.
const (
	CacheModels   = "models"
	CacheAdapters = "adapters"
)

// ChatStore is the storage needed for chat retention.
type ChatStore interface {
	DeleteChatsBefore(ctx context.Context, before time.Time) (int64, error)
}

// ModelCache is the registry cache that expires model lists.
type ModelCache interface {
	PruneExpired() int
	Stats() (adapters, modelLists int)
}

// Recorder receives job outcomes. *metrics.Collector implements it.
type Recorder interface {
	RecordJob(job string, affected int, duration time.Duration, err error)
	RecordCacheEvictions(cacheName string, n int)
	UpdateCacheSize(cacheName string, size int)
}

type nopRecorder struct{}

func (nopRecorder) RecordJob(string, int, time.Duration, error) {}
func (nopRecorder) RecordCacheEvictions(string, int)            {}
func (nopRecorder) UpdateCacheSize(string, int)                 {}

// Pruner deletes old chats and expired model lists.
type Pruner struct {
	chats    ChatStore
	cache    ModelCache
	chatDays int
	now      func() time.Time
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Pruner.
type Option func(*Pruner)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pruner) {
		p.now = now
	}
}

// WithRecorder reports job outcomes, typically to Prometheus.
func WithRecorder(r Recorder) Option {
	return func(p *Pruner) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithLogger sets the pruner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pruner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPruner creates a pruner. chatDays of 0 keeps chats forever; either
// chats or cache may be nil to skip that job.
func NewPruner(chats ChatStore, cache ModelCache, chatDays int, opts ...Option) *Pruner {
	p := &Pruner{
		chats:    chats,
		cache:    cache,
		chatDays: chatDays,
		now:      time.Now,
		recorder: nopRecorder{},
		logger:   slog.Default().With("component", "retention"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PruneChats deletes chats created more than chatDays ago, together with
// their messages.
func (p *Pruner) PruneChats(ctx context.Context) (int64, error) {
	if p.chats == nil || p.chatDays <= 0 {
		return 0, nil
	}

	start := time.Now()
	cutoff := p.now().AddDate(0, 0, -p.chatDays)

	deleted, err := p.chats.DeleteChatsBefore(ctx, cutoff)
	p.recorder.RecordJob(JobChats, int(deleted), time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("prune chats: %w", err)
	}

	if deleted > 0 {
		p.logger.Info("pruned chats",
			"deleted_count", deleted,
			"retention_days", p.chatDays,
			"cutoff", cutoff,
		)
	} else {
		p.logger.Debug("no chats pruned", "retention_days", p.chatDays)
	}
	return deleted, nil
}

// PruneModelCache drops expired model lists and reports the cache sizes.
func (p *Pruner) PruneModelCache() int {
	if p.cache == nil {
		return 0
	}

	start := time.Now()
	evicted := p.cache.PruneExpired()
	adapters, lists := p.cache.Stats()

	p.recorder.RecordJob(JobModelCache, evicted, time.Since(start), nil)
	p.recorder.RecordCacheEvictions(CacheModels, evicted)
	p.recorder.UpdateCacheSize(CacheModels, lists)
	p.recorder.UpdateCacheSize(CacheAdapters, adapters)

	if evicted > 0 {
		p.logger.Debug("pruned model cache", "evicted", evicted, "remaining", lists)
	}
	return evicted
}

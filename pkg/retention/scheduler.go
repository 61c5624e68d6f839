package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job names, also used as the metrics job label.
const (
	JobChats      = "chat_retention"
	JobModelCache = "model_cache_prune"
)

// Schedules holds one cron expression per job. An empty expression
// leaves that job unscheduled.
type Schedules struct {
	Chats      string
	ModelCache string
}

// Scheduler runs the pruner on cron schedules.
type Scheduler struct {
	pruner    *Pruner
	schedules Schedules
	cron      *cron.Cron
	entries   map[string]cron.EntryID
	mu        sync.Mutex
	logger    *slog.Logger
	running   bool
}

// NewScheduler creates a scheduler for pruner.
func NewScheduler(pruner *Pruner, schedules Schedules) *Scheduler {
	return &Scheduler{
		pruner:    pruner,
		schedules: schedules,
		cron:      cron.New(),
		entries:   make(map[string]cron.EntryID),
		logger:    pruner.logger.With("component", "retention.scheduler"),
	}
}

// Start registers the configured jobs and starts the cron runner. It is a
// no-op when no job has a schedule. The scheduler stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	jobs := []struct {
		name     string
		schedule string
		run      func()
	}{
		{JobChats, s.chatSchedule(), func() {
			if _, err := s.pruner.PruneChats(ctx); err != nil {
				s.logger.Error("scheduled chat pruning failed", "error", err)
			}
		}},
		{JobModelCache, s.schedules.ModelCache, func() {
			s.pruner.PruneModelCache()
		}},
	}

	for _, job := range jobs {
		if job.schedule == "" {
			s.logger.Debug("job not scheduled", "job", job.name)
			continue
		}
		if _, err := cron.ParseStandard(job.schedule); err != nil {
			s.removeAll()
			return fmt.Errorf("invalid cron schedule %q for %s: %w", job.schedule, job.name, err)
		}
		id, err := s.cron.AddFunc(job.schedule, job.run)
		if err != nil {
			s.removeAll()
			return fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
		s.entries[job.name] = id
	}

	if len(s.entries) == 0 {
		s.logger.Info("no retention jobs configured, skipping scheduler")
		return nil
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"chat_schedule", s.chatSchedule(),
		"cache_schedule", s.schedules.ModelCache,
		"retention_days", s.pruner.chatDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// chatSchedule is empty when chat retention is disabled.
func (s *Scheduler) chatSchedule() string {
	if s.pruner.chats == nil || s.pruner.chatDays <= 0 {
		return ""
	}
	return s.schedules.Chats
}

func (s *Scheduler) removeAll() {
	for name, id := range s.entries {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}

// IsRunning reports whether any job is scheduled and the runner started.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next run time of job, or nil when it is not
// scheduled.
func (s *Scheduler) NextRun(job string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[job]
	if !ok {
		return nil
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return nil
	}
	next := entry.Next
	return &next
}

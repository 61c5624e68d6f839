package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"lite-hq/lite/pkg/config"
)

// JobMetrics tracks scheduled maintenance jobs.
//
// Metrics:
//   - lite_job_runs_total: runs by job and outcome
//   - lite_job_affected_total: rows or entries removed by each job
//   - lite_job_duration_seconds: run time
//   - lite_job_last_success_timestamp_seconds: unix time of the last good run
type JobMetrics struct {
	runs        *prometheus.CounterVec
	affected    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

// NewJobMetrics creates and registers job metrics with the provided registry.
func NewJobMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *JobMetrics {
	jm := &JobMetrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "job_runs_total",
				Help:      "Total number of scheduled job runs",
			},
			[]string{"job", "outcome"},
		),
		affected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "job_affected_total",
				Help:      "Total number of items removed by scheduled jobs",
			},
			[]string{"job"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "job_duration_seconds",
				Help:      "Scheduled job duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"job"},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "job_last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run",
			},
			[]string{"job"},
		),
	}

	registry.MustRegister(jm.runs, jm.affected, jm.duration, jm.lastSuccess)

	return jm
}

// RecordRun records one job run.
func (jm *JobMetrics) RecordRun(job string, affected int, duration time.Duration, err error) {
	jm.duration.WithLabelValues(job).Observe(duration.Seconds())

	if err != nil {
		jm.runs.WithLabelValues(job, "error").Inc()
		return
	}

	jm.runs.WithLabelValues(job, "success").Inc()
	if affected > 0 {
		jm.affected.WithLabelValues(job).Add(float64(affected))
	}
	jm.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

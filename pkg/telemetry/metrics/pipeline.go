package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/retainer/pkg/config"
)

// PipelineMetrics tracks retention pipeline runs.
//
// Metrics:
//   - retainer_rows_total: Rows affected by committed steps
//   - retainer_runs_total: Pipeline runs by status
//   - retainer_run_duration_seconds: Pipeline run duration histogram
//   - retainer_scheduled_jobs_total: Scheduled job outcomes
type PipelineMetrics struct {
	rowsTotal   *prometheus.CounterVec
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	jobsTotal   *prometheus.CounterVec
}

// NewPipelineMetrics creates and registers pipeline metrics with the
// provided registry.
func NewPipelineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PipelineMetrics {
	pm := &PipelineMetrics{
		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "rows_total",
				Help:      "Total number of rows affected by committed pipeline steps",
			},
			[]string{"pipeline", "step"},
		),

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "runs_total",
				Help:      "Total number of pipeline runs",
			},
			[]string{"pipeline", "status"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of pipeline runs in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"pipeline"},
		),

		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "scheduled_jobs_total",
				Help:      "Total number of scheduled job executions by outcome",
			},
			[]string{"job", "status"},
		),
	}

	registry.MustRegister(
		pm.rowsTotal,
		pm.runsTotal,
		pm.runDuration,
		pm.jobsTotal,
	)

	return pm
}

// RecordStep adds rows to the step counter.
func (pm *PipelineMetrics) RecordStep(pipeline, step string, rows int64) {
	pm.rowsTotal.WithLabelValues(pipeline, step).Add(float64(rows))
}

// RecordRun records a run outcome and its duration.
func (pm *PipelineMetrics) RecordRun(pipeline, status string, duration time.Duration) {
	pm.runsTotal.WithLabelValues(pipeline, status).Inc()
	pm.runDuration.WithLabelValues(pipeline).Observe(duration.Seconds())
}

// RecordJob records a scheduled job outcome.
func (pm *PipelineMetrics) RecordJob(job, status string) {
	pm.jobsTotal.WithLabelValues(job, status).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/retainer/pkg/config"
)

// Collector owns every Prometheus metric of the retainer. It implements
// retention.Recorder for the pipelines and scheduler.JobRecorder for the
// scheduler. When metrics are disabled every Record method is a no-op.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	pipelineMetrics *PipelineMetrics
	blobMetrics     *BlobMetrics
	tableMetrics    *TableMetrics
}

// NewCollector creates a metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a new
// registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "retainer",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		pipelineMetrics: NewPipelineMetrics(cfg, registry),
		blobMetrics:     NewBlobMetrics(cfg, registry),
		tableMetrics:    NewTableMetrics(cfg, registry),
	}
}

// RecordStep adds the rows a committed pipeline step affected.
func (c *Collector) RecordStep(pipeline, step string, rows int64) {
	if !c.config.Enabled {
		return
	}

	c.pipelineMetrics.RecordStep(pipeline, step, rows)
}

// RecordRun records a finished pipeline run.
//
// Parameters:
//   - pipeline: archive, restore, janitor or purge_realm
//   - status: "success" or "error"
//   - duration: wall time of the run
func (c *Collector) RecordRun(pipeline, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.pipelineMetrics.RecordRun(pipeline, status, duration)
}

// RecordBlobDeletion counts one attempt to delete an attachment blob.
func (c *Collector) RecordBlobDeletion(result string) {
	if !c.config.Enabled {
		return
	}

	c.blobMetrics.RecordDeletion(result)
}

// RecordJob counts one scheduled job outcome (success, error or skipped).
func (c *Collector) RecordJob(job, status string) {
	if !c.config.Enabled {
		return
	}

	c.pipelineMetrics.RecordJob(job, status)
}

// UpdateTableRows sets the current row count of the given tables.
func (c *Collector) UpdateTableRows(counts map[string]int64) {
	if !c.config.Enabled {
		return
	}

	for table, rows := range counts {
		c.tableMetrics.UpdateRows(table, rows)
	}
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

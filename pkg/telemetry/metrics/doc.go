// Package metrics exposes Prometheus metrics for the retention pipelines.
//
// # Metrics
//
//   - retainer_rows_total{pipeline,step}: rows affected by committed steps
//   - retainer_runs_total{pipeline,status}: pipeline runs by outcome
//   - retainer_run_duration_seconds{pipeline}: run duration histogram
//   - retainer_scheduled_jobs_total{job,status}: scheduled job outcomes,
//     including runs skipped because another job held the lock
//   - retainer_blob_deletions_total{result}: attachment blob deletions
//   - retainer_table_rows{table}: live and archive table sizes
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	archiver := archiver.New(store, &retention.Options{Recorder: collector})
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
package metrics

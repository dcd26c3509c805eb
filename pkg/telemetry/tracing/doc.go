// Package tracing exports retention pipeline runs as OpenTelemetry traces.
//
// Each run is a root span named after its pipeline carrying the run ID,
// with one child span per step carrying the affected row count. The
// janitor adds a blob_deletion event per attachment blob it removes.
// Spans are exported over OTLP gRPC:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: otel-collector:4317
//	    insecure: true
//	    sampler: ratio
//	    sample_ratio: 0.25
//
// When tracing is disabled New returns a noop tracer.
package tracing

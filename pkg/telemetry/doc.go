// Package telemetry groups the observability packages of the retainer.
//
//   - logging: slog setup with credential redaction and run context fields
//   - metrics: Prometheus counters for pipeline steps, runs and blobs
//   - tracing: OpenTelemetry spans per pipeline run and step
//   - health: liveness and readiness probes for the daemon
//
// None of them is required by the retention pipelines, which fall back to
// slog.Default, a noop recorder and the global tracer provider.
package telemetry

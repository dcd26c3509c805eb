package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for retention spans.
const (
	AttrPipeline = "retainer.pipeline"
	AttrRunID    = "retainer.run_id"
	AttrStep     = "retainer.step"
	AttrRows     = "retainer.rows"
	AttrRealmID  = "retainer.realm_id"
	AttrPathID   = "retainer.blob.path_id"
)

// RunAttributes returns the span start option for a pipeline run.
func RunAttributes(pipeline, runID string) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String(AttrPipeline, pipeline),
		attribute.String(AttrRunID, runID),
	)
}

// StepAttributes returns the span start option for a pipeline step.
func StepAttributes(pipeline, step string) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String(AttrPipeline, pipeline),
		attribute.String(AttrStep, step),
	)
}

// SetRows records the rows a step affected.
func SetRows(span trace.Span, rows int64) {
	span.SetAttributes(attribute.Int64(AttrRows, rows))
}

// SetRealm records the realm a run is scoped to.
func SetRealm(span trace.Span, realmID int64) {
	span.SetAttributes(attribute.Int64(AttrRealmID, realmID))
}

// AddBlobEvent records a blob deletion attempt on the current span.
func AddBlobEvent(span trace.Span, pathID, result string) {
	span.AddEvent("blob_deletion", trace.WithAttributes(
		attribute.String(AttrPathID, pathID),
		attribute.String("result", result),
	))
}

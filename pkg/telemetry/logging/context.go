package logging

import (
	"context"
	"log/slog"
)

// Context keys for pipeline log fields.
type contextKey string

const (
	// RunIDKey is the context key for pipeline run IDs.
	RunIDKey contextKey = "run_id"

	// PipelineKey is the context key for pipeline names.
	PipelineKey contextKey = "pipeline"

	// JobKey is the context key for scheduled job names.
	JobKey contextKey = "job"
)

// WithRunID adds a pipeline run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the pipeline run ID from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithPipeline adds a pipeline name to the context.
func WithPipeline(ctx context.Context, pipeline string) context.Context {
	return context.WithValue(ctx, PipelineKey, pipeline)
}

// GetPipeline retrieves the pipeline name from the context.
func GetPipeline(ctx context.Context) string {
	if pipeline, ok := ctx.Value(PipelineKey).(string); ok {
		return pipeline
	}
	return ""
}

// WithJob adds a scheduled job name to the context.
func WithJob(ctx context.Context, job string) context.Context {
	return context.WithValue(ctx, JobKey, job)
}

// GetJob retrieves the scheduled job name from the context.
func GetJob(ctx context.Context) string {
	if job, ok := ctx.Value(JobKey).(string); ok {
		return job
	}
	return ""
}

// extractContextFields extracts pipeline fields from ctx as slog attributes.
func extractContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var fields []slog.Attr
	if job := GetJob(ctx); job != "" {
		fields = append(fields, slog.String(string(JobKey), job))
	}
	if pipeline := GetPipeline(ctx); pipeline != "" {
		fields = append(fields, slog.String(string(PipelineKey), pipeline))
	}
	if runID := GetRunID(ctx); runID != "" {
		fields = append(fields, slog.String(string(RunIDKey), runID))
	}
	return fields
}

// contextHandler adds context fields to each record before delegating.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if fields := extractContextFields(ctx); len(fields) > 0 {
		r = r.Clone()
		r.AddAttrs(fields...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

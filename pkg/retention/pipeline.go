package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/retainer/pkg/telemetry/logging"
	"mercator-hq/retainer/pkg/telemetry/tracing"
)

// Pipeline names.
const (
	PipelineArchive = "archive"
	PipelineRestore = "restore"
	PipelineJanitor = "janitor"
	PipelinePurge   = "purge_realm"
)

// Run statuses reported to the Recorder.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder receives pipeline measurements. *metrics.Collector implements
// it; NopRecorder discards everything.
type Recorder interface {
	RecordStep(pipeline, step string, rows int64)
	RecordRun(pipeline, status string, duration time.Duration)
	RecordBlobDeletion(result string)
}

// NopRecorder is a Recorder that records nothing.
type NopRecorder struct{}

func (NopRecorder) RecordStep(string, string, int64) {}
func (NopRecorder) RecordRun(string, string, time.Duration) {}
func (NopRecorder) RecordBlobDeletion(string) {}

// Options are shared by every pipeline. The zero value is usable.
type Options struct {
	// Now returns the current time. Default: time.Now
	Now func() time.Time

	// Recorder receives step and run measurements. Default: NopRecorder
	Recorder Recorder

	// Logger is the base logger. Default: slog.Default()
	Logger *slog.Logger

	// Tracer starts a span per run and per step. Default: the global
	// OpenTelemetry provider, a noop until tracing is configured.
	Tracer trace.Tracer

	// OnStep, if set, is called after each committed step with its
	// 1-based position.
	OnStep func(index, total int, step string, rows int64)
}

// WithDefaults returns a copy of opts with every unset field filled in.
// A nil opts yields the defaults.
func (opts *Options) WithDefaults() Options {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Recorder == nil {
		o.Recorder = NopRecorder{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer(tracing.InstrumentationName)
	}
	return o
}

// Step is one unit of a pipeline. Run returns the number of rows it
// affected; when it fails nothing from that step is committed.
type Step struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

// Runner executes pipeline steps in order, stopping at the first failure.
type Runner struct {
	Pipeline string
	Options  Options
	Logger   *slog.Logger
}

// Run executes steps and returns the result of the steps that committed.
// The returned error, if any, is a *StepError.
func (r *Runner) Run(ctx context.Context, steps []Step, attrs ...any) (*Result, error) {
	result := &Result{
		Pipeline: r.Pipeline,
		RunID:    uuid.NewString(),
		Started:  r.Options.Now(),
	}
	logger := r.Logger.With(append([]any{"run_id", result.RunID}, attrs...)...)
	ctx = logging.WithPipeline(logging.WithRunID(ctx, result.RunID), r.Pipeline)
	start := time.Now()

	ctx, span := r.Options.Tracer.Start(ctx, r.Pipeline, tracing.RunAttributes(r.Pipeline, result.RunID))
	defer span.End()
	for i := 0; i+1 < len(attrs); i += 2 {
		if key, _ := attrs[i].(string); key == "realm_id" {
			if realmID, ok := attrs[i+1].(int64); ok {
				tracing.SetRealm(span, realmID)
			}
		}
	}

	logger.Info("pipeline started", "pipeline", r.Pipeline, "steps", len(steps))

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return r.fail(logger, span, result, start, step.Name, err)
		}

		rows, err := r.runStep(ctx, step)
		if err != nil {
			return r.fail(logger, span, result, start, step.Name, err)
		}

		result.Add(step.Name, rows)
		r.Options.Recorder.RecordStep(r.Pipeline, step.Name, rows)
		logger.Debug("step committed", "step", step.Name, "rows", rows)
		if r.Options.OnStep != nil {
			r.Options.OnStep(i+1, len(steps), step.Name, rows)
		}
	}

	result.Duration = time.Since(start)
	r.Options.Recorder.RecordRun(r.Pipeline, StatusSuccess, result.Duration)
	tracing.SetRows(span, result.Total())
	tracing.SetStatus(span, nil)

	logger.Info("pipeline completed",
		"pipeline", r.Pipeline,
		"rows", result.Total(),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func (r *Runner) runStep(ctx context.Context, step Step) (int64, error) {
	ctx, span := r.Options.Tracer.Start(ctx, step.Name, tracing.StepAttributes(r.Pipeline, step.Name))
	defer span.End()

	rows, err := step.Run(ctx)
	if err == nil {
		tracing.SetRows(span, rows)
	}
	tracing.SetStatus(span, err)
	return rows, err
}

func (r *Runner) fail(logger *slog.Logger, span trace.Span, result *Result, start time.Time, step string, err error) (*Result, error) {
	result.Duration = time.Since(start)
	r.Options.Recorder.RecordRun(r.Pipeline, StatusError, result.Duration)
	tracing.SetStatus(span, err)

	logger.Error("pipeline step failed",
		"pipeline", r.Pipeline,
		"step", step,
		"committed_steps", len(result.Steps),
		"error", err,
	)
	return result, NewStepError(r.Pipeline, step, err)
}

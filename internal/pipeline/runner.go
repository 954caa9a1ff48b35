package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"shiftcli/internal/dataset"
)

// Runner executes a stage's configured step sequence against a dataset.
// Execution is strictly sequential; the first failing step aborts the
// run and its error is returned wrapped with the step name. The runner
// never persists anything, callers save the returned dataset.
type Runner struct {
	registry *Registry
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewRunner creates a runner over the given step registry.
func NewRunner(registry *Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry: registry,
		logger:   logger,
		tracer:   noop.NewTracerProvider().Tracer("pipeline"),
	}
}

// WithTracer attaches a tracer; each step runs inside its own span.
func (r *Runner) WithTracer(tracer trace.Tracer) *Runner {
	if tracer != nil {
		r.tracer = tracer
	}
	return r
}

// Run applies the step sequence to the dataset. An empty step list
// returns the input unchanged.
func (r *Runner) Run(ctx context.Context, ds *dataset.Dataset, specs []StepSpec) (*dataset.Dataset, error) {
	for i, spec := range specs {
		step, err := r.registry.Get(spec.Name)
		if err != nil {
			return nil, WrapError(err, spec.Name)
		}

		params := spec.StepParams()
		if err := step.Validate(params); err != nil {
			return nil, WrapError(err, spec.Name)
		}

		stepCtx, span := r.tracer.Start(ctx, spec.Name, trace.WithAttributes(
			attribute.Int("step.position", i+1),
			attribute.Int("rows.in", ds.NumRows()),
		))

		start := time.Now()
		out, err := step.Apply(stepCtx, ds, params)
		if err != nil {
			span.RecordError(err)
			span.End()
			r.logger.Error("step failed",
				slog.String("step", spec.Name),
				slog.Int("position", i+1),
				slog.String("error", err.Error()))
			return nil, WrapError(err, spec.Name)
		}

		span.SetAttributes(attribute.Int("rows.out", out.NumRows()))
		span.End()

		r.logger.Info("step completed",
			slog.String("step", spec.Name),
			slog.Int("position", i+1),
			slog.Int("rows_in", ds.NumRows()),
			slog.Int("rows_out", out.NumRows()),
			slog.Duration("duration", time.Since(start)))

		ds = out
	}
	return ds, nil
}

// ValidateSpecs checks that every configured step exists and accepts its
// parameters, without running anything.
func (r *Runner) ValidateSpecs(specs []StepSpec) error {
	for _, spec := range specs {
		step, err := r.registry.Get(spec.Name)
		if err != nil {
			return WrapError(err, spec.Name)
		}
		if err := step.Validate(spec.StepParams()); err != nil {
			return WrapError(err, spec.Name)
		}
	}
	return nil
}

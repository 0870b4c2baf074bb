package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zorse-project/zorse/pkg/dataset"
	"github.com/zorse-project/zorse/pkg/engine/normalize"
	"github.com/zorse-project/zorse/pkg/record"
	"github.com/zorse-project/zorse/pkg/telemetry"
)

// ErrNoOutput is returned when Run is called without an output path.
var ErrNoOutput = errors.New("no output path configured")

// Source is one candidate origin drained by the engine.
type Source interface {
	Name() string
	Run(ctx context.Context, emit func(record.Record)) (normalize.Tally, error)
}

// SourceSummary is the outcome of one source.
type SourceSummary struct {
	Name  string
	Tally normalize.Tally
}

// Summary describes a completed build.
type Summary struct {
	Output  string
	Records int
	Sources []SourceSummary
}

// Engine drains its sources in order and writes every admitted record to one
// JSONL file.
type Engine struct {
	Logger *slog.Logger
	Tracer trace.Tracer

	sources []Source
	output  string
	runID   string

	candidates metric.Int64Counter
}

// Option defines a functional configuration override.
type Option func(*Engine)

// New initializes the Engine.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		Logger: slog.Default(),
		Tracer: telemetry.Tracer("zorse/engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	counter, err := otel.Meter("zorse/engine").Int64Counter("zorse.candidates",
		metric.WithDescription("Candidate files processed, by source and outcome."))
	if err != nil {
		return nil, fmt.Errorf("create candidate counter: %w", err)
	}
	e.candidates = counter

	if e.runID != "" {
		e.Logger = e.Logger.With("run_id", e.runID)
	}
	return e, nil
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.Logger = l
		}
	}
}

// WithSources appends sources; they run in the order given.
func WithSources(sources ...Source) Option {
	return func(e *Engine) {
		e.sources = append(e.sources, sources...)
	}
}

// WithOutput sets the JSONL destination.
func WithOutput(path string) Option {
	return func(e *Engine) {
		e.output = path
	}
}

// WithRunID tags logs and spans with a build identifier.
func WithRunID(id string) Option {
	return func(e *Engine) {
		e.runID = id
	}
}

// Run drains every source and writes the collected records. The output file
// is created even when nothing was admitted. A source error aborts the run
// before anything is written.
func (e *Engine) Run(ctx context.Context) (summary Summary, err error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Run")
	defer span.End()
	defer e.recoverPanic(ctx, &err)

	if e.output == "" {
		return Summary{}, ErrNoOutput
	}
	if e.runID != "" {
		span.SetAttributes(attribute.String("zorse.run_id", e.runID))
	}

	e.Logger.Info("starting build", "sources", len(e.sources), "output", e.output)

	var records []record.Record
	emit := func(r record.Record) { records = append(records, r) }

	for _, src := range e.sources {
		tally, err := e.runSource(ctx, src, emit)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "source failed")
			return summary, err
		}
		summary.Sources = append(summary.Sources, SourceSummary{Name: src.Name(), Tally: tally})
	}

	if err := dataset.WriteFile(e.output, records); err != nil {
		span.RecordError(err)
		return summary, fmt.Errorf("write %s: %w", e.output, err)
	}

	summary.Output = e.output
	summary.Records = len(records)
	span.SetAttributes(attribute.Int("zorse.records", len(records)))
	e.Logger.Info("build complete", "records", len(records), "output", e.output)
	return summary, nil
}

func (e *Engine) runSource(ctx context.Context, src Source, emit func(record.Record)) (normalize.Tally, error) {
	ctx, span := e.Tracer.Start(ctx, "Source."+src.Name())
	defer span.End()

	tally, err := src.Run(ctx, emit)
	e.recordTally(ctx, src.Name(), tally)
	span.SetAttributes(
		attribute.Int("zorse.admitted", tally.Admitted),
		attribute.Int("zorse.rejected", tally.Rejected()),
	)
	if err != nil {
		e.Logger.Error("source failed", "source", src.Name(), "admitted", tally.Admitted, "error", err)
		return tally, err
	}

	e.Logger.Info("source complete",
		"source", src.Name(),
		"admitted", tally.Admitted,
		"rejected", tally.Rejected(),
		"failed_filters", tally.FilterRejected,
		"invalid_extensions", tally.InvalidExtension,
		"decode_failures", tally.DecodeFailure,
		"fetch_failures", tally.FetchFailure)
	if tally.LicenseDisagreement > 0 {
		e.Logger.Debug("upstream license_type differs from local classification",
			"source", src.Name(), "records", tally.LicenseDisagreement)
	}
	return tally, nil
}

func (e *Engine) recordTally(ctx context.Context, source string, t normalize.Tally) {
	counts := map[normalize.Outcome]int{
		normalize.Admitted:         t.Admitted,
		normalize.FilterRejected:   t.FilterRejected,
		normalize.InvalidExtension: t.InvalidExtension,
		normalize.DecodeFailure:    t.DecodeFailure,
		normalize.FetchFailure:     t.FetchFailure,
	}
	for outcome, n := range counts {
		if n == 0 {
			continue
		}
		e.candidates.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("outcome", string(outcome)),
		))
	}
}

// recoverPanic turns a panic inside a source into an error on the span and
// the returned error.
func (e *Engine) recoverPanic(ctx context.Context, err *error) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		_, span := e.Tracer.Start(ctx, "CriticalPanic")
		span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "panic")
		span.End()

		e.Logger.Error("build panicked", "error", r, "stack", string(stack))
		*err = fmt.Errorf("build panicked: %v", r)
	}
}

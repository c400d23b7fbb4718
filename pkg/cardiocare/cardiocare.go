package cardiocare

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crimson-sun/cardiocare/internal/dataset"
	"github.com/crimson-sun/cardiocare/internal/engine"
	_ "github.com/crimson-sun/cardiocare/internal/engine/classifier/forest"
	_ "github.com/crimson-sun/cardiocare/internal/engine/classifier/onnx"
	"github.com/crimson-sun/cardiocare/internal/evaluate"
	"github.com/crimson-sun/cardiocare/internal/model"
)

// CardioCare is a loaded risk model. Safe for concurrent use.
type CardioCare struct {
	engine *engine.Engine
	logger *slog.Logger
}

// New loads the schema, scaler and classifier once. Create one instance
// and share it.
func New(opts ...Option) (*CardioCare, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	schemaPath, scalerPath, modelPath := resolvePaths(o)

	e, err := engine.Load(engine.Artifacts{
		SchemaPath:     schemaPath,
		ScalerPath:     scalerPath,
		ModelKind:      o.modelKind,
		ModelPath:      modelPath,
		ImportancePath: o.importancePath,
		RuntimeLibPath: o.runtimeLib,
	}, engine.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("cardiocare: %w", err)
	}
	return &CardioCare{engine: e, logger: o.logger}, nil
}

// Assess validates in and runs it through the full pipeline. Range
// violations are *InputError; unmapped labels are *UnknownCategoryError.
func (c *CardioCare) Assess(in Input) (Result, error) {
	raw := in.raw()
	if err := model.ValidateInput(raw); err != nil {
		return Result{}, err
	}
	res, err := c.engine.Assess(raw)
	if err != nil {
		return Result{}, err
	}
	return resultFrom(res), nil
}

// AssessBatch assesses inputs in order, stopping at the first error.
func (c *CardioCare) AssessBatch(ins []Input) ([]Result, error) {
	raws := make([]model.RawAssessmentInput, len(ins))
	for i, in := range ins {
		raws[i] = in.raw()
		if err := model.ValidateInput(raws[i]); err != nil {
			return nil, fmt.Errorf("cardiocare: input %d: %w", i, err)
		}
	}
	res, err := c.engine.AssessBatch(raws)
	if err != nil {
		return nil, err
	}
	out := make([]Result, len(res))
	for i, r := range res {
		out[i] = resultFrom(r)
	}
	return out, nil
}

// Features returns the encoded feature layout the model expects.
func (c *CardioCare) Features() []string { return c.engine.Schema().Features() }

// EvaluateOptions controls Evaluate. Zero values evaluate every row.
type EvaluateOptions struct {
	SampleSize   int
	Seed         uint64
	Workers      int
	Correlations bool
}

// EvaluationReport is the outcome of a batch evaluation.
type EvaluationReport = evaluate.Report

// Evaluate scores the labeled cardio_train CSV at path with the same
// encoding as Assess.
func (c *CardioCare) Evaluate(ctx context.Context, path string, opts EvaluateOptions) (*EvaluationReport, error) {
	ds, err := dataset.Load(path, dataset.Options{})
	if err != nil {
		return nil, err
	}
	return evaluate.New(c.engine, evaluate.WithLogger(c.logger)).Evaluate(ctx, ds, evaluate.Options{
		SampleSize:   opts.SampleSize,
		Seed:         opts.Seed,
		Workers:      opts.Workers,
		Correlations: opts.Correlations,
	})
}

// Close releases model resources.
func (c *CardioCare) Close() error {
	return c.engine.Close()
}

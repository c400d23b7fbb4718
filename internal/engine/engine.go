package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crimson-sun/cardiocare/internal/engine/classifier"
	"github.com/crimson-sun/cardiocare/internal/engine/encoder"
	"github.com/crimson-sun/cardiocare/internal/engine/report"
	"github.com/crimson-sun/cardiocare/internal/engine/risk"
	"github.com/crimson-sun/cardiocare/internal/engine/scaler"
	"github.com/crimson-sun/cardiocare/internal/engine/schema"
	"github.com/crimson-sun/cardiocare/internal/metrics"
	"github.com/crimson-sun/cardiocare/internal/model"
)

// Engine orchestrates the encode → scale → classify → aggregate → report
// pipeline. Every component is read-only after New, so one Engine serves any
// number of concurrent callers.
type Engine struct {
	schema  *schema.Schema
	encoder *encoder.Encoder
	scaler  *scaler.Scaler
	clf     *classifier.Guard
	builder report.Builder
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records assessment counters and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithBuilder controls how results are stamped with ids and times.
func WithBuilder(b report.Builder) Option {
	return func(e *Engine) { e.builder = b }
}

// New wires the pipeline and checks that encoder, scaler and classifier all
// agree with the schema. Any disagreement is a *model.SchemaMismatchError.
func New(s *schema.Schema, sc *scaler.Scaler, clf classifier.Classifier, opts ...Option) (*Engine, error) {
	enc := encoder.New(s)
	if err := enc.Check(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	guard, ok := clf.(*classifier.Guard)
	if !ok {
		var err error
		if guard, err = classifier.NewGuard(clf, s); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}
	e := &Engine{
		schema:  s,
		encoder: enc,
		scaler:  sc,
		clf:     guard,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Assess runs one raw input through the full pipeline. It either returns a
// complete result or an error; no partial result is produced.
func (e *Engine) Assess(in model.RawAssessmentInput) (model.PredictionResult, error) {
	start := time.Now()
	res, err := e.assess(in)
	if err != nil {
		e.metrics.ObserveError(err)
		if Fatal(err) {
			e.logger.Error("assessment failed on artifact integrity", "error", err)
		} else {
			e.logger.Debug("assessment rejected", "error", err)
		}
		return model.PredictionResult{}, err
	}
	e.metrics.ObservePrediction(res.Label, time.Since(start))
	e.logger.Debug("assessment complete",
		"id", res.ID,
		"probability", res.Probability,
		"label", res.Label,
		"total_risk", res.Risk.TotalRisk,
	)
	return res, nil
}

func (e *Engine) assess(in model.RawAssessmentInput) (model.PredictionResult, error) {
	vec, err := e.Prepare(in)
	if err != nil {
		return model.PredictionResult{}, err
	}
	probs, err := e.clf.PredictProba([]model.Vector{vec})
	if err != nil {
		return model.PredictionResult{}, fmt.Errorf("engine: %w", err)
	}
	profile := risk.Profile(in, e.schema)
	return e.builder.Build(probs[0], in, profile), nil
}

// AssessBatch assesses each input in order and stops at the first error.
func (e *Engine) AssessBatch(ins []model.RawAssessmentInput) ([]model.PredictionResult, error) {
	results := make([]model.PredictionResult, 0, len(ins))
	for i, in := range ins {
		res, err := e.Assess(in)
		if err != nil {
			return nil, fmt.Errorf("engine: input %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Prepare encodes and scales one input: the exact vector the classifier
// receives for it. Batch evaluation goes through here too.
func (e *Engine) Prepare(in model.RawAssessmentInput) (model.Vector, error) {
	vec, err := e.encoder.Encode(in)
	if err != nil {
		return nil, fmt.Errorf("engine: encode: %w", err)
	}
	scaled, err := e.scaler.Apply(vec)
	if err != nil {
		return nil, fmt.Errorf("engine: scale: %w", err)
	}
	return scaled, nil
}

// PredictProba classifies prepared vectors.
func (e *Engine) PredictProba(rows []model.Vector) ([]float64, error) {
	return e.clf.PredictProba(rows)
}

// Schema returns the feature schema the engine was built with.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// Importances returns the classifier's per-feature importances in schema
// order, or nil when it exposes none.
func (e *Engine) Importances() []float64 { return e.clf.FeatureImportances() }

// Close releases the classifier.
func (e *Engine) Close() error { return e.clf.Close() }

// Fatal reports whether err signals a corrupted or mismatched artifact
// rather than a correctable input.
func Fatal(err error) bool {
	var (
		sm    *model.SchemaMismatchError
		shape *model.FeatureVectorShapeError
	)
	return errors.As(err, &sm) || errors.As(err, &shape)
}

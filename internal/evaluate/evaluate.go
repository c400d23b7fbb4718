// Package evaluate measures a loaded model against a labeled dataset using
// the same encode and scale path as interactive assessments.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/cardiocare/internal/dataset"
	"github.com/crimson-sun/cardiocare/internal/engine/classifier"
	"github.com/crimson-sun/cardiocare/internal/engine/schema"
	"github.com/crimson-sun/cardiocare/internal/metrics"
	"github.com/crimson-sun/cardiocare/internal/model"
)

// Pipeline is the part of the engine batch evaluation reuses.
type Pipeline interface {
	Prepare(in model.RawAssessmentInput) (model.Vector, error)
	PredictProba(rows []model.Vector) ([]float64, error)
	Schema() *schema.Schema
	Importances() []float64
}

// Options controls one evaluation. Zero values evaluate every row.
type Options struct {
	// SampleSize > 0 evaluates a random subset of that many rows.
	SampleSize int
	// Seed makes the subset reproducible.
	Seed uint64
	// Workers bounds parallelism. Zero means GOMAXPROCS.
	Workers int
	// Correlations adds the Pearson matrix of the raw columns.
	Correlations bool
}

// Confusion counts predictions against ground truth.
type Confusion struct {
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TP int `json:"tp"`
}

// Add records one prediction.
func (c *Confusion) Add(truth, predicted int) {
	switch {
	case truth == 1 && predicted == 1:
		c.TP++
	case truth == 1:
		c.FN++
	case predicted == 1:
		c.FP++
	default:
		c.TN++
	}
}

// Total returns the number of recorded predictions.
func (c Confusion) Total() int { return c.TN + c.FP + c.FN + c.TP }

// Accuracy is (TP+TN)/total, 0 when empty.
func (c Confusion) Accuracy() float64 { return ratio(c.TP+c.TN, c.Total()) }

// Precision is TP/(TP+FP), 0 when nothing was predicted positive.
func (c Confusion) Precision() float64 { return ratio(c.TP, c.TP+c.FP) }

// Recall is TP/(TP+FN), 0 when there are no positives.
func (c Confusion) Recall() float64 { return ratio(c.TP, c.TP+c.FN) }

// F1 is the harmonic mean of precision and recall.
func (c Confusion) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// Scores are the derived quality metrics of a Confusion.
type Scores struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Importance is one ranked feature.
type Importance struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// Report is the outcome of one evaluation.
type Report struct {
	Dataset      string       `json:"dataset"`
	Rows         int          `json:"rows"`
	Confusion    Confusion    `json:"confusion"`
	Scores       Scores       `json:"scores"`
	Importances  []Importance `json:"importances,omitempty"`
	Correlations *Matrix      `json:"correlations,omitempty"`
	Took         string       `json:"took"`
}

// Evaluator runs batch evaluations against one pipeline.
type Evaluator struct {
	pipeline Pipeline
	decoder  *Decoder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMetrics counts evaluations by outcome.
func WithMetrics(m *metrics.Metrics) Option {
	return func(ev *Evaluator) { ev.metrics = m }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(ev *Evaluator) { ev.logger = l }
}

// WithSexCodes overrides DefaultSexCodes.
func WithSexCodes(codes map[int]model.Sex) Option {
	return func(ev *Evaluator) { ev.decoder = NewDecoder(ev.pipeline.Schema(), codes) }
}

// New returns an Evaluator over p.
func New(p Pipeline, opts ...Option) *Evaluator {
	ev := &Evaluator{
		pipeline: p,
		decoder:  NewDecoder(p.Schema(), nil),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(ev)
	}
	return ev
}

// Evaluate scores every selected row in parallel and reduces the results
// once all rows are done. Dataset problems are *model.EvaluationError;
// artifact integrity errors pass through unwrapped in kind.
func (ev *Evaluator) Evaluate(ctx context.Context, ds *dataset.Dataset, opts Options) (*Report, error) {
	start := time.Now()
	rep, err := ev.evaluate(ctx, ds, opts)
	ev.metrics.ObserveEvaluation(err)
	if err != nil {
		ev.logger.Warn("evaluation failed", "dataset", ds.Name, "error", err)
		return nil, err
	}
	rep.Took = time.Since(start).Round(time.Millisecond).String()
	ev.logger.Info("evaluation complete",
		"dataset", ds.Name,
		"rows", rep.Rows,
		"accuracy", rep.Scores.Accuracy,
		"took", rep.Took,
	)
	return rep, nil
}

func (ev *Evaluator) evaluate(ctx context.Context, ds *dataset.Dataset, opts Options) (*Report, error) {
	records := Sample(ds.Records, opts.SampleSize, opts.Seed)
	if len(records) == 0 {
		return nil, &model.EvaluationError{Dataset: ds.Name, Err: fmt.Errorf("no rows to evaluate")}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (len(records) + workers - 1) / workers

	predicted := make([]int, len(records))
	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(records); lo += chunk {
		hi := min(lo+chunk, len(records))
		g.Go(func() error {
			return ev.scoreChunk(gctx, ds.Name, records[lo:hi], predicted[lo:hi])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{Dataset: ds.Name, Rows: len(records)}
	for i, rec := range records {
		rep.Confusion.Add(rec.Cardio, predicted[i])
	}
	rep.Scores = Scores{
		Accuracy:  rep.Confusion.Accuracy(),
		Precision: rep.Confusion.Precision(),
		Recall:    rep.Confusion.Recall(),
		F1:        rep.Confusion.F1(),
	}
	rep.Importances = RankImportances(ev.pipeline.Schema(), ev.pipeline.Importances())
	if opts.Correlations {
		m := Correlate(records)
		rep.Correlations = &m
	}
	return rep, nil
}

// scoreChunk decodes, prepares and classifies one contiguous slice of rows,
// writing labels into out. Chunks never share indices.
func (ev *Evaluator) scoreChunk(ctx context.Context, name string, records []dataset.Record, out []int) error {
	rows := make([]model.Vector, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		in, err := ev.decoder.Decode(rec)
		if err != nil {
			return &model.EvaluationError{Dataset: name, Row: rec.Line, Err: err}
		}
		if rows[i], err = ev.pipeline.Prepare(in); err != nil {
			return fmt.Errorf("evaluate: row %d: %w", rec.Line, err)
		}
	}
	probs, err := ev.pipeline.PredictProba(rows)
	if err != nil {
		// Guard rows index the chunk; report the dataset line instead.
		var shape *model.FeatureVectorShapeError
		if errors.As(err, &shape) && shape.Row >= 0 && shape.Row < len(records) {
			shape.Row = records[shape.Row].Line
		}
		return fmt.Errorf("evaluate: %w", err)
	}
	for i, p := range probs {
		out[i] = classifier.Label(p)
	}
	return nil
}

// Sample returns n records chosen without replacement by a PCG source
// seeded with seed, or all records when n is not a proper subset size.
func Sample(records []dataset.Record, n int, seed uint64) []dataset.Record {
	if n <= 0 || n >= len(records) {
		return records
	}
	r := rand.New(rand.NewPCG(seed, seed))
	idx := r.Perm(len(records))[:n]
	out := make([]dataset.Record, n)
	for i, j := range idx {
		out[i] = records[j]
	}
	return out
}

// RankImportances pairs importances with schema names, highest first. Ties
// keep schema order. It returns nil when there are no importances.
func RankImportances(s *schema.Schema, importances []float64) []Importance {
	features := s.Features()
	if len(importances) == 0 || len(importances) != len(features) {
		return nil
	}
	out := make([]Importance, len(features))
	for i, f := range features {
		out[i] = Importance{Feature: f, Weight: importances[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

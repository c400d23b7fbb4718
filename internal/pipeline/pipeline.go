// Package pipeline scores a stream of raw inputs and writes each result to
// an output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/crimson-sun/cardiocare/internal/engine"
	"github.com/crimson-sun/cardiocare/internal/model"
	"github.com/crimson-sun/cardiocare/internal/output"
	"github.com/crimson-sun/cardiocare/internal/session"
)

// Stats counts what a run saw.
type Stats struct {
	Read     int `json:"read"`
	Assessed int `json:"assessed"`
	Rejected int `json:"rejected"`
}

// Pipeline connects a source, the engine and an output.
type Pipeline struct {
	source   Source
	engine   session.Assessor
	output   output.Output
	onReject func(*LineError)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOnReject is called for every rejected line. Default: a slog warning.
func WithOnReject(f func(*LineError)) Option {
	return func(p *Pipeline) { p.onReject = f }
}

// New creates a Pipeline from the given components.
func New(src Source, a session.Assessor, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		source: src,
		engine: a,
		output: out,
		onReject: func(e *LineError) {
			slog.Warn("input rejected", "line", e.Line, "error", e.Err)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run drains the source. Undecodable, out-of-range and unmapped inputs
// are rejected and skipped; artifact errors, source errors and output
// errors stop the run.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	var st Stats
	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		item, err := p.source.Next()
		if errors.Is(err, io.EOF) {
			return st, nil
		}
		var lerr *LineError
		if errors.As(err, &lerr) {
			st.Read++
			p.reject(&st, lerr)
			continue
		}
		if err != nil {
			return st, err
		}
		st.Read++

		if err := model.ValidateInput(item.Input); err != nil {
			p.reject(&st, &LineError{Line: item.Line, Err: err})
			continue
		}
		res, err := p.engine.Assess(item.Input)
		if err != nil {
			if engine.Fatal(err) {
				return st, fmt.Errorf("pipeline process: line %d: %w", item.Line, err)
			}
			p.reject(&st, &LineError{Line: item.Line, Err: err})
			continue
		}
		if err := p.output.Write(ctx, res); err != nil {
			return st, fmt.Errorf("pipeline output: %w", err)
		}
		st.Assessed++
	}
}

func (p *Pipeline) reject(st *Stats, e *LineError) {
	st.Rejected++
	p.onReject(e)
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}

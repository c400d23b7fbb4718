// Package multi fans assessment records out to several named sinks.
package multi

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimson-sun/cardiocare/internal/model"
	"github.com/crimson-sun/cardiocare/internal/output"
)

// Sink is one named destination. The name prefixes its errors.
type Sink struct {
	Name   string
	Output output.Output
}

// Multi writes each record to every sink in order. A failing sink does not
// stop delivery to the rest.
type Multi struct {
	sinks []Sink
}

// New returns a Multi over sinks.
func New(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Names lists the sinks in delivery order.
func (m *Multi) Names() []string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name
	}
	return names
}

func (m *Multi) Write(ctx context.Context, r model.PredictionResult) error {
	return m.each(func(o output.Output) error { return o.Write(ctx, r) })
}

// Close closes every sink, including ones whose Write failed.
func (m *Multi) Close() error {
	return m.each(output.Output.Close)
}

func (m *Multi) each(f func(output.Output) error) error {
	var errs []error
	for _, s := range m.sinks {
		if err := f(s.Output); err != nil {
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

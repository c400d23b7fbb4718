// Package stdout prints assessment records as JSON lines.
package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/crimson-sun/cardiocare/internal/model"
	"github.com/crimson-sun/cardiocare/internal/output"
)

// Output writes one JSON record per assessment to a stream.
type Output struct {
	mu     sync.Mutex
	enc    *json.Encoder
	detail output.Detail
}

// New writes to os.Stdout, indented when pretty is set.
func New(detail output.Detail, pretty bool) *Output {
	return NewWriter(os.Stdout, detail, pretty)
}

// NewWriter writes to w.
func NewWriter(w io.Writer, detail output.Detail, pretty bool) *Output {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{enc: enc, detail: detail}
}

func (o *Output) Write(_ context.Context, r model.PredictionResult) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.enc.Encode(output.NewRecord(r, o.detail)); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}

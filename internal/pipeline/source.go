package pipeline

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/crimson-sun/cardiocare/internal/model"
)

const maxLineSize = 1 << 20

// Item is one raw input and where it came from.
type Item struct {
	Line  int
	Input model.RawAssessmentInput
}

// Source yields items until io.EOF. A *LineError is a bad item and the
// source can continue past it; any other error ends the run.
type Source interface {
	Next() (Item, error)
}

// LineError reports an undecodable or rejected input line.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

// NDJSON reads one JSON input object per line. Blank lines are skipped.
type NDJSON struct {
	sc   *bufio.Scanner
	line int
}

// NewNDJSON reads from r.
func NewNDJSON(r io.Reader) *NDJSON {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return &NDJSON{sc: sc}
}

func (s *NDJSON) Next() (Item, error) {
	for s.sc.Scan() {
		s.line++
		data := bytes.TrimSpace(s.sc.Bytes())
		if len(data) == 0 {
			continue
		}
		var in model.RawAssessmentInput
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return Item{}, &LineError{Line: s.line, Err: err}
		}
		return Item{Line: s.line, Input: in}, nil
	}
	if err := s.sc.Err(); err != nil {
		return Item{}, fmt.Errorf("pipeline: read: %w", err)
	}
	return Item{}, io.EOF
}

// Slice yields fixed inputs, numbered from 1.
type Slice struct {
	inputs []model.RawAssessmentInput
	next   int
}

// NewSlice wraps inputs.
func NewSlice(inputs []model.RawAssessmentInput) *Slice {
	return &Slice{inputs: inputs}
}

func (s *Slice) Next() (Item, error) {
	if s.next >= len(s.inputs) {
		return Item{}, io.EOF
	}
	s.next++
	return Item{Line: s.next, Input: s.inputs[s.next-1]}, nil
}

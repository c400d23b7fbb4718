// Package session holds the interactive assessment flow: one submission at a
// time, a displayed result, and an explicit reset back to input.
package session

import (
	"errors"

	"github.com/crimson-sun/cardiocare/internal/model"
)

// Kind tags a State.
type Kind int

const (
	AwaitingInput Kind = iota
	ShowingResult
)

func (k Kind) String() string {
	switch k {
	case AwaitingInput:
		return "awaiting_input"
	case ShowingResult:
		return "showing_result"
	default:
		return "unknown"
	}
}

var (
	// ErrSubmitNotAccepted is returned by Submit outside AwaitingInput.
	ErrSubmitNotAccepted = errors.New("session: submit is only accepted while awaiting input")
	// ErrResetNotAccepted is returned by Reset outside ShowingResult.
	ErrResetNotAccepted = errors.New("session: reset is only accepted while showing a result")
	// ErrNoResult is returned when a result is requested while awaiting input.
	ErrNoResult = errors.New("session: no result to show")
)

// State is either AwaitingInput or ShowingResult with its payload. The zero
// value is AwaitingInput.
type State struct {
	kind   Kind
	result model.PredictionResult
}

// Initial returns the AwaitingInput state.
func Initial() State { return State{} }

// Kind returns the state's tag.
func (s State) Kind() Kind { return s.kind }

// Result returns the held result when s is ShowingResult.
func (s State) Result() (model.PredictionResult, bool) {
	if s.kind != ShowingResult {
		return model.PredictionResult{}, false
	}
	return s.result, true
}

// Assessor runs the full inference pipeline for one input.
type Assessor interface {
	Assess(in model.RawAssessmentInput) (model.PredictionResult, error)
}

// Submit moves AwaitingInput to ShowingResult with the assessor's result.
// Any failure, including a submit outside AwaitingInput, returns s unchanged.
func Submit(s State, in model.RawAssessmentInput, a Assessor) (State, error) {
	if s.kind != AwaitingInput {
		return s, ErrSubmitNotAccepted
	}
	res, err := a.Assess(in)
	if err != nil {
		return s, err
	}
	return State{kind: ShowingResult, result: res}, nil
}

// Reset moves ShowingResult back to AwaitingInput, discarding the result.
func Reset(s State) (State, error) {
	if s.kind != ShowingResult {
		return s, ErrResetNotAccepted
	}
	return Initial(), nil
}

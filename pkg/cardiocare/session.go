package cardiocare

import (
	"sync"

	"github.com/crimson-sun/cardiocare/internal/model"
	"github.com/crimson-sun/cardiocare/internal/session"
)

// Session errors.
var (
	ErrSubmitNotAccepted = session.ErrSubmitNotAccepted
	ErrResetNotAccepted  = session.ErrResetNotAccepted
	ErrNoResult          = session.ErrNoResult
)

// Session is one user's interactive flow. It starts awaiting input, shows
// a result after a successful Submit, and returns to input on Reset.
// Safe for concurrent use.
type Session struct {
	c     *CardioCare
	mu    sync.Mutex
	state session.State
}

// NewSession opens a session awaiting input.
func (c *CardioCare) NewSession() *Session {
	return &Session{c: c, state: session.Initial()}
}

type validatingAssessor struct{ c *CardioCare }

func (v validatingAssessor) Assess(in model.RawAssessmentInput) (model.PredictionResult, error) {
	if err := model.ValidateFormInput(in); err != nil {
		return model.PredictionResult{}, err
	}
	return v.c.engine.Assess(in)
}

// Submit assesses in. On any error the session is unchanged.
func (s *Session) Submit(in Input) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := session.Submit(s.state, in.raw(), validatingAssessor{s.c})
	if err != nil {
		return Result{}, err
	}
	s.state = next
	res, _ := next.Result()
	return resultFrom(res), nil
}

// Reset discards the shown result.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := session.Reset(s.state)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// State returns "awaiting_input" or "showing_result".
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Kind().String()
}

// Result returns the shown result, if any.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.state.Result()
	if !ok {
		return Result{}, false
	}
	return resultFrom(res), true
}

// Report renders the shown result, or returns ErrNoResult.
func (s *Session) Report() (string, error) {
	res, ok := s.Result()
	if !ok {
		return "", ErrNoResult
	}
	return res.Report(), nil
}

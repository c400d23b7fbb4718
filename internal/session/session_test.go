package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/cardiocare/internal/model"
)

// stubAssessor returns a fixed result or error and counts calls.
type stubAssessor struct {
	mu    sync.Mutex
	calls int
	err   error
	p     float64
}

func (a *stubAssessor) Assess(in model.RawAssessmentInput) (model.PredictionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return model.PredictionResult{}, a.err
	}
	label := 0
	if a.p >= 0.5 {
		label = 1
	}
	return model.PredictionResult{ID: "r", Probability: a.p, Label: label, Input: in}, nil
}

func sampleInput() model.RawAssessmentInput {
	return model.RawAssessmentInput{AgeYears: 45, HeightCm: 165, WeightKg: 70, Systolic: 120, Diastolic: 80}
}

func TestInitialIsAwaitingInput(t *testing.T) {
	s := Initial()
	assert.Equal(t, AwaitingInput, s.Kind())
	_, ok := s.Result()
	assert.False(t, ok)
	assert.Equal(t, State{}, s)
}

func TestSubmitThenReset(t *testing.T) {
	a := &stubAssessor{p: 0.7}

	shown, err := Submit(Initial(), sampleInput(), a)
	require.NoError(t, err)
	assert.Equal(t, ShowingResult, shown.Kind())
	res, ok := shown.Result()
	require.True(t, ok)
	assert.Equal(t, 0.7, res.Probability)

	back, err := Reset(shown)
	require.NoError(t, err)
	assert.Equal(t, Initial(), back, "reset must leave no residual result")
}

func TestSubmitWhileShowingIsRejected(t *testing.T) {
	a := &stubAssessor{p: 0.2}
	shown, err := Submit(Initial(), sampleInput(), a)
	require.NoError(t, err)

	again, err := Submit(shown, sampleInput(), a)
	assert.ErrorIs(t, err, ErrSubmitNotAccepted)
	assert.Equal(t, shown, again)
	assert.Equal(t, 1, a.calls, "rejected submit must not run the pipeline")
}

func TestResetWhileAwaitingIsRejected(t *testing.T) {
	s, err := Reset(Initial())
	assert.ErrorIs(t, err, ErrResetNotAccepted)
	assert.Equal(t, Initial(), s)
}

func TestFailedSubmitKeepsAwaitingInput(t *testing.T) {
	uc := &model.UnknownCategoryError{Field: model.FieldGlucose, Value: "x"}
	a := &stubAssessor{err: uc}

	s, err := Submit(Initial(), sampleInput(), a)
	var got *model.UnknownCategoryError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, AwaitingInput, s.Kind())
}

func TestSessionTransitions(t *testing.T) {
	st := NewStore(time.Minute)
	s := st.Create()
	a := &stubAssessor{p: 0.55}

	_, err := s.Result()
	assert.ErrorIs(t, err, ErrNoResult)
	assert.ErrorIs(t, s.Reset(), ErrResetNotAccepted)

	res, err := s.Submit(sampleInput(), a)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Label)

	shown, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, res, shown)

	_, err = s.Submit(sampleInput(), a)
	assert.ErrorIs(t, err, ErrSubmitNotAccepted)

	require.NoError(t, s.Reset())
	assert.Equal(t, Initial(), s.State())
}

func TestConcurrentSubmitsOnOneSession(t *testing.T) {
	s := NewStore(0).Create()
	a := &stubAssessor{p: 0.9}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Submit(sampleInput(), a)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else if errors.Is(err, ErrSubmitNotAccepted) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, 15, rejected)
	assert.Equal(t, 1, a.calls)
}

func TestSessionsAreIsolated(t *testing.T) {
	st := NewStore(0)
	one, two := st.Create(), st.Create()
	require.NotEqual(t, one.ID(), two.ID())

	_, err := one.Submit(sampleInput(), &stubAssessor{p: 0.1})
	require.NoError(t, err)

	assert.Equal(t, ShowingResult, one.State().Kind())
	assert.Equal(t, AwaitingInput, two.State().Kind())
}

func TestStoreSweepExpiresIdleSessions(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	st := NewStore(10*time.Minute, WithClock(clock))

	stale := st.Create()
	now = now.Add(8 * time.Minute)
	fresh := st.Create()
	now = now.Add(5 * time.Minute)

	assert.Equal(t, 1, st.Sweep())
	_, ok := st.Get(stale.ID())
	assert.False(t, ok)
	_, ok = st.Get(fresh.ID())
	assert.True(t, ok)

	// Touching a session keeps it alive.
	now = now.Add(9 * time.Minute)
	fresh.State()
	now = now.Add(9 * time.Minute)
	assert.Equal(t, 0, st.Sweep())
	assert.Equal(t, 1, st.Len())
}

func TestStoreDelete(t *testing.T) {
	st := NewStore(0)
	s := st.Create()
	assert.True(t, st.Delete(s.ID()))
	assert.False(t, st.Delete(s.ID()))
	assert.Equal(t, 0, st.Sweep(), "zero ttl never expires")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "awaiting_input", AwaitingInput.String())
	assert.Equal(t, "showing_result", ShowingResult.String())
}

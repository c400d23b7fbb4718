package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/cardiocare/internal/metrics"
	"github.com/crimson-sun/cardiocare/internal/model"
)

// Session owns one State. Transitions are serialised by its mutex, so two
// actors racing on the same session never interleave.
type Session struct {
	id      string
	created time.Time

	mu       sync.Mutex
	state    State
	lastSeen time.Time
	now      func() time.Time
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string { return s.id }

// Created returns when the session was opened.
func (s *Session) Created() time.Time { return s.created }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	return s.state
}

// Submit runs one assessment and, on success, shows its result. The
// pipeline runs under the session lock, so no partial result is observable.
func (s *Session) Submit(in model.RawAssessmentInput, a Assessor) (model.PredictionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	next, err := Submit(s.state, in, a)
	if err != nil {
		return model.PredictionResult{}, err
	}
	s.state = next
	res, _ := next.Result()
	return res, nil
}

// Reset returns the session to AwaitingInput.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	next, err := Reset(s.state)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// Result returns the displayed result, or ErrNoResult.
func (s *Session) Result() (model.PredictionResult, error) {
	res, ok := s.State().Result()
	if !ok {
		return model.PredictionResult{}, ErrNoResult
	}
	return res, nil
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Store keeps one independently owned Session per interactive user and
// expires sessions idle for longer than its TTL.
type Store struct {
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(st *Store) { st.now = now }
}

// WithMetrics publishes the live session count.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(st *Store) { st.metrics = m }
}

// NewStore returns an empty store. A ttl of zero disables expiry.
func NewStore(ttl time.Duration, opts ...StoreOption) *Store {
	st := &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Create opens a new session in AwaitingInput.
func (st *Store) Create() *Session {
	now := st.now()
	s := &Session{
		id:       uuid.NewString(),
		created:  now,
		lastSeen: now,
		now:      st.now,
	}
	st.mu.Lock()
	st.sessions[s.id] = s
	n := len(st.sessions)
	st.mu.Unlock()
	st.metrics.SetSessions(n)
	return s
}

// Get looks up a live session.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	return s, ok
}

// Delete closes a session. It reports whether the session existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	n := len(st.sessions)
	st.mu.Unlock()
	st.metrics.SetSessions(n)
	return ok
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (st *Store) Sweep() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	removed := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()

	st.metrics.SetSessions(n)
	return removed
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if st.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				slog.Debug("expired idle sessions", "count", n, "remaining", st.Len())
			}
		}
	}
}

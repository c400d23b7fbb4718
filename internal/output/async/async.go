// Package async decouples assessment handling from slow sinks.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/crimson-sun/cardiocare/internal/model"
	"github.com/crimson-sun/cardiocare/internal/output"
)

const (
	defaultBufferSize   = 1024
	defaultDrainTimeout = 5 * time.Second
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("async output: closed")

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the queue capacity. Default: 1024.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithOnError is called when the wrapped sink rejects a record.
// Default: a slog warning.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.onError = f }
}

// WithDropOnFull makes Write discard the record instead of blocking when
// the queue is full. onDrop, if non-nil, is called for each discarded record.
func WithDropOnFull(onDrop func(model.PredictionResult)) Option {
	return func(a *Async) {
		a.dropOnFull = true
		a.onDrop = onDrop
	}
}

// WithDrainTimeout bounds how long Close waits for queued records. Default: 5s.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) { a.drainTimeout = d }
}

// Async queues records on a buffered channel drained by one goroutine into
// the wrapped sink. Sink errors go to the error callback, never to the caller.
type Async struct {
	inner        output.Output
	ch           chan model.PredictionResult
	done         chan struct{}
	onError      func(error)
	onDrop       func(model.PredictionResult)
	bufSize      int
	dropOnFull   bool
	drainTimeout time.Duration

	// mu guards closed; writers hold it shared so Close never closes ch
	// under a pending send.
	mu     sync.RWMutex
	closed bool
}

// New starts draining into inner.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		onError:      func(err error) { slog.Warn("async output write error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan model.PredictionResult, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write enqueues r. A full queue blocks until there is room or ctx is done,
// unless the wrapper drops on full.
func (a *Async) Write(ctx context.Context, r model.PredictionResult) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	if a.dropOnFull {
		select {
		case a.ch <- r:
		default:
			slog.Warn("async output buffer full, dropping result", "id", r.ID)
			if a.onDrop != nil {
				a.onDrop(r)
			}
		}
		return nil
	}
	select {
	case a.ch <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting records, waits for the queue to drain and closes
// the wrapped sink. Calling it again is a no-op.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.ch)
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-time.After(a.drainTimeout):
		slog.Warn("async output drain timed out", "pending", len(a.ch))
	}
	return a.inner.Close()
}

func (a *Async) drain() {
	defer close(a.done)
	for r := range a.ch {
		if err := a.inner.Write(context.Background(), r); err != nil {
			a.onError(err)
		}
	}
}

// Package webhook posts batches of assessment records to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/cardiocare/internal/model"
	"github.com/crimson-sun/cardiocare/internal/output"
)

const (
	defaultBatchSize     = 50
	defaultFlushInterval = 5 * time.Second
	defaultTimeout       = 10 * time.Second
	defaultBackoff       = time.Second
	maxRetries           = 3
)

// Option configures a webhook Output.
type Option func(*Output)

// WithHeaders adds headers to every request.
func WithHeaders(h map[string]string) Option {
	return func(o *Output) { o.headers = h }
}

// WithBatchSize flushes once n records are pending. Default: 50.
func WithBatchSize(n int) Option {
	return func(o *Output) { o.batchSize = n }
}

// WithFlushInterval bounds how long a record waits before being sent. Default: 5s.
func WithFlushInterval(d time.Duration) Option {
	return func(o *Output) { o.flushInterval = d }
}

// WithTimeout sets the per-request timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *Output) { o.client.Timeout = d }
}

// WithBackoff sets the first retry delay; each retry doubles it. Default: 1s.
func WithBackoff(d time.Duration) Option {
	return func(o *Output) { o.backoff = d }
}

// WithDetail selects the record detail. Default: output.Summary.
func WithDetail(d output.Detail) Option {
	return func(o *Output) { o.detail = d }
}

// WithOnError is called when a timer flush fails. Default: a slog warning.
func WithOnError(f func(error)) Option {
	return func(o *Output) { o.onError = f }
}

// Batch is the body of one POST. Retries of a batch reuse its ID, which is
// also sent as the Idempotency-Key header.
type Batch struct {
	ID      string          `json:"batch_id"`
	SentAt  time.Time       `json:"sent_at"`
	Records []output.Record `json:"records"`
}

// Output accumulates records and POSTs them as a Batch when it fills or the
// flush interval elapses. 5xx responses are retried.
type Output struct {
	client        *http.Client
	url           string
	headers       map[string]string
	batchSize     int
	flushInterval time.Duration
	backoff       time.Duration
	detail        output.Detail
	onError       func(error)

	mu      sync.Mutex
	pending []output.Record
	timer   *time.Timer
}

// New targets url.
func New(url string, opts ...Option) *Output {
	o := &Output{
		client:        &http.Client{Timeout: defaultTimeout},
		url:           url,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		backoff:       defaultBackoff,
		onError:       func(err error) { slog.Warn("webhook flush error", "error", err) },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Write queues r, flushing synchronously when the batch is full.
func (o *Output) Write(ctx context.Context, r model.PredictionResult) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pending = append(o.pending, output.NewRecord(r, o.detail))
	if len(o.pending) >= o.batchSize {
		return o.flushLocked(ctx)
	}
	if o.timer == nil {
		o.timer = time.AfterFunc(o.flushInterval, o.timerFlush)
	}
	return nil
}

func (o *Output) timerFlush() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.flushLocked(context.Background()); err != nil {
		o.onError(err)
	}
}

// Close sends whatever is pending.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.flushLocked(context.Background())
}

// flushLocked sends the pending batch. Caller holds o.mu.
func (o *Output) flushLocked(ctx context.Context) error {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if len(o.pending) == 0 {
		return nil
	}
	b := Batch{ID: uuid.NewString(), SentAt: time.Now().UTC(), Records: o.pending}
	o.pending = nil

	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}
	return o.post(ctx, b.ID, body)
}

func (o *Output) post(ctx context.Context, id string, body []byte) error {
	var lastErr error
	delay := o.backoff
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("webhook: %w", ctx.Err())
			}
			delay *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", id)
		for k, v := range o.headers {
			req.Header.Set(k, v)
		}

		resp, err := o.client.Do(req)
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("webhook: HTTP %d", resp.StatusCode)
		if resp.StatusCode < 500 {
			return lastErr
		}
	}
	return lastErr
}

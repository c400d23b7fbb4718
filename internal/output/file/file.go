// Package file appends assessment records to an NDJSON file.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/crimson-sun/cardiocare/internal/model"
	"github.com/crimson-sun/cardiocare/internal/output"
)

const (
	defaultBufSize = 64 * 1024
	keepRotated    = 10
)

// Option configures a file Output.
type Option func(*Output)

// WithMaxSize rotates the file once it would exceed n bytes. Zero disables rotation.
func WithMaxSize(n int64) Option {
	return func(o *Output) { o.maxSize = n }
}

// WithBufSize sets the write buffer size. Default: 64KB.
func WithBufSize(n int) Option {
	return func(o *Output) { o.bufSize = n }
}

// WithSync fsyncs the file on every Flush, rotation and Close.
func WithSync() Option {
	return func(o *Output) { o.sync = true }
}

// Output is an append-only NDJSON audit log of assessments. Records can carry
// health data, so files are created owner-only. Rotated files are named
// path.1 (newest) through path.10.
type Output struct {
	mu      sync.Mutex
	path    string
	detail  output.Detail
	f       *os.File
	w       *bufio.Writer
	written int64
	maxSize int64
	bufSize int
	sync    bool
}

// New opens path for appending, creating it if needed.
func New(path string, detail output.Detail, opts ...Option) (*Output, error) {
	o := &Output{path: path, detail: detail, bufSize: defaultBufSize}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.open(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Output) Write(_ context.Context, r model.PredictionResult) error {
	line, err := json.Marshal(output.NewRecord(r, o.detail))
	if err != nil {
		return fmt.Errorf("file output: marshal: %w", err)
	}
	line = append(line, '\n')

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.maxSize > 0 && o.written > 0 && o.written+int64(len(line)) > o.maxSize {
		if err := o.rotate(); err != nil {
			return fmt.Errorf("file output: rotate: %w", err)
		}
	}
	n, err := o.w.Write(line)
	o.written += int64(n)
	if err != nil {
		return fmt.Errorf("file output: write: %w", err)
	}
	return nil
}

// Flush pushes buffered records to the file.
func (o *Output) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.flushLocked(); err != nil {
		return fmt.Errorf("file output: flush: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.flushLocked(); err != nil {
		o.f.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	return o.f.Close()
}

func (o *Output) flushLocked() error {
	if err := o.w.Flush(); err != nil {
		return err
	}
	if o.sync {
		return o.f.Sync()
	}
	return nil
}

func (o *Output) open() error {
	if err := os.MkdirAll(filepath.Dir(o.path), 0o750); err != nil {
		return fmt.Errorf("file output: %w", err)
	}
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("file output: open %s: %w", o.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("file output: stat %s: %w", o.path, err)
	}
	size := info.Size()
	if size > 0 {
		n, err := terminateLine(f, size)
		if err != nil {
			f.Close()
			return fmt.Errorf("file output: repair %s: %w", o.path, err)
		}
		size += n
	}
	o.f = f
	o.w = bufio.NewWriterSize(f, o.bufSize)
	o.written = size
	return nil
}

// terminateLine appends a newline when the file does not end in one, so a
// record torn by a crash never merges with the next. It returns the bytes
// written.
func terminateLine(f *os.File, size int64) (int64, error) {
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil && err != io.EOF {
		return 0, err
	}
	if last[0] == '\n' {
		return 0, nil
	}
	n, err := f.Write([]byte{'\n'})
	return int64(n), err
}

// rotate shifts path.N to path.N+1, moves the live file to path.1 and
// reopens. Caller holds o.mu.
func (o *Output) rotate() error {
	if err := o.flushLocked(); err != nil {
		return err
	}
	if err := o.f.Close(); err != nil {
		return err
	}
	for i := keepRotated - 1; i >= 1; i-- {
		// Missing generations are expected.
		_ = os.Rename(fmt.Sprintf("%s.%d", o.path, i), fmt.Sprintf("%s.%d", o.path, i+1))
	}
	if err := os.Rename(o.path, o.path+".1"); err != nil {
		return err
	}
	return o.open()
}

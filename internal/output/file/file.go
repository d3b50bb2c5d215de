// Package file writes results as NDJSON into segment files.
//
// The active segment lives at the configured path. Once it would outgrow
// the size limit it is sealed under {path}.{first}-{last}, where first and
// last are the lowest and highest result sequence numbers it holds, and a
// fresh segment is started. Workers finish out of order, so the ranges of
// adjacent segments may overlap.
package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/crimson-sun/timber/internal/model"
	"github.com/crimson-sun/timber/internal/output"
)

const defaultBufSize = 64 * 1024

// Option configures a file Output.
type Option func(*Output)

// WithMaxSize sets the segment size in bytes at which the segment is
// sealed. 0 (default) keeps a single segment.
func WithMaxSize(bytes int64) Option {
	return func(o *Output) { o.maxSize = bytes }
}

// WithBufSize sets the write buffer size. Default: 64KB.
func WithBufSize(bytes int) Option {
	return func(o *Output) { o.bufSize = bytes }
}

// WithMirror copies every record to w as it is written, pretty-printed when
// pretty is set. Used to tee results to stdout.
func WithMirror(w io.Writer, pretty bool) Option {
	return func(o *Output) {
		o.mirror = w
		o.mirrorPretty = pretty
	}
}

// segment tracks what the active file holds.
type segment struct {
	size        int64
	records     int
	first, last int
}

func (s *segment) add(seq int, n int) {
	if s.records == 0 || seq < s.first {
		s.first = seq
	}
	if s.records == 0 || seq > s.last {
		s.last = seq
	}
	s.records++
	s.size += int64(n)
}

// Output writes results to the active segment. Safe for concurrent use.
type Output struct {
	mu           sync.Mutex
	path         string
	verbosity    output.Verbosity
	maxSize      int64
	bufSize      int
	mirror       io.Writer
	mirrorPretty bool

	f   *os.File
	w   *bufio.Writer
	seg segment
}

// New truncates or creates the file at path and makes it the active
// segment.
func New(path string, verbosity output.Verbosity, opts ...Option) (*Output, error) {
	o := &Output{
		path:      path,
		verbosity: verbosity,
		bufSize:   defaultBufSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.open(); err != nil {
		return nil, err
	}
	return o, nil
}

// Write appends result as one line, sealing the active segment first when
// the line would push a non-empty segment past the size limit.
func (o *Output) Write(_ context.Context, result model.Result) error {
	line, err := output.EncodeLine(result, o.verbosity, false)
	if err != nil {
		return fmt.Errorf("file output: encode: %w", err)
	}
	mirrored := line
	if o.mirror != nil && o.mirrorPretty {
		if mirrored, err = output.EncodeLine(result, o.verbosity, true); err != nil {
			return fmt.Errorf("file output: encode: %w", err)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.maxSize > 0 && o.seg.records > 0 && o.seg.size+int64(len(line)) > o.maxSize {
		if err := o.seal(); err != nil {
			return fmt.Errorf("file output: seal segment: %w", err)
		}
	}
	if _, err := o.w.Write(line); err != nil {
		return fmt.Errorf("file output: write: %w", err)
	}
	o.seg.add(result.Seq, len(line))

	if o.mirror != nil {
		if _, err := o.mirror.Write(mirrored); err != nil {
			return fmt.Errorf("file output: mirror: %w", err)
		}
	}
	return nil
}

// Close flushes the active segment and closes it. The active segment keeps
// its plain path.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.w.Flush(); err != nil {
		o.f.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	return o.f.Close()
}

func (o *Output) open() error {
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("file output: open %s: %w", o.path, err)
	}
	o.f = f
	o.w = bufio.NewWriterSize(f, o.bufSize)
	o.seg = segment{}
	return nil
}

// seal moves the active segment to its sequence-range name and opens a new
// one at path.
func (o *Output) seal() error {
	if err := o.w.Flush(); err != nil {
		return err
	}
	if err := o.f.Close(); err != nil {
		return err
	}
	if err := os.Rename(o.path, o.sealedName()); err != nil {
		return err
	}
	return o.open()
}

// sealedName returns the first unused name for the active segment. Reruns
// into the same directory get a numeric suffix instead of clobbering.
func (o *Output) sealedName() string {
	name := fmt.Sprintf("%s.%08d-%08d", o.path, o.seg.first, o.seg.last)
	candidate := name
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s.%d", name, i)
	}
}

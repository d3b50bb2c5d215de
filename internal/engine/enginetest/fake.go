// Package enginetest provides an in-memory engine.Experiment for tests.
package enginetest

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/crimson-sun/timber/internal/engine"
)

// Base is a fake base experiment. Clones share its counters and ClassifyFunc.
type Base struct {
	// ClassifyFunc handles Classify on clones. Defaults to a fixed "A" label.
	ClassifyFunc func(line string) (engine.Outcome, error)
	// CloneErr, when set, is returned by Clone.
	CloneErr error

	Clones     atomic.Int64
	Closes     atomic.Int64 // clone closes
	BaseCloses atomic.Int64

	mu      sync.Mutex
	trained bool
	closed  bool
}

// NewBase returns an untrained fake base.
func NewBase() *Base {
	return &Base{}
}

// Factory returns an engine.Factory that always yields b. Option strings
// containing "bad" are rejected.
func (b *Base) Factory() engine.Factory {
	return func(options, name string) (engine.Experiment, error) {
		if options == "bad" {
			return nil, errors.New("fake: bad options")
		}
		return b, nil
	}
}

// Train drains r without holding the base's lock, so a caller can observe
// what happens when other calls arrive mid-training.
func (b *Base) Train(r io.Reader) error {
	b.mu.Lock()
	trained := b.trained
	b.mu.Unlock()
	if trained {
		return engine.ErrAlreadyTrained
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	b.mu.Lock()
	b.trained = true
	b.mu.Unlock()
	return nil
}

func (b *Base) Classify(line string) (engine.Outcome, error) {
	return engine.Outcome{}, errors.New("fake: base experiment must not classify")
}

func (b *Base) Clone() (engine.Experiment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CloneErr != nil {
		return nil, b.CloneErr
	}
	if b.closed {
		return nil, engine.ErrClosed
	}
	n := b.Clones.Add(1)
	return &Clone{base: b, ID: n}, nil
}

func (b *Base) Options() string { return "-fake" }
func (b *Base) Settings() string { return "fake settings\n" }
func (b *Base) Weights() string { return "fake weights\n" }
func (b *Base) BestNeighbors() string { return "" }

func (b *Base) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.BaseCloses.Add(1)
	return nil
}

// Closed reports whether Close was called on the base.
func (b *Base) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Clone is a fake per-worker experiment.
type Clone struct {
	base *Base
	ID   int64 // sequence number of this clone, starting at 1

	Calls  int
	last   string
	closed atomic.Bool
}

func (c *Clone) Classify(line string) (engine.Outcome, error) {
	if c.closed.Load() {
		return engine.Outcome{}, engine.ErrClosed
	}
	c.Calls++
	c.last = line
	if f := c.base.ClassifyFunc; f != nil {
		return f(line)
	}
	return engine.Outcome{Label: "A"}, nil
}

func (c *Clone) Clone() (engine.Experiment, error) { return c.base.Clone() }
func (c *Clone) Options() string { return c.base.Options() }
func (c *Clone) Settings() string { return c.base.Settings() }
func (c *Clone) Weights() string { return c.base.Weights() }

func (c *Clone) BestNeighbors() string {
	if c.last == "" {
		return ""
	}
	return fmt.Sprintf("clone %d last classified %q\n", c.ID, c.last)
}

func (c *Clone) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.base.Closes.Add(1)
	}
	return nil
}

// IsClosed reports whether Close was called.
func (c *Clone) IsClosed() bool { return c.closed.Load() }

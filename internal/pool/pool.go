// Package pool keeps one private engine experiment per logical worker.
//
// Experiments are cloned lazily from a shared base on first use and owned by
// the pool entry for their worker until released. The pool mutex guards the
// map only: cloning, closing and classification all happen outside it, so
// workers classify in parallel and a reentrant Resolve cannot self-deadlock.
package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/crimson-sun/timber/internal/engine"
)

// ErrClosed is returned by Resolve after Close.
var ErrClosed = errors.New("pool: closed")

// ID identifies a logical worker. It is stable for the worker's lifetime.
type ID uuid.UUID

// NewID returns a fresh random worker ID.
func NewID() ID {
	return ID(uuid.New())
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

// Cloner produces worker experiments from the shared base.
type Cloner interface {
	Clone() (engine.Experiment, error)
}

// Observer is notified of entry creation and release.
type Observer interface {
	HandleCreated()
	HandleReleased(n int)
}

type nopObserver struct{}

func (nopObserver) HandleCreated() {}
func (nopObserver) HandleReleased(int) {}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// WithObserver sets the entry lifecycle observer.
func WithObserver(o Observer) Option {
	return func(p *Pool) { p.observer = o }
}

// Pool maps worker IDs to their private experiments.
type Pool struct {
	base     Cloner
	logger   *slog.Logger
	observer Observer

	mu      sync.Mutex
	entries map[ID]engine.Experiment
	closed  bool
}

// New creates an empty pool cloning from base.
func New(base Cloner, opts ...Option) *Pool {
	p := &Pool{
		base:     base,
		logger:   slog.Default(),
		observer: nopObserver{},
		entries:  make(map[ID]engine.Experiment),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve returns the experiment owned by id, cloning and inserting one on
// first use. Distinct IDs never share an experiment; repeated calls with the
// same ID return the same one.
func (p *Pool) Resolve(id ID) (engine.Experiment, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if exp, ok := p.entries[id]; ok {
		p.mu.Unlock()
		return exp, nil
	}
	p.mu.Unlock()

	exp, err := p.base.Clone()
	if err != nil {
		return nil, fmt.Errorf("pool: clone for worker %s: %w", id, err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		exp.Close()
		return nil, ErrClosed
	}
	if existing, ok := p.entries[id]; ok {
		// Lost a race against another Resolve for the same worker.
		p.mu.Unlock()
		exp.Close()
		return existing, nil
	}
	p.entries[id] = exp
	size := len(p.entries)
	p.mu.Unlock()

	p.observer.HandleCreated()
	p.logger.Debug("pool: experiment created", "worker", id.String(), "size", size)
	return exp, nil
}

// Lookup returns the experiment owned by id without creating one.
func (p *Pool) Lookup(id ID) (engine.Experiment, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	exp, ok := p.entries[id]
	return exp, ok
}

// Release removes and closes the experiment owned by id. Releasing an
// unknown or already released ID is a no-op.
func (p *Pool) Release(id ID) error {
	p.mu.Lock()
	exp, ok := p.entries[id]
	delete(p.entries, id)
	size := len(p.entries)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	p.observer.HandleReleased(1)
	p.logger.Debug("pool: experiment released", "worker", id.String(), "size", size)
	if err := exp.Close(); err != nil {
		return fmt.Errorf("pool: close experiment for worker %s: %w", id, err)
	}
	return nil
}

// Drain releases every entry and returns how many there were. The pool stays
// usable afterwards.
func (p *Pool) Drain() (int, error) {
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[ID]engine.Experiment)
	p.mu.Unlock()

	var errs []error
	for id, exp := range entries {
		if err := exp.Close(); err != nil {
			errs = append(errs, fmt.Errorf("pool: close experiment for worker %s: %w", id, err))
		}
	}
	if len(entries) > 0 {
		p.observer.HandleReleased(len(entries))
	}
	return len(entries), errors.Join(errs...)
}

// Close drains the pool and rejects further Resolve calls.
func (p *Pool) Close() (int, error) {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.Drain()
}

// Len returns the number of live entries.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Has reports whether id currently owns an experiment.
func (p *Pool) Has(id ID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[id]
	return ok
}

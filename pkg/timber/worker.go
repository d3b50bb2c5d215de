package timber

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/crimson-sun/timber/internal/engine"
	"github.com/crimson-sun/timber/internal/format"
	"github.com/crimson-sun/timber/internal/pool"
)

// Worker is one classification context. It owns a private experiment in the
// classifier's pool from its first classification until Close. A Worker is
// not safe for concurrent use; give each goroutine its own.
type Worker struct {
	c  *Classifier
	id pool.ID
}

// ID returns the worker's pool identity.
func (w *Worker) ID() string { return w.id.String() }

// Classify returns the predicted label for line.
func (w *Worker) Classify(line string) (string, error) {
	start := time.Now()
	out, err := w.classify(line)
	w.c.observe("classify", err, start)
	if err != nil {
		return "", err
	}
	return out.Label, nil
}

// Classify2 returns the predicted label and the raw class distribution.
func (w *Worker) Classify2(line string) (string, Distribution, error) {
	start := time.Now()
	out, err := w.classify(line)
	w.c.observe("classify2", err, start)
	if err != nil {
		return "", nil, err
	}
	return out.Label, out.Distribution, nil
}

// Classify3 returns the formatted result for line, normalized when
// normalize is set.
//
// requiredDepth is read as a minimum match depth: when it is positive and
// the nearest neighbor matches fewer features than that, the call fails with
// ErrInsufficientDepth instead of filtering or padding the neighbor set to
// that depth. Zero or a negative value disables the check.
func (w *Worker) Classify3(line string, normalize bool, requiredDepth int) (Result, error) {
	start := time.Now()
	res, err := w.classify3(line, normalize, requiredDepth)
	w.c.observe("classify3", err, start)
	return res, err
}

// Classify3Safe behaves like Classify3, but after an engine failure it
// replaces the worker's experiment so the next call starts from a clean
// handle.
func (w *Worker) Classify3Safe(line string, normalize bool, requiredDepth int) (Result, error) {
	start := time.Now()
	res, err := w.classify3(line, normalize, requiredDepth)
	w.c.observe("classify3safe", err, start)
	if err != nil && errors.Is(err, ErrEngine) && !errors.Is(err, ErrInsufficientDepth) {
		w.replace(err)
	}
	return res, err
}

func (w *Worker) classify3(line string, normalize bool, requiredDepth int) (Result, error) {
	out, err := w.classify(line)
	if err != nil {
		return Result{}, err
	}
	if requiredDepth > 0 && out.Depth < requiredDepth {
		return Result{}, fmt.Errorf("%w: %w: depth %d, required %d",
			ErrEngine, ErrInsufficientDepth, out.Depth, requiredDepth)
	}
	return Result{
		Label:        out.Label,
		Distribution: format.Format(out.Distribution, normalize, w.c.threshold, out.Label),
		Confidence:   format.Confidence(out.Distribution, out.Label),
		Entropy:      format.Entropy(out.Distribution),
		Distance:     out.Distance,
		Depth:        out.Depth,
	}, nil
}

// classify checks readiness, resolves the worker's experiment and runs one
// classification on it.
func (w *Worker) classify(line string) (engine.Outcome, error) {
	w.c.inflight.RLock()
	defer w.c.inflight.RUnlock()

	if err := w.c.ready(); err != nil {
		return engine.Outcome{}, err
	}
	exp, err := w.c.pool.Resolve(w.id)
	if err != nil {
		if errors.Is(err, pool.ErrClosed) {
			return engine.Outcome{}, fmt.Errorf("%w: %w", ErrNotReady, ErrClosed)
		}
		return engine.Outcome{}, fmt.Errorf("%w: %w", ErrEngine, err)
	}
	out, err := exp.Classify(line)
	if err != nil {
		return engine.Outcome{}, fmt.Errorf("%w: %w", ErrEngine, err)
	}
	return out, nil
}

// replace swaps the worker's experiment for a fresh clone.
func (w *Worker) replace(cause error) {
	var err error
	withoutHost(w.c.host, func() {
		err = w.c.pool.Release(w.id)
	})
	if err == nil {
		_, err = w.c.pool.Resolve(w.id)
	}
	if err != nil {
		w.c.logger.Warn("experiment recovery failed", "worker", w.ID(), "cause", cause, "error", err)
		return
	}
	if w.c.metrics != nil {
		w.c.metrics.HandleRecovered()
	}
	w.c.logger.Info("experiment replaced after engine error", "worker", w.ID(), "cause", cause)
}

// BestNeighbors reports the neighbor set of the worker's most recent
// classification. It is empty before the first one.
func (w *Worker) BestNeighbors() string {
	exp, ok := w.c.pool.Lookup(w.id)
	if !ok {
		return ""
	}
	return exp.BestNeighbors()
}

// ShowBestNeighbors writes BestNeighbors to out.
func (w *Worker) ShowBestNeighbors(out io.Writer) error {
	return show(out, w.BestNeighbors())
}

// Close releases the worker's experiment. Other workers are unaffected.
// The worker may classify again afterwards with a fresh experiment.
func (w *Worker) Close() error {
	var err error
	withoutHost(w.c.host, func() {
		err = w.c.pool.Release(w.id)
	})
	return err
}

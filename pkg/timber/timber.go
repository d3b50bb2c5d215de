package timber

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crimson-sun/timber/internal/engine"
	"github.com/crimson-sun/timber/internal/logging"
	"github.com/crimson-sun/timber/internal/metrics"
	"github.com/crimson-sun/timber/internal/pool"
)

// Classifier wraps one trained base experiment and a pool of per-worker
// clones. Safe for concurrent use.
type Classifier struct {
	name      string
	base      engine.Experiment
	pool      *pool.Pool
	state     atomic.Int32
	logger    *slog.Logger
	metrics   *metrics.Metrics
	host      HostLock
	threshold float64

	trainMu  sync.Mutex   // serializes training with base teardown
	inflight sync.RWMutex // read-held by classifications, write-held by Close while draining

	sharedMu sync.Mutex
	shared   *Worker
}

// New creates a Classifier whose base experiment is configured from the
// engine option string. The classifier must be trained before it
// classifies. Malformed options fail with ErrConfig.
func New(engineOptions string, opts ...Option) (*Classifier, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.threshold < 0 || o.threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %v outside [0, 1]", ErrConfig, o.threshold)
	}

	c := &Classifier{
		name:      o.name,
		logger:    logging.Component(o.logger, "timber"),
		metrics:   o.metrics,
		host:      o.host,
		threshold: o.threshold,
	}
	c.state.Store(int32(StateConstructed))

	base, err := o.factory(engineOptions, o.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	c.base = base

	popts := []pool.Option{pool.WithLogger(logging.Component(o.logger, "pool"))}
	if o.metrics != nil {
		popts = append(popts, pool.WithObserver(o.metrics))
	}
	c.pool = pool.New(base, popts...)
	c.state.Store(int32(StateConfigured))
	return c, nil
}

// Name returns the experiment name given with WithName.
func (c *Classifier) Name() string { return c.name }

// State returns the current lifecycle state.
func (c *Classifier) State() State {
	return State(c.state.Load())
}

// Train builds the base experiment's instance base from labeled records and
// makes the classifier ready. It can succeed only once.
func (c *Classifier) Train(r io.Reader) error {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	switch s := c.State(); s {
	case StateConfigured:
	case StateClosed:
		return fmt.Errorf("%w: %w", ErrNotReady, ErrClosed)
	default:
		return fmt.Errorf("%w: cannot train in state %s", ErrConfig, s)
	}

	tr, ok := c.base.(engine.Trainer)
	if !ok {
		return fmt.Errorf("%w: engine does not support training", ErrConfig)
	}
	start := time.Now()
	if err := tr.Train(r); err != nil {
		return fmt.Errorf("%w: %w", ErrEngine, err)
	}
	if !c.state.CompareAndSwap(int32(StateConfigured), int32(StateReady)) {
		return fmt.Errorf("%w: %w", ErrNotReady, ErrClosed)
	}
	c.logger.Info("trained", "name", c.name, "elapsed", time.Since(start))
	return nil
}

// TrainFile trains from the records in the file at path.
func (c *Classifier) TrainFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()
	return c.Train(f)
}

// MarkReady declares a base experiment that arrived trained from its
// factory ready for classification.
func (c *Classifier) MarkReady() error {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()
	if !c.state.CompareAndSwap(int32(StateConfigured), int32(StateReady)) {
		return fmt.Errorf("%w: cannot mark ready in state %s", ErrConfig, c.State())
	}
	return nil
}

// NewWorker returns a worker context with its own pool identity. The worker
// gets a private experiment on its first classification.
func (c *Classifier) NewWorker() *Worker {
	return &Worker{c: c, id: pool.NewID()}
}

// Workers returns the number of workers currently holding an experiment.
func (c *Classifier) Workers() int {
	return c.pool.Len()
}

// Close waits for in-flight classifications, drains every worker
// experiment, then closes the base once any running Train has returned.
// Later calls on any worker fail with ErrNotReady. Close is idempotent.
func (c *Classifier) Close() error {
	if State(c.state.Swap(int32(StateClosed))) == StateClosed {
		return nil
	}

	var (
		n                int
		poolErr, baseErr error
	)
	withoutHost(c.host, func() {
		c.inflight.Lock()
		n, poolErr = c.pool.Close()
		c.inflight.Unlock()

		c.trainMu.Lock()
		baseErr = c.base.Close()
		c.trainMu.Unlock()
	})
	if n > 0 {
		c.logger.Info("drained worker experiments", "count", n)
	}

	return errors.Join(poolErr, baseErr)
}

// Options returns the base experiment's effective option string.
func (c *Classifier) Options() string { return c.base.Options() }

// Settings describes the base experiment's configuration.
func (c *Classifier) Settings() string { return c.base.Settings() }

// Weights lists the base experiment's feature weights.
func (c *Classifier) Weights() string { return c.base.Weights() }

// ShowOptions writes Options to w.
func (c *Classifier) ShowOptions(w io.Writer) error { return show(w, c.Options()) }

// ShowSettings writes Settings to w.
func (c *Classifier) ShowSettings(w io.Writer) error { return show(w, c.Settings()) }

// ShowWeights writes Weights to w.
func (c *Classifier) ShowWeights(w io.Writer) error { return show(w, c.Weights()) }

func show(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// Classify classifies line on the classifier's shared worker.
func (c *Classifier) Classify(line string) (string, error) {
	w := c.sharedWorker()
	defer c.sharedMu.Unlock()
	return w.Classify(line)
}

// Classify2 classifies line on the classifier's shared worker.
func (c *Classifier) Classify2(line string) (string, Distribution, error) {
	w := c.sharedWorker()
	defer c.sharedMu.Unlock()
	return w.Classify2(line)
}

// Classify3 classifies line on the classifier's shared worker. See
// Worker.Classify3 for how requiredDepth is applied.
func (c *Classifier) Classify3(line string, normalize bool, requiredDepth int) (Result, error) {
	w := c.sharedWorker()
	defer c.sharedMu.Unlock()
	return w.Classify3(line, normalize, requiredDepth)
}

// Classify3Safe classifies line on the classifier's shared worker.
func (c *Classifier) Classify3Safe(line string, normalize bool, requiredDepth int) (Result, error) {
	w := c.sharedWorker()
	defer c.sharedMu.Unlock()
	return w.Classify3Safe(line, normalize, requiredDepth)
}

// BestNeighbors reports the shared worker's most recent neighbor set.
func (c *Classifier) BestNeighbors() string {
	w := c.sharedWorker()
	defer c.sharedMu.Unlock()
	return w.BestNeighbors()
}

// sharedWorker locks sharedMu and returns the shared worker. The caller
// unlocks.
func (c *Classifier) sharedWorker() *Worker {
	c.sharedMu.Lock()
	if c.shared == nil {
		c.shared = c.NewWorker()
	}
	return c.shared
}

// observe records one classification call.
func (c *Classifier) observe(variant string, err error, start time.Time) {
	if c.metrics == nil {
		return
	}
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrNotReady):
		outcome = metrics.OutcomeNotReady
	default:
		outcome = metrics.OutcomeEngine
	}
	c.metrics.ObserveClassify(variant, outcome, time.Since(start))
}

func (c *Classifier) ready() error {
	switch s := c.State(); s {
	case StateReady:
		return nil
	case StateClosed:
		return fmt.Errorf("%w: %w", ErrNotReady, ErrClosed)
	default:
		return fmt.Errorf("%w: state %s", ErrNotReady, s)
	}
}

package timber

import (
	"log/slog"

	"github.com/crimson-sun/timber/internal/engine"
	"github.com/crimson-sun/timber/internal/engine/ib1"
	"github.com/crimson-sun/timber/internal/metrics"
)

type options struct {
	name      string
	factory   engine.Factory
	logger    *slog.Logger
	metrics   *metrics.Metrics
	host      HostLock
	threshold float64
}

// Option configures a Classifier.
type Option func(*options)

// WithName sets the experiment name reported in the settings.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithEngine replaces the built-in IB1 engine.
func WithEngine(f EngineFactory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics records pool and classification metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithHostLock sets the host runtime lock released around blocking
// teardown. Default: none.
func WithHostLock(h HostLock) Option {
	return func(o *options) {
		o.host = h
	}
}

// WithThreshold sets the share below which Classify3 drops classes from
// the formatted distribution. The predicted label is always kept.
// Default: 0 (keep all).
func WithThreshold(t float64) Option {
	return func(o *options) {
		o.threshold = t
	}
}

func defaultOptions() options {
	return options{
		factory: ib1.NewFactory(),
		logger:  slog.Default(),
		host:    noHostLock{},
	}
}

// Package metrics exposes Prometheus collectors for the experiment pool and
// the classification entry points.
//
// Metrics:
//   - <ns>_pool_experiments: live worker experiments
//   - <ns>_pool_experiments_created_total: experiments cloned from the base
//   - <ns>_pool_experiments_released_total: experiments released or drained
//   - <ns>_classifications_total: classification calls by variant and outcome
//   - <ns>_classify_duration_seconds: classification latency by variant
//   - <ns>_handle_recoveries_total: experiments recreated after an engine failure
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "timber"

// Outcome labels for classification calls.
const (
	OutcomeOK       = "ok"
	OutcomeNotReady = "not_ready"
	OutcomeEngine   = "engine_error"
)

// Metrics holds the registered collectors. It implements pool.Observer.
type Metrics struct {
	registry *prometheus.Registry

	poolSize   prometheus.Gauge
	created    prometheus.Counter
	released   prometheus.Counter
	classify   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	recoveries prometheus.Counter
}

// New creates the collectors and registers them with a fresh registry.
// An empty namespace uses DefaultNamespace.
func New(namespace string) *Metrics {
	return NewWithRegistry(namespace, prometheus.NewRegistry())
}

// NewWithRegistry creates the collectors and registers them with registry.
func NewWithRegistry(namespace string, registry *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	m := &Metrics{
		registry: registry,
		poolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "experiments",
			Help:      "Number of live worker experiments",
		}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "experiments_created_total",
			Help:      "Total number of worker experiments cloned from the base",
		}),
		released: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "experiments_released_total",
			Help:      "Total number of worker experiments released",
		}),
		classify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Total number of classification calls by variant and outcome",
		}, []string{"variant", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Classification call latency in seconds",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"variant"}),
		recoveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handle_recoveries_total",
			Help:      "Total number of worker experiments recreated after an engine failure",
		}),
	}

	registry.MustRegister(
		m.poolSize,
		m.created,
		m.released,
		m.classify,
		m.duration,
		m.recoveries,
	)
	return m
}

// HandleCreated records a new worker experiment.
func (m *Metrics) HandleCreated() {
	m.created.Inc()
	m.poolSize.Inc()
}

// HandleReleased records n released worker experiments.
func (m *Metrics) HandleReleased(n int) {
	m.released.Add(float64(n))
	m.poolSize.Sub(float64(n))
}

// ObserveClassify records one classification call.
func (m *Metrics) ObserveClassify(variant, outcome string, elapsed time.Duration) {
	m.classify.WithLabelValues(variant, outcome).Inc()
	if outcome == OutcomeOK {
		m.duration.WithLabelValues(variant).Observe(elapsed.Seconds())
	}
}

// HandleRecovered records a worker experiment recreated after a failure.
func (m *Metrics) HandleRecovered() {
	m.recoveries.Inc()
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

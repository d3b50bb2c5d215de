package timber

import (
	"github.com/crimson-sun/timber/internal/engine"
	"github.com/crimson-sun/timber/internal/metrics"
	"github.com/crimson-sun/timber/internal/model"
)

// Engine contract re-exported for custom engines.
type (
	Experiment    = engine.Experiment
	Trainer       = engine.Trainer
	EngineFactory = engine.Factory
	Outcome       = engine.Outcome
)

// Distribution is the ordered class distribution of one classification.
type (
	Distribution = model.Distribution
	ClassWeight  = model.ClassWeight
)

// Metrics is the Prometheus collector set accepted by WithMetrics.
type Metrics = metrics.Metrics

// NewMetrics creates collectors in a fresh registry. An empty namespace
// uses "timber".
func NewMetrics(namespace string) *Metrics {
	return metrics.New(namespace)
}

// Result is the formatted outcome of Classify3 and Classify3Safe.
// This is the stable public type; internal representations may evolve
// independently.
type Result struct {
	Label        string             `json:"label"`
	Distribution map[string]float64 `json:"distribution"`
	Confidence   float64            `json:"confidence"`        // normalized weight of Label
	Entropy      float64            `json:"entropy,omitempty"` // bits, over the normalized distribution
	Distance     float64            `json:"distance"`          // distance to the nearest neighbors
	Depth        int                `json:"depth"`             // features the nearest neighbor matched exactly
}

// State is the lifecycle state of a Classifier.
type State int32

const (
	StateConstructed State = iota
	StateConfigured
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateConfigured:
		return "configured"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

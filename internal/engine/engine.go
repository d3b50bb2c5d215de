// Package engine defines the contract between the classification facade and
// a memory-based classifier engine.
//
// An Experiment is single-threaded: it carries per-call scratch state (the
// last neighbor set, match depth) that classification mutates. Concurrency
// comes from cloning, never from sharing one Experiment between goroutines.
package engine

import (
	"errors"
	"io"

	"github.com/crimson-sun/timber/internal/model"
)

var (
	// ErrBadInput is returned when a line does not match the expected
	// instance format.
	ErrBadInput = errors.New("malformed instance")

	// ErrNotTrained is returned when classifying before an instance base
	// has been loaded.
	ErrNotTrained = errors.New("experiment not trained")

	// ErrAlreadyTrained is returned by Train on a trained experiment.
	ErrAlreadyTrained = errors.New("experiment already trained")

	// ErrClosed is returned by any call on a closed experiment.
	ErrClosed = errors.New("experiment closed")
)

// Outcome is the raw result of one classification call.
type Outcome struct {
	Label        string
	Distribution model.Distribution
	Distance     float64 // distance to the nearest neighbor
	Depth        int     // number of features the nearest neighbor matched exactly
}

// Experiment is one classifier handle.
type Experiment interface {
	// Classify classifies one unparsed instance line.
	Classify(line string) (Outcome, error)

	// Clone returns a new Experiment sharing this one's trained model but
	// owning its own scratch state.
	Clone() (Experiment, error)

	Options() string
	Settings() string
	Weights() string

	// BestNeighbors reports the neighbor set of the most recent Classify
	// call on this handle.
	BestNeighbors() string

	// Close releases the handle. The shared model is not affected.
	Close() error
}

// Trainer is implemented by experiments that build their instance base
// from a stream of labeled records.
type Trainer interface {
	Train(r io.Reader) error
}

// Factory constructs a configured, untrained base experiment from an option
// string and an optional name.
type Factory func(options, name string) (Experiment, error)

// Package ib1 is a memory-based nearest-neighbor classifier engine.
//
// Training stores every distinct feature vector of the training data with
// its class counts. Classification finds the k nearest distinct distances
// under a weighted overlap metric and lets the neighbors at those distances
// vote on the class.
package ib1

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/crimson-sun/timber/internal/engine"
	"github.com/crimson-sun/timber/internal/model"
)

const votingEpsilon = 1e-6

// Experiment is one IB1 classifier handle. A base experiment is created by
// New and trained once; clones share its instance base and own their
// scratch state. An Experiment must not be used by two goroutines at once.
type Experiment struct {
	name   string
	opts   Options
	base   *instanceBase // nil until trained, read-only afterwards
	closed atomic.Bool

	// Scratch state of the most recent Classify call.
	lastQuery   []string
	lastBuckets []bucket
}

type bucket struct {
	distance float64
	members  []*instance
}

// New creates an untrained base experiment from an option string.
func New(options, name string) (*Experiment, error) {
	opts, err := ParseOptions(options)
	if err != nil {
		return nil, fmt.Errorf("ib1: %w", err)
	}
	return &Experiment{name: name, opts: opts}, nil
}

// NewFactory adapts New to engine.Factory.
func NewFactory() engine.Factory {
	return func(options, name string) (engine.Experiment, error) {
		exp, err := New(options, name)
		if err != nil {
			return nil, err
		}
		return exp, nil
	}
}

// Name returns the experiment name given at construction.
func (e *Experiment) Name() string { return e.name }

// Train builds the instance base from labeled records.
func (e *Experiment) Train(r io.Reader) error {
	if e.closed.Load() {
		return fmt.Errorf("ib1: train: %w", engine.ErrClosed)
	}
	if e.base != nil {
		return fmt.Errorf("ib1: train: %w", engine.ErrAlreadyTrained)
	}
	b, err := buildBase(r, e.opts)
	if err != nil {
		return fmt.Errorf("ib1: train: %w", err)
	}
	e.base = b
	return nil
}

// Clone returns an experiment sharing the trained instance base.
func (e *Experiment) Clone() (engine.Experiment, error) {
	if e.closed.Load() {
		return nil, fmt.Errorf("ib1: clone: %w", engine.ErrClosed)
	}
	if e.base == nil {
		return nil, fmt.Errorf("ib1: clone: %w", engine.ErrNotTrained)
	}
	return &Experiment{name: e.name, opts: e.opts, base: e.base}, nil
}

// Classify classifies one instance line. The line carries the features and
// optionally a trailing class field, which is ignored.
func (e *Experiment) Classify(line string) (engine.Outcome, error) {
	if e.closed.Load() {
		return engine.Outcome{}, fmt.Errorf("ib1: classify: %w", engine.ErrClosed)
	}
	b := e.base
	if b == nil {
		return engine.Outcome{}, fmt.Errorf("ib1: classify: %w", engine.ErrNotTrained)
	}

	feats := splitFields(line, e.opts.Format)
	switch len(feats) {
	case b.nFeatures:
	case b.nFeatures + 1:
		feats = feats[:b.nFeatures]
	default:
		return engine.Outcome{}, fmt.Errorf("ib1: classify: got %d fields, want %d: %w",
			len(feats), b.nFeatures, engine.ErrBadInput)
	}

	buckets := b.nearest(feats, e.opts.K)
	e.lastQuery = feats
	e.lastBuckets = buckets

	votes := make([]float64, len(b.classes))
	for _, bk := range buckets {
		scale := 1.0
		if e.opts.Voting == InverseDistance {
			scale = 1 / (bk.distance + votingEpsilon)
		}
		for _, inst := range bk.members {
			for c, n := range inst.counts {
				votes[c] += n * scale
			}
		}
	}

	best := -1
	var dist model.Distribution
	for c, w := range votes {
		if w == 0 {
			continue
		}
		dist = append(dist, model.ClassWeight{Class: b.classes[c], Weight: w})
		if best < 0 || w > votes[best] || (w == votes[best] && b.classFreq[c] > b.classFreq[best]) {
			best = c
		}
	}

	depth := 0
	for _, inst := range buckets[0].members {
		if m := matching(inst.features, feats); m > depth {
			depth = m
		}
	}

	return engine.Outcome{
		Label:        b.classes[best],
		Distribution: dist,
		Distance:     buckets[0].distance,
		Depth:        depth,
	}, nil
}

// nearest returns up to k buckets of instances, one per distinct distance,
// closest first.
func (b *instanceBase) nearest(feats []string, k int) []bucket {
	buckets := make([]bucket, 0, k+1)
	for _, inst := range b.instances {
		d := b.distance(inst.features, feats)
		i := sort.Search(len(buckets), func(i int) bool { return buckets[i].distance >= d })
		if i < len(buckets) && buckets[i].distance == d {
			buckets[i].members = append(buckets[i].members, inst)
			continue
		}
		if i >= k {
			continue
		}
		buckets = append(buckets, bucket{})
		copy(buckets[i+1:], buckets[i:])
		buckets[i] = bucket{distance: d, members: []*instance{inst}}
		if len(buckets) > k {
			buckets = buckets[:k]
		}
	}
	return buckets
}

// distance is the weighted overlap metric.
func (b *instanceBase) distance(a, q []string) float64 {
	var d float64
	for i := range a {
		if a[i] != q[i] {
			d += b.weights[i]
		}
	}
	return d
}

func matching(a, q []string) int {
	n := 0
	for i := range a {
		if a[i] == q[i] {
			n++
		}
	}
	return n
}

// Options renders the effective option string.
func (e *Experiment) Options() string {
	return e.opts.String()
}

// Settings describes the configuration and the size of the instance base.
func (e *Experiment) Settings() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "name: %s\n", e.name)
	fmt.Fprintf(&sb, "algorithm: IB1\n")
	fmt.Fprintf(&sb, "neighbors (-k): %d\n", e.opts.K)
	fmt.Fprintf(&sb, "weighting (-w): %s\n", e.opts.Weighting)
	fmt.Fprintf(&sb, "voting (-d): %s\n", e.opts.Voting.code())
	fmt.Fprintf(&sb, "input format (-F): %s\n", e.opts.Format.code())
	if b := e.base; b != nil {
		fmt.Fprintf(&sb, "instances: %d (%d records)\n", len(b.instances), b.nRecords)
		fmt.Fprintf(&sb, "features: %d\n", b.nFeatures)
		fmt.Fprintf(&sb, "classes: %s\n", strings.Join(b.classes, " "))
	} else {
		fmt.Fprintf(&sb, "instances: 0\n")
	}
	return sb.String()
}

// Weights lists the feature weights, one per line.
func (e *Experiment) Weights() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Feature weights (%s):\n", e.opts.Weighting)
	if b := e.base; b != nil {
		for i, w := range b.weights {
			fmt.Fprintf(&sb, "Feature %d\t%.6f\n", i+1, w)
		}
	}
	return sb.String()
}

// BestNeighbors reports the neighbor buckets of the most recent Classify
// call. It is empty before the first call.
func (e *Experiment) BestNeighbors() string {
	if e.lastBuckets == nil {
		return ""
	}
	classes := e.base.classes

	var sb strings.Builder
	fmt.Fprintf(&sb, "# query: %s\n", strings.Join(e.lastQuery, " "))
	for i, bk := range e.lastBuckets {
		fmt.Fprintf(&sb, "# k=%d, %d neighbor(s) at distance %.6f\n", i+1, len(bk.members), bk.distance)
		for _, inst := range bk.members {
			var counts []string
			for c, n := range inst.counts {
				if n > 0 {
					counts = append(counts, fmt.Sprintf("%s %g", classes[c], n))
				}
			}
			fmt.Fprintf(&sb, "#\t%s\t{ %s }\n", strings.Join(inst.features, " "), strings.Join(counts, ", "))
		}
	}
	return sb.String()
}

// Close marks the experiment closed. Clones are unaffected.
func (e *Experiment) Close() error {
	e.closed.Store(true)
	return nil
}

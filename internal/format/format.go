// Package format shapes raw engine distributions into caller-facing results.
//
// All functions are pure and deterministic: weights are accumulated in
// distribution order, so identical inputs yield bit-identical outputs.
package format

import (
	"math"

	"github.com/crimson-sun/timber/internal/model"
)

// Normalize returns an ordered copy of dist whose weights sum to 1.
// An empty distribution, or one whose weights sum to zero, is returned as an
// unscaled copy.
func Normalize(dist model.Distribution) model.Distribution {
	out := dist.Clone()
	total := dist.Total()
	if len(out) == 0 || total == 0 {
		return out
	}
	for i := range out {
		out[i].Weight /= total
	}
	return out
}

// Format converts dist into a label -> weight mapping.
//
// With normalize set the weights are rescaled to sum to 1. A positive
// threshold drops every class whose share of the total weight is below it,
// except keep, which is always retained when present in dist. An empty
// distribution yields an empty, non-nil map.
func Format(dist model.Distribution, normalize bool, threshold float64, keep string) map[string]float64 {
	out := make(map[string]float64, len(dist))
	if len(dist) == 0 {
		return out
	}

	shares := Normalize(dist)
	for i, cw := range dist {
		if threshold > 0 && cw.Class != keep && shares[i].Weight < threshold {
			continue
		}
		if normalize {
			out[cw.Class] = shares[i].Weight
		} else {
			out[cw.Class] = cw.Weight
		}
	}
	return out
}

// Confidence returns the normalized weight of label in dist, or 0 when the
// label is absent or the distribution carries no weight.
func Confidence(dist model.Distribution, label string) float64 {
	total := dist.Total()
	if total == 0 {
		return 0
	}
	w, ok := dist.Weight(label)
	if !ok {
		return 0
	}
	return w / total
}

// Entropy returns the Shannon entropy, in bits, of the normalized
// distribution. Zero-weight classes contribute nothing.
func Entropy(dist model.Distribution) float64 {
	total := dist.Total()
	if total == 0 {
		return 0
	}
	var h float64
	for _, cw := range dist {
		if cw.Weight <= 0 {
			continue
		}
		p := cw.Weight / total
		h -= p * math.Log2(p)
	}
	return h
}

package ib1

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/crimson-sun/timber/internal/engine"
)

// instance is one distinct feature vector with the class counts observed
// for it in the training data.
type instance struct {
	features []string
	counts   []float64 // indexed by class id
}

// instanceBase is the trained model. It is immutable once built and shared
// by every experiment cloned from the same base.
type instanceBase struct {
	nFeatures int
	instances []*instance
	classes   []string // class names in order of first appearance
	classFreq []float64
	weights   []float64
	nRecords  int
}

// splitFields splits a line according to the input format and NFC-normalizes
// every value so that visually identical values compare equal.
func splitFields(line string, format InputFormat) []string {
	var fields []string
	if format == C45 {
		line = strings.TrimSpace(line)
		if line == "" {
			return nil
		}
		fields = strings.Split(line, ",")
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}
	} else {
		fields = strings.Fields(line)
	}
	for i, f := range fields {
		fields[i] = norm.NFC.String(f)
	}
	return fields
}

// buildBase reads labeled records (features followed by class) from r.
// Blank lines and lines starting with '#' are skipped.
func buildBase(r io.Reader, opts Options) (*instanceBase, error) {
	b := &instanceBase{}
	classIDs := make(map[string]int)
	seen := make(map[string]*instance)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if trimmed := strings.TrimSpace(line); trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := splitFields(line, opts.Format)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: need at least one feature and a class: %w", lineNo, engine.ErrBadInput)
		}
		if b.nFeatures == 0 {
			b.nFeatures = len(fields) - 1
		} else if len(fields)-1 != b.nFeatures {
			return nil, fmt.Errorf("line %d: got %d features, want %d: %w",
				lineNo, len(fields)-1, b.nFeatures, engine.ErrBadInput)
		}

		class := fields[len(fields)-1]
		id, ok := classIDs[class]
		if !ok {
			id = len(b.classes)
			classIDs[class] = id
			b.classes = append(b.classes, class)
			b.classFreq = append(b.classFreq, 0)
			for _, inst := range b.instances {
				inst.counts = append(inst.counts, 0)
			}
		}
		b.classFreq[id]++
		b.nRecords++

		feats := fields[:len(fields)-1]
		key := strings.Join(feats, "\x00")
		inst, ok := seen[key]
		if !ok {
			inst = &instance{features: feats, counts: make([]float64, len(b.classes))}
			seen[key] = inst
			b.instances = append(b.instances, inst)
		}
		inst.counts[id]++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read instances: %w", err)
	}
	if len(b.instances) == 0 {
		return nil, fmt.Errorf("no instances: %w", engine.ErrBadInput)
	}

	b.weights = b.computeWeights(opts.Weighting)
	return b, nil
}

// computeWeights derives one weight per feature from the class
// distribution of each feature's values.
func (b *instanceBase) computeWeights(w Weighting) []float64 {
	weights := make([]float64, b.nFeatures)
	if w == NoWeighting {
		for i := range weights {
			weights[i] = 1
		}
		return weights
	}

	total := float64(b.nRecords)
	hClass := entropy(b.classFreq, total)

	for f := 0; f < b.nFeatures; f++ {
		byValue := make(map[string][]float64)
		var order []string
		for _, inst := range b.instances {
			v := inst.features[f]
			counts, ok := byValue[v]
			if !ok {
				counts = make([]float64, len(b.classes))
				byValue[v] = counts
				order = append(order, v)
			}
			for c, n := range inst.counts {
				counts[c] += n
			}
		}

		var condH, splitInfo float64
		for _, v := range order {
			counts := byValue[v]
			var n float64
			for _, c := range counts {
				n += c
			}
			p := n / total
			condH += p * entropy(counts, n)
			splitInfo -= p * math.Log2(p)
		}

		gain := hClass - condH
		if gain < 0 {
			gain = 0
		}
		switch {
		case w == InfoGain:
			weights[f] = gain
		case splitInfo > 0:
			weights[f] = gain / splitInfo
		}
	}
	return weights
}

func entropy(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		p := c / total
		h -= p * math.Log2(p)
	}
	return h
}

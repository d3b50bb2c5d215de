package model

// ClassWeight is one (class, weight) pair of an engine distribution.
type ClassWeight struct {
	Class  string
	Weight float64
}

// Distribution is the ordered set of class weights produced by a single
// classification call. Order is the engine's and is preserved by every
// transformation in this module.
type Distribution []ClassWeight

// Total returns the sum of all weights, accumulated in order.
func (d Distribution) Total() float64 {
	var sum float64
	for _, cw := range d {
		sum += cw.Weight
	}
	return sum
}

// Weight returns the weight of class and whether it is present.
func (d Distribution) Weight(class string) (float64, bool) {
	for _, cw := range d {
		if cw.Class == class {
			return cw.Weight, true
		}
	}
	return 0, false
}

// Clone returns a copy that shares no memory with d.
func (d Distribution) Clone() Distribution {
	if d == nil {
		return nil
	}
	out := make(Distribution, len(d))
	copy(out, d)
	return out
}

package core

import "sort"

// Distribution1D is a discrete probability distribution over a finite set of
// non-negative weights, sampled via inverse CDF lookup with a single
// uniform random number. It backs both the per-mesh triangle-area
// distribution (spec §3, Mesh) and the scene-level light distribution
// (spec §4.6), which is why both share this one implementation rather than
// duplicating cumulative-weight bookkeeping in each caller.
type Distribution1D struct {
	weights []float64
	cdf     []float64
	total   float64
}

// NewDistribution1D builds a distribution over the given non-negative
// weights. For a nil or empty input Sample reports ok=false; an all-zero
// input falls back to uniform selection (probability 1/n per index),
// matching the "empty scene" resilience spec §4.1/§7.4 expect
// from the acceleration structure's own degenerate-input handling.
func NewDistribution1D(weights []float64) *Distribution1D {
	d := &Distribution1D{weights: weights, cdf: make([]float64, len(weights))}
	running := 0.0
	for i, w := range weights {
		if w < 0 {
			w = 0
		}
		running += w
		d.cdf[i] = running
	}
	d.total = running
	return d
}

// Count returns the number of entries in the distribution.
func (d *Distribution1D) Count() int { return len(d.weights) }

// TotalWeight returns the sum of all weights.
func (d *Distribution1D) TotalWeight() float64 { return d.total }

// Sample picks an index using one uniform random number u in [0,1) and
// returns the index and its selection probability (PMF). ok is false only
// when the distribution is empty.
func (d *Distribution1D) Sample(u float64) (index int, pdf float64, ok bool) {
	if len(d.weights) == 0 {
		return -1, 0, false
	}
	if d.total <= 0 {
		// Degenerate (all-zero) weights: fall back to uniform selection so
		// callers never divide by zero.
		n := len(d.weights)
		i := int(u * float64(n))
		if i >= n {
			i = n - 1
		}
		return i, 1.0 / float64(n), true
	}

	target := u * d.total
	i := sort.Search(len(d.cdf), func(i int) bool { return d.cdf[i] >= target })
	if i >= len(d.cdf) {
		i = len(d.cdf) - 1
	}
	return i, d.PMF(i), true
}

// PMF returns the selection probability of index i.
func (d *Distribution1D) PMF(i int) float64 {
	if i < 0 || i >= len(d.weights) {
		return 0
	}
	if d.total <= 0 {
		return 1.0 / float64(len(d.weights))
	}
	return d.weights[i] / d.total
}

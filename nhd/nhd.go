// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package nhd implements the node histogram distance
// between placement samples:
// each sample is reduced to one histogram per tree node,
// describing how the sample mass is distributed
// by signed distance from the node,
// and samples are compared
// by the earth mover's distance between their histograms.
package nhd

import (
	"math"

	"github.com/jprado/placemass/aggregate"
	"github.com/jprado/placemass/placement"
	"gonum.org/v1/gonum/mat"
)

// DefaultBins is the default number of bins per node histogram.
const DefaultBins = 25

// A Histogram is a fixed-range mass histogram.
// Values outside the range are counted in the border bins.
type Histogram struct {
	// Min and Max are the value range of the histogram.
	Min, Max float64

	// Bins are the per-bin masses.
	Bins []float64
}

func newHistogram(min, max float64, bins int) Histogram {
	return Histogram{Min: min, Max: max, Bins: make([]float64, bins)}
}

// Add adds mass at the given value.
func (h *Histogram) Add(v, mass float64) {
	i := 0
	if h.Max > h.Min {
		i = int(float64(len(h.Bins)) * (v - h.Min) / (h.Max - h.Min))
	}
	if i < 0 {
		i = 0
	}
	if i >= len(h.Bins) {
		i = len(h.Bins) - 1
	}
	h.Bins[i] += mass
}

// Total returns the mass stored in the histogram.
func (h *Histogram) Total() float64 {
	var sum float64
	for _, b := range h.Bins {
		sum += b
	}
	return sum
}

// A HistogramSet holds one histogram per tree node,
// in node ID order.
// All histogram sets of a run are built
// against the same shared structures,
// so histograms at the same node
// share range and bin count
// and can be compared directly.
type HistogramSet []Histogram

// Build reduces one sample to its node histogram set.
// For every node,
// each placement contributes its mass
// at its signed distance from the node:
// the distance runs through the node distance matrix
// plus the within-edge attachment offset,
// and the sign is negative for mass
// on the root side of the node.
// The histogram ranges derive from the shared matrices only,
// so every sample of a run gets identical ranges.
func Build(s *placement.Sample, sh *aggregate.Shared, bins int) HistogramSet {
	if bins <= 0 {
		bins = DefaultBins
	}
	t := sh.Tree
	set := make(HistogramSet, t.NumNodes())
	for _, n := range t.Nodes() {
		min, max := nodeRange(n.ID, sh)
		set[n.ID] = newHistogram(min, max, bins)
	}

	for _, pq := range s.Pqueries {
		for _, p := range pq.Placements {
			mass := p.LWR * pq.Multiplicity
			if mass == 0 {
				continue
			}
			e := t.Edge(p.Edge)
			for _, n := range t.Nodes() {
				d, sign := placementDistance(n, e, p.DistalLength, sh)
				set[n.ID].Add(sign*d, mass)
			}
		}
	}
	return set
}

// NodeRange returns the signed distance range of a node:
// the negative of the largest distance to a root-side node
// and the largest distance to a node in its subtree.
func nodeRange(id int, sh *aggregate.Shared) (min, max float64) {
	for j := 0; j < sh.Tree.NumNodes(); j++ {
		if j == id {
			continue
		}
		d := sh.Dist.At(id, j)
		if sh.Side.At(id, j) > 0 {
			if d > max {
				max = d
			}
		} else {
			if -d < min {
				min = -d
			}
		}
	}
	return min, max
}

// PlacementDistance returns the path distance
// between a node and a placement
// attached at distal offset on edge e,
// and the sign of the direction:
// +1 when the placement is below the node,
// -1 when it is on the root side.
func placementDistance(n *placement.Node, e *placement.Edge, distal float64, sh *aggregate.Shared) (d, sign float64) {
	cn := e.Node
	pn := cn.Anc
	if pn == nil {
		// root edge
		pn = cn
	}

	switch {
	case n == cn:
		d = distal
	case sh.Side.At(cn.ID, n.ID) > 0:
		// node inside the subtree below the edge
		d = sh.Dist.At(cn.ID, n.ID) + distal
	default:
		d = sh.Dist.At(pn.ID, n.ID) + (e.Length - distal)
	}

	sign = -1
	if sh.Side.At(n.ID, cn.ID) > 0 {
		sign = 1
	}
	return d, sign
}

// Distance returns the node histogram distance
// between two histogram sets:
// the sum over nodes
// of the earth mover's distance
// between the mass-normalized node histograms.
// It is non-negative,
// symmetric,
// and zero for identical sets.
func Distance(a, b HistogramSet) float64 {
	var sum float64
	for i := range a {
		sum += emd(a[i], b[i])
	}
	return sum
}

// Emd is the earth mover's distance
// between two histograms with a shared range,
// each normalized to unit mass.
// Histograms without mass compare as empty.
func emd(a, b Histogram) float64 {
	ta := a.Total()
	tb := b.Total()
	if ta == 0 || tb == 0 {
		return 0
	}

	width := (a.Max - a.Min) / float64(len(a.Bins))
	var carry, work float64
	for i := range a.Bins {
		carry += a.Bins[i]/ta - b.Bins[i]/tb
		work += math.Abs(carry) * width
	}
	return work
}

// Matrix returns the symmetric pairwise distance matrix
// of a collection of histogram sets,
// indexed by sample position.
// Only the i < j entries are computed;
// the diagonal is zero.
func Matrix(sets []HistogramSet) *mat.SymDense {
	m := mat.NewSymDense(len(sets), nil)
	for i := range sets {
		for j := i + 1; j < len(sets); j++ {
			m.SetSym(i, j, Distance(sets[i], sets[j]))
		}
	}
	return m
}

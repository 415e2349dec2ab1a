// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package diversity implements phylogenetic diversity metrics
// over a single placement sample:
// Faith's PD,
// the balance weighted PD,
// and the mass-weighted mean pairwise distance.
package diversity

import (
	"math"

	"github.com/jprado/placemass/aggregate"
	"github.com/jprado/placemass/placement"
)

// PD returns Faith's phylogenetic diversity of a sample:
// the total branch length of the subtree
// spanned by the edges that carry placement mass.
// An edge is part of the spanning subtree
// when there is mass both below it and outside of it.
// A sample whose mass sits on a single edge has a PD of zero.
func PD(s *placement.Sample) float64 {
	below := massBelow(s)
	total := s.TotalMass()

	var pd float64
	for _, e := range s.Tree.Edges() {
		if e.Node.Anc == nil {
			continue
		}
		if below[e.ID] > 0 && total-below[e.ID] > 0 {
			pd += e.Length
		}
	}
	return pd
}

// BWPD returns the balance weighted phylogenetic diversity
// of a sample with the given balance exponent theta:
// the sum over edges of the branch length
// times (2 min(f, 1-f))^theta,
// where f is the fraction of the sample mass below the edge.
// With theta one this is the classic BWPD;
// theta zero recovers Faith's PD
// up to edges with balanced zero mass.
func BWPD(s *placement.Sample, theta float64) float64 {
	below := massBelow(s)
	total := s.TotalMass()
	if total <= 0 {
		return 0
	}

	var bwpd float64
	for _, e := range s.Tree.Edges() {
		if e.Node.Anc == nil {
			continue
		}
		f := below[e.ID] / total
		m := 2 * math.Min(f, 1-f)
		if m <= 0 {
			continue
		}
		bwpd += e.Length * math.Pow(m, theta)
	}
	return bwpd
}

// MPD returns the mass-weighted mean pairwise distance
// of a sample:
// the average tree distance between two placement locations
// drawn from the sample mass distribution,
// excluding self pairs.
// Placements are located at the distal node of their edge,
// with distances taken from the shared node distance matrix.
func MPD(s *placement.Sample, sh *aggregate.Shared) float64 {
	massAt := make([]float64, s.Tree.NumNodes())
	for _, pq := range s.Pqueries {
		for _, p := range pq.Placements {
			n := s.Tree.Edge(p.Edge).Node
			massAt[n.ID] += p.LWR * pq.Multiplicity
		}
	}

	var sum, weight float64
	for i, mi := range massAt {
		if mi == 0 {
			continue
		}
		for j := i + 1; j < len(massAt); j++ {
			if massAt[j] == 0 {
				continue
			}
			w := mi * massAt[j]
			sum += w * sh.Dist.At(i, j)
			weight += w
		}
	}
	if weight == 0 {
		return 0
	}
	return sum / weight
}

// MassBelow returns,
// for every edge,
// the placement mass in the subtree below the edge,
// including the mass placed on the edge itself.
func massBelow(s *placement.Sample) []float64 {
	below := make([]float64, s.Tree.NumEdges())
	for _, pq := range s.Pqueries {
		for _, p := range pq.Placements {
			mass := p.LWR * pq.Multiplicity
			for e := s.Tree.Edge(p.Edge); e != nil; e = parentEdge(e) {
				below[e.ID] += mass
			}
		}
	}
	return below
}

func parentEdge(e *placement.Edge) *placement.Edge {
	anc := e.Node.Anc
	if anc == nil {
		return nil
	}
	return anc.Edge
}

// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package diversity_test

import (
	"math"
	"testing"

	"github.com/jprado/placemass/aggregate"
	"github.com/jprado/placemass/diversity"
	"github.com/jprado/placemass/placement"
)

// A balanced four-taxon tree with unit branch lengths.
const toyTree = "((A:1{0},B:1{1}):1{2},(C:1{3},D:1{4}):1{5});"

func toySample(t testing.TB, masses map[int]float64) *placement.Sample {
	t.Helper()

	tr, err := placement.ParseNewick(toyTree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := &placement.Sample{Name: "toy", Tree: tr}
	for e, m := range masses {
		s.Pqueries = append(s.Pqueries, &placement.Pquery{
			Names:        []string{"q"},
			Multiplicity: 1,
			Placements:   []placement.Placement{{Edge: e, LWR: m}},
		})
	}
	return s
}

func TestPD(t *testing.T) {
	// mass on A and C spans both cherries and the internal path
	s := toySample(t, map[int]float64{0: 0.5, 3: 0.5})
	if pd := diversity.PD(s); math.Abs(pd-4) > 1e-12 {
		t.Errorf("got PD %.6f, want 4", pd)
	}

	// mass on two leaves of the same cherry
	s = toySample(t, map[int]float64{0: 0.75, 1: 0.25})
	if pd := diversity.PD(s); math.Abs(pd-2) > 1e-12 {
		t.Errorf("got PD %.6f, want 2", pd)
	}

	// all mass on a single edge spans nothing
	s = toySample(t, map[int]float64{0: 1})
	if pd := diversity.PD(s); pd != 0 {
		t.Errorf("got PD %.6f, want 0", pd)
	}
}

func TestBWPD(t *testing.T) {
	// balanced mass: every spanned edge has f = 0.5
	s := toySample(t, map[int]float64{0: 0.5, 3: 0.5})
	if v := diversity.BWPD(s, 1); math.Abs(v-4) > 1e-12 {
		t.Errorf("theta 1: got %.6f, want 4", v)
	}
	if v := diversity.BWPD(s, 0); math.Abs(v-4) > 1e-12 {
		t.Errorf("theta 0: got %.6f, want 4", v)
	}

	// unbalanced mass on one cherry:
	// the leaf edges weigh 2*min(f, 1-f) = 0.5 each
	// and the fully loaded internal edge drops out
	s = toySample(t, map[int]float64{0: 0.75, 1: 0.25})
	if v := diversity.BWPD(s, 1); math.Abs(v-1) > 1e-12 {
		t.Errorf("theta 1: got %.6f, want 1", v)
	}

	// theta between 0 and 1 interpolates
	v0 := diversity.BWPD(s, 0)
	v1 := diversity.BWPD(s, 1)
	vh := diversity.BWPD(s, 0.5)
	if vh <= v1 || vh >= v0 {
		t.Errorf("theta 0.5: got %.6f outside (%.6f, %.6f)", vh, v1, v0)
	}
}

func TestMPD(t *testing.T) {
	tr, err := placement.ParseNewick(toyTree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sh := &aggregate.Shared{
		Tree: tr,
		Dist: placement.NodeDistances(tr),
	}

	// equal masses on A and C: the only pair is at distance 4
	s := toySample(t, map[int]float64{0: 0.5, 3: 0.5})
	s.Tree = tr
	if v := diversity.MPD(s, sh); math.Abs(v-4) > 1e-12 {
		t.Errorf("got MPD %.6f, want 4", v)
	}

	// a single location has no pairs
	s = toySample(t, map[int]float64{0: 1})
	s.Tree = tr
	if v := diversity.MPD(s, sh); v != 0 {
		t.Errorf("got MPD %.6f, want 0", v)
	}
}

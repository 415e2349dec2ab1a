// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package nhd_test

import (
	"context"
	"math"
	"testing"

	"github.com/jprado/placemass/aggregate"
	"github.com/jprado/placemass/nhd"
	"github.com/jprado/placemass/placement"
)

const refTree = "((A:0.2{0},B:0.09{1}):0.7{2}):0{3};"

func sharedStructs(t testing.TB) *aggregate.Shared {
	t.Helper()

	tr, err := placement.ParseNewick(refTree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &aggregate.Shared{
		Tree: tr,
		Dist: placement.NodeDistances(tr),
		Side: placement.RootSides(tr),
	}
}

func sampleOnEdge(t testing.TB, sh *aggregate.Shared, edge int, distal float64) *placement.Sample {
	t.Helper()

	return &placement.Sample{
		Name: "test",
		Tree: sh.Tree,
		Pqueries: []*placement.Pquery{
			{
				Names:        []string{"q"},
				Multiplicity: 1,
				Placements: []placement.Placement{
					{Edge: edge, LWR: 1, DistalLength: distal},
				},
			},
		},
	}
}

func TestDistance(t *testing.T) {
	// two single-bin moves: a shared range with the mass
	// one bin apart costs exactly one bin width per node
	a := nhd.HistogramSet{{Min: 0, Max: 2, Bins: []float64{1, 0}}}
	b := nhd.HistogramSet{{Min: 0, Max: 2, Bins: []float64{0, 1}}}

	if d := nhd.Distance(a, b); math.Abs(d-1) > 1e-12 {
		t.Errorf("got distance %.6f, want 1", d)
	}
	if d := nhd.Distance(a, a); d != 0 {
		t.Errorf("got self distance %.6f, want 0", d)
	}
	if da, db := nhd.Distance(a, b), nhd.Distance(b, a); da != db {
		t.Errorf("asymmetric distance: %.6f vs %.6f", da, db)
	}

	// an empty histogram compares as empty
	e := nhd.HistogramSet{{Min: 0, Max: 2, Bins: []float64{0, 0}}}
	if d := nhd.Distance(a, e); d != 0 {
		t.Errorf("empty histogram: got distance %.6f, want 0", d)
	}
}

func TestBuild(t *testing.T) {
	sh := sharedStructs(t)
	s := sampleOnEdge(t, sh, 0, 0.1)

	set := nhd.Build(s, sh, 4)
	if len(set) != sh.Tree.NumNodes() {
		t.Fatalf("got %d histograms, want %d", len(set), sh.Tree.NumNodes())
	}
	for id, h := range set {
		if len(h.Bins) != 4 {
			t.Errorf("node %d: got %d bins, want 4", id, len(h.Bins))
		}
		if m := h.Total(); math.Abs(m-1) > 1e-12 {
			t.Errorf("node %d: got mass %.6f, want 1", id, m)
		}
	}

	// same placements, same histograms
	other := nhd.Build(sampleOnEdge(t, sh, 0, 0.1), sh, 4)
	if d := nhd.Distance(set, other); d != 0 {
		t.Errorf("identical samples: got distance %.6f, want 0", d)
	}

	// mass elsewhere on the tree must be distinguishable
	far := nhd.Build(sampleOnEdge(t, sh, 1, 0.02), sh, 4)
	if d := nhd.Distance(set, far); d <= 0 {
		t.Errorf("distinct samples: got distance %.6f, want > 0", d)
	}
}

func TestMatrix(t *testing.T) {
	sh := sharedStructs(t)
	sets := []nhd.HistogramSet{
		nhd.Build(sampleOnEdge(t, sh, 0, 0.1), sh, nhd.DefaultBins),
		nhd.Build(sampleOnEdge(t, sh, 1, 0.02), sh, nhd.DefaultBins),
		nhd.Build(sampleOnEdge(t, sh, 2, 0.5), sh, nhd.DefaultBins),
		nhd.Build(sampleOnEdge(t, sh, 0, 0.1), sh, nhd.DefaultBins),
	}

	m := nhd.Matrix(sets)
	for i := range sets {
		if v := m.At(i, i); v != 0 {
			t.Errorf("diagonal (%d, %d): got %.6f, want 0", i, i, v)
		}
		for j := range sets {
			if d := m.At(i, j) - m.At(j, i); d != 0 {
				t.Errorf("matrix not symmetric at (%d, %d)", i, j)
			}
		}
	}
	if v := m.At(0, 3); v != 0 {
		t.Errorf("identical samples: got distance %.6f, want 0", v)
	}
	if v := m.At(0, 1); v <= 0 {
		t.Errorf("distinct samples: got distance %.6f, want > 0", v)
	}
}

// Loader used by the concurrency test:
// the file name encodes the placement edge.
func loadByEdge(path string) (*placement.Sample, error) {
	tr, err := placement.ParseNewick(refTree)
	if err != nil {
		return nil, err
	}
	edge := int(path[0] - '0')
	return &placement.Sample{
		Name: path,
		Tree: tr,
		Pqueries: []*placement.Pquery{
			{
				Names:        []string{path},
				Multiplicity: 1,
				Placements: []placement.Placement{
					{Edge: edge, LWR: 1, DistalLength: 0.01},
				},
			},
		},
	}, nil
}

func TestMatrixConcurrent(t *testing.T) {
	files := []string{"0-a", "1-b", "2-c", "0-d", "1-e", "2-f", "0-g", "1-h"}

	run := func(cpu int) []nhd.HistogramSet {
		sets, _, err := aggregate.Collect(context.Background(), aggregate.Param{
			Files:    files,
			Load:     loadByEdge,
			CPU:      cpu,
			Matrices: true,
		}, func(s *placement.Sample, sh *aggregate.Shared) (nhd.HistogramSet, error) {
			return nhd.Build(s, sh, nhd.DefaultBins), nil
		})
		if err != nil {
			t.Fatalf("cpu %d: unexpected error: %v", cpu, err)
		}
		return sets
	}

	sm := nhd.Matrix(run(1))
	cm := nhd.Matrix(run(4))
	for i := range files {
		for j := range files {
			if d := math.Abs(sm.At(i, j) - cm.At(i, j)); d > 1e-12 {
				t.Errorf("matrix entry (%d, %d) differs between pool sizes", i, j)
			}
		}
	}
}

// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package aggregate_test

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/jprado/placemass/aggregate"
	"github.com/jprado/placemass/placement"
)

const refTree = "((A:0.2{0},B:0.09{1}):0.7{2}):0{3};"
const otherTree = "(A:0.2{0},B:0.09{1},C:1{2});"

// LoadSynthetic builds a deterministic in-memory sample
// from a synthetic file path of the form "s<edge>-<mass>",
// placing the given mass on the given edge of the shared tree.
// The path "bad-tree" yields a sample with a different topology.
func loadSynthetic(path string) (*placement.Sample, error) {
	nwk := refTree
	if path == "bad-tree" {
		nwk = otherTree
	}
	t, err := placement.ParseNewick(nwk)
	if err != nil {
		return nil, err
	}

	s := &placement.Sample{Name: path, Tree: t}
	if path == "bad-tree" {
		return s, nil
	}

	var edge int
	var mass float64
	fields := strings.SplitN(strings.TrimPrefix(path, "s"), "-", 2)
	edge = int(fields[0][0] - '0')
	mass = float64(fields[1][0]-'0') / 10
	s.Pqueries = []*placement.Pquery{
		{
			Names:        []string{path},
			Multiplicity: 1,
			Placements:   []placement.Placement{{Edge: edge, LWR: mass}},
		},
	}
	return s, nil
}

var testFiles = []string{"s0-1", "s1-2", "s2-3", "s0-4", "s1-5", "s2-6", "s0-7", "s1-8"}

func TestCollect(t *testing.T) {
	names, sh, err := aggregate.Collect(context.Background(), aggregate.Param{
		Files:    testFiles,
		Load:     loadSynthetic,
		CPU:      4,
		Matrices: true,
	}, func(s *placement.Sample, sh *aggregate.Shared) (string, error) {
		return s.Name, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// results are in input order regardless of scheduling
	for i, n := range names {
		if n != testFiles[i] {
			t.Errorf("slot %d: got %q, want %q", i, n, testFiles[i])
		}
	}

	if sh.Tree == nil {
		t.Fatalf("shared tree not published")
	}
	if sh.Dist == nil || sh.Side == nil {
		t.Errorf("shared matrices not built")
	}
	if r, _ := sh.Dist.Dims(); r != sh.Tree.NumNodes() {
		t.Errorf("distance matrix: got %d rows, want %d", r, sh.Tree.NumNodes())
	}
}

func TestCollectEmpty(t *testing.T) {
	_, _, err := aggregate.Collect(context.Background(), aggregate.Param{Load: loadSynthetic},
		func(s *placement.Sample, sh *aggregate.Shared) (int, error) { return 0, nil })
	if err == nil {
		t.Errorf("empty file list: expecting error")
	}
}

func TestCollectIncompatible(t *testing.T) {
	files := append([]string{}, testFiles...)
	files = append(files, "bad-tree")

	_, _, err := aggregate.Collect(context.Background(), aggregate.Param{
		Files: files,
		Load:  loadSynthetic,
		CPU:   4,
	}, func(s *placement.Sample, sh *aggregate.Shared) (int, error) { return 0, nil })
	if err == nil {
		t.Fatalf("incompatible trees: expecting error")
	}
	if !strings.Contains(err.Error(), "differing reference trees") {
		t.Errorf("got error %q, want tree incompatibility", err)
	}
	if !strings.Contains(err.Error(), "bad-tree") {
		t.Errorf("got error %q, want offending file name", err)
	}
}

func TestAccumulateMass(t *testing.T) {
	tree, masses, err := aggregate.AccumulateMass(context.Background(), aggregate.Param{
		Files: testFiles,
		Load:  loadSynthetic,
		CPU:   4,
	}, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree == nil {
		t.Fatalf("shared tree not returned")
	}

	// s0: 0.1+0.4+0.7, s1: 0.2+0.5+0.8, s2: 0.3+0.6
	want := []float64{1.2, 1.5, 0.9, 0}
	if len(masses) != len(want) {
		t.Fatalf("masses: got %d entries, want %d", len(masses), len(want))
	}
	for i, w := range want {
		if math.Abs(masses[i]-w) > 1e-12 {
			t.Errorf("edge %d: got mass %.6f, want %.6f", i, masses[i], w)
		}
	}
}

func TestAccumulateMassPermutation(t *testing.T) {
	_, base, err := aggregate.AccumulateMass(context.Background(), aggregate.Param{
		Files: testFiles,
		Load:  loadSynthetic,
		CPU:   1,
	}, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for it := 0; it < 10; it++ {
		files := append([]string{}, testFiles...)
		rng.Shuffle(len(files), func(i, j int) { files[i], files[j] = files[j], files[i] })

		cpu := 1 + it%4
		_, masses, err := aggregate.AccumulateMass(context.Background(), aggregate.Param{
			Files: files,
			Load:  loadSynthetic,
			CPU:   cpu,
		}, false, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, w := range base {
			if math.Abs(masses[i]-w) > 1e-9 {
				t.Errorf("permutation %d (cpu %d): edge %d: got %.6f, want %.6f", it, cpu, i, masses[i], w)
			}
		}
	}
}

func TestAccumulateMassRelative(t *testing.T) {
	_, masses, err := aggregate.AccumulateMass(context.Background(), aggregate.Param{
		Files: testFiles,
		Load:  loadSynthetic,
		CPU:   4,
	}, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sum float64
	for _, m := range masses {
		sum += m
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("relative masses: got sum %.6f, want 1", sum)
	}
}

// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package jplace_test

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/jprado/placemass/placement/jplace"
)

const sampleBlob = `{
	"version": 3,
	"tree": "((A:0.2{0},B:0.09{1}):0.7{2}):0{3};",
	"fields": ["edge_num", "likelihood", "like_weight_ratio",
		"distal_length", "pendant_length"],
	"placements": [
		{
			"p": [[1, -2578.16, 0.777385, 0.004132, 0.0006],
				[0, -2580.15, 0.107065, 0.000009, 0.0153]],
			"nm": [["fragment_1", 2], ["fragment_2", 1.5]]
		},
		{
			"p": [[2, -2576.46, 1.0, 0.003, 0.0003]],
			"n": ["fragment_3"]
		}
	],
	"metadata": {"invocation": "test"}
}`

func TestRead(t *testing.T) {
	s, err := jplace.Read(strings.NewReader(sampleBlob))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := s.Tree.NumEdges(); n != 4 {
		t.Errorf("edges: got %d, want %d", n, 4)
	}
	if n := len(s.Pqueries); n != 2 {
		t.Fatalf("pqueries: got %d, want %d", n, 2)
	}

	pq := s.Pqueries[0]
	if !reflect.DeepEqual(pq.Names, []string{"fragment_1", "fragment_2"}) {
		t.Errorf("pquery 0: got names %v", pq.Names)
	}
	if math.Abs(pq.Multiplicity-3.5) > 1e-12 {
		t.Errorf("pquery 0: got multiplicity %.6f, want %.6f", pq.Multiplicity, 3.5)
	}
	if n := len(pq.Placements); n != 2 {
		t.Fatalf("pquery 0: got %d placements, want 2", n)
	}
	p := pq.Placements[0]
	if p.Edge != 1 {
		t.Errorf("placement 0: got edge %d, want 1", p.Edge)
	}
	if math.Abs(p.LWR-0.777385) > 1e-12 {
		t.Errorf("placement 0: got LWR %.6f, want %.6f", p.LWR, 0.777385)
	}
	if math.Abs(p.Likelihood+2578.16) > 1e-12 {
		t.Errorf("placement 0: got likelihood %.6f, want %.6f", p.Likelihood, -2578.16)
	}

	pq = s.Pqueries[1]
	if pq.Multiplicity != 1 {
		t.Errorf("pquery 1: got multiplicity %.6f, want 1", pq.Multiplicity)
	}
}

func TestReadErrors(t *testing.T) {
	bad := map[string]string{
		"no tree":       `{"version": 3, "fields": ["edge_num", "like_weight_ratio"], "placements": []}`,
		"no fields":     `{"version": 3, "tree": "(A:1{0},B:1{1});", "placements": []}`,
		"no lwr field":  `{"version": 3, "tree": "(A:1{0},B:1{1});", "fields": ["edge_num"], "placements": []}`,
		"bad edge":      `{"version": 3, "tree": "(A:1{0},B:1{1});", "fields": ["edge_num", "like_weight_ratio"], "placements": [{"p": [[7, 1.0]], "n": ["x"]}]}`,
		"no placements": `{"version": 3, "tree": "(A:1{0},B:1{1});", "fields": ["edge_num", "like_weight_ratio"], "placements": [{"p": [], "n": ["x"]}]}`,
		"not json":      `tree A B C`,
	}
	for name, blob := range bad {
		if _, err := jplace.Read(strings.NewReader(blob)); err == nil {
			t.Errorf("%s: expecting error", name)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	s, err := jplace.Read(strings.NewReader(sampleBlob))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := jplace.Write(&buf, s); err != nil {
		t.Fatalf("unexpected error on write: %v", err)
	}
	rt, err := jplace.Read(&buf)
	if err != nil {
		t.Fatalf("unexpected error on read back: %v", err)
	}

	if n := rt.Tree.NumEdges(); n != s.Tree.NumEdges() {
		t.Errorf("edges: got %d, want %d", n, s.Tree.NumEdges())
	}
	if n := len(rt.Pqueries); n != len(s.Pqueries) {
		t.Fatalf("pqueries: got %d, want %d", n, len(s.Pqueries))
	}
	for i, pq := range rt.Pqueries {
		want := s.Pqueries[i]
		if !reflect.DeepEqual(pq.Names, want.Names) {
			t.Errorf("pquery %d: got names %v, want %v", i, pq.Names, want.Names)
		}
		if math.Abs(pq.Multiplicity-want.Multiplicity) > 1e-12 {
			t.Errorf("pquery %d: got multiplicity %.6f, want %.6f", i, pq.Multiplicity, want.Multiplicity)
		}
		if !reflect.DeepEqual(pq.Placements, want.Placements) {
			t.Errorf("pquery %d: placements differ", i)
		}
	}
}

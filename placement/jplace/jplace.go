// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package jplace reads and writes
// phylogenetic placement samples
// in the jplace file format
// <https://journals.plos.org/plosone/article?id=10.1371/journal.pone.0031009>:
// a JSON body with a newick reference tree,
// a field header,
// and a list of placed queries.
package jplace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jprado/placemass/placement"
)

// Version is the jplace format version
// written by this package.
const Version = 3

type jplaceBody struct {
	Version    int            `json:"version"`
	Tree       string         `json:"tree"`
	Fields     []string       `json:"fields"`
	Placements []jplacePquery `json:"placements"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type jplacePquery struct {
	P  [][]float64 `json:"p"`
	N  []string    `json:"n,omitempty"`
	NM [][]any     `json:"nm,omitempty"`
}

// ReadFile reads a jplace sample from a file.
// It is safe to call concurrently for different files.
func ReadFile(name string) (*placement.Sample, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	s.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return s, nil
}

// Read reads a jplace sample.
func Read(r io.Reader) (*placement.Sample, error) {
	d := json.NewDecoder(r)
	var body jplaceBody
	if err := d.Decode(&body); err != nil {
		return nil, fmt.Errorf("jplace: %v", err)
	}

	if body.Tree == "" {
		return nil, fmt.Errorf("jplace: missing tree")
	}
	t, err := placement.ParseNewick(body.Tree)
	if err != nil {
		return nil, fmt.Errorf("jplace: %v", err)
	}

	fi, err := parseFields(body.Fields)
	if err != nil {
		return nil, err
	}

	s := &placement.Sample{Tree: t}
	for i, jp := range body.Placements {
		pq, err := readPquery(jp, fi, t.NumEdges())
		if err != nil {
			return nil, fmt.Errorf("jplace: pquery %d: %v", i, err)
		}
		s.Pqueries = append(s.Pqueries, pq)
	}
	return s, nil
}

// A fieldIndices maps the jplace field header
// to positions in a placement row.
// The edge_num and like_weight_ratio fields are required;
// the others default to zero when absent.
type fieldIndices struct {
	edge, like, lwr, distal, pendant int
}

func parseFields(fields []string) (fieldIndices, error) {
	fi := fieldIndices{edge: -1, like: -1, lwr: -1, distal: -1, pendant: -1}
	for i, f := range fields {
		switch f {
		case "edge_num":
			fi.edge = i
		case "likelihood":
			fi.like = i
		case "like_weight_ratio":
			fi.lwr = i
		case "distal_length":
			fi.distal = i
		case "pendant_length":
			fi.pendant = i
		}
	}
	if fi.edge < 0 {
		return fieldIndices{}, fmt.Errorf("jplace: missing required field %q", "edge_num")
	}
	if fi.lwr < 0 {
		return fieldIndices{}, fmt.Errorf("jplace: missing required field %q", "like_weight_ratio")
	}
	return fi, nil
}

func fieldAt(row []float64, i int) float64 {
	if i < 0 || i >= len(row) {
		return 0
	}
	return row[i]
}

func readPquery(jp jplacePquery, fi fieldIndices, numEdges int) (*placement.Pquery, error) {
	if len(jp.P) == 0 {
		return nil, fmt.Errorf("no placements")
	}

	pq := &placement.Pquery{}
	for _, row := range jp.P {
		e := int(fieldAt(row, fi.edge))
		if e < 0 || e >= numEdges {
			return nil, fmt.Errorf("edge index %d out of range [0, %d)", e, numEdges)
		}
		pq.Placements = append(pq.Placements, placement.Placement{
			Edge:          e,
			Likelihood:    fieldAt(row, fi.like),
			LWR:           fieldAt(row, fi.lwr),
			DistalLength:  fieldAt(row, fi.distal),
			PendantLength: fieldAt(row, fi.pendant),
		})
	}

	switch {
	case len(jp.N) > 0:
		pq.Names = jp.N
		pq.Multiplicity = float64(len(jp.N))
	case len(jp.NM) > 0:
		for _, nm := range jp.NM {
			if len(nm) != 2 {
				return nil, fmt.Errorf("invalid name-multiplicity pair")
			}
			name, ok := nm[0].(string)
			if !ok {
				return nil, fmt.Errorf("invalid name in name-multiplicity pair")
			}
			mult, ok := nm[1].(float64)
			if !ok {
				return nil, fmt.Errorf("invalid multiplicity for name %q", name)
			}
			pq.Names = append(pq.Names, name)
			pq.Multiplicity += mult
		}
	default:
		pq.Multiplicity = 1
	}
	return pq, nil
}

// Write writes a sample in jplace format.
func Write(w io.Writer, s *placement.Sample) error {
	body := jplaceBody{
		Version: Version,
		Tree:    s.Tree.Newick(),
		Fields: []string{
			"edge_num", "likelihood", "like_weight_ratio",
			"distal_length", "pendant_length",
		},
		Metadata: map[string]any{"invocation": "placemass"},
	}
	for _, pq := range s.Pqueries {
		jp := jplacePquery{N: pq.Names}
		if pq.Multiplicity != float64(len(pq.Names)) && len(pq.Names) > 0 {
			jp.N = nil
			m := pq.Multiplicity / float64(len(pq.Names))
			for _, n := range pq.Names {
				jp.NM = append(jp.NM, []any{n, m})
			}
		}
		for _, p := range pq.Placements {
			jp.P = append(jp.P, []float64{
				float64(p.Edge), p.Likelihood, p.LWR,
				p.DistalLength, p.PendantLength,
			})
		}
		body.Placements = append(body.Placements, jp)
	}

	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(body); err != nil {
		return fmt.Errorf("jplace: %v", err)
	}
	return nil
}

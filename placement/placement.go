// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package placement implements the data model
// for phylogenetic placement samples:
// a reference tree
// and a mass distribution of query placements
// over its edges.
package placement

import (
	"slices"
)

// A Node is a node of a reference tree.
type Node struct {
	// ID is the index of the node
	// in the tree node list.
	ID int

	// Name is the taxon name of the node,
	// empty for unnamed internal nodes.
	Name string

	// Anc is the ancestor of the node,
	// nil at the root.
	Anc *Node

	// Children are the immediate descendants of the node,
	// in tree file order.
	Children []*Node

	// Edge is the edge between the node and its ancestor.
	// It is nil at the root,
	// unless the tree file assigns a root edge.
	Edge *Edge
}

// An Edge is a branch of a reference tree.
// Edges are identified by their index,
// which is also the position of the edge
// in any per-edge mass vector.
type Edge struct {
	// ID is the edge index.
	ID int

	// Length is the branch length of the edge.
	Length float64

	// Node is the distal node of the edge,
	// that is,
	// the node away from the root.
	Node *Node
}

// A Tree is a reference tree read from a placement file.
// Trees are immutable after load.
type Tree struct {
	nodes []*Node
	edges []*Edge
	root  *Node
}

// Root returns the root node of the tree.
func (t *Tree) Root() *Node { return t.root }

// Nodes returns the nodes of the tree in ID order.
func (t *Tree) Nodes() []*Node { return t.nodes }

// Edges returns the edges of the tree in edge index order.
func (t *Tree) Edges() []*Edge { return t.edges }

// Node returns the node with the given ID.
func (t *Tree) Node(id int) *Node { return t.nodes[id] }

// Edge returns the edge with the given index.
func (t *Tree) Edge(id int) *Edge { return t.edges[id] }

// NumNodes returns the number of nodes of the tree.
func (t *Tree) NumNodes() int { return len(t.nodes) }

// NumEdges returns the number of edges of the tree.
func (t *Tree) NumEdges() int { return len(t.edges) }

// Terms returns the names of the terminals of the tree,
// sorted alphabetically.
func (t *Tree) Terms() []string {
	var terms []string
	for _, n := range t.nodes {
		if len(n.Children) == 0 && n.Name != "" {
			terms = append(terms, n.Name)
		}
	}
	slices.Sort(terms)
	return terms
}

// Compatible returns true if two trees are structurally identical:
// same number of nodes and edges,
// same adjacency,
// and the same edge indexing,
// so that per-edge mass vectors of both trees line up.
// Branch lengths are not compared.
func Compatible(a, b *Tree) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.nodes) != len(b.nodes) || len(a.edges) != len(b.edges) {
		return false
	}
	return compatibleNodes(a.root, b.root)
}

func compatibleNodes(a, b *Node) bool {
	if (a.Edge == nil) != (b.Edge == nil) {
		return false
	}
	if a.Edge != nil && a.Edge.ID != b.Edge.ID {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i, c := range a.Children {
		if !compatibleNodes(c, b.Children[i]) {
			return false
		}
	}
	return true
}

// A Placement is a single candidate attachment
// of a query to an edge of the reference tree.
type Placement struct {
	// Edge is the index of the attachment edge.
	Edge int

	// Likelihood is the log-likelihood of the attachment.
	Likelihood float64

	// LWR is the likelihood weight ratio of the attachment,
	// the fraction of the query mass placed on the edge.
	LWR float64

	// DistalLength is the attachment position on the edge,
	// measured from the distal end.
	DistalLength float64

	// PendantLength is the length of the pendant branch
	// between the attachment point and the query.
	PendantLength float64
}

// A Pquery is a placed query:
// one or more named sequences
// with a set of candidate placements.
type Pquery struct {
	// Names of the query sequences.
	Names []string

	// Multiplicity is the total abundance of the query,
	// the sum of the per-name multiplicities of the file.
	Multiplicity float64

	// Placements are the candidate placements of the query.
	Placements []Placement
}

// Best returns the placement with the highest likelihood weight ratio.
func (p *Pquery) Best() Placement {
	best := p.Placements[0]
	for _, pl := range p.Placements[1:] {
		if pl.LWR > best.LWR {
			best = pl
		}
	}
	return best
}

// A Sample is a reference tree
// plus the mass distribution of a set of placed queries.
// A sample is owned by a single goroutine:
// loading is safe to do concurrently for different files,
// but a loaded sample must not be shared while mutated.
type Sample struct {
	// Name of the sample,
	// usually derived from the file name.
	Name string

	// Tree is the reference tree of the sample.
	Tree *Tree

	// Pqueries are the placed queries of the sample.
	Pqueries []*Pquery
}

// MassPerEdge returns the placement mass on each edge,
// in edge index order:
// the sum over placements of
// likelihood weight ratio times query multiplicity.
func (s *Sample) MassPerEdge() []float64 {
	m := make([]float64, s.Tree.NumEdges())
	for _, pq := range s.Pqueries {
		for _, p := range pq.Placements {
			m[p.Edge] += p.LWR * pq.Multiplicity
		}
	}
	return m
}

// TotalMass returns the sum of the placement mass of the sample.
func (s *Sample) TotalMass() float64 {
	var sum float64
	for _, pq := range s.Pqueries {
		for _, p := range pq.Placements {
			sum += p.LWR * pq.Multiplicity
		}
	}
	return sum
}

// Normalize rescales the query multiplicities
// so that the total mass of the sample is one.
// Samples without mass are left unchanged.
func (s *Sample) Normalize() {
	sum := s.TotalMass()
	if sum <= 0 {
		return
	}
	for _, pq := range s.Pqueries {
		pq.Multiplicity /= sum
	}
}

// PointMass reduces every pquery to a point mass:
// only the best placement is kept,
// with a likelihood weight ratio of one.
func (s *Sample) PointMass() {
	for _, pq := range s.Pqueries {
		best := pq.Best()
		best.LWR = 1
		pq.Placements = []Placement{best}
	}
}

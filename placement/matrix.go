// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package placement

import (
	"gonum.org/v1/gonum/mat"
)

// NodeDistances returns the all-pairs matrix
// of branch length distances between tree nodes,
// indexed by node ID.
func NodeDistances(t *Tree) *mat.SymDense {
	d := mat.NewSymDense(t.NumNodes(), nil)
	for _, n := range t.nodes {
		spreadDistance(d, n, n, nil, 0)
	}
	return d
}

// SpreadDistance walks the tree from node src,
// adding branch lengths,
// and stores the distance from src at every visited node.
func spreadDistance(d *mat.SymDense, src, n, prev *Node, dist float64) {
	if n.ID >= src.ID {
		d.SetSym(src.ID, n.ID, dist)
	}
	if n.Anc != nil && n.Anc != prev {
		spreadDistance(d, src, n.Anc, n, dist+n.Edge.Length)
	}
	for _, c := range n.Children {
		if c == prev {
			continue
		}
		spreadDistance(d, src, c, n, dist+c.Edge.Length)
	}
}

// RootSides returns the node side matrix of the tree:
// entry (i, j) is +1 if node j is in the subtree below node i,
// -1 if it is on the root side of node i,
// and 0 if i == j.
// The matrix gives the traversal direction
// used to sign placement distances.
func RootSides(t *Tree) *mat.Dense {
	s := mat.NewDense(t.NumNodes(), t.NumNodes(), nil)
	for i := 0; i < t.NumNodes(); i++ {
		for j := 0; j < t.NumNodes(); j++ {
			if i != j {
				s.Set(i, j, -1)
			}
		}
	}
	for _, n := range t.nodes {
		markBelow(s, n, n)
	}
	return s
}

func markBelow(s *mat.Dense, src, n *Node) {
	for _, c := range n.Children {
		s.Set(src.ID, c.ID, 1)
		markBelow(s, src, c)
	}
}

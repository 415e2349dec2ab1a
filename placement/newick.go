// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package placement

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseNewick reads a reference tree
// from a newick tree description.
// Edge indices can be given explicitly
// with the "{<number>}" suffix
// used by placement files,
// for example "((A:0.2{0},B:0.09{1}):0.7{2}):0{3};".
// If no edge index is given,
// edges are numbered in the order
// in which they appear in the description.
// Either all edges or none must carry an index.
func ParseNewick(s string) (*Tree, error) {
	p := &newickParser{tree: &Tree{}, data: s}
	root, err := p.subtree()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos >= len(p.data) || p.data[p.pos] != ';' {
		return nil, fmt.Errorf("newick: pos %d: expecting ';'", p.pos)
	}
	p.tree.root = root

	if err := p.tree.indexEdges(p.explicit); err != nil {
		return nil, err
	}
	return p.tree, nil
}

type newickParser struct {
	tree *Tree
	data string
	pos  int

	// true if any explicit "{<number>}" index was read
	explicit bool
}

func (p *newickParser) subtree() (*Node, error) {
	p.skipSpaces()
	n := &Node{ID: len(p.tree.nodes)}
	p.tree.nodes = append(p.tree.nodes, n)

	if p.pos < len(p.data) && p.data[p.pos] == '(' {
		p.pos++
		for {
			c, err := p.subtree()
			if err != nil {
				return nil, err
			}
			c.Anc = n
			n.Children = append(n.Children, c)

			p.skipSpaces()
			if p.pos >= len(p.data) {
				return nil, fmt.Errorf("newick: pos %d: unclosed '('", p.pos)
			}
			if p.data[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.data[p.pos] == ')' {
				p.pos++
				break
			}
			return nil, fmt.Errorf("newick: pos %d: unexpected %q", p.pos, p.data[p.pos])
		}
	}

	n.Name = p.name()
	if err := p.branch(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Branch reads the optional ":<length>" and "{<index>}" suffixes
// of a node and stores them as a pending edge.
func (p *newickParser) branch(n *Node) error {
	p.skipSpaces()
	length := -1.0
	edgeID := -1

	if p.pos < len(p.data) && p.data[p.pos] == ':' {
		p.pos++
		p.skipSpaces()
		start := p.pos
		for p.pos < len(p.data) && isFloatChar(p.data[p.pos]) {
			p.pos++
		}
		v, err := strconv.ParseFloat(p.data[start:p.pos], 64)
		if err != nil {
			return fmt.Errorf("newick: pos %d: invalid branch length: %v", start, err)
		}
		length = v
	}

	p.skipSpaces()
	if p.pos < len(p.data) && p.data[p.pos] == '{' {
		p.pos++
		start := p.pos
		for p.pos < len(p.data) && p.data[p.pos] != '}' {
			p.pos++
		}
		if p.pos >= len(p.data) {
			return fmt.Errorf("newick: pos %d: unclosed '{'", start)
		}
		id, err := strconv.Atoi(strings.TrimSpace(p.data[start:p.pos]))
		if err != nil || id < 0 {
			return fmt.Errorf("newick: pos %d: invalid edge index %q", start, p.data[start:p.pos])
		}
		p.pos++
		edgeID = id
		p.explicit = true
	}

	// A root without branch data has no edge.
	if n.ID == 0 && length < 0 && edgeID < 0 {
		return nil
	}
	if length < 0 {
		length = 0
	}
	n.Edge = &Edge{ID: edgeID, Length: length, Node: n}
	return nil
}

func (p *newickParser) name() string {
	p.skipSpaces()
	if p.pos < len(p.data) && p.data[p.pos] == '\'' {
		p.pos++
		start := p.pos
		for p.pos < len(p.data) && p.data[p.pos] != '\'' {
			p.pos++
		}
		name := p.data[start:p.pos]
		if p.pos < len(p.data) {
			p.pos++
		}
		return name
	}

	start := p.pos
	for p.pos < len(p.data) && !isNewickDelim(p.data[p.pos]) {
		p.pos++
	}
	return strings.TrimSpace(p.data[start:p.pos])
}

func (p *newickParser) skipSpaces() {
	for p.pos < len(p.data) && unicode.IsSpace(rune(p.data[p.pos])) {
		p.pos++
	}
}

func isNewickDelim(c byte) bool {
	switch c {
	case '(', ')', ',', ':', ';', '{', '}', '\'':
		return true
	}
	return false
}

func isFloatChar(c byte) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	switch c {
	case '+', '-', '.', 'e', 'E':
		return true
	}
	return false
}

// IndexEdges builds the edge list of a freshly parsed tree.
// With explicit indices,
// they must form a dense 0..E-1 set;
// otherwise edges are numbered in parse order.
func (t *Tree) indexEdges(explicit bool) error {
	var pending []*Edge
	for _, n := range t.nodes {
		if n.Edge == nil {
			if n.Anc != nil {
				// newick without branch lengths
				n.Edge = &Edge{ID: -1, Node: n}
			} else {
				continue
			}
		}
		pending = append(pending, n.Edge)
	}

	t.edges = make([]*Edge, len(pending))
	for i, e := range pending {
		if !explicit {
			e.ID = i
		}
		if e.ID < 0 || e.ID >= len(pending) {
			return fmt.Errorf("newick: edge index %d out of range [0, %d)", e.ID, len(pending))
		}
		if t.edges[e.ID] != nil {
			return fmt.Errorf("newick: duplicated edge index %d", e.ID)
		}
		t.edges[e.ID] = e
	}
	return nil
}

// Newick returns the newick description of the tree,
// with explicit branch lengths and edge indices.
func (t *Tree) Newick() string {
	var sb strings.Builder
	t.root.newick(&sb)
	sb.WriteByte(';')
	return sb.String()
}

func (n *Node) newick(sb *strings.Builder) {
	if len(n.Children) > 0 {
		sb.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteByte(',')
			}
			c.newick(sb)
		}
		sb.WriteByte(')')
	}
	sb.WriteString(n.Name)
	if n.Edge != nil {
		fmt.Fprintf(sb, ":%s{%d}", strconv.FormatFloat(n.Edge.Length, 'g', -1, 64), n.Edge.ID)
	}
}

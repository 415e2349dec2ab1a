// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package heattree renders a reference tree
// with edges colored by an aggregated per-edge mass vector,
// as an SVG image:
// branch lengths on the x axis,
// a sequential color gradient for the mass,
// and a color bar legend.
package heattree

import (
	"encoding/xml"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"

	"github.com/jprado/placemass/colornorm"
	"github.com/jprado/placemass/placement"
	"github.com/js-arias/blind"
)

const yStep = 12
const legendHeight = 40

// A Gradienter is a sequential color gradient
// over positions in [0, 1].
type Gradienter interface {
	Gradient(v float64) color.Color
}

// Incandescent is the incandescent color scheme
// of Paul Tol
// <https://personal.sron.nl/~pault/#fig:scheme_incandescent>.
type Incandescent struct{}

func (i Incandescent) Gradient(v float64) color.Color {
	return blind.Sequential(blind.Incandescent, clamp(v))
}

// Iridescent is the iridescent color scheme
// of Paul Tol
// <https://personal.sron.nl/~pault/#fig:scheme_iridescent>.
type Iridescent struct{}

func (i Iridescent) Gradient(v float64) color.Color {
	return blind.Sequential(blind.Iridescent, clamp(v))
}

// Rainbow is the smooth rainbow color scheme
// of Paul Tol
// <https://personal.sron.nl/~pault/#fig:scheme_rainbow_smooth>
// from purple to red.
type Rainbow struct{}

func (r Rainbow) Gradient(v float64) color.Color {
	return blind.Sequential(blind.RainbowPurpleToRed, clamp(v))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Scheme returns the gradient with the given name:
// "incandescent", "iridescent" or "rainbow".
func Scheme(name string) (Gradienter, error) {
	switch name {
	case "", "incandescent":
		return Incandescent{}, nil
	case "iridescent":
		return Iridescent{}, nil
	case "rainbow":
		return Rainbow{}, nil
	}
	return nil, fmt.Errorf("unknown gradient %q", name)
}

// Options collects the rendering settings of a heat tree.
type Options struct {
	// Norm maps masses to gradient positions.
	Norm colornorm.Norm

	// Gradient is the color scheme of the edges.
	// The default is the incandescent scheme.
	Gradient Gradienter

	// Mask is the color of edges
	// whose mass cannot be represented by the norm.
	// The default is a light gray.
	Mask color.RGBA

	// XScale is the number of pixel units
	// per branch length unit.
	// The default (zero) scales the deepest leaf
	// to 600 pixel units.
	XScale float64
}

type svgNode struct {
	x     float64
	y     int
	topY  int
	botY  int
	color color.Color

	src *placement.Node

	anc  *svgNode
	desc []*svgNode
}

type svgTree struct {
	y     int
	x     float64
	taxSz int
	root  *svgNode
	norm  colornorm.Norm
}

// WriteSVG renders the tree with its per-edge masses
// into an SVG image.
// The masses vector must be in edge index order
// and of the tree edge count length.
func WriteSVG(w io.Writer, t *placement.Tree, masses []float64, opt Options) error {
	if len(masses) != t.NumEdges() {
		return fmt.Errorf("heattree: got %d masses, want %d", len(masses), t.NumEdges())
	}
	if opt.Gradient == nil {
		opt.Gradient = Incandescent{}
	}
	if opt.Mask == (color.RGBA{}) {
		opt.Mask = color.RGBA{211, 211, 211, 255}
	}
	xScale := opt.XScale
	if xScale <= 0 {
		if d := maxDepth(t.Root(), 0); d > 0 {
			xScale = 600 / d
		} else {
			xScale = 1
		}
	}

	s := copyTree(t, xScale)
	s.norm = opt.Norm
	s.setColors(masses, opt)
	return s.draw(w, opt)
}

func maxDepth(n *placement.Node, d float64) float64 {
	if n.Edge != nil && n.Anc != nil {
		d += n.Edge.Length
	}
	max := d
	for _, c := range n.Children {
		if v := maxDepth(c, d); v > max {
			max = v
		}
	}
	return max
}

func copyTree(t *placement.Tree, xScale float64) *svgTree {
	maxSz := 0
	var root *svgNode
	ids := make(map[int]*svgNode, t.NumNodes())
	for _, src := range t.Nodes() {
		n := &svgNode{src: src}
		if src.Anc == nil {
			root = n
		} else {
			anc := ids[src.Anc.ID]
			n.anc = anc
			anc.desc = append(anc.desc, n)
		}
		ids[src.ID] = n
		if len(src.Name) > maxSz {
			maxSz = len(src.Name)
		}
	}

	s := &svgTree{root: root}
	s.prepare(root, xScale)
	s.y = s.y*yStep + yStep
	s.taxSz = maxSz
	return s
}

func (s *svgTree) prepare(n *svgNode, xScale float64) {
	n.x = 10
	if n.anc != nil {
		n.x = n.anc.x + n.src.Edge.Length*xScale
	}
	if s.x < n.x {
		s.x = n.x
	}

	if n.desc == nil {
		n.y = s.y*yStep + 5
		s.y++
		return
	}

	botY := 0
	topY := math.MaxInt
	for _, d := range n.desc {
		s.prepare(d, xScale)
		if d.y < topY {
			topY = d.y
		}
		if d.y > botY {
			botY = d.y
		}
	}
	n.topY = topY
	n.botY = botY
	n.y = topY + (botY-topY)/2
}

func (s *svgTree) setColors(masses []float64, opt Options) {
	for _, n := range allNodes(s.root, nil) {
		if n.src.Edge == nil {
			continue
		}
		pos, ok := opt.Norm.Normalize(masses[n.src.Edge.ID])
		if !ok {
			n.color = opt.Mask
			continue
		}
		n.color = opt.Gradient.Gradient(pos)
	}
}

func allNodes(n *svgNode, ns []*svgNode) []*svgNode {
	ns = append(ns, n)
	for _, d := range n.desc {
		ns = allNodes(d, ns)
	}
	return ns
}

func (s *svgTree) draw(w io.Writer, opt Options) error {
	fmt.Fprintf(w, "%s", xml.Header)
	e := xml.NewEncoder(w)
	svg := xml.StartElement{
		Name: xml.Name{Local: "svg"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "height"}, Value: strconv.Itoa(s.y + legendHeight + 10)},
			// assume that each character has 6 pixels wide
			{Name: xml.Name{Local: "width"}, Value: strconv.Itoa(int(s.x) + s.taxSz*6 + 20)},
			{Name: xml.Name{Local: "xmlns"}, Value: "http://www.w3.org/2000/svg"},
		},
	}
	e.EncodeToken(svg)

	g := xml.StartElement{
		Name: xml.Name{Local: "g"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "stroke-width"}, Value: "2"},
			{Name: xml.Name{Local: "stroke"}, Value: "black"},
			{Name: xml.Name{Local: "stroke-linecap"}, Value: "round"},
			{Name: xml.Name{Local: "font-family"}, Value: "Verdana"},
			{Name: xml.Name{Local: "font-size"}, Value: "10"},
		},
	}
	e.EncodeToken(g)

	s.root.draw(e)
	s.root.label(e)
	s.legend(e, opt)

	e.EncodeToken(g.End())
	e.EncodeToken(svg.End())
	return e.Flush()
}

func rgb(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("rgb(%d,%d,%d)", r>>8, g>>8, b>>8)
}

func (n *svgNode) draw(e *xml.Encoder) {
	// horizontal line for the edge of the node
	if n.anc != nil {
		ln := xml.StartElement{
			Name: xml.Name{Local: "line"},
			Attr: []xml.Attr{
				{Name: xml.Name{Local: "x1"}, Value: strconv.Itoa(int(n.anc.x))},
				{Name: xml.Name{Local: "y1"}, Value: strconv.Itoa(n.y)},
				{Name: xml.Name{Local: "x2"}, Value: strconv.Itoa(int(n.x))},
				{Name: xml.Name{Local: "y2"}, Value: strconv.Itoa(n.y)},
				{Name: xml.Name{Local: "stroke"}, Value: rgb(n.color)},
			},
		}
		e.EncodeToken(ln)
		e.EncodeToken(ln.End())
	}

	if n.desc == nil {
		return
	}

	// vertical connector
	ln := xml.StartElement{
		Name: xml.Name{Local: "line"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "x1"}, Value: strconv.Itoa(int(n.x))},
			{Name: xml.Name{Local: "y1"}, Value: strconv.Itoa(n.topY)},
			{Name: xml.Name{Local: "x2"}, Value: strconv.Itoa(int(n.x))},
			{Name: xml.Name{Local: "y2"}, Value: strconv.Itoa(n.botY)},
		},
	}
	e.EncodeToken(ln)
	e.EncodeToken(ln.End())

	for _, d := range n.desc {
		d.draw(e)
	}
}

func (n *svgNode) label(e *xml.Encoder) {
	if n.desc == nil && n.src.Name != "" {
		tx := xml.StartElement{
			Name: xml.Name{Local: "text"},
			Attr: []xml.Attr{
				{Name: xml.Name{Local: "x"}, Value: strconv.Itoa(int(n.x + 10))},
				{Name: xml.Name{Local: "y"}, Value: strconv.Itoa(n.y + 5)},
				{Name: xml.Name{Local: "stroke-width"}, Value: "0"},
				{Name: xml.Name{Local: "font-style"}, Value: "italic"},
			},
		}
		e.EncodeToken(tx)
		e.EncodeToken(xml.CharData(n.src.Name))
		e.EncodeToken(tx.End())
	}

	for _, d := range n.desc {
		d.label(e)
	}
}

// Legend draws the color bar of the gradient
// with the domain bounds as labels.
func (s *svgTree) legend(e *xml.Encoder, opt Options) {
	const width = 200
	const steps = 50
	y := s.y + 10

	for i := 0; i < steps; i++ {
		c := opt.Gradient.Gradient(float64(i) / (steps - 1))
		rc := xml.StartElement{
			Name: xml.Name{Local: "rect"},
			Attr: []xml.Attr{
				{Name: xml.Name{Local: "x"}, Value: strconv.Itoa(10 + i*width/steps)},
				{Name: xml.Name{Local: "y"}, Value: strconv.Itoa(y)},
				{Name: xml.Name{Local: "width"}, Value: strconv.Itoa(width/steps + 1)},
				{Name: xml.Name{Local: "height"}, Value: "10"},
				{Name: xml.Name{Local: "fill"}, Value: rgb(c)},
				{Name: xml.Name{Local: "stroke-width"}, Value: "0"},
			},
		}
		e.EncodeToken(rc)
		e.EncodeToken(rc.End())
	}

	for _, lb := range []struct {
		x int
		v float64
	}{
		{10, s.norm.Min},
		{10 + width, s.norm.Max},
	} {
		tx := xml.StartElement{
			Name: xml.Name{Local: "text"},
			Attr: []xml.Attr{
				{Name: xml.Name{Local: "x"}, Value: strconv.Itoa(lb.x)},
				{Name: xml.Name{Local: "y"}, Value: strconv.Itoa(y + 22)},
				{Name: xml.Name{Local: "stroke-width"}, Value: "0"},
			},
		}
		e.EncodeToken(tx)
		e.EncodeToken(xml.CharData(strconv.FormatFloat(lb.v, 'g', 4, 64)))
		e.EncodeToken(tx.End())
	}
}

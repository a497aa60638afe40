// Package layout turns a parsed topology into world-space positions and
// edge curves.
//
// Nodes are ranked into integer levels (distance from a source), spread
// horizontally by level and vertically within a level, and connected by
// cubic Bezier paths computed per edge by the router. The computation is a
// deterministic function of the topology and options; cyclic input
// terminates because cycle-closing edges are masked during leveling.
package layout

import "github.com/flowviz/flowviz/pkg/topology"

// LayoutNode is one positioned node. X and Y are the box center.
type LayoutNode struct {
	ID     string            `json:"id" yaml:"id" bson:"id"`
	Type   topology.NodeType `json:"type" yaml:"type" bson:"type"`
	Label  string            `json:"label" yaml:"label" bson:"label"`
	X      float64           `json:"x" yaml:"x" bson:"x"`
	Y      float64           `json:"y" yaml:"y" bson:"y"`
	Width  float64           `json:"width" yaml:"width" bson:"width"`
	Height float64           `json:"height" yaml:"height" bson:"height"`
	Level  int               `json:"level" yaml:"level" bson:"level"`
}

// Anchor returns the point on the node's box where an edge on the given
// side attaches.
func (n *LayoutNode) Anchor(side topology.Side) Point {
	switch side {
	case topology.SideTop:
		return Point{X: n.X, Y: n.Y - n.Height/2}
	case topology.SideBottom:
		return Point{X: n.X, Y: n.Y + n.Height/2}
	case topology.SideLeft:
		return Point{X: n.X - n.Width/2, Y: n.Y}
	default:
		return Point{X: n.X + n.Width/2, Y: n.Y}
	}
}

// LayoutEdge is one routed edge.
type LayoutEdge struct {
	From     string        `json:"from" yaml:"from" bson:"from"`
	To       string        `json:"to" yaml:"to" bson:"to"`
	FromSide topology.Side `json:"from_side" yaml:"from_side" bson:"from_side"`
	ToSide   topology.Side `json:"to_side" yaml:"to_side" bson:"to_side"`
	Path     Path          `json:"path" yaml:"path" bson:"path"`
}

// Layout is the positioned graph consumed by the renderers and the
// simulator.
type Layout struct {
	Nodes map[string]*LayoutNode `json:"nodes" yaml:"nodes" bson:"nodes"`
	Edges []*LayoutEdge          `json:"edges" yaml:"edges" bson:"edges"`
}

// Compute lays out a topology.
//
// Each node's horizontal position is its level times HSpacing; within a
// level, nodes are distributed evenly around y=0 in declaration order using
// VSpacing. A node's manual x or y attribute replaces the corresponding
// computed coordinate unconditionally.
//
// Edges whose endpoints are missing from the node set are dropped silently;
// parser-built topologies never contain such edges because connecting an
// undeclared name creates it.
func Compute(t *topology.Topology, opts Options) *Layout {
	opts.SetDefaults()

	l := &Layout{
		Nodes: make(map[string]*LayoutNode, t.NodeCount()),
		Edges: []*LayoutEdge{},
	}

	levels := assignLevels(t)
	count := make(map[int]int, len(t.Nodes))
	for _, n := range t.Nodes {
		count[levels[n.ID]]++
	}

	index := make(map[int]int, len(count))
	for _, n := range t.Nodes {
		level := levels[n.ID]
		i := index[level]
		index[level]++

		x := float64(level) * opts.HSpacing
		y := (float64(i) - float64(count[level]-1)/2) * opts.VSpacing
		if n.Attrs.X != nil {
			x = *n.Attrs.X
		}
		if n.Attrs.Y != nil {
			y = *n.Attrs.Y
		}
		l.Nodes[n.ID] = &LayoutNode{
			ID:     n.ID,
			Type:   n.Type,
			Label:  displayLabel(n),
			X:      x,
			Y:      y,
			Width:  opts.NodeWidth,
			Height: opts.NodeHeight,
			Level:  level,
		}
	}

	parallel := make(map[[2]string]int)
	for _, e := range t.Edges {
		from, ok := l.Nodes[e.From]
		if !ok {
			continue
		}
		to, ok := l.Nodes[e.To]
		if !ok {
			continue
		}
		key := [2]string{e.From, e.To}
		offset := parallel[key]
		parallel[key]++

		l.Edges = append(l.Edges, &LayoutEdge{
			From:     e.From,
			To:       e.To,
			FromSide: e.FromSide,
			ToSide:   e.ToSide,
			Path:     Route(from.Anchor(e.FromSide), to.Anchor(e.ToSide), offset, e.FromSide, e.ToSide),
		})
	}
	return l
}

func displayLabel(n *topology.Node) string {
	if n.Attrs.Label != "" {
		return n.Attrs.Label
	}
	return n.ID
}

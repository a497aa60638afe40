package render

import (
	"bytes"
	"fmt"
	"html"
	"maps"
	"slices"
	"strings"

	"github.com/flowviz/flowviz/pkg/errors"
	"github.com/flowviz/flowviz/pkg/layout"
	"github.com/flowviz/flowviz/pkg/sim"
	"github.com/flowviz/flowviz/pkg/topology"
)

const sceneMargin = 40.0

// Per-type node colors shared by the native SVG renderer.
var (
	nodeFill = map[topology.NodeType]string{
		topology.NodeService:   "#e3f2fd",
		topology.NodeTopic:     "#fff3e0",
		topology.NodeDB:        "#e8f5e9",
		topology.NodeProcessor: "#f3e5f5",
		topology.NodeExternal:  "#eceff1",
	}
	nodeStroke = map[topology.NodeType]string{
		topology.NodeService:   "#1e88e5",
		topology.NodeTopic:     "#fb8c00",
		topology.NodeDB:        "#43a047",
		topology.NodeProcessor: "#8e24aa",
		topology.NodeExternal:  "#607d8b",
	}
)

// fillColor returns c when it is safe to embed in a color attribute: a hex
// color or a bare color name. Anything else falls back to fall, so malformed
// values from hand-edited scene files never reach markup.
func fillColor(c, fall string) string {
	if c == "" {
		return fall
	}
	if errors.ValidateColor(c) == nil || errors.ValidateIdentifier(c) == nil {
		return c
	}
	return fall
}

// SceneOption configures native SVG rendering.
type SceneOption func(*sceneRenderer)

type sceneRenderer struct {
	particles []sim.Particle
	title     string
}

// WithParticles overlays a simulation frame's particles on the scene.
// Callers animating a paused frame typically pass Particles and Parked
// concatenated.
func WithParticles(ps []sim.Particle) SceneOption {
	return func(r *sceneRenderer) { r.particles = ps }
}

// WithTitle adds an SVG title element.
func WithTitle(title string) SceneOption {
	return func(r *sceneRenderer) { r.title = title }
}

// SceneSVG renders the engine's layout as a standalone SVG document.
//
// Placement is taken verbatim from the layout: node boxes at their computed
// centers, edges as the router's cubic Bezier curves, subsystem rectangles
// behind their member nodes. Unlike [RenderSVG] nothing is delegated to
// Graphviz, so the output geometry matches the simulation exactly.
func SceneSVG(l *layout.Layout, t *topology.Topology, opts ...SceneOption) []byte {
	r := sceneRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	minX, minY, maxX, maxY := sceneBounds(l)
	w := maxX - minX
	h := maxY - minY

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		minX, minY, w, h, w, h)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", html.EscapeString(r.title))
	}
	writeDefs(&buf)

	writeSubsystemRects(&buf, l, t)
	for _, e := range l.Edges {
		writeEdgePath(&buf, e)
	}
	for _, n := range orderedNodes(l) {
		writeNodeBox(&buf, n)
	}
	for i := range r.particles {
		writeParticle(&buf, &r.particles[i])
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// sceneBounds computes the world-space bounding box of the layout, padded
// by the scene margin. Edge control points are included because loopback
// arcs swing outside the node boxes.
func sceneBounds(l *layout.Layout) (minX, minY, maxX, maxY float64) {
	if len(l.Nodes) == 0 {
		return 0, 0, 400, 300
	}
	first := true
	grow := func(x, y float64) {
		if first {
			minX, maxX, minY, maxY = x, x, y, y
			first = false
			return
		}
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	for _, n := range l.Nodes {
		grow(n.X-n.Width/2, n.Y-n.Height/2)
		grow(n.X+n.Width/2, n.Y+n.Height/2)
	}
	for _, e := range l.Edges {
		for _, p := range []layout.Point{e.Path.Start, e.Path.C1, e.Path.C2, e.Path.End} {
			grow(p.X, p.Y)
		}
	}
	return minX - sceneMargin, minY - sceneMargin, maxX + sceneMargin, maxY + sceneMargin
}

func writeDefs(buf *bytes.Buffer) {
	buf.WriteString("  <defs>\n")
	buf.WriteString(`    <marker id="arrow" viewBox="0 0 8 6" refX="7" refY="3" markerWidth="8" markerHeight="6" orient="auto">` + "\n")
	buf.WriteString(`      <path d="M0,0 L8,3 L0,6 z" fill="#78909c"/>` + "\n")
	buf.WriteString("    </marker>\n")
	buf.WriteString("  </defs>\n")
}

// writeSubsystemRects draws one translucent rectangle per subsystem behind
// the member nodes it can find in the layout.
func writeSubsystemRects(buf *bytes.Buffer, l *layout.Layout, t *topology.Topology) {
	if t == nil {
		return
	}
	const pad = 18.0
	for _, ss := range t.Subsystems {
		first := true
		var minX, minY, maxX, maxY float64
		for _, id := range ss.Nodes {
			n, ok := l.Nodes[id]
			if !ok {
				continue
			}
			if first {
				minX, maxX = n.X-n.Width/2, n.X+n.Width/2
				minY, maxY = n.Y-n.Height/2, n.Y+n.Height/2
				first = false
				continue
			}
			minX = min(minX, n.X-n.Width/2)
			maxX = max(maxX, n.X+n.Width/2)
			minY = min(minY, n.Y-n.Height/2)
			maxY = max(maxY, n.Y+n.Height/2)
		}
		if first {
			continue
		}
		color := fillColor(ss.Color, "#9e9e9e")
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="12" fill="%s" fill-opacity="0.08" stroke="%s" stroke-opacity="0.4"/>`+"\n",
			minX-pad, minY-pad, maxX-minX+2*pad, maxY-minY+2*pad, color, color)
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="sans-serif" font-size="12" fill="%s">%s</text>`+"\n",
			minX-pad+6, minY-pad-5, color, html.EscapeString(ss.Name))
	}
}

func writeEdgePath(buf *bytes.Buffer, e *layout.LayoutEdge) {
	p := e.Path
	fmt.Fprintf(buf, `  <path d="M%.1f,%.1f C%.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="none" stroke="#78909c" stroke-width="1.5" marker-end="url(#arrow)"/>`+"\n",
		p.Start.X, p.Start.Y, p.C1.X, p.C1.Y, p.C2.X, p.C2.Y, p.End.X, p.End.Y)
}

// orderedNodes returns layout nodes sorted by id so output is deterministic
// over the map.
func orderedNodes(l *layout.Layout) []*layout.LayoutNode {
	nodes := make([]*layout.LayoutNode, 0, len(l.Nodes))
	for _, id := range slices.Sorted(maps.Keys(l.Nodes)) {
		nodes = append(nodes, l.Nodes[id])
	}
	return nodes
}

func writeNodeBox(buf *bytes.Buffer, n *layout.LayoutNode) {
	fill, ok := nodeFill[n.Type]
	if !ok {
		fill = "#f5f5f5"
	}
	stroke, ok := nodeStroke[n.Type]
	if !ok {
		stroke = "#757575"
	}

	x := n.X - n.Width/2
	y := n.Y - n.Height/2
	rx := 8.0
	if n.Type == topology.NodeTopic {
		// topics render as pills
		rx = n.Height / 2
	}
	dash := ""
	if n.Type == topology.NodeExternal {
		dash = ` stroke-dasharray="6 3"`
	}
	fmt.Fprintf(buf, `  <rect id="node-%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s" stroke="%s" stroke-width="2"%s/>`+"\n",
		html.EscapeString(n.ID), x, y, n.Width, n.Height, rx, fill, stroke, dash)
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central" font-family="sans-serif" font-size="13" fill="#263238">%s</text>`+"\n",
		n.X, n.Y, html.EscapeString(n.Label))
}

func writeParticle(buf *bytes.Buffer, p *sim.Particle) {
	color := fillColor(p.Color, topology.DefaultEventColor)
	s := p.Size
	if s <= 0 {
		s = topology.DefaultEventSize
	}

	switch {
	case strings.HasPrefix(p.Shape, "icon:"):
		icon := strings.TrimPrefix(p.Shape, "icon:")
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central" font-size="%.1f">%s</text>`+"\n",
			p.X, p.Y, 2*s, html.EscapeString(icon))
	case p.Shape == topology.ShapeSquare:
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" fill-opacity="0.9"/>`+"\n",
			p.X-s, p.Y-s, 2*s, 2*s, color)
	case p.Shape == topology.ShapeTriangle:
		fmt.Fprintf(buf, `  <polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="%s" fill-opacity="0.9"/>`+"\n",
			p.X, p.Y-s, p.X+s, p.Y+s, p.X-s, p.Y+s, color)
	case p.Shape == topology.ShapeDiamond:
		fmt.Fprintf(buf, `  <polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="%s" fill-opacity="0.9"/>`+"\n",
			p.X, p.Y-s, p.X+s, p.Y, p.X, p.Y+s, p.X-s, p.Y, color)
	default:
		fmt.Fprintf(buf, `  <circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" fill-opacity="0.9"/>`+"\n",
			p.X, p.Y, s, color)
	}

	if p.Label != "" {
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="10" fill="#455a64">%s</text>`+"\n",
			p.X, p.Y-s-4, html.EscapeString(p.Label))
	}
}

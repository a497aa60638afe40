// Package render produces static artifacts from parsed topologies.
//
// # Overview
//
// Two pathways cover the output formats:
//
//   - [ToDOT] exports Graphviz DOT with subsystem clusters, per-type node
//     shapes, and an event legend. [RenderSVG] and [RenderPNG] rasterize
//     DOT in-process through go-graphviz, which computes its own node
//     placement.
//   - [SceneSVG] draws the engine's layout directly: node boxes at the
//     positions pkg/layout computed, edges as cubic Bezier paths, subsystem
//     group rectangles, and optionally the particles of a simulation frame.
//     This is the artifact whose geometry matches what the animation shows.
//
// # Usage
//
//	dot := render.ToDOT(topo)
//	svg, err := render.RenderSVG(dot)
//
//	native := render.SceneSVG(l, topo, render.WithParticles(frame.Particles))
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/flowviz/flowviz/pkg/topology"
)

// dotShape maps node types to Graphviz shapes. Unknown types render as
// plain boxes.
var dotShape = map[topology.NodeType]string{
	topology.NodeService:   "box",
	topology.NodeTopic:     "cds",
	topology.NodeDB:        "cylinder",
	topology.NodeProcessor: "hexagon",
	topology.NodeExternal:  "ellipse",
}

// compass maps connection sides to Graphviz compass points.
func compass(side topology.Side) string {
	switch side {
	case topology.SideTop:
		return "n"
	case topology.SideBottom:
		return "s"
	case topology.SideLeft:
		return "w"
	default:
		return "e"
	}
}

// ToDOT converts a topology to Graphviz DOT format. The resulting DOT
// string can be rendered with [RenderSVG] or [RenderPNG], or fed to any
// external Graphviz toolchain.
//
// Subsystems become clusters, node types select shapes, and declared events
// appear in a dashed legend cluster. Icon-tagged event shapes render as
// circles here; only [SceneSVG] and the TUI draw the icon itself.
func ToDOT(t *topology.Topology) string {
	var buf bytes.Buffer
	buf.WriteString("digraph flowviz {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=\"rounded,filled\", fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	grouped := writeSubsystems(&buf, t)
	for _, n := range t.Nodes {
		if grouped[n.ID] {
			continue
		}
		writeDOTNode(&buf, n, "  ")
	}

	buf.WriteString("\n")
	for _, e := range t.Edges {
		fmt.Fprintf(&buf, "  %q:%s -> %q:%s;\n", e.From, compass(e.FromSide), e.To, compass(e.ToSide))
	}

	writeLegend(&buf, t)
	buf.WriteString("}\n")
	return buf.String()
}

// writeSubsystems emits one cluster per subsystem and reports which node
// ids were claimed. A node listed in several subsystems joins the first;
// DOT clusters cannot share members.
func writeSubsystems(buf *bytes.Buffer, t *topology.Topology) map[string]bool {
	grouped := make(map[string]bool)
	for i, ss := range t.Subsystems {
		fmt.Fprintf(buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(buf, "    label=%q;\n", ss.Name)
		buf.WriteString("    style=rounded;\n")
		fmt.Fprintf(buf, "    color=%q;\n", fillColor(ss.Color, "#9e9e9e"))
		for _, id := range ss.Nodes {
			n, ok := t.Node(id)
			if !ok || grouped[id] {
				continue
			}
			grouped[id] = true
			writeDOTNode(buf, n, "    ")
		}
		buf.WriteString("  }\n")
	}
	return grouped
}

func writeDOTNode(buf *bytes.Buffer, n *topology.Node, indent string) {
	shape, ok := dotShape[n.Type]
	if !ok {
		shape = "box"
	}
	fill := "white"
	if c, ok := n.Attrs.Get("color"); ok {
		fill = fillColor(c, fill)
	}
	attrs := fmt.Sprintf("shape=%s, fillcolor=%q, label=%q", shape, fill, nodeLabel(n))
	if n.Type == topology.NodeExternal {
		attrs += `, style="rounded,filled,dashed"`
	}
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.ID, attrs)
}

// writeLegend emits a dashed cluster listing the declared events, one
// colored shape per event.
func writeLegend(buf *bytes.Buffer, t *topology.Topology) {
	if len(t.Events) == 0 {
		return
	}
	buf.WriteString("\n  subgraph cluster_legend {\n")
	buf.WriteString("    label=\"events\";\n")
	buf.WriteString("    style=dashed;\n")
	buf.WriteString("    color=\"#9e9e9e\";\n")
	for _, ev := range t.Events {
		label := ev.Name
		if ev.Label != "" {
			label = ev.Label
		}
		fmt.Fprintf(buf, "    %q [shape=%s, fillcolor=%q, label=%q, fontsize=10];\n",
			"legend_"+ev.Name, eventDotShape(ev.Shape), fillColor(ev.Color, topology.DefaultEventColor), label)
	}
	buf.WriteString("  }\n")
}

// eventDotShape returns the DOT shape for an event. The four geometric
// shapes are valid DOT shape names as-is; anything else (including icon
// tags) falls back to a circle.
func eventDotShape(shape string) string {
	switch shape {
	case topology.ShapeCircle, topology.ShapeSquare, topology.ShapeTriangle, topology.ShapeDiamond:
		return shape
	}
	return topology.ShapeCircle
}

func nodeLabel(n *topology.Node) string {
	if n.Attrs.Label != "" {
		return n.Attrs.Label
	}
	return n.ID
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	svg, err := renderDOT(dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(svg), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return renderDOT(dot, graphviz.PNG)
}

func renderDOT(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

package layout

import "github.com/flowviz/flowviz/pkg/topology"

// assignLevels computes the horizontal rank of every node.
//
// Back edges are first detected with an iterative white/gray/black DFS and
// masked for the duration of the computation; they stay in the Topology and
// are still routed and drawn. The DFS starts from in-degree-zero nodes in
// declaration order, then from any still-white node, so a pure cycle is
// entered at its first declared node and that node keeps masked in-degree
// zero.
//
// Levels are then assigned over the masked, now acyclic graph with a Kahn
// work list computing longest paths: in-degree-zero nodes seed at level 0
// and each pop raises every child to at least one past its parent. Nodes
// never reached by an edge stay at the map's zero default, which places
// disconnected stragglers at level 0.
func assignLevels(t *topology.Topology) map[string]int {
	masked := maskBackEdges(t)

	levels := make(map[string]int, len(t.Nodes))
	inDegree := make(map[string]int, len(t.Nodes))
	for _, e := range t.Edges {
		if masked[e] || !t.HasNode(e.From) || !t.HasNode(e.To) {
			continue
		}
		inDegree[e.To]++
	}

	queue := make([]string, 0, len(t.Nodes))
	for _, n := range t.Nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, e := range t.Outgoing(curr) {
			if masked[e] || !t.HasNode(e.To) {
				continue
			}
			if level := levels[curr] + 1; level > levels[e.To] {
				levels[e.To] = level
			}
			inDegree[e.To]--
			if inDegree[e.To] == 0 {
				queue = append(queue, e.To)
			}
		}
	}
	return levels
}

// maskBackEdges returns the set of edges that close a cycle. The traversal
// is an explicit-stack DFS; each stack frame remembers how many outgoing
// edges it has dispatched, so a node is expanded exactly once.
func maskBackEdges(t *topology.Topology) map[*topology.Edge]bool {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(t.Nodes))
	masked := make(map[*topology.Edge]bool)

	type frame struct {
		id   string
		next int
	}

	visit := func(root string) {
		if color[root] != white {
			return
		}
		color[root] = gray
		stack := []frame{{id: root}}
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			out := t.Outgoing(f.id)
			if f.next >= len(out) {
				color[f.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			e := out[f.next]
			f.next++
			if !t.HasNode(e.To) {
				continue
			}
			switch color[e.To] {
			case white:
				color[e.To] = gray
				stack = append(stack, frame{id: e.To})
			case gray:
				masked[e] = true
			}
		}
	}

	for _, id := range t.Sources() {
		visit(id)
	}
	for _, n := range t.Nodes {
		visit(n.ID)
	}
	return masked
}

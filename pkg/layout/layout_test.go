package layout

import (
	"testing"

	"github.com/flowviz/flowviz/pkg/topology"
)

func f64(v float64) *float64 { return &v }

func TestComputeLinearChain(t *testing.T) {
	l := Compute(chain("A", "B", "C"), Options{})
	if len(l.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(l.Nodes))
	}
	wantX := map[string]float64{"A": 0, "B": DefaultHSpacing, "C": 2 * DefaultHSpacing}
	for id, x := range wantX {
		n := l.Nodes[id]
		if n == nil {
			t.Fatalf("node %s missing", id)
		}
		if n.X != x || n.Y != 0 {
			t.Errorf("%s at (%v,%v), want (%v,0)", id, n.X, n.Y, x)
		}
	}
	if len(l.Edges) != 2 {
		t.Errorf("edges = %d, want 2", len(l.Edges))
	}
}

func TestComputeVerticalDistribution(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("src", "a", "", "")
	topo.AddEdge("src", "b", "", "")
	topo.AddEdge("src", "c", "", "")
	l := Compute(topo, Options{})

	wantY := map[string]float64{"a": -DefaultVSpacing, "b": 0, "c": DefaultVSpacing}
	for id, y := range wantY {
		if n := l.Nodes[id]; n.Y != y {
			t.Errorf("%s.Y = %v, want %v", id, n.Y, y)
		}
	}
}

func TestComputeManualPlacement(t *testing.T) {
	topo := topology.New()
	topo.AddNode("pinned", topology.NodeService, topology.Attributes{X: f64(42.5), Y: f64(-10)})
	topo.AddEdge("src", "pinned", "", "")
	l := Compute(topo, Options{})

	n := l.Nodes["pinned"]
	if n.X != 42.5 || n.Y != -10 {
		t.Errorf("pinned at (%v,%v), want (42.5,-10)", n.X, n.Y)
	}
	if n.Level != 1 {
		t.Errorf("Level = %d, want 1 (manual placement keeps the computed level)", n.Level)
	}
}

func TestComputePartialManualPlacement(t *testing.T) {
	topo := topology.New()
	topo.AddNode("b", topology.NodeService, topology.Attributes{Y: f64(99)})
	topo.AddEdge("a", "b", "", "")
	l := Compute(topo, Options{})

	n := l.Nodes["b"]
	if n.X != DefaultHSpacing {
		t.Errorf("X = %v, want computed %v", n.X, DefaultHSpacing)
	}
	if n.Y != 99 {
		t.Errorf("Y = %v, want manual 99", n.Y)
	}
}

func TestComputeCustomSpacing(t *testing.T) {
	opts := Options{HSpacing: 100, VSpacing: 50, NodeWidth: 80, NodeHeight: 40}
	l := Compute(chain("A", "B"), opts)
	if b := l.Nodes["B"]; b.X != 100 {
		t.Errorf("B.X = %v, want 100", b.X)
	}
	if a := l.Nodes["A"]; a.Width != 80 || a.Height != 40 {
		t.Errorf("A box = %vx%v, want 80x40", a.Width, a.Height)
	}
}

func TestComputeParallelEdgesDiverge(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	topo.AddEdge("A", "B", "", "")
	l := Compute(topo, Options{})
	if len(l.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(l.Edges))
	}
	if l.Edges[0].Path == l.Edges[1].Path {
		t.Error("parallel edges share the same path")
	}
}

func TestComputeDropsEdgesWithMissingEndpoints(t *testing.T) {
	topo := topology.New()
	topo.AddNode("A", topology.NodeService, topology.Attributes{})
	topo.Edges = append(topo.Edges, &topology.Edge{From: "A", To: "ghost"})
	l := Compute(topo, Options{})
	if len(l.Edges) != 0 {
		t.Errorf("edges = %d, want 0", len(l.Edges))
	}
}

func TestComputeLabel(t *testing.T) {
	topo := topology.New()
	topo.AddNode("api", topology.NodeService, topology.Attributes{Label: "User API"})
	topo.AddNode("db", topology.NodeDB, topology.Attributes{})
	l := Compute(topo, Options{})
	if l.Nodes["api"].Label != "User API" {
		t.Errorf("Label = %q", l.Nodes["api"].Label)
	}
	if l.Nodes["db"].Label != "db" {
		t.Errorf("Label = %q, want the id fallback", l.Nodes["db"].Label)
	}
}

func TestComputeEmptyTopology(t *testing.T) {
	l := Compute(topology.New(), Options{})
	if len(l.Nodes) != 0 || len(l.Edges) != 0 {
		t.Errorf("layout = %+v, want empty", l)
	}
	if l.Edges == nil {
		t.Error("Edges is nil, want empty slice")
	}
}

func TestAnchorPoints(t *testing.T) {
	n := &LayoutNode{X: 100, Y: 50, Width: 150, Height: 60}
	tests := []struct {
		side topology.Side
		want Point
	}{
		{topology.SideLeft, Point{X: 25, Y: 50}},
		{topology.SideRight, Point{X: 175, Y: 50}},
		{topology.SideTop, Point{X: 100, Y: 20}},
		{topology.SideBottom, Point{X: 100, Y: 80}},
	}
	for _, tt := range tests {
		if got := n.Anchor(tt.side); got != tt.want {
			t.Errorf("Anchor(%s) = %+v, want %+v", tt.side, got, tt.want)
		}
	}
}

package topology

import (
	"encoding/json"
	"testing"
)

func TestAddNodeMerge(t *testing.T) {
	topo := New()
	topo.AddNode("api", NodeService, Attributes{Label: "API"})
	topo.AddNode("db", NodeDB, Attributes{})
	d := 500.0
	topo.AddNode("api", NodeProcessor, Attributes{Delay: &d})

	if got := topo.NodeCount(); got != 2 {
		t.Fatalf("NodeCount = %d, want 2", got)
	}
	// First declaration keeps its position in the order.
	if topo.Nodes[0].ID != "api" || topo.Nodes[1].ID != "db" {
		t.Fatalf("order = [%s %s], want [api db]", topo.Nodes[0].ID, topo.Nodes[1].ID)
	}
	n, ok := topo.Node("api")
	if !ok {
		t.Fatal("node api missing")
	}
	if n.Type != NodeProcessor {
		t.Errorf("Type = %s, want processor", n.Type)
	}
	if n.Attrs.Label != "API" {
		t.Errorf("Label = %q, want API (kept from first definition)", n.Attrs.Label)
	}
	if n.Attrs.Delay == nil || *n.Attrs.Delay != 500 {
		t.Errorf("Delay = %v, want 500", n.Attrs.Delay)
	}
}

func TestAddNodeEmptyTypeDefaults(t *testing.T) {
	topo := New()
	n := topo.AddNode("a", "", Attributes{})
	if n.Type != NodeService {
		t.Errorf("Type = %s, want service", n.Type)
	}
}

func TestAddEdgeAutoCreatesEndpoints(t *testing.T) {
	topo := New()
	e := topo.AddEdge("a", "b", "", "")

	if e.FromSide != SideRight || e.ToSide != SideLeft {
		t.Errorf("sides = %s/%s, want right/left", e.FromSide, e.ToSide)
	}
	for _, id := range []string{"a", "b"} {
		n, ok := topo.Node(id)
		if !ok {
			t.Fatalf("endpoint %s not auto-created", id)
		}
		if n.Type != NodeService {
			t.Errorf("auto-created %s type = %s, want service", id, n.Type)
		}
	}
}

func TestDuplicateEdgesKept(t *testing.T) {
	topo := New()
	topo.AddEdge("a", "b", "", "")
	topo.AddEdge("a", "b", "", "")
	if got := topo.EdgeCount(); got != 2 {
		t.Fatalf("EdgeCount = %d, want 2", got)
	}
	if got := len(topo.Outgoing("a")); got != 2 {
		t.Errorf("Outgoing(a) = %d edges, want 2", got)
	}
}

func TestSourcesDeclarationOrder(t *testing.T) {
	topo := New()
	topo.AddNode("z", NodeService, Attributes{})
	topo.AddNode("a", NodeService, Attributes{})
	topo.AddEdge("z", "mid", "", "")
	topo.AddEdge("a", "mid", "", "")

	got := topo.Sources()
	want := []string{"z", "a"}
	if len(got) != len(want) {
		t.Fatalf("Sources = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sources = %v, want %v", got, want)
		}
	}
}

func TestAddSubsystemMerge(t *testing.T) {
	topo := New()
	topo.AddSubsystem("backend", []string{"a", "b"}, "")
	topo.AddSubsystem("backend", []string{"b", "c"}, "#223344")

	if len(topo.Subsystems) != 1 {
		t.Fatalf("Subsystems = %d, want 1", len(topo.Subsystems))
	}
	s := topo.Subsystems[0]
	if len(s.Nodes) != 3 {
		t.Errorf("Nodes = %v, want [a b c]", s.Nodes)
	}
	if s.Color != "#223344" {
		t.Errorf("Color = %q, want #223344", s.Color)
	}
}

func TestAddEventMerge(t *testing.T) {
	topo := New()
	topo.AddEvent(&Event{Name: "orders", Color: "#ff0000", Rate: 1})
	topo.AddEvent(&Event{Name: "orders", Shape: ShapeSquare, Rate: 4})

	ev, ok := topo.Event("orders")
	if !ok {
		t.Fatal("event orders missing")
	}
	if ev.Color != "#ff0000" {
		t.Errorf("Color = %q, want #ff0000", ev.Color)
	}
	if ev.Shape != ShapeSquare {
		t.Errorf("Shape = %q, want square", ev.Shape)
	}
	if ev.Rate != 4 {
		t.Errorf("Rate = %v, want 4", ev.Rate)
	}
}

func TestDecodedTopologyReindexes(t *testing.T) {
	topo := New()
	topo.AddNode("a", NodeService, Attributes{})
	topo.AddEdge("a", "b", "", "")
	topo.AddEvent(&Event{Name: "orders", Rate: 2})

	data, err := json.Marshal(topo)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Topology
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// Lookup methods must work on a freshly decoded value.
	if !decoded.HasNode("b") {
		t.Error("HasNode(b) = false after decode")
	}
	if got := len(decoded.Outgoing("a")); got != 1 {
		t.Errorf("Outgoing(a) = %d edges, want 1", got)
	}
	if _, ok := decoded.Event("orders"); !ok {
		t.Error("Event(orders) missing after decode")
	}
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		in   string
		want Side
		ok   bool
	}{
		{"top", SideTop, true},
		{"bottom", SideBottom, true},
		{"left", SideLeft, true},
		{"right", SideRight, true},
		{"center", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSide(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseSide(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

package dsl

import (
	"testing"

	"github.com/flowviz/flowviz/pkg/topology"
)

func TestLegacyNodeLine(t *testing.T) {
	topo := Parse("api: service, label=User API, delay=200\n")
	n, ok := topo.Node("api")
	if !ok {
		t.Fatal("node api missing")
	}
	if n.Type != topology.NodeService {
		t.Errorf("Type = %s", n.Type)
	}
	if n.Attrs.Label != "User API" {
		t.Errorf("Label = %q", n.Attrs.Label)
	}
	if n.Attrs.Delay == nil || *n.Attrs.Delay != 200 {
		t.Errorf("Delay = %v, want 200", n.Attrs.Delay)
	}
}

func TestLegacyNodeLineQuotedValues(t *testing.T) {
	topo := Parse("queue: topic, label=\"Order Queue\", partitions=4\n")
	n, _ := topo.Node("queue")
	if n == nil {
		t.Fatal("node queue missing")
	}
	if n.Attrs.Label != "Order Queue" {
		t.Errorf("Label = %q", n.Attrs.Label)
	}
	if n.Attrs.Partitions == nil || *n.Attrs.Partitions != 4 {
		t.Errorf("Partitions = %v", n.Attrs.Partitions)
	}
}

func TestLegacyNodeMissingType(t *testing.T) {
	topo := Parse("api:\n")
	if len(topo.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", topo.Errors)
	}
	n, ok := topo.Node("api")
	if !ok {
		t.Fatal("node api not created")
	}
	if n.Type != topology.NodeService {
		t.Errorf("Type = %s, want service fallback", n.Type)
	}
}

func TestLegacySubsystemBlock(t *testing.T) {
	topo := Parse(`subsystem "Payments":
    gateway: service
    ledger: db

api: service
`)
	if len(topo.Errors) != 0 {
		t.Fatalf("errors = %v", topo.Errors)
	}
	s, ok := topo.Subsystem("Payments")
	if !ok {
		t.Fatal("subsystem Payments missing")
	}
	if len(s.Nodes) != 2 || s.Nodes[0] != "gateway" || s.Nodes[1] != "ledger" {
		t.Errorf("Nodes = %v", s.Nodes)
	}
	g, _ := topo.Node("gateway")
	if g == nil || g.Attrs.Subsystem != "Payments" {
		t.Errorf("gateway subsystem attr = %+v", g)
	}
	// The body ended at the dedent: api is top-level.
	api, _ := topo.Node("api")
	if api == nil || api.Attrs.Subsystem != "" {
		t.Errorf("api leaked into subsystem: %+v", api)
	}
}

func TestLegacyEventsBlock(t *testing.T) {
	topo := Parse(`events:
- name: orders
  label: Orders
  color: "#e67e22"
  shape: square
  size: 10
  source: api
  rate: 3
  path: api -> db
- name: audits

api -> db
`)
	if len(topo.Errors) != 0 {
		t.Fatalf("errors = %v", topo.Errors)
	}
	if len(topo.Events) != 2 {
		t.Fatalf("events = %v, want 2", topo.Events)
	}
	ev := topo.Events[0]
	if ev.Name != "orders" || ev.Label != "Orders" || ev.Color != "#e67e22" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Shape != topology.ShapeSquare || ev.Size != 10 || ev.Rate != 3 || ev.Source != "api" {
		t.Errorf("event = %+v", ev)
	}
	if len(ev.Path) != 2 || ev.Path[0].NodeID != "api" || ev.Path[1].NodeID != "db" {
		t.Errorf("path = %v", ev.Path)
	}
	if topo.Events[1].Name != "audits" {
		t.Errorf("second event = %+v", topo.Events[1])
	}
}

func TestLegacyEventsBlockEndsAtStatement(t *testing.T) {
	topo := Parse(`events:
- name: orders
api: service
`)
	if len(topo.Events) != 1 || topo.Events[0].Name != "orders" {
		t.Fatalf("events = %v", topo.Events)
	}
	if !topo.HasNode("api") {
		t.Error("node api after events block missing")
	}
}

func TestLegacyEventMissingName(t *testing.T) {
	topo := Parse("events:\n- rate: 3\n")
	if len(topo.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", topo.Errors)
	}
	// The nameless item is dropped; the default takes over.
	if len(topo.Events) != 1 || topo.Events[0].Name != topology.DefaultEventName {
		t.Errorf("events = %v", topo.Events)
	}
}

func TestLegacyInvalidAttribute(t *testing.T) {
	topo := Parse("api: service, nonsense\n")
	if len(topo.Errors) != 1 {
		t.Errorf("errors = %v, want 1", topo.Errors)
	}
	if !topo.HasNode("api") {
		t.Error("node api missing despite attribute error")
	}
}

func TestLegacyUnrecognizedLine(t *testing.T) {
	topo := Parse("this is not a statement\n")
	if len(topo.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", topo.Errors)
	}
	if topo.Errors[0].Line != 1 {
		t.Errorf("Line = %d, want 1", topo.Errors[0].Line)
	}
}

func TestLegacyIndentedStray(t *testing.T) {
	topo := Parse("api: service\n\n   stray: indented\n")
	if len(topo.Errors) != 1 {
		t.Errorf("errors = %v, want 1 for the stray line", topo.Errors)
	}
}

func TestLegacyComments(t *testing.T) {
	topo := Parse(`# An annotated flow.
api: service

subsystem "Payments":
    # members
    gateway: service

events:
# declared streams
- name: orders
  # three per second
  rate: 3

api -> gateway
`)
	if len(topo.Errors) != 0 {
		t.Fatalf("errors = %v", topo.Errors)
	}
	if !topo.HasNode("api") || !topo.HasNode("gateway") {
		t.Error("commented flow lost nodes")
	}
	if len(topo.Events) != 1 || topo.Events[0].Rate != 3 {
		t.Errorf("events = %v", topo.Events)
	}
}

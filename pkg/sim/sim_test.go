package sim

import (
	"testing"

	"github.com/flowviz/flowviz/pkg/layout"
	"github.com/flowviz/flowviz/pkg/topology"
)

func newSim(t *topology.Topology) *Simulator {
	return New(t, layout.Compute(t, layout.Options{}))
}

func f64(v float64) *float64 { return &v }

func testEvent(name string) *topology.Event {
	return &topology.Event{
		Name:  name,
		Color: topology.DefaultEventColor,
		Shape: topology.ShapeCircle,
		Size:  topology.DefaultEventSize,
		Rate:  1,
	}
}

func TestAdvanceProgressMonotonic(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	topo.AddEdge("B", "C", "", "")
	s := newSim(topo)

	p := s.Spawn(testEvent("orders"), "A")
	if p == nil {
		t.Fatal("spawn failed")
	}
	if p.Progress != 0 {
		t.Fatalf("initial progress = %v, want 0", p.Progress)
	}

	last := 0.0
	for i := 0; i < 3; i++ {
		s.Advance(500)
		if p.Progress < last {
			t.Fatalf("progress decreased: %v -> %v", last, p.Progress)
		}
		last = p.Progress
	}
	if p.Progress != 0.75 {
		t.Errorf("progress = %v, want 0.75", p.Progress)
	}

	// Arrival at B transitions in place onto B->C with progress exactly 0.
	s.Advance(500)
	if p.Progress != 0 {
		t.Errorf("progress after transition = %v, want exactly 0", p.Progress)
	}
	if len(s.Particles()) != 1 {
		t.Errorf("particles = %d, want 1", len(s.Particles()))
	}
}

func TestAdvanceCompletesAtSink(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	s := newSim(topo)
	s.Spawn(testEvent("orders"), "A")

	if done := s.Advance(2000); len(done) != 1 {
		t.Fatalf("completed = %d, want 1", len(done))
	}
	if len(s.Particles()) != 0 || len(s.Parked()) != 0 {
		t.Errorf("live particles remain after completion")
	}
}

func TestAdvanceParksOnDelay(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	topo.AddEdge("B", "C", "", "")
	topo.AddNode("B", "", topology.Attributes{Delay: f64(500)})
	s := newSim(topo)
	s.Spawn(testEvent("orders"), "A")

	s.Advance(2000)
	if len(s.Parked()) != 1 {
		t.Fatalf("parked = %d, want 1", len(s.Parked()))
	}
	d := s.Parked()[0]
	if d.NodeID != "B" || d.Remaining != 500 {
		t.Fatalf("parked = %+v", d)
	}

	// Countdown strictly decreases and is never observed at or below zero
	// while still parked.
	for _, want := range []float64{300, 100} {
		s.Advance(200)
		if len(s.Parked()) != 1 {
			t.Fatalf("particle left early")
		}
		if got := s.Parked()[0].Remaining; got != want {
			t.Errorf("remaining = %v, want %v", got, want)
		}
	}

	// The last 100ms releases it; the resumed particle holds progress 0.
	s.Advance(200)
	if len(s.Parked()) != 0 {
		t.Fatalf("still parked")
	}
	if len(s.Particles()) != 1 {
		t.Fatalf("particles = %d, want 1", len(s.Particles()))
	}
	if p := s.Particles()[0]; p.Progress != 0 {
		t.Errorf("resumed progress = %v, want 0", p.Progress)
	}
}

func TestResumedParticleSkipsTravelingPass(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	topo.AddEdge("B", "C", "", "")
	topo.AddNode("B", "", topology.Attributes{Delay: f64(100)})
	s := newSim(topo)
	s.Spawn(testEvent("orders"), "A")

	s.Advance(2000)
	// This tick both releases the parked particle and runs the traveling
	// pass; the resumed particle must not advance within the same tick.
	s.Advance(1000)
	if p := s.Particles()[0]; p.Progress != 0 {
		t.Errorf("resumed particle advanced in its release tick: progress = %v", p.Progress)
	}
	s.Advance(1000)
	if p := s.Particles()[0]; p.Progress != 0.5 {
		t.Errorf("progress = %v, want 0.5", p.Progress)
	}
}

func TestTransformationAtNode(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	topo.AddEdge("B", "C", "", "")
	topo.AddNode("B", "", topology.Attributes{Transformation: "enrich"})
	topo.AddTransformation(&topology.Transformation{Name: "enrich", Input: "raw", Output: "rich"})
	topo.AddEvent(&topology.Event{Name: "rich", Color: "#00ff00", Shape: topology.ShapeSquare, Size: 12})
	s := newSim(topo)

	ev := testEvent("raw")
	p := s.Spawn(ev, "A")
	s.Advance(2000)

	if p.Event != "rich" {
		t.Errorf("Event = %q, want rich", p.Event)
	}
	if p.Color != "#00ff00" || p.Shape != topology.ShapeSquare || p.Size != 12 {
		t.Errorf("visuals = %q/%q/%v, want the output event's", p.Color, p.Shape, p.Size)
	}
}

func TestTransformationInputGate(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	topo.AddEdge("B", "C", "", "")
	topo.AddNode("B", "", topology.Attributes{Transformation: "enrich"})
	topo.AddTransformation(&topology.Transformation{Name: "enrich", Input: "raw", Output: "rich"})
	s := newSim(topo)

	p := s.Spawn(testEvent("audit"), "A")
	s.Advance(2000)
	if p.Event != "audit" {
		t.Errorf("Event = %q, want audit (input gate must hold)", p.Event)
	}
}

func TestTransformationDelayFallback(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	topo.AddEdge("B", "C", "", "")
	topo.AddNode("B", "", topology.Attributes{Transformation: "enrich"})
	topo.AddTransformation(&topology.Transformation{Name: "enrich", Input: "raw", Output: "rich", Delay: 300})
	s := newSim(topo)

	p := s.Spawn(testEvent("raw"), "A")
	s.Advance(2000)
	if len(s.Parked()) != 1 {
		t.Fatalf("parked = %d, want 1 (transformation delay)", len(s.Parked()))
	}
	if p.Event != "raw" {
		t.Errorf("Event = %q while parked, want raw (transformation pending)", p.Event)
	}

	s.Advance(300)
	if p.Event != "rich" {
		t.Errorf("Event = %q after release, want rich", p.Event)
	}
}

func TestExplicitZeroDelayBeatsTransformationDelay(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	topo.AddEdge("B", "C", "", "")
	topo.AddNode("B", "", topology.Attributes{Delay: f64(0), Transformation: "enrich"})
	topo.AddTransformation(&topology.Transformation{Name: "enrich", Input: "raw", Output: "rich", Delay: 300})
	s := newSim(topo)

	s.Spawn(testEvent("raw"), "A")
	s.Advance(2000)
	if len(s.Parked()) != 0 {
		t.Errorf("parked = %d, want 0 (explicit delay 0 wins)", len(s.Parked()))
	}
}

func TestTransformColorOverride(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	topo.AddEdge("B", "C", "", "")
	topo.AddNode("B", "", topology.Attributes{TransformColor: "#123456"})
	s := newSim(topo)

	p := s.Spawn(testEvent("orders"), "A")
	s.Advance(2000)
	if p.Color != "#123456" {
		t.Errorf("Color = %q, want #123456", p.Color)
	}
}

func TestPositionFollowsPath(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	s := newSim(topo)
	p := s.Spawn(testEvent("orders"), "A")

	start := s.lay.Nodes["A"].Anchor(topology.SideRight)
	if p.X != start.X || p.Y != start.Y {
		t.Errorf("spawn position = (%v,%v), want edge start (%v,%v)", p.X, p.Y, start.X, start.Y)
	}

	s.Advance(1000)
	mid := s.lay.Edges[0].Path.At(0.5)
	if p.X != mid.X || p.Y != mid.Y {
		t.Errorf("position = (%v,%v), want path midpoint (%v,%v)", p.X, p.Y, mid.X, mid.Y)
	}
}

func TestResetClearsEverything(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	topo.AddNode("B", "", topology.Attributes{Delay: f64(1000)})
	topo.AddEdge("B", "C", "", "")
	s := newSim(topo)
	s.Spawn(testEvent("orders"), "A")
	s.Spawn(testEvent("orders"), "A")
	s.Advance(2000)

	s.Reset()
	if len(s.Particles()) != 0 || len(s.Parked()) != 0 {
		t.Errorf("Reset left particles behind")
	}
}

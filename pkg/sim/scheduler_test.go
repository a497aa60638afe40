package sim

import (
	"testing"

	"github.com/flowviz/flowviz/pkg/topology"
)

func schedFixture() (*Scheduler, *Simulator) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	topo.AddEdge("B", "C", "", "")
	ev := testEvent("orders")
	ev.Rate = 2
	ev.Source = "A"
	topo.AddEvent(ev)
	s := newSim(topo)
	return NewScheduler(s, NewSpawner(s, DefaultSpawnSeed), nil), s
}

func TestSchedulerTickSpawnsAndAdvances(t *testing.T) {
	sc, s := schedFixture()
	frame := sc.Tick(500)
	if frame.Tick != 1 {
		t.Errorf("Tick = %d, want 1", frame.Tick)
	}
	if len(s.Particles()) != 1 {
		t.Fatalf("particles = %d, want 1", len(s.Particles()))
	}
	if got := s.Particles()[0].Progress; got != 0.25 {
		t.Errorf("progress = %v, want 0.25 (spawned then advanced in one tick)", got)
	}
}

func TestSchedulerSpeedScalesTime(t *testing.T) {
	sc, s := schedFixture()
	sc.SetSpeed(2)
	sc.Tick(500)
	// 500ms at speed 2 is 1000ms of sim time: two spawns, progress 0.5.
	if len(s.Particles()) != 2 {
		t.Fatalf("particles = %d, want 2", len(s.Particles()))
	}
	if got := s.Particles()[0].Progress; got != 0.5 {
		t.Errorf("progress = %v, want 0.5", got)
	}
}

func TestSchedulerSetSpeedIgnoresNonPositive(t *testing.T) {
	sc, _ := schedFixture()
	sc.SetSpeed(0)
	sc.SetSpeed(-3)
	if sc.Speed() != 1 {
		t.Errorf("Speed = %v, want 1", sc.Speed())
	}
}

func TestSchedulerPausePreservesState(t *testing.T) {
	sc, s := schedFixture()
	sc.Tick(500)
	progress := s.Particles()[0].Progress

	sc.Pause()
	frame := sc.Tick(500)
	if got := s.Particles()[0].Progress; got != progress {
		t.Errorf("progress moved while paused: %v -> %v", progress, got)
	}
	if frame.Tick != 1 {
		t.Errorf("tick counter advanced while paused: %d", frame.Tick)
	}
	if len(frame.Particles) != 1 {
		t.Errorf("paused frame lost particles: %d", len(frame.Particles))
	}

	sc.Resume()
	sc.Tick(500)
	if got := s.Particles()[0].Progress; got <= progress {
		t.Errorf("progress did not resume: %v", got)
	}
}

func TestSchedulerRenderHook(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	ev := testEvent("orders")
	ev.Rate = 2
	ev.Source = "A"
	topo.AddEvent(ev)
	s := newSim(topo)

	var frames []Frame
	sc := NewScheduler(s, NewSpawner(s, DefaultSpawnSeed), func(f Frame) {
		frames = append(frames, f)
	})
	sc.Tick(500)
	sc.Tick(500)
	if len(frames) != 2 {
		t.Fatalf("hook ran %d times, want 2", len(frames))
	}
	if frames[1].Tick != 2 {
		t.Errorf("frame tick = %d, want 2", frames[1].Tick)
	}
}

func TestSchedulerCompletedCount(t *testing.T) {
	topo := topology.New()
	topo.AddEdge("A", "B", "", "")
	ev := testEvent("orders")
	ev.Rate = 2
	ev.Source = "A"
	topo.AddEvent(ev)
	s := newSim(topo)
	sc := NewScheduler(s, NewSpawner(s, DefaultSpawnSeed), nil)

	// One spawn per 500ms; each particle needs 2000ms on the single edge.
	for i := 0; i < 10; i++ {
		sc.Tick(500)
	}
	if sc.Completed() == 0 {
		t.Error("no particles completed after 5s")
	}
	frame := sc.Tick(0)
	if frame.Completed != sc.Completed() {
		t.Errorf("frame completed = %d, scheduler = %d", frame.Completed, sc.Completed())
	}
}

func TestSchedulerReset(t *testing.T) {
	sc, s := schedFixture()
	for i := 0; i < 5; i++ {
		sc.Tick(500)
	}
	sc.Reset()
	if len(s.Particles()) != 0 || len(s.Parked()) != 0 {
		t.Error("Reset left particles")
	}
	frame := sc.Tick(0)
	if frame.Tick != 0 || frame.Completed != 0 {
		t.Errorf("frame after reset = %+v", frame)
	}
}

func TestFrameIsCopy(t *testing.T) {
	sc, s := schedFixture()
	frame := sc.Tick(500)
	if len(frame.Particles) != 1 {
		t.Fatalf("frame particles = %d", len(frame.Particles))
	}
	frame.Particles[0].Color = "tampered"
	if s.Particles()[0].Color == "tampered" {
		t.Error("mutating a frame reached the simulator")
	}
	if frame.ByEvent["orders"] != 1 {
		t.Errorf("ByEvent = %v", frame.ByEvent)
	}
}

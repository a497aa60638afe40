package sim

// RenderHook receives the frame snapshot produced by each tick.
type RenderHook func(Frame)

// Scheduler drives one simulation: it owns the speed multiplier and pause
// state, runs the spawner and simulator once per tick, and hands the
// resulting frame to the render hook. It is single-goroutine by contract;
// callers stop a simulation by not ticking it.
type Scheduler struct {
	sim     *Simulator
	spawner *Spawner
	hook    RenderHook

	speed     float64
	paused    bool
	tick      int
	completed int
}

// NewScheduler wires a simulator and spawner to a render hook. hook may be
// nil. Speed starts at 1.
func NewScheduler(sim *Simulator, spawner *Spawner, hook RenderHook) *Scheduler {
	return &Scheduler{sim: sim, spawner: spawner, hook: hook, speed: 1}
}

// Tick advances the simulation by elapsedMs of wall time. The speed
// multiplier is applied here, once, before spawning and advancing; while
// paused the state is left untouched but the hook still receives the
// current frame so renderers keep drawing.
func (sc *Scheduler) Tick(elapsedMs float64) Frame {
	if !sc.paused && elapsedMs > 0 {
		scaled := elapsedMs * sc.speed
		sc.spawner.Tick(scaled)
		sc.completed += len(sc.sim.Advance(scaled))
		sc.tick++
	}
	frame := snapshot(sc.sim, sc.tick, sc.completed)
	if sc.hook != nil {
		sc.hook(frame)
	}
	return frame
}

// Pause freezes the simulation. Particle positions and countdowns keep
// their values until Resume.
func (sc *Scheduler) Pause() { sc.paused = true }

// Resume continues a paused simulation.
func (sc *Scheduler) Resume() { sc.paused = false }

// Paused reports whether the scheduler is paused.
func (sc *Scheduler) Paused() bool { return sc.paused }

// SetSpeed sets the time multiplier. Values at or below zero are ignored.
func (sc *Scheduler) SetSpeed(v float64) {
	if v > 0 {
		sc.speed = v
	}
}

// Speed returns the current time multiplier.
func (sc *Scheduler) Speed() float64 { return sc.speed }

// Completed returns the cumulative number of completed particles.
func (sc *Scheduler) Completed() int { return sc.completed }

// Reset clears all particles and re-arms the spawn timers. Speed and pause
// state are preserved.
func (sc *Scheduler) Reset() {
	sc.sim.Reset()
	sc.spawner.Reset()
	sc.tick = 0
	sc.completed = 0
}

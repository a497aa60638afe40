package sim

// Frame is a value snapshot of one tick, safe to read from other goroutines
// once published. Particle entries are copies; mutating them does not touch
// the simulation.
type Frame struct {
	Tick      int            `json:"tick"`
	Particles []Particle     `json:"particles"`
	Parked    []Particle     `json:"parked"`
	Completed int            `json:"completed"`
	ByEvent   map[string]int `json:"by_event,omitempty"`
}

// snapshot copies the simulator's live state into a Frame.
func snapshot(s *Simulator, tick, completed int) Frame {
	f := Frame{
		Tick:      tick,
		Particles: make([]Particle, 0, len(s.particles)),
		Parked:    make([]Particle, 0, len(s.parked)),
		Completed: completed,
		ByEvent:   make(map[string]int),
	}
	for _, p := range s.particles {
		f.Particles = append(f.Particles, *p)
		f.ByEvent[p.Event]++
	}
	for _, d := range s.parked {
		f.Parked = append(f.Parked, *d.Particle)
		f.ByEvent[d.Particle.Event]++
	}
	return f
}

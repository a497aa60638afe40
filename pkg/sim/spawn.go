package sim

import (
	"math/rand/v2"

	"github.com/flowviz/flowviz/pkg/topology"
)

const (
	// MaxSpawnsPerTick caps how many particles one event may spawn in a
	// single tick, so a long pause or lag spike does not release a burst.
	MaxSpawnsPerTick = 5

	// DefaultSpawnSeed seeds the source-selection RNG when the caller does
	// not provide one.
	DefaultSpawnSeed = uint64(42)
)

// Spawner creates particles on independent per-event timers. An event with
// rate r spawns every 1000/r milliseconds of scaled time.
type Spawner struct {
	sim    *Simulator
	rng    *rand.Rand
	timers []*spawnTimer
}

type spawnTimer struct {
	event *topology.Event
	acc   float64
}

// NewSpawner builds a spawner with one timer per declared event. The seed
// drives source selection for events without a declared source, keeping
// runs reproducible.
func NewSpawner(sim *Simulator, seed uint64) *Spawner {
	sp := &Spawner{
		sim: sim,
		rng: rand.New(rand.NewPCG(seed, seed^0xdeadbeef)),
	}
	for _, ev := range sim.topo.Events {
		if ev.Rate > 0 {
			sp.timers = append(sp.timers, &spawnTimer{event: ev})
		}
	}
	return sp
}

// Tick accumulates scaled elapsed time on every timer and spawns one
// particle per whole interval, capped at MaxSpawnsPerTick. The accumulator
// drops all whole intervals regardless of the cap, so backlog beyond the
// cap is discarded while the fractional remainder carries into the next
// tick.
func (sp *Spawner) Tick(elapsedMs float64) []*Particle {
	var spawned []*Particle
	for _, t := range sp.timers {
		interval := 1000 / t.event.Rate
		t.acc += elapsedMs
		n := int(t.acc / interval)
		if n == 0 {
			continue
		}
		t.acc -= float64(n) * interval
		if n > MaxSpawnsPerTick {
			n = MaxSpawnsPerTick
		}
		for i := 0; i < n; i++ {
			src, ok := sp.source(t.event)
			if !ok {
				break
			}
			if p := sp.sim.Spawn(t.event, src); p != nil {
				spawned = append(spawned, p)
			}
		}
	}
	return spawned
}

// Reset re-arms every timer.
func (sp *Spawner) Reset() {
	for _, t := range sp.timers {
		t.acc = 0
	}
}

// source picks the node a particle of this event spawns at: the event's
// declared source when it names an existing node, else a random in-degree-
// zero node, else a random node. The second return is false when the
// topology has no nodes at all.
func (sp *Spawner) source(ev *topology.Event) (string, bool) {
	if ev.Source != "" && sp.sim.topo.HasNode(ev.Source) {
		return ev.Source, true
	}
	if sources := sp.sim.topo.Sources(); len(sources) > 0 {
		return sources[sp.rng.IntN(len(sources))], true
	}
	if nodes := sp.sim.topo.Nodes; len(nodes) > 0 {
		return nodes[sp.rng.IntN(len(nodes))].ID, true
	}
	return "", false
}

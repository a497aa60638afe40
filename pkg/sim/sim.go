// Package sim advances event particles across a computed layout, one tick
// at a time.
//
// The simulator is single-threaded by contract: all mutation happens inside
// Advance, which the scheduler calls once per frame. Particles travel edges
// by cubic interpolation, park at nodes that declare delays, change identity
// at nodes that declare transformations, and complete when no further edge
// exists. Removal during iteration always builds replacement slices.
package sim

import (
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/flowviz/flowviz/pkg/layout"
	"github.com/flowviz/flowviz/pkg/topology"
)

// DefaultTravelMs is how long a particle takes to traverse one edge at
// speed 1.
const DefaultTravelMs = 2000.0

// Simulator owns the live particle collections for one topology/layout
// pair.
type Simulator struct {
	topo *topology.Topology
	lay  *layout.Layout

	// TravelMs is the base edge traversal time in milliseconds. Callers may
	// set it before the first tick; the zero value is replaced by
	// DefaultTravelMs.
	TravelMs float64

	particles []*Particle
	parked    []*DelayedParticle
}

// New returns a simulator for the given topology and its computed layout.
func New(t *topology.Topology, l *layout.Layout) *Simulator {
	return &Simulator{topo: t, lay: l, TravelMs: DefaultTravelMs}
}

// Particles returns the traveling particles. The slice is owned by the
// simulator; callers must not hold it across ticks.
func (s *Simulator) Particles() []*Particle { return s.particles }

// Parked returns the particles waiting out a node delay.
func (s *Simulator) Parked() []*DelayedParticle { return s.parked }

// Reset drops every particle, traveling and parked.
func (s *Simulator) Reset() {
	s.particles = nil
	s.parked = nil
}

// Spawn creates a particle of the given event at a source node and starts
// it traveling on its first edge. Returns nil when the node has no usable
// outgoing edge; nothing is spawned in that case.
func (s *Simulator) Spawn(ev *topology.Event, sourceID string) *Particle {
	p := &Particle{
		ID:        uuid.NewString(),
		Event:     ev.Name,
		Label:     ev.Label,
		Color:     ev.Color,
		Shape:     ev.Shape,
		Size:      ev.Size,
		steps:     ev.Path,
		stepIndex: -1,
	}
	e := s.nextEdge(p, sourceID)
	if e == nil {
		return nil
	}
	p.edge = e
	p.X, p.Y = e.Path.Start.X, e.Path.Start.Y
	s.particles = append(s.particles, p)
	return p
}

// Advance moves the simulation forward by elapsedMs (already speed-scaled
// by the caller) and returns the particles that completed this tick.
//
// Parked particles are processed first: their countdown decreases, and on
// reaching zero the node's transformation applies and the particle either
// resumes traveling or completes. Resumed particles are appended after the
// traveling pass, so they hold progress 0 until the next tick.
//
// Traveling particles then advance by elapsed/TravelMs. On arrival the
// node's delay decides: a positive delay parks the particle with the
// transformation still pending; no delay applies the transformation and
// resolves the next edge in place, resetting progress to exactly 0.
func (s *Simulator) Advance(elapsedMs float64) []*Particle {
	if s.TravelMs <= 0 {
		s.TravelMs = DefaultTravelMs
	}
	var completed []*Particle

	stillParked := make([]*DelayedParticle, 0, len(s.parked))
	var resumed []*Particle
	for _, d := range s.parked {
		d.Remaining -= elapsedMs
		if d.Remaining > 0 {
			stillParked = append(stillParked, d)
			continue
		}
		p := d.Particle
		s.applyNodeTransform(p, d.NodeID)
		if e := s.nextEdge(p, d.NodeID); e != nil {
			p.edge = e
			p.Progress = 0
			p.X, p.Y = e.Path.Start.X, e.Path.Start.Y
			resumed = append(resumed, p)
		} else {
			completed = append(completed, p)
		}
	}
	s.parked = stillParked

	next := make([]*Particle, 0, len(s.particles)+len(resumed))
	for _, p := range s.particles {
		p.Progress += elapsedMs / s.TravelMs
		pos := p.edge.Path.At(math.Min(p.Progress, 1))
		p.X, p.Y = pos.X, pos.Y
		if p.Progress < 1 {
			next = append(next, p)
			continue
		}

		nodeID := p.edge.To
		if delay := s.nodeDelay(nodeID); delay > 0 {
			s.parked = append(s.parked, &DelayedParticle{Particle: p, NodeID: nodeID, Remaining: delay})
			continue
		}
		s.applyNodeTransform(p, nodeID)
		if e := s.nextEdge(p, nodeID); e != nil {
			p.edge = e
			p.Progress = 0
			p.X, p.Y = e.Path.Start.X, e.Path.Start.Y
			next = append(next, p)
		} else {
			completed = append(completed, p)
		}
	}
	s.particles = append(next, resumed...)
	return completed
}

// nodeDelay returns how long a particle waits at a node. An explicit delay
// attribute wins, even when zero; otherwise the delay of the node's
// referenced transformation applies.
func (s *Simulator) nodeDelay(nodeID string) float64 {
	n, ok := s.topo.Node(nodeID)
	if !ok {
		return 0
	}
	if ms, ok := n.Attrs.DelayMs(); ok {
		return ms
	}
	if name := n.Attrs.Transformation; name != "" {
		if tr, ok := s.topo.Transformation(name); ok {
			return tr.Delay
		}
	}
	return 0
}

// applyNodeTransform rewrites a particle's event state per the node it just
// cleared: a referenced transformation converts the particle to its output
// event, and a transformColor attribute overrides the color afterward.
func (s *Simulator) applyNodeTransform(p *Particle, nodeID string) {
	n, ok := s.topo.Node(nodeID)
	if !ok {
		return
	}
	if name := n.Attrs.Transformation; name != "" {
		s.applyTransformation(p, name)
	}
	if c := n.Attrs.TransformColor; c != "" {
		p.Color = c
	}
}

// applyTransformation converts a particle to the named transformation's
// output event, taking the output event's declared visuals when it exists.
// A transformation with a non-empty input only applies to particles of that
// input event.
func (s *Simulator) applyTransformation(p *Particle, name string) {
	tr, ok := s.topo.Transformation(name)
	if !ok || tr.Output == "" {
		return
	}
	if tr.Input != "" && tr.Input != p.Event {
		return
	}
	p.Event = tr.Output
	if ev, ok := s.topo.Event(tr.Output); ok {
		if ev.Label != "" {
			p.Label = ev.Label
		}
		if ev.Color != "" {
			p.Color = ev.Color
		}
		if ev.Shape != "" {
			p.Shape = ev.Shape
		}
		if ev.Size > 0 {
			p.Size = ev.Size
		}
	}
}

// applyStepAttrs applies one itinerary step's overrides. The transformation
// runs first so explicit color/shape/size overrides on the same step win
// over the output event's visuals.
func (s *Simulator) applyStepAttrs(p *Particle, attrs map[string]string) {
	if len(attrs) == 0 {
		return
	}
	if name, ok := attrs["transformation"]; ok {
		s.applyTransformation(p, name)
	}
	if v, ok := attrs["color"]; ok {
		p.Color = v
	}
	if v, ok := attrs["shape"]; ok {
		p.Shape = v
	}
	if v, ok := attrs["label"]; ok {
		p.Label = v
	}
	if v, ok := attrs["size"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			p.Size = f
		}
	}
}

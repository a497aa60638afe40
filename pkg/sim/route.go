package sim

import "github.com/flowviz/flowviz/pkg/layout"

// nextEdge picks the edge a particle leaves on after clearing a node.
//
// A particle with an itinerary first looks for the arrival node at any step
// past its cursor: the nearest match advances (or resynchronizes) the
// cursor, applies that step's attribute overrides, and takes the edge to
// the itinerary's next node when one exists. Scanning past the immediate
// next step is the drift recovery: a particle that arrived off-script
// rejoins its itinerary at the first later step naming where it actually
// is.
//
// When the itinerary yields no edge, the fallback is the first outgoing
// edge in declaration order. No outgoing edge means the particle is done.
func (s *Simulator) nextEdge(p *Particle, nodeID string) *layout.LayoutEdge {
	for i := p.stepIndex + 1; i < len(p.steps); i++ {
		if p.steps[i].NodeID != nodeID {
			continue
		}
		p.stepIndex = i
		s.applyStepAttrs(p, p.steps[i].Attrs)
		if i+1 < len(p.steps) {
			if e := s.edgeBetween(nodeID, p.steps[i+1].NodeID); e != nil {
				return e
			}
		}
		break
	}
	for _, e := range s.lay.Edges {
		if e.From == nodeID {
			return e
		}
	}
	return nil
}

// edgeBetween returns the first routed edge from one node to another.
func (s *Simulator) edgeBetween(from, to string) *layout.LayoutEdge {
	for _, e := range s.lay.Edges {
		if e.From == from && e.To == to {
			return e
		}
	}
	return nil
}

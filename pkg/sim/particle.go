package sim

import (
	"github.com/flowviz/flowviz/pkg/layout"
	"github.com/flowviz/flowviz/pkg/topology"
)

// Particle is one live event instance traveling the layout graph. The
// exported fields are its render state; they mutate as transformations and
// itinerary steps rewrite the particle's appearance. Routing state is
// unexported and owned by the simulator.
type Particle struct {
	ID       string  `json:"id"`
	Event    string  `json:"event"`
	Label    string  `json:"label,omitempty"`
	Color    string  `json:"color"`
	Shape    string  `json:"shape"`
	Size     float64 `json:"size"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Progress float64 `json:"progress"`

	edge      *layout.LayoutEdge
	steps     []topology.PathStep
	stepIndex int
}

// DelayedParticle is a particle parked at a node, counting down the node's
// delay before it transforms and moves on.
type DelayedParticle struct {
	Particle  *Particle
	NodeID    string
	Remaining float64
}

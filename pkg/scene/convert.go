package scene

import (
	"github.com/flowviz/flowviz/pkg/dsl"
	"github.com/flowviz/flowviz/pkg/layout"
)

// Build parses source and computes coordinates in one step.
// Parse diagnostics stay on the topology; Build never fails.
func Build(name, source string, opts layout.Options) *Scene {
	topo := dsl.Parse(source)
	lay := layout.Compute(topo, opts)
	return New(name, source, topo, lay)
}

// Rebuild re-runs parse and layout on the stored source, replacing the
// topology and layout in place. Identity and creation time are preserved.
func (s *Scene) Rebuild(opts layout.Options) {
	s.Topology = dsl.Parse(s.Source)
	s.Layout = layout.Compute(s.Topology, opts)
	s.Touch()
}

package topology

import "fmt"

// ValidationResult reports the outcome of semantic validation. Errors holds
// one human-readable message per violation; Valid is true when it is empty.
type ValidationResult struct {
	Valid  bool     `json:"valid" yaml:"valid" bson:"valid"`
	Errors []string `json:"errors" yaml:"errors" bson:"errors"`
}

// Validate checks every cross-reference in the topology and reports all
// violations. It never stops at the first problem: a topology with five
// dangling references produces five messages.
//
// Checked references: edge endpoints, event source nodes, event itinerary
// steps (including transformations named by a step), transformation input
// and output events, node transformation attributes, and subsystem member
// lists.
func Validate(t *Topology) ValidationResult {
	errs := []string{}

	for _, e := range t.Edges {
		if !t.HasNode(e.From) {
			errs = append(errs, fmt.Sprintf("Edge %q references unknown node: %s", e.From+" -> "+e.To, e.From))
		}
		if !t.HasNode(e.To) {
			errs = append(errs, fmt.Sprintf("Edge %q references unknown node: %s", e.From+" -> "+e.To, e.To))
		}
	}

	for _, ev := range t.Events {
		if ev.Source != "" && !t.HasNode(ev.Source) {
			errs = append(errs, fmt.Sprintf("Event %q references unknown source node: %s", ev.Name, ev.Source))
		}
		for _, step := range ev.Path {
			if !t.HasNode(step.NodeID) {
				errs = append(errs, fmt.Sprintf("Event %q path references unknown node: %s", ev.Name, step.NodeID))
			}
			if name, ok := step.Attrs["transformation"]; ok {
				if _, found := t.Transformation(name); !found {
					errs = append(errs, fmt.Sprintf("Event %q path references unknown transformation: %s", ev.Name, name))
				}
			}
		}
	}

	for _, tr := range t.Transformations {
		if tr.Input != "" {
			if _, ok := t.Event(tr.Input); !ok {
				errs = append(errs, fmt.Sprintf("Transformation %q references unknown input event: %s", tr.Name, tr.Input))
			}
		}
		if tr.Output != "" {
			if _, ok := t.Event(tr.Output); !ok {
				errs = append(errs, fmt.Sprintf("Transformation %q references unknown output event: %s", tr.Name, tr.Output))
			}
		}
	}

	for _, n := range t.Nodes {
		if name := n.Attrs.Transformation; name != "" {
			if _, ok := t.Transformation(name); !ok {
				errs = append(errs, fmt.Sprintf("Node %q references unknown transformation: %s", n.ID, name))
			}
		}
	}

	for _, s := range t.Subsystems {
		for _, id := range s.Nodes {
			if !t.HasNode(id) {
				errs = append(errs, fmt.Sprintf("Subsystem %q references unknown node: %s", s.Name, id))
			}
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

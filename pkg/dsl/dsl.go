// Package dsl implements the FlowViz description language parser.
//
// Two surface syntaxes coexist in one document. The block grammar declares
// constructs with braced bodies:
//
//	event orders { color: #e67e22; shape: square; rate: 3; }
//	node api { type: service; label: "User API"; }
//	api -> enrich -> db
//
// The legacy grammar is line-oriented:
//
//	api: service, label=User API
//	subsystem "Backend":
//	    db: db
//	events:
//	- name: orders
//	  rate: 3
//
// Parse runs both grammars over the same input in two passes and merges the
// results: nodes and subsystems union, while events are taken from flow
// blocks if any exist, else from event blocks, else from the legacy events
// list, with a single default event injected when nothing declared one.
// Lines whose first non-blank byte is '#' are comments.
//
// Parse never fails. Malformed constructs become ParseError entries on the
// returned topology and parsing continues; every scan loop is guaranteed to
// advance, so arbitrarily broken input still terminates.
package dsl

import (
	"fmt"
	"strconv"

	"github.com/flowviz/flowviz/pkg/topology"
)

// Parse builds a Topology from DSL text. The result is never nil and
// always contains at least one event. Syntax problems are reported through
// the topology's Errors field with 1-based line numbers.
func Parse(text string) *topology.Topology {
	topo := topology.New()
	bp := newBlockParser(text, topo)
	bp.run()
	lp := newLegacyParser(text, topo, bp.claimed)
	lp.run()
	finalize(topo, bp, lp)
	return topo
}

// finalize reconciles subsystem attributes with membership lists, selects
// the event set by grammar precedence, and fills event defaults.
func finalize(topo *topology.Topology, bp *blockParser, lp *legacyParser) {
	for _, n := range topo.Nodes {
		if sub := n.Attrs.Subsystem; sub != "" {
			topo.AddSubsystem(sub, []string{n.ID}, "")
		}
	}

	events := selectEvents(topo, bp, lp)
	if len(events) == 0 {
		events = []*topology.Event{{Name: topology.DefaultEventName}}
	}
	for _, ev := range events {
		normalizeEvent(ev)
		topo.AddEvent(ev)
	}
}

// selectEvents applies the documented precedence: flow blocks beat event
// blocks, which beat the legacy events list. Lower-precedence declarations
// still serve as inheritance bases for flows.
func selectEvents(topo *topology.Topology, bp *blockParser, lp *legacyParser) []*topology.Event {
	if len(bp.flows) > 0 {
		evs := make([]*topology.Event, 0, len(bp.flows))
		for i, f := range bp.flows {
			evs = append(evs, resolveFlow(topo, f, i, bp.events, lp.events))
		}
		return evs
	}
	if len(bp.events) > 0 {
		return bp.events
	}
	return lp.events
}

// resolveFlow materializes a flow block into an event: base visuals first,
// the flow's own overrides second.
func resolveFlow(topo *topology.Topology, f *flowDecl, idx int, blockEvents, legacyEvents []*topology.Event) *topology.Event {
	ev := &topology.Event{}
	if f.base != "" {
		base := findEvent(blockEvents, f.base)
		if base == nil {
			base = findEvent(legacyEvents, f.base)
		}
		if base == nil {
			topo.AddError(f.line, fmt.Sprintf("flow references unknown event: %s", f.base))
		} else {
			*ev = *base
		}
	}
	ev.Merge(&f.overrides)
	switch {
	case f.name != "":
		ev.Name = f.name
	case f.overrides.Name != "":
		ev.Name = f.overrides.Name
	case ev.Name != "":
		// inherited from the base event
	default:
		ev.Name = fmt.Sprintf("flow-%d", idx+1)
	}
	return ev
}

func findEvent(events []*topology.Event, name string) *topology.Event {
	for _, ev := range events {
		if ev.Name == name {
			return ev
		}
	}
	return nil
}

func normalizeEvent(ev *topology.Event) {
	if ev.Shape == "" {
		ev.Shape = topology.DefaultEventShape
	}
	if ev.Color == "" {
		ev.Color = topology.DefaultEventColor
	}
	if ev.Size <= 0 {
		ev.Size = topology.DefaultEventSize
	}
	if ev.Rate <= 0 {
		ev.Rate = topology.DefaultEventRate
	}
}

// setEventField assigns one event field from its textual value, shared by
// the event/flow block bodies and the legacy events list. Invalid numeric
// values are recorded as parse errors and leave the field unset so the
// defaults apply.
func setEventField(topo *topology.Topology, ev *topology.Event, construct, key, value string, line int) {
	switch key {
	case "name":
		ev.Name = value
	case "label":
		ev.Label = value
	case "color":
		ev.Color = value
	case "shape":
		ev.Shape = value
	case "source":
		ev.Source = value
	case "size":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			topo.AddError(line, fmt.Sprintf("invalid size %q", value))
			return
		}
		ev.Size = f
	case "rate":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			topo.AddError(line, fmt.Sprintf("invalid rate %q", value))
			return
		}
		ev.Rate = f
	case "path":
		ev.Path = ParsePath(value)
	default:
		topo.AddError(line, fmt.Sprintf("unknown %s key %q", construct, key))
	}
}

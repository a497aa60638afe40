package dsl

import (
	"strings"

	"github.com/flowviz/flowviz/pkg/topology"
)

// ParsePath parses an itinerary string like "api -> enrich[t1] -> db" into
// ordered steps. A bracket suffix supplies attribute overrides for the
// step: "k=v" entries assign directly, and a bare name assigns the
// "transformation" key. Steps without a suffix carry nil attributes. A
// path with fewer than two steps is not an itinerary and yields nil.
func ParsePath(s string) []topology.PathStep {
	parts := strings.Split(s, "->")
	steps := make([]topology.PathStep, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		step := topology.PathStep{NodeID: part}
		if i := strings.IndexByte(part, '['); i >= 0 {
			attrText := part[i+1:]
			if j := strings.IndexByte(attrText, ']'); j >= 0 {
				attrText = attrText[:j]
			}
			step.NodeID = strings.TrimSpace(part[:i])
			step.Attrs = parsePathAttrs(attrText)
		}
		if step.NodeID == "" {
			continue
		}
		steps = append(steps, step)
	}
	if len(steps) <= 1 {
		return nil
	}
	return steps
}

func parsePathAttrs(s string) map[string]string {
	var attrs map[string]string
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if attrs == nil {
			attrs = make(map[string]string)
		}
		if k, v, ok := strings.Cut(entry, "="); ok {
			attrs[strings.TrimSpace(k)] = unquote(strings.TrimSpace(v))
		} else {
			attrs["transformation"] = entry
		}
	}
	return attrs
}

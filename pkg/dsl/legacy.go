package dsl

import (
	"fmt"
	"strings"

	"github.com/flowviz/flowviz/pkg/topology"
)

// legacyParser runs the line-oriented grammar: "name: type, k=v" node
// lines, colon-form subsystem headers with indented bodies, and the
// YAML-like "events:" block. It is also the catch-all: any line neither
// pass recognizes, other than blanks and # comments, becomes one parse
// error here.
type legacyParser struct {
	topo    *topology.Topology
	lines   []string
	claimed map[int]bool
	events  []*topology.Event
	i       int
}

func newLegacyParser(src string, topo *topology.Topology, claimed map[int]bool) *legacyParser {
	return &legacyParser{
		topo:    topo,
		lines:   strings.Split(src, "\n"),
		claimed: claimed,
	}
}

func (l *legacyParser) run() {
	for l.i < len(l.lines) {
		start := l.i
		l.statement()
		if l.i == start {
			l.i++
		}
	}
}

func (l *legacyParser) statement() {
	raw := l.lines[l.i]
	num := l.i + 1
	trimmed := strings.TrimSpace(raw)
	if l.claimed[num] || trimmed == "" {
		l.i++
		return
	}
	switch {
	case strings.HasPrefix(trimmed, "#"):
		l.i++
	case isSubsystemHeader(trimmed):
		l.subsystemBlock()
	case trimmed == "events:":
		l.eventsBlock()
	case indentOf(raw) > 0:
		l.topo.AddError(num, fmt.Sprintf("unexpected indented line: %q", trimmed))
		l.i++
	case l.nodeLine(raw, num, ""):
		l.i++
	default:
		l.topo.AddError(num, fmt.Sprintf("unrecognized statement: %q", trimmed))
		l.i++
	}
}

func isSubsystemHeader(trimmed string) bool {
	return strings.HasPrefix(trimmed, "subsystem ") && strings.HasSuffix(trimmed, ":")
}

func indentOf(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}

// nodeLine parses "name: type, k=v, ...". It returns false without
// touching the topology when the line does not have that shape; the caller
// decides whether that is an error.
func (l *legacyParser) nodeLine(raw string, num int, subsystem string) bool {
	line := strings.TrimSpace(raw)
	colon := strings.IndexByte(line, ':')
	if colon <= 0 {
		return false
	}
	name := strings.TrimSpace(line[:colon])
	if q := unquote(name); q != name {
		name = q
	} else if !isIdentString(name) {
		return false
	}
	if name == "" {
		return false
	}

	var typ topology.NodeType
	var attrs topology.Attributes
	if subsystem != "" {
		attrs.Subsystem = subsystem
	}
	rest := strings.TrimSpace(line[colon+1:])
	if rest == "" {
		l.topo.AddError(num, fmt.Sprintf("node %q missing a type", name))
	}
	first := true
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if first {
			first = false
			if !strings.Contains(part, "=") {
				typ = topology.NodeType(unquote(part))
				continue
			}
			l.topo.AddError(num, fmt.Sprintf("node %q missing a type", name))
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			l.topo.AddError(num, fmt.Sprintf("invalid attribute %q on node %q", part, name))
			continue
		}
		if err := attrs.Set(strings.TrimSpace(k), unquote(strings.TrimSpace(v))); err != nil {
			l.topo.AddError(num, err.Error())
		}
	}

	node := l.topo.AddNode(name, typ, attrs)
	if subsystem != "" {
		l.topo.AddSubsystem(subsystem, []string{node.ID}, "")
	}
	return true
}

// subsystemBlock parses the colon-form header and its indented body of
// node lines. The body ends at the first non-blank line back at column
// zero.
func (l *legacyParser) subsystemBlock() {
	header := strings.TrimSpace(l.lines[l.i])
	num := l.i + 1
	name := unquote(strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(header, "subsystem"), ":")))
	l.i++
	if name == "" {
		l.topo.AddError(num, "subsystem header missing a name")
		return
	}
	l.topo.AddSubsystem(name, nil, "")
	for l.i < len(l.lines) {
		raw := l.lines[l.i]
		lnum := l.i + 1
		if l.claimed[lnum] {
			break
		}
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			l.i++
			continue
		}
		if indentOf(raw) == 0 {
			break
		}
		if !l.nodeLine(raw, lnum, name) {
			l.topo.AddError(lnum, fmt.Sprintf("invalid node line in subsystem %q: %q", name, trimmed))
		}
		l.i++
	}
}

// eventsBlock parses the "events:" list. Items open with a dash; further
// indented "key: value" lines belong to the current item. The block ends
// at the first line that is neither.
func (l *legacyParser) eventsBlock() {
	l.i++
	var cur *topology.Event
	curLine := 0
	finish := func() {
		if cur != nil && cur.Name == "" {
			l.topo.AddError(curLine, "event item missing a name")
			l.events = l.events[:len(l.events)-1]
		}
		cur = nil
	}
	for l.i < len(l.lines) {
		raw := l.lines[l.i]
		num := l.i + 1
		if l.claimed[num] {
			break
		}
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			l.i++
			continue
		}
		if trimmed == "-" || strings.HasPrefix(trimmed, "- ") {
			finish()
			cur = &topology.Event{}
			curLine = num
			l.events = append(l.events, cur)
			if rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "-")); rest != "" {
				l.eventField(cur, rest, num)
			}
			l.i++
			continue
		}
		if indentOf(raw) > 0 && cur != nil && strings.Contains(trimmed, ":") {
			l.eventField(cur, trimmed, num)
			l.i++
			continue
		}
		break
	}
	finish()
}

func (l *legacyParser) eventField(ev *topology.Event, entry string, num int) {
	key, value, ok := strings.Cut(entry, ":")
	if !ok {
		l.topo.AddError(num, fmt.Sprintf("invalid event field %q", entry))
		return
	}
	setEventField(l.topo, ev, "event", strings.TrimSpace(key), unquote(strings.TrimSpace(value)), num)
}

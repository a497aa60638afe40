package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flowviz/flowviz/pkg/topology"
)

// blockParser runs the block-grammar pass: keyword-led declarations
// (event, transformation, node, subsystem, flow) and arrow shorthand lines.
// Anything it does not claim is left untouched for the legacy pass; the
// lines it does consume are recorded in claimed so the legacy pass skips
// them.
//
// Every loop in this file advances the cursor by at least one byte per
// iteration. The pattern is a position snapshot at the top and a forced
// advance at the bottom whenever nothing else moved; inputs that match no
// token shape fall through it instead of spinning.
type blockParser struct {
	s       *scanner
	topo    *topology.Topology
	events  []*topology.Event
	flows   []*flowDecl
	claimed map[int]bool
}

// flowDecl is a parsed flow block, resolved against its base event after
// both passes complete.
type flowDecl struct {
	name      string
	base      string
	overrides topology.Event
	line      int
}

func newBlockParser(src string, topo *topology.Topology) *blockParser {
	return &blockParser{
		s:       newScanner(src),
		topo:    topo,
		claimed: make(map[int]bool),
	}
}

func (p *blockParser) run() {
	s := p.s
	for {
		s.skipSpace()
		if s.eof() {
			return
		}
		start := s.pos
		p.statement()
		if s.pos == start {
			s.advance()
		}
	}
}

// statement handles one top-level construct starting at the cursor. It
// either claims a keyword block or an edge line, or skips the line for the
// legacy pass.
func (p *blockParser) statement() {
	s := p.s
	m := s.mark()
	word, ok := s.ident()
	if !ok {
		s.skipLine()
		return
	}
	switch word {
	case "event", "transformation", "node", "subsystem", "flow":
		if p.keywordBlock(word, m) {
			return
		}
		s.restore(m)
		s.skipLine()
		return
	}
	s.restore(m)
	if p.edgeLine() {
		return
	}
	s.skipLine()
}

// keywordBlock claims "<word> <name> { ... }". It restores the cursor and
// returns false when no brace follows, leaving constructs like the legacy
// colon-form subsystem header to the other pass.
func (p *blockParser) keywordBlock(word string, m mark) bool {
	s := p.s
	startLine := m.line
	s.skipInline()
	name, _ := s.name()
	s.skipSpace()
	if s.peek() != '{' {
		s.restore(m)
		return false
	}
	s.advance()
	if name == "" && word != "flow" {
		p.topo.AddError(startLine, word+" declaration missing a name")
	}
	entries := p.body(startLine)

	switch word {
	case "event":
		p.eventBlock(name, entries)
	case "transformation":
		p.transformationBlock(name, entries)
	case "node":
		p.nodeBlock(name, entries)
	case "subsystem":
		p.subsystemBlock(name, entries)
	case "flow":
		p.flowBlock(name, startLine, entries)
	}
	p.claim(startLine, s.line)
	return true
}

func (p *blockParser) claim(from, to int) {
	for l := from; l <= to; l++ {
		p.claimed[l] = true
	}
}

// =============================================================================
// Block bodies
// =============================================================================

type valueKind int

const (
	valScalar valueKind = iota
	valPair
	valArray
)

type blockValue struct {
	kind valueKind
	raw  string
	pair [2]string
	arr  []string
	line int
}

type blockEntry struct {
	key string
	val blockValue
}

// body scans "key: value;" entries until the closing brace. Semicolons are
// optional before a newline or the brace, and comment lines are skipped.
func (p *blockParser) body(openLine int) []blockEntry {
	s := p.s
	var entries []blockEntry
	for {
		s.skipSpace()
		if s.eof() {
			p.topo.AddError(openLine, "unterminated block")
			return entries
		}
		if s.peek() == '}' {
			s.advance()
			return entries
		}
		if s.peek() == ';' {
			s.advance()
			continue
		}
		if s.peek() == '#' {
			s.skipLine()
			continue
		}
		start := s.pos
		line := s.line
		key, ok := s.ident()
		if !ok {
			p.topo.AddError(line, fmt.Sprintf("unexpected character %q in block", string(s.peek())))
			s.advance()
			continue
		}
		s.skipInline()
		if s.peek() != ':' {
			p.topo.AddError(line, fmt.Sprintf("expected ':' after %q", key))
			s.untilAny(";}\n")
			if s.pos == start {
				s.advance()
			}
			continue
		}
		s.advance()
		s.skipInline()
		entries = append(entries, blockEntry{key: key, val: p.value()})
		s.skipInline()
		if s.peek() == ';' {
			s.advance()
		}
		if s.pos == start {
			s.advance()
		}
	}
}

// value scans one entry value: quoted string, parenthesized pair, bracketed
// array, or raw text up to the entry terminator.
func (p *blockParser) value() blockValue {
	s := p.s
	v := blockValue{line: s.line}
	switch s.peek() {
	case '"':
		if q, ok := s.quoted(); ok {
			v.raw = q
			return v
		}
		p.topo.AddError(s.line, "unterminated string")
		s.advance()
		v.raw = strings.TrimSpace(s.untilAny(";}\n"))
		return v
	case '(':
		return p.pairValue()
	case '[':
		return p.arrayValue()
	}
	v.raw = strings.TrimSpace(s.untilAny(";}\n"))
	return v
}

func (p *blockParser) pairValue() blockValue {
	s := p.s
	v := blockValue{kind: valPair, line: s.line}
	s.advance()
	raw := s.untilAny(");}\n")
	if s.peek() == ')' {
		s.advance()
	} else {
		p.topo.AddError(v.line, "unterminated pair")
	}
	first, second, _ := strings.Cut(raw, ",")
	v.pair[0] = strings.TrimSpace(first)
	v.pair[1] = strings.TrimSpace(second)
	return v
}

// arrayValue scans "[a, b, c]". A byte that fits no element shape is
// reported once and stepped over, so inputs like [Valid, !Invalid] finish
// with the salvageable elements intact.
func (p *blockParser) arrayValue() blockValue {
	s := p.s
	v := blockValue{kind: valArray, line: s.line}
	s.advance()
	for {
		s.skipSpace()
		if s.eof() {
			p.topo.AddError(v.line, "unterminated array")
			return v
		}
		start := s.pos
		switch s.peek() {
		case ']':
			s.advance()
			return v
		case ',':
			s.advance()
			continue
		case '#':
			s.skipLine()
			continue
		}
		if item, ok := s.name(); ok {
			v.arr = append(v.arr, item)
		} else {
			p.topo.AddError(s.line, fmt.Sprintf("unexpected character %q in array", string(s.peek())))
		}
		if s.pos == start {
			s.advance()
		}
	}
}

// =============================================================================
// Construct application
// =============================================================================

func (p *blockParser) nodeBlock(name string, entries []blockEntry) {
	if name == "" {
		return
	}
	var typ topology.NodeType
	var attrs topology.Attributes
	for _, e := range entries {
		switch {
		case e.key == "type" && e.val.kind == valScalar:
			typ = topology.NodeType(unquote(e.val.raw))
		case e.key == "position" && e.val.kind == valPair:
			p.setAttr(&attrs, "x", e.val.pair[0], e.val.line)
			p.setAttr(&attrs, "y", e.val.pair[1], e.val.line)
		case e.val.kind == valScalar:
			p.setAttr(&attrs, e.key, unquote(e.val.raw), e.val.line)
		default:
			p.topo.AddError(e.val.line, fmt.Sprintf("unexpected value for node key %q", e.key))
		}
	}
	p.topo.AddNode(name, typ, attrs)
}

func (p *blockParser) setAttr(attrs *topology.Attributes, key, value string, line int) {
	if err := attrs.Set(key, value); err != nil {
		p.topo.AddError(line, err.Error())
	}
}

func (p *blockParser) eventBlock(name string, entries []blockEntry) {
	if name == "" {
		return
	}
	ev := &topology.Event{Name: name}
	for _, e := range entries {
		p.eventKey(ev, e, "event")
	}
	p.events = append(p.events, ev)
}

// eventKey applies one body entry shared by event and flow blocks.
func (p *blockParser) eventKey(ev *topology.Event, e blockEntry, construct string) {
	if e.val.kind != valScalar {
		p.topo.AddError(e.val.line, fmt.Sprintf("unexpected value for %s key %q", construct, e.key))
		return
	}
	setEventField(p.topo, ev, construct, e.key, unquote(e.val.raw), e.val.line)
}

func (p *blockParser) transformationBlock(name string, entries []blockEntry) {
	if name == "" {
		return
	}
	tr := &topology.Transformation{Name: name, OutputRate: 1}
	for _, e := range entries {
		if e.val.kind != valScalar {
			p.topo.AddError(e.val.line, fmt.Sprintf("unexpected value for transformation key %q", e.key))
			continue
		}
		value := unquote(e.val.raw)
		switch e.key {
		case "input":
			tr.Input = value
		case "output":
			tr.Output = value
		case "delay":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil || f < 0 {
				p.topo.AddError(e.val.line, fmt.Sprintf("invalid delay %q", value))
				continue
			}
			tr.Delay = f
		case "outputRate", "output_rate":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil || f <= 0 {
				p.topo.AddError(e.val.line, fmt.Sprintf("invalid outputRate %q", value))
				continue
			}
			tr.OutputRate = f
		default:
			p.topo.AddError(e.val.line, fmt.Sprintf("unknown transformation key %q", e.key))
		}
	}
	p.topo.AddTransformation(tr)
}

func (p *blockParser) subsystemBlock(name string, entries []blockEntry) {
	if name == "" {
		return
	}
	var nodes []string
	var color string
	for _, e := range entries {
		switch {
		case e.key == "nodes" && e.val.kind == valArray:
			nodes = e.val.arr
		case e.key == "color" && e.val.kind == valScalar:
			color = unquote(e.val.raw)
		default:
			p.topo.AddError(e.val.line, fmt.Sprintf("unknown subsystem key %q", e.key))
		}
	}
	p.topo.AddSubsystem(name, nodes, color)
}

func (p *blockParser) flowBlock(name string, line int, entries []blockEntry) {
	f := &flowDecl{name: name, line: line}
	for _, e := range entries {
		if e.key == "event" && e.val.kind == valScalar {
			f.base = unquote(e.val.raw)
			continue
		}
		p.eventKey(&f.overrides, e, "flow")
	}
	p.flows = append(p.flows, f)
}

// =============================================================================
// Edge shorthand
// =============================================================================

type edgeSeg struct {
	id   string
	side topology.Side
}

// edgeLine claims "A -> B -> C" shorthand. Each segment may carry a ":side"
// suffix naming one of the four sides and a bracketed attribute suffix,
// which is stripped and discarded. Returns false (cursor restored) when the
// line does not open with a segment followed by an arrow.
func (p *blockParser) edgeLine() bool {
	s := p.s
	m := s.mark()
	first, ok := p.edgeSegment()
	if !ok {
		s.restore(m)
		return false
	}
	s.skipInline()
	if !s.arrow() {
		s.restore(m)
		return false
	}
	prev := first
	for {
		s.skipInline()
		seg, ok := p.edgeSegment()
		if !ok {
			p.topo.AddError(s.line, "expected node after '->'")
			break
		}
		p.topo.AddEdge(prev.id, seg.id, prev.side, seg.side)
		prev = seg
		s.skipInline()
		if !s.arrow() {
			break
		}
	}
	s.skipInline()
	if !s.eof() && s.peek() != '\n' && s.peek() != '\r' {
		rest := strings.TrimSpace(s.untilAny("\n"))
		p.topo.AddError(s.line, fmt.Sprintf("unexpected text after edge: %q", rest))
	}
	p.claim(m.line, s.line)
	s.skipLine()
	return true
}

// edgeSegment scans one endpoint: a name, an optional valid ":side" suffix,
// and an optional "[...]" attribute suffix. A colon suffix that does not
// name a side stays part of the node id.
func (p *blockParser) edgeSegment() (edgeSeg, bool) {
	s := p.s
	id, ok := s.name()
	if !ok {
		return edgeSeg{}, false
	}
	// A fused arrow ("A->B") scans the dash into the identifier.
	if strings.HasSuffix(id, "-") && s.peek() == '>' {
		id = strings.TrimSuffix(id, "-")
		s.pos--
	}
	if id == "" {
		return edgeSeg{}, false
	}
	seg := edgeSeg{id: id}
	if s.peek() == ':' {
		m := s.mark()
		s.advance()
		if suffix, ok := s.ident(); ok {
			if side, valid := topology.ParseSide(suffix); valid {
				seg.side = side
			} else {
				seg.id = id + ":" + suffix
			}
		} else {
			s.restore(m)
		}
	}
	if s.peek() == '[' {
		s.advance()
		s.untilAny("]\n")
		if s.peek() == ']' {
			s.advance()
		}
	}
	return seg, true
}

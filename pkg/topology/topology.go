// Package topology defines the graph model produced by the DSL parser: nodes,
// edges, event declarations, transformations, and subsystem groupings, plus
// the parse errors collected while building them.
//
// A Topology keeps declaration order for every aggregate. Node identity is by
// ID; redefining a node keeps its original position in the order and merges
// the later attributes over the earlier ones field-wise. Edge endpoints are
// auto-created as service nodes when they were never declared, so a returned
// Topology is always referentially closed over its edges.
//
// Topologies are plain serializable records. The unexported lookup indexes
// are rebuilt on demand, so a Topology decoded from JSON or YAML behaves the
// same as one assembled through the Add methods.
package topology

import "slices"

// NodeType classifies a node. The set is open: the parser accepts any
// identifier as a type and renderers fall back to service styling for types
// they do not recognize.
type NodeType string

// Known node types.
const (
	NodeService   NodeType = "service"
	NodeTopic     NodeType = "topic"
	NodeDB        NodeType = "db"
	NodeProcessor NodeType = "processor"
	NodeExternal  NodeType = "external"
)

// Side names a connection side of a node box.
type Side string

// Connection sides. Edges default to leaving on the right and arriving on
// the left.
const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// ParseSide maps a side name to a Side. The second return is false when the
// name is not one of the four sides.
func ParseSide(s string) (Side, bool) {
	switch Side(s) {
	case SideTop, SideBottom, SideLeft, SideRight:
		return Side(s), true
	}
	return "", false
}

// Event shape names. A shape is either one of these or an "icon:" tagged
// value passed through to the renderer.
const (
	ShapeCircle   = "circle"
	ShapeSquare   = "square"
	ShapeTriangle = "triangle"
	ShapeDiamond  = "diamond"
)

// Defaults applied to event declarations and to the injected default event.
const (
	DefaultEventName  = "default"
	DefaultEventColor = "#4a9eff"
	DefaultEventShape = ShapeCircle
	DefaultEventSize  = 8.0
	DefaultEventRate  = 2.0
)

// Node is a vertex of the flow graph.
type Node struct {
	ID    string     `json:"id" yaml:"id" bson:"id"`
	Type  NodeType   `json:"type" yaml:"type" bson:"type"`
	Attrs Attributes `json:"attrs" yaml:"attrs" bson:"attrs"`
}

// Edge is a directed connection between two nodes. Duplicate edges between
// the same pair are permitted and render as parallel curves.
type Edge struct {
	From     string `json:"from" yaml:"from" bson:"from"`
	To       string `json:"to" yaml:"to" bson:"to"`
	FromSide Side   `json:"from_side" yaml:"from_side" bson:"from_side"`
	ToSide   Side   `json:"to_side" yaml:"to_side" bson:"to_side"`
}

// PathStep is one stop of an event itinerary. Attrs holds raw key/value
// overrides applied to a particle when it reaches the step; a nil map means
// the step carries none. The key "transformation" names a transformation to
// apply at the step.
type PathStep struct {
	NodeID string            `json:"node_id" yaml:"node_id" bson:"node_id"`
	Attrs  map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty" bson:"attrs,omitempty"`
}

// Event declares a particle type: its visual identity, spawn behavior, and
// optional itinerary.
type Event struct {
	Name   string     `json:"name" yaml:"name" bson:"name"`
	Label  string     `json:"label,omitempty" yaml:"label,omitempty" bson:"label,omitempty"`
	Color  string     `json:"color" yaml:"color" bson:"color"`
	Shape  string     `json:"shape" yaml:"shape" bson:"shape"`
	Size   float64    `json:"size" yaml:"size" bson:"size"`
	Source string     `json:"source,omitempty" yaml:"source,omitempty" bson:"source,omitempty"`
	Rate   float64    `json:"rate" yaml:"rate" bson:"rate"`
	Path   []PathStep `json:"path,omitempty" yaml:"path,omitempty" bson:"path,omitempty"`
}

// Transformation declares an event conversion performed at nodes that
// reference it: particles of the input event become the output event after
// an optional delay. OutputRate declares fan-out beyond 1:1; it is carried
// for display but not executed by the simulator.
type Transformation struct {
	Name       string  `json:"name" yaml:"name" bson:"name"`
	Input      string  `json:"input" yaml:"input" bson:"input"`
	Output     string  `json:"output" yaml:"output" bson:"output"`
	Delay      float64 `json:"delay" yaml:"delay" bson:"delay"`
	OutputRate float64 `json:"output_rate" yaml:"output_rate" bson:"output_rate"`
}

// Subsystem groups nodes under a named, optionally colored boundary.
type Subsystem struct {
	Name  string   `json:"name" yaml:"name" bson:"name"`
	Nodes []string `json:"nodes" yaml:"nodes" bson:"nodes"`
	Color string   `json:"color,omitempty" yaml:"color,omitempty" bson:"color,omitempty"`
}

// ParseError records one syntax problem. Line is 1-based; 0 means the
// location is unknown.
type ParseError struct {
	Line    int    `json:"line" yaml:"line" bson:"line"`
	Message string `json:"message" yaml:"message" bson:"message"`
}

// Topology is the complete parsed model. All slices preserve declaration
// order.
type Topology struct {
	Nodes           []*Node           `json:"nodes" yaml:"nodes" bson:"nodes"`
	Edges           []*Edge           `json:"edges" yaml:"edges" bson:"edges"`
	Events          []*Event          `json:"events" yaml:"events" bson:"events"`
	Transformations []*Transformation `json:"transformations,omitempty" yaml:"transformations,omitempty" bson:"transformations,omitempty"`
	Subsystems      []*Subsystem      `json:"subsystems,omitempty" yaml:"subsystems,omitempty" bson:"subsystems,omitempty"`
	Errors          []ParseError      `json:"errors" yaml:"errors" bson:"errors"`

	nodeIndex map[string]*Node
	eventIdx  map[string]*Event
	transIdx  map[string]*Transformation
	subIdx    map[string]*Subsystem
	outgoing  map[string][]*Edge
	incoming  map[string][]*Edge
}

// New returns an empty Topology. The required aggregates are initialized to
// empty slices so an empty topology serializes as empty lists, not nulls.
func New() *Topology {
	t := &Topology{
		Nodes:  []*Node{},
		Edges:  []*Edge{},
		Events: []*Event{},
		Errors: []ParseError{},
	}
	t.reindex()
	return t
}

// reindex rebuilds every lookup structure from the exported slices.
func (t *Topology) reindex() {
	t.nodeIndex = make(map[string]*Node, len(t.Nodes))
	for _, n := range t.Nodes {
		t.nodeIndex[n.ID] = n
	}
	t.eventIdx = make(map[string]*Event, len(t.Events))
	for _, ev := range t.Events {
		t.eventIdx[ev.Name] = ev
	}
	t.transIdx = make(map[string]*Transformation, len(t.Transformations))
	for _, tr := range t.Transformations {
		t.transIdx[tr.Name] = tr
	}
	t.subIdx = make(map[string]*Subsystem, len(t.Subsystems))
	for _, s := range t.Subsystems {
		t.subIdx[s.Name] = s
	}
	t.outgoing = make(map[string][]*Edge)
	t.incoming = make(map[string][]*Edge)
	for _, e := range t.Edges {
		t.outgoing[e.From] = append(t.outgoing[e.From], e)
		t.incoming[e.To] = append(t.incoming[e.To], e)
	}
}

func (t *Topology) ensureIndex() {
	if t.nodeIndex == nil {
		t.reindex()
	}
}

// AddNode inserts or merges a node. A repeated ID keeps its first position
// in declaration order; a non-empty type overrides the stored one and the
// attributes merge field-wise with the later definition winning.
func (t *Topology) AddNode(id string, typ NodeType, attrs Attributes) *Node {
	t.ensureIndex()
	if n, ok := t.nodeIndex[id]; ok {
		if typ != "" {
			n.Type = typ
		}
		n.Attrs.Merge(attrs)
		return n
	}
	if typ == "" {
		typ = NodeService
	}
	n := &Node{ID: id, Type: typ, Attrs: attrs}
	t.Nodes = append(t.Nodes, n)
	t.nodeIndex[id] = n
	return n
}

// Node returns the node with the given ID.
func (t *Topology) Node(id string) (*Node, bool) {
	t.ensureIndex()
	n, ok := t.nodeIndex[id]
	return n, ok
}

// HasNode reports whether a node with the given ID exists.
func (t *Topology) HasNode(id string) bool {
	_, ok := t.Node(id)
	return ok
}

// AddEdge appends a directed edge. Empty sides take the right/left defaults
// and endpoints missing from the topology are created as service nodes.
func (t *Topology) AddEdge(from, to string, fromSide, toSide Side) *Edge {
	t.ensureIndex()
	if fromSide == "" {
		fromSide = SideRight
	}
	if toSide == "" {
		toSide = SideLeft
	}
	if _, ok := t.nodeIndex[from]; !ok {
		t.AddNode(from, NodeService, Attributes{})
	}
	if _, ok := t.nodeIndex[to]; !ok {
		t.AddNode(to, NodeService, Attributes{})
	}
	e := &Edge{From: from, To: to, FromSide: fromSide, ToSide: toSide}
	t.Edges = append(t.Edges, e)
	t.outgoing[from] = append(t.outgoing[from], e)
	t.incoming[to] = append(t.incoming[to], e)
	return e
}

// AddEvent inserts or merges an event declaration by name. Later
// declarations keep the first position and override non-zero fields.
func (t *Topology) AddEvent(ev *Event) *Event {
	t.ensureIndex()
	if prev, ok := t.eventIdx[ev.Name]; ok {
		prev.Merge(ev)
		return prev
	}
	t.Events = append(t.Events, ev)
	t.eventIdx[ev.Name] = ev
	return ev
}

// Merge overlays the set fields of src onto e. The name is left alone.
func (e *Event) Merge(src *Event) {
	if src.Label != "" {
		e.Label = src.Label
	}
	if src.Color != "" {
		e.Color = src.Color
	}
	if src.Shape != "" {
		e.Shape = src.Shape
	}
	if src.Size > 0 {
		e.Size = src.Size
	}
	if src.Source != "" {
		e.Source = src.Source
	}
	if src.Rate > 0 {
		e.Rate = src.Rate
	}
	if len(src.Path) > 0 {
		e.Path = src.Path
	}
}

// Event returns the event with the given name.
func (t *Topology) Event(name string) (*Event, bool) {
	t.ensureIndex()
	ev, ok := t.eventIdx[name]
	return ev, ok
}

// AddTransformation inserts or replaces a transformation by name, keeping
// the first declaration's position.
func (t *Topology) AddTransformation(tr *Transformation) *Transformation {
	t.ensureIndex()
	if prev, ok := t.transIdx[tr.Name]; ok {
		*prev = *tr
		return prev
	}
	t.Transformations = append(t.Transformations, tr)
	t.transIdx[tr.Name] = tr
	return tr
}

// Transformation returns the transformation with the given name.
func (t *Topology) Transformation(name string) (*Transformation, bool) {
	t.ensureIndex()
	tr, ok := t.transIdx[name]
	return tr, ok
}

// AddSubsystem inserts or merges a subsystem. Member lists union in order
// and a non-empty color overrides the stored one.
func (t *Topology) AddSubsystem(name string, nodes []string, color string) *Subsystem {
	t.ensureIndex()
	s, ok := t.subIdx[name]
	if !ok {
		s = &Subsystem{Name: name}
		t.Subsystems = append(t.Subsystems, s)
		t.subIdx[name] = s
	}
	for _, id := range nodes {
		if !slices.Contains(s.Nodes, id) {
			s.Nodes = append(s.Nodes, id)
		}
	}
	if color != "" {
		s.Color = color
	}
	return s
}

// Subsystem returns the subsystem with the given name.
func (t *Topology) Subsystem(name string) (*Subsystem, bool) {
	t.ensureIndex()
	s, ok := t.subIdx[name]
	return s, ok
}

// AddError appends a parse error. line is 1-based, 0 for unknown.
func (t *Topology) AddError(line int, message string) {
	t.Errors = append(t.Errors, ParseError{Line: line, Message: message})
}

// Outgoing returns the edges leaving a node in declaration order.
func (t *Topology) Outgoing(id string) []*Edge {
	t.ensureIndex()
	return t.outgoing[id]
}

// Incoming returns the edges arriving at a node in declaration order.
func (t *Topology) Incoming(id string) []*Edge {
	t.ensureIndex()
	return t.incoming[id]
}

// OutDegree returns the number of edges leaving a node.
func (t *Topology) OutDegree(id string) int { return len(t.Outgoing(id)) }

// InDegree returns the number of edges arriving at a node.
func (t *Topology) InDegree(id string) int { return len(t.Incoming(id)) }

// Sources returns the IDs of all nodes with no incoming edges, in
// declaration order.
func (t *Topology) Sources() []string {
	t.ensureIndex()
	var ids []string
	for _, n := range t.Nodes {
		if len(t.incoming[n.ID]) == 0 {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// NodeCount returns the number of nodes.
func (t *Topology) NodeCount() int { return len(t.Nodes) }

// EdgeCount returns the number of edges.
func (t *Topology) EdgeCount() int { return len(t.Edges) }

// Package scene defines the interchange document that bundles flow source
// with its parsed topology and computed layout.
//
// A Scene is what the store persists, the HTTP API exchanges, and the
// render and play commands consume. Building a scene is a pure function of
// the source text and layout options, so a stored scene can always be
// rebuilt by re-running the pipeline on its source.
package scene

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowviz/flowviz/pkg/errors"
	"github.com/flowviz/flowviz/pkg/layout"
	"github.com/flowviz/flowviz/pkg/topology"
)

// Scene bundles everything needed to draw and simulate a flow.
type Scene struct {
	ID        string             `json:"id" yaml:"id" bson:"_id"`
	Name      string             `json:"name" yaml:"name" bson:"name"`
	Source    string             `json:"source" yaml:"source" bson:"source"`
	Topology  *topology.Topology `json:"topology" yaml:"topology" bson:"topology"`
	Layout    *layout.Layout     `json:"layout" yaml:"layout" bson:"layout"`
	CreatedAt time.Time          `json:"created_at" yaml:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" yaml:"updated_at" bson:"updated_at"`
}

// New creates a scene with a fresh ID and timestamps.
func New(name, source string, topo *topology.Topology, lay *layout.Layout) *Scene {
	now := time.Now().UTC()
	return &Scene{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    source,
		Topology:  topo,
		Layout:    lay,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the modification timestamp.
func (s *Scene) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Validate checks that a scene is well-formed enough to store and render.
// Hand-edited scene files are the expected failure source.
func (s *Scene) Validate() error {
	if s.ID == "" {
		return errors.New(errors.ErrCodeInvalidScene, "scene has no id")
	}
	if err := errors.ValidateSceneName(s.Name); err != nil {
		return err
	}
	if s.Topology == nil {
		return errors.New(errors.ErrCodeInvalidScene, "scene has no topology")
	}
	if s.Layout == nil {
		return errors.New(errors.ErrCodeInvalidScene, "scene has no layout")
	}
	for _, n := range s.Topology.Nodes {
		if err := errors.ValidateNodeID(n.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "node %q", n.ID)
		}
	}
	return nil
}

// Info is the listing view of a stored scene, without the payload.
type Info struct {
	ID        string    `json:"id" yaml:"id" bson:"_id"`
	Name      string    `json:"name" yaml:"name" bson:"name"`
	Nodes     int       `json:"nodes" yaml:"nodes" bson:"nodes"`
	Edges     int       `json:"edges" yaml:"edges" bson:"edges"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at" bson:"updated_at"`
}

// Info returns the listing view of the scene.
func (s *Scene) Info() Info {
	info := Info{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Topology != nil {
		info.Nodes = s.Topology.NodeCount()
		info.Edges = s.Topology.EdgeCount()
	}
	return info
}

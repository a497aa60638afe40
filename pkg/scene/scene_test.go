package scene

import (
	"testing"
	"time"

	"github.com/flowviz/flowviz/pkg/layout"
)

const sampleSource = `api: service
db: database
api -> db
`

func TestBuild(t *testing.T) {
	s := Build("checkout", sampleSource, layout.Options{})

	if s.ID == "" {
		t.Error("Build should assign an id")
	}
	if s.Name != "checkout" {
		t.Errorf("Name = %q, want checkout", s.Name)
	}
	if s.Source != sampleSource {
		t.Error("Build should keep the source verbatim")
	}
	if s.Topology == nil || s.Topology.NodeCount() != 2 {
		t.Fatalf("Topology should have 2 nodes")
	}
	if s.Layout == nil || len(s.Layout.Nodes) != 2 {
		t.Fatalf("Layout should have 2 nodes")
	}
	if s.CreatedAt.IsZero() || !s.CreatedAt.Equal(s.UpdatedAt) {
		t.Error("timestamps should be set and equal on creation")
	}
}

func TestBuildUniqueIDs(t *testing.T) {
	a := Build("a", sampleSource, layout.Options{})
	b := Build("b", sampleSource, layout.Options{})
	if a.ID == b.ID {
		t.Error("every scene should get its own id")
	}
}

func TestRebuild(t *testing.T) {
	s := Build("checkout", sampleSource, layout.Options{})
	id, created := s.ID, s.CreatedAt

	s.Source = sampleSource + "db -> archive\n"
	time.Sleep(time.Millisecond)
	s.Rebuild(layout.Options{})

	if s.Topology.NodeCount() != 3 {
		t.Errorf("Rebuild should reparse: got %d nodes, want 3", s.Topology.NodeCount())
	}
	if s.ID != id {
		t.Error("Rebuild should preserve the id")
	}
	if !s.CreatedAt.Equal(created) {
		t.Error("Rebuild should preserve CreatedAt")
	}
	if !s.UpdatedAt.After(created) {
		t.Error("Rebuild should advance UpdatedAt")
	}
}

func TestValidate(t *testing.T) {
	valid := Build("checkout", sampleSource, layout.Options{})

	tests := []struct {
		name    string
		mutate  func(*Scene)
		wantErr bool
	}{
		{"built scene", func(s *Scene) {}, false},
		{"quoted node id", func(s *Scene) { s.Topology.Nodes[0].ID = "User API" }, false},
		{"no id", func(s *Scene) { s.ID = "" }, true},
		{"empty name", func(s *Scene) { s.Name = "" }, true},
		{"traversal name", func(s *Scene) { s.Name = "../etc" }, true},
		{"no topology", func(s *Scene) { s.Topology = nil }, true},
		{"no layout", func(s *Scene) { s.Layout = nil }, true},
		{"bad node id", func(s *Scene) { s.Topology.Nodes[0].ID = "a\x00b" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Build(valid.Name, valid.Source, layout.Options{})
			tt.mutate(s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	s := Build("checkout", sampleSource, layout.Options{})
	info := s.Info()

	if info.ID != s.ID || info.Name != "checkout" {
		t.Error("Info should carry identity")
	}
	if info.Nodes != 2 || info.Edges != 1 {
		t.Errorf("Info counts = %d/%d, want 2/1", info.Nodes, info.Edges)
	}
}

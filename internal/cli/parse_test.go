package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/flowviz/flowviz/pkg/dsl"
	"github.com/flowviz/flowviz/pkg/errors"
	pkgio "github.com/flowviz/flowviz/pkg/io"
	"github.com/flowviz/flowviz/pkg/layout"
	"github.com/flowviz/flowviz/pkg/scene"
	"github.com/flowviz/flowviz/pkg/topology"
)

const sampleFlow = `node api { type: service; label: "User API"; }
node queue { type: topic; }
api -> queue -> worker
`

// runCommand executes the root command with an isolated config and the
// cache disabled, so tests never touch the real cache directory.
func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.toml"), "--no-cache"))
	return root.ExecuteContext(context.Background())
}

func TestParseWritesTopologyJSON(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "shop.flow")
	if err := os.WriteFile(in, []byte(sampleFlow), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "topology.json")

	if err := runCommand(t, "parse", in, "-o", out); err != nil {
		t.Fatalf("parse: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var topo topology.Topology
	if err := json.Unmarshal(data, &topo); err != nil {
		t.Fatalf("output is not topology JSON: %v", err)
	}
	if topo.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", topo.NodeCount())
	}
	if topo.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", topo.EdgeCount())
	}
	n, ok := topo.Node("worker")
	if !ok {
		t.Fatal("auto-created worker node missing")
	}
	if n.Type != topology.NodeService {
		t.Errorf("worker type = %q, want service", n.Type)
	}
}

func TestParseMissingInput(t *testing.T) {
	err := runCommand(t, "parse", filepath.Join(t.TempDir(), "absent.flow"))
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadSource(t *testing.T) {
	dir := t.TempDir()

	flowPath := filepath.Join(dir, "checkout.flow")
	if err := os.WriteFile(flowPath, []byte(sampleFlow), 0o644); err != nil {
		t.Fatal(err)
	}

	topo := dsl.Parse(sampleFlow)
	lay := layout.Compute(topo, layout.Options{})
	sc := scene.New("demo", sampleFlow, topo, lay)
	scenePath := filepath.Join(dir, "demo.scene.json")
	if err := pkgio.ExportScene(sc, scenePath); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		wantName string
	}{
		{"flow file", flowPath, "checkout"},
		{"scene file keeps stored name", scenePath, "demo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, name, err := loadSource(tt.path)
			if err != nil {
				t.Fatalf("loadSource() error = %v", err)
			}
			if source != sampleFlow {
				t.Errorf("source = %q, want the flow text", source)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
		})
	}
}

func TestLoadSourceMissingFile(t *testing.T) {
	_, _, err := loadSource(filepath.Join(t.TempDir(), "absent.flow"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"flows/shop.flow", "shop"},
		{"shop.flow", "shop"},
		{"shop", "shop"},
		{"a/b/c.scene.json", "c.scene"},
	}
	for _, tt := range tests {
		if got := baseName(tt.path); got != tt.want {
			t.Errorf("baseName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

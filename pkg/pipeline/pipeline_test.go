package pipeline

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/flowviz/flowviz/pkg/cache"
	"github.com/flowviz/flowviz/pkg/errors"
	"github.com/flowviz/flowviz/pkg/layout"
	"github.com/flowviz/flowviz/pkg/observability"
)

const sampleSource = "api: service\ndb: database\napi -> db\n"

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"dot", false},
		{"png", false},
		{"pdf", true},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestSetLayoutDefaults(t *testing.T) {
	opts := Options{}
	opts.SetLayoutDefaults()

	if opts.HSpacing != layout.DefaultHSpacing {
		t.Errorf("HSpacing should be %v, got %v", layout.DefaultHSpacing, opts.HSpacing)
	}
	if opts.VSpacing != layout.DefaultVSpacing {
		t.Errorf("VSpacing should be %v, got %v", layout.DefaultVSpacing, opts.VSpacing)
	}
	if opts.NodeWidth != layout.DefaultNodeWidth {
		t.Errorf("NodeWidth should be %v, got %v", layout.DefaultNodeWidth, opts.NodeWidth)
	}
	if opts.NodeHeight != layout.DefaultNodeHeight {
		t.Errorf("NodeHeight should be %v, got %v", layout.DefaultNodeHeight, opts.NodeHeight)
	}

	// Explicit values survive
	opts = Options{HSpacing: 99}
	opts.SetLayoutDefaults()
	if opts.HSpacing != 99 {
		t.Error("Explicit HSpacing should survive defaulting")
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{}

	// First call
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	originalHSpacing := opts.HSpacing
	originalFormats := len(opts.Formats)

	// Second call should be idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}

	if opts.HSpacing != originalHSpacing {
		t.Error("HSpacing changed on second call")
	}
	if len(opts.Formats) != originalFormats {
		t.Error("Formats changed on second call")
	}
}

func TestOptionsValidateAndSetDefaultsRejectsBadFormat(t *testing.T) {
	opts := Options{Formats: []string{"webp"}}
	err := opts.ValidateAndSetDefaults()
	if err == nil {
		t.Fatal("Invalid format should fail")
	}
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("wrong error code: %v", err)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Graphviz: true}
	ko := opts.ArtifactKeyOpts("svg")
	if ko.Format != "svg" || !ko.Graphviz {
		t.Errorf("ArtifactKeyOpts = %+v", ko)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil {
		t.Error("Cache should default to a NullCache")
	}
	if r.Keyer == nil {
		t.Error("Keyer should default to a DefaultKeyer")
	}
	if r.Logger == nil {
		t.Error("Logger should default to the package logger")
	}
}

func TestRunnerExecute(t *testing.T) {
	r := NewRunner(nil, nil, discardLogger())
	defer r.Close()

	result, err := r.Execute(context.Background(), sampleSource, Options{
		Formats: []string{FormatDOT, FormatSVG},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.NodeCount != 2 {
		t.Errorf("NodeCount = %d, want 2", result.Stats.NodeCount)
	}
	if result.Stats.EdgeCount != 1 {
		t.Errorf("EdgeCount = %d, want 1", result.Stats.EdgeCount)
	}
	if result.Stats.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0", result.Stats.ErrorCount)
	}
	if result.SourceHash == "" {
		t.Error("SourceHash should be set")
	}
	if result.Layout == nil || len(result.Layout.Nodes) != 2 {
		t.Error("Layout should position both nodes")
	}

	if !strings.Contains(string(result.Artifacts["dot"]), "digraph flowviz") {
		t.Error("DOT artifact missing")
	}
	if !strings.Contains(string(result.Artifacts["svg"]), "<svg") {
		t.Error("SVG artifact missing")
	}

	// A NullCache never hits
	if result.CacheInfo.ParseHit || result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Errorf("no stage should hit with caching disabled: %+v", result.CacheInfo)
	}
}

func TestRunnerExecuteCaching(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(fc, nil, discardLogger())
	defer r.Close()

	ctx := context.Background()

	first, err := r.Execute(ctx, sampleSource, Options{Formats: []string{FormatDOT}})
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.ParseHit || first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss everywhere: %+v", first.CacheInfo)
	}

	second, err := r.Execute(ctx, sampleSource, Options{Formats: []string{FormatDOT}})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.ParseHit || !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit everywhere: %+v", second.CacheInfo)
	}
	if string(first.Artifacts["dot"]) != string(second.Artifacts["dot"]) {
		t.Error("cached artifact should be identical")
	}
}

func TestRunnerRefreshBypassesTopologyCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(fc, nil, discardLogger())
	defer r.Close()

	ctx := context.Background()
	if _, err := r.Execute(ctx, sampleSource, Options{Formats: []string{FormatDOT}}); err != nil {
		t.Fatalf("prime Execute: %v", err)
	}

	result, err := r.Execute(ctx, sampleSource, Options{Formats: []string{FormatDOT}, Refresh: true})
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if result.CacheInfo.ParseHit {
		t.Error("Refresh should re-parse")
	}
	// Layout and artifacts key on content hashes, so they still hit
	if !result.CacheInfo.LayoutHit || !result.CacheInfo.RenderHit {
		t.Errorf("downstream stages should still hit: %+v", result.CacheInfo)
	}
}

func TestRunnerCorruptCacheEntryRecomputes(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(fc, nil, discardLogger())
	defer r.Close()

	ctx := context.Background()
	key := r.Keyer.TopologyKey(cache.Hash([]byte(sampleSource)))
	if err := fc.Set(ctx, key, []byte("not json"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	topo, hit := r.ParseWithCacheInfo(ctx, sampleSource, Options{})
	if hit {
		t.Error("corrupt entry must not count as a hit")
	}
	if topo.NodeCount() != 2 {
		t.Errorf("NodeCount = %d, want 2", topo.NodeCount())
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	r := NewRunner(nil, nil, discardLogger())
	defer r.Close()

	ctx := context.Background()
	topo := r.Parse(ctx, sampleSource, Options{})
	l := r.ComputeLayout(ctx, topo, Options{})

	_, _, err := r.RenderWithCacheInfo(ctx, l, topo, Options{Formats: []string{"webp"}})
	if err == nil {
		t.Fatal("unknown format should fail")
	}
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("wrong error code: %v", err)
	}
}

type countingPipelineHooks struct {
	observability.NoopPipelineHooks
	parseStarts  int
	layoutStarts int
	renderStarts int
}

func (h *countingPipelineHooks) OnParseStart(context.Context, int)     { h.parseStarts++ }
func (h *countingPipelineHooks) OnLayoutStart(context.Context, int)    { h.layoutStarts++ }
func (h *countingPipelineHooks) OnRenderStart(context.Context, string) { h.renderStarts++ }

type countingCacheHooks struct {
	observability.NoopCacheHooks
	misses int
	sets   int
}

func (h *countingCacheHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingCacheHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

func TestRunnerReportsHooks(t *testing.T) {
	pipeHooks := &countingPipelineHooks{}
	cacheHooks := &countingCacheHooks{}
	observability.SetPipelineHooks(pipeHooks)
	observability.SetCacheHooks(cacheHooks)
	t.Cleanup(observability.Reset)

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(fc, nil, discardLogger())
	defer r.Close()

	if _, err := r.Execute(context.Background(), sampleSource, Options{Formats: []string{FormatDOT, FormatSVG}}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if pipeHooks.parseStarts != 1 {
		t.Errorf("parse starts = %d, want 1", pipeHooks.parseStarts)
	}
	if pipeHooks.layoutStarts != 1 {
		t.Errorf("layout starts = %d, want 1", pipeHooks.layoutStarts)
	}
	if pipeHooks.renderStarts != 2 {
		t.Errorf("render starts = %d, want 2 (one per format)", pipeHooks.renderStarts)
	}
	// topology, layout, artifact misses on a cold cache
	if cacheHooks.misses != 3 {
		t.Errorf("cache misses = %d, want 3", cacheHooks.misses)
	}
	// one topology set, one layout set, one set per artifact
	if cacheHooks.sets != 4 {
		t.Errorf("cache sets = %d, want 4", cacheHooks.sets)
	}
}

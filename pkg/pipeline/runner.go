package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flowviz/flowviz/pkg/cache"
	"github.com/flowviz/flowviz/pkg/dsl"
	"github.com/flowviz/flowviz/pkg/errors"
	"github.com/flowviz/flowviz/pkg/layout"
	"github.com/flowviz/flowviz/pkg/observability"
	"github.com/flowviz/flowviz/pkg/render"
	"github.com/flowviz/flowviz/pkg/topology"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, source string, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		SourceHash: cache.Hash([]byte(source)),
		Artifacts:  make(map[string][]byte),
	}

	// Stage 1: Parse
	parseStart := time.Now()
	topo, parseHit := r.ParseWithCacheInfo(ctx, source, opts)
	result.Topology = topo
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.NodeCount = topo.NodeCount()
	result.Stats.EdgeCount = topo.EdgeCount()
	result.Stats.ErrorCount = len(topo.Errors)
	result.CacheInfo.ParseHit = parseHit

	r.Logger.Debug("parsed flow",
		"nodes", topo.NodeCount(),
		"edges", topo.EdgeCount(),
		"diagnostics", len(topo.Errors),
		"duration", result.Stats.ParseTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit := r.LayoutWithCacheInfo(ctx, topo, opts)
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Debug("computed layout",
		"nodes", len(l.Nodes),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, topo, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ParseWithCacheInfo parses DSL source with caching and returns cache hit info.
// Parsing cannot fail; syntax problems land in the topology's diagnostics.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, source string, opts Options) (*topology.Topology, bool) {
	obs := observability.Pipeline()
	obs.OnParseStart(ctx, len(source))
	start := time.Now()

	cacheKey := r.Keyer.TopologyKey(cache.Hash([]byte(source)))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var topo topology.Topology
			if err := json.Unmarshal(data, &topo); err == nil {
				observability.Cache().OnCacheHit(ctx, "topology")
				obs.OnParseComplete(ctx, topo.NodeCount(), len(topo.Errors), time.Since(start))
				return &topo, true // Cache hit
			}
		}
		observability.Cache().OnCacheMiss(ctx, "topology")
	}

	topo := dsl.Parse(source)

	// Cache the result
	if !opts.Refresh {
		if data, err := json.Marshal(topo); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.DefaultTopologyTTL)
			observability.Cache().OnCacheSet(ctx, "topology", len(data))
		}
	}

	obs.OnParseComplete(ctx, topo.NodeCount(), len(topo.Errors), time.Since(start))
	return topo, false // Cache miss
}

// Parse is a convenience wrapper that calls ParseWithCacheInfo and discards the cache hit info.
func (r *Runner) Parse(ctx context.Context, source string, opts Options) *topology.Topology {
	topo, _ := r.ParseWithCacheInfo(ctx, source, opts)
	return topo
}

// LayoutWithCacheInfo computes a layout with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, topo *topology.Topology, opts Options) (*layout.Layout, bool) {
	opts.SetLayoutDefaults()
	obs := observability.Pipeline()
	obs.OnLayoutStart(ctx, topo.NodeCount())
	start := time.Now()

	cacheKey := r.Keyer.LayoutKey(topologyHash(topo), opts.LayoutKeyOpts())

	// Try cache first
	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		var l layout.Layout
		if err := json.Unmarshal(data, &l); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			obs.OnLayoutComplete(ctx, countLevels(&l), time.Since(start))
			return &l, true // Cache hit
		}
		// If deserialization fails, fall through to recompute
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	l := layout.Compute(topo, opts.LayoutOptions())

	// Cache the result
	if data, err := json.Marshal(l); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.DefaultLayoutTTL)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}

	obs.OnLayoutComplete(ctx, countLevels(l), time.Since(start))
	return l, false // Cache miss
}

// ComputeLayout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, topo *topology.Topology, opts Options) *layout.Layout {
	l, _ := r.LayoutWithCacheInfo(ctx, topo, opts)
	return l
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *layout.Layout, topo *topology.Topology, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	// Compute cache key from layout data
	layoutData, err := json.Marshal(l)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil // All artifacts from cache
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	// Render all formats
	obs := observability.Pipeline()
	rendered := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		obs.OnRenderStart(ctx, format)
		start := time.Now()
		data, err := renderArtifact(l, topo, format, opts)
		obs.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s artifact", format)
		}
		rendered[format] = data

		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.DefaultArtifactTTL)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l *layout.Layout, topo *topology.Topology, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, topo, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// renderArtifact produces one output format from a computed layout.
func renderArtifact(l *layout.Layout, topo *topology.Topology, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(render.ToDOT(topo)), nil
	case FormatSVG:
		if opts.Graphviz {
			return render.RenderSVG(render.ToDOT(topo))
		}
		return render.SceneSVG(l, topo), nil
	case FormatPNG:
		return render.RenderPNG(render.ToDOT(topo))
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
}

// topologyHash derives the cache identity of a parsed topology.
func topologyHash(t *topology.Topology) string {
	data, _ := json.Marshal(t)
	return cache.Hash(data)
}

func countLevels(l *layout.Layout) int {
	seen := make(map[int]struct{})
	for _, n := range l.Nodes {
		seen[n.Level] = struct{}{}
	}
	return len(seen)
}

// Package pipeline provides the core visualization pipeline for FlowViz.
//
// This package implements the complete parse → layout → render pipeline that
// can be used by CLI, API, and server components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: Turn DSL source text into a topology
//  2. Layout: Compute world-space positions for the flow graph
//  3. Render: Generate output in various formats (SVG, DOT, PNG)
//
// Parse and layout never fail; syntax problems surface as diagnostics on the
// topology. Each stage can be run independently or as part of the complete
// pipeline, and each stage result is cached under a content-hash key.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, source, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Parse only
//	topo := runner.Parse(ctx, source, opts)
//
//	// Layout with existing topology
//	l := runner.ComputeLayout(ctx, topo, opts)
//
//	// Render with existing layout
//	artifacts, err := runner.Render(ctx, l, topo, opts)
package pipeline

import (
	"time"

	"github.com/flowviz/flowviz/pkg/cache"
	"github.com/flowviz/flowviz/pkg/errors"
	"github.com/flowviz/flowviz/pkg/layout"
	"github.com/flowviz/flowviz/pkg/topology"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Server
// =============================================================================

// Format constants for output formats.
const (
	FormatSVG = "svg"
	FormatDOT = "dot"
	FormatPNG = "png"
)

// DefaultFormat is the format rendered when none is requested.
const DefaultFormat = FormatSVG

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for API requests. The zero value
// is usable; defaults are applied by the Validate* methods.
type Options struct {
	// Layout options, mirroring [layout.Options].
	HSpacing   float64 `json:"h_spacing,omitempty"`
	VSpacing   float64 `json:"v_spacing,omitempty"`
	NodeWidth  float64 `json:"node_width,omitempty"`
	NodeHeight float64 `json:"node_height,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`

	// Graphviz delegates SVG placement to Graphviz instead of the built-in
	// layout engine. DOT and PNG always go through Graphviz.
	Graphviz bool `json:"graphviz,omitempty"`

	// Refresh bypasses the topology cache and re-parses the source.
	Refresh bool `json:"refresh,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Topology is the parsed flow graph, including parse diagnostics.
	Topology *topology.Topology

	// SourceHash is the content hash of the source text.
	SourceHash string

	// Layout contains the computed positions and edge curves.
	Layout *layout.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	ErrorCount int // parse diagnostics on the topology
	ParseTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ParseHit  bool // Whether the topology came from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	return errors.ValidateRenderFormat(format)
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation. Cache keys
// use these fields, so the canonical values must be filled in even though
// layout.Compute would default them itself.
func (o *Options) SetLayoutDefaults() {
	if o.HSpacing <= 0 {
		o.HSpacing = layout.DefaultHSpacing
	}
	if o.VSpacing <= 0 {
		o.VSpacing = layout.DefaultVSpacing
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = layout.DefaultNodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = layout.DefaultNodeHeight
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// LayoutOptions returns the layout engine options.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		HSpacing:   o.HSpacing,
		VSpacing:   o.VSpacing,
		NodeWidth:  o.NodeWidth,
		NodeHeight: o.NodeHeight,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		HSpacing:   o.HSpacing,
		VSpacing:   o.VSpacing,
		NodeWidth:  o.NodeWidth,
		NodeHeight: o.NodeHeight,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Graphviz: o.Graphviz,
	}
}

// Package pkg provides the core libraries for FlowViz dataflow visualization.
//
// # Overview
//
// FlowViz turns a small text DSL describing a dataflow system (services,
// topics, databases, and the event streams between them) into diagrams and
// live particle animations. The pkg directory is organized into four main
// areas:
//
//  1. Parsing ([dsl], [topology]) - source text to a validated graph
//  2. Geometry ([layout], [scene], [io]) - coordinates, curves, persistence
//  3. Output ([render], [sim]) - static artifacts and live animation
//  4. Infrastructure ([pipeline], [cache], [store], [config], [errors])
//
// # Architecture
//
// The typical data flow through FlowViz:
//
//	.flow source / scene file
//	         ↓
//	    [dsl] package (parse into a topology)
//	         ↓
//	    [layout] package (levels, positions, edge curves)
//	         ↓
//	    [render] package (SVG/DOT/PNG)  or  [sim] package (particles)
//
// # Quick Start
//
// Parse a flow and render it:
//
//	import (
//	    "github.com/flowviz/flowviz/pkg/dsl"
//	    "github.com/flowviz/flowviz/pkg/layout"
//	    "github.com/flowviz/flowviz/pkg/render"
//	)
//
//	topo := dsl.Parse(source)
//	l := layout.Compute(topo, layout.Options{})
//	svg := render.SceneSVG(l, topo)
//
// # Main Packages
//
// ## Parsing
//
// [dsl] - Parser for the flow description language. Handles the block
// grammar, the legacy colon grammar, and arrow chains. Parsing never fails;
// problems are collected as line-tagged diagnostics on the topology.
//
// [topology] - The parsed graph model: nodes, edges, events, transformations,
// subsystems, and itineraries, plus referential validation.
//
// ## Geometry
//
// [layout] - Level-based left-to-right placement. Assigns each node a level
// by longest path, stacks levels vertically, and shapes every edge as a
// cubic Bezier curve the renderers and the simulator share.
//
// [scene] - A saved visualization: source, topology, and layout under one
// identity, ready for storage or transfer.
//
// [io] - Scene serialization in JSON and YAML.
//
// ## Output
//
// [render] - Static artifacts. DOT export plus in-process Graphviz
// rasterization, and a native SVG path that draws the engine's own layout.
//
// [sim] - The particle engine. Spawners emit particles per event stream,
// the simulator advances them along edge curves through their itineraries,
// and the scheduler adds speed and pause control on top.
//
// ## Infrastructure
//
// [pipeline] - The parse → layout → render pipeline used by CLI and server,
// with content-addressed caching at each stage.
//
// [cache] - Cache backends: filesystem for the CLI, Redis for server
// deployments, and a null cache that disables caching entirely.
//
// [store] - Scene persistence: a directory of JSON files by default, MongoDB
// when configured.
//
// [config] - TOML configuration with FLOWVIZ_* environment overrides.
//
// [errors] - Coded errors shared by the CLI and the HTTP API.
//
// [observability] - Optional instrumentation hooks for pipeline, cache, and
// session events.
//
// # Common Workflows
//
// Run the cached pipeline:
//
//	runner := pipeline.NewRunner(fileCache, nil, logger)
//	res, _ := runner.Execute(ctx, source, pipeline.Options{Formats: []string{"svg"}})
//
// Drive a simulation:
//
//	s := sim.New(topo, l)
//	sched := sim.NewScheduler(s, sim.NewSpawner(s, seed), hook)
//	frame := sched.Tick(16.7)
//
// Persist a scene:
//
//	sc := scene.New("checkout", source, topo, l)
//	st, _ := store.NewFileStore(dir)
//	st.Put(ctx, sc)
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/sim/...        # Specific package
//	go test -run Example         # Examples only
//
// [dsl]: https://pkg.go.dev/github.com/flowviz/flowviz/pkg/dsl
// [topology]: https://pkg.go.dev/github.com/flowviz/flowviz/pkg/topology
// [layout]: https://pkg.go.dev/github.com/flowviz/flowviz/pkg/layout
// [scene]: https://pkg.go.dev/github.com/flowviz/flowviz/pkg/scene
// [io]: https://pkg.go.dev/github.com/flowviz/flowviz/pkg/io
// [render]: https://pkg.go.dev/github.com/flowviz/flowviz/pkg/render
// [sim]: https://pkg.go.dev/github.com/flowviz/flowviz/pkg/sim
// [pipeline]: https://pkg.go.dev/github.com/flowviz/flowviz/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/flowviz/flowviz/pkg/cache
// [store]: https://pkg.go.dev/github.com/flowviz/flowviz/pkg/store
// [config]: https://pkg.go.dev/github.com/flowviz/flowviz/pkg/config
// [errors]: https://pkg.go.dev/github.com/flowviz/flowviz/pkg/errors
// [observability]: https://pkg.go.dev/github.com/flowviz/flowviz/pkg/observability
package pkg

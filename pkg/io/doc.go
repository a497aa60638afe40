// Package io provides JSON and YAML import and export for scenes.
//
// # Overview
//
// A scene file bundles flow source text with its parsed topology and
// computed layout (see [scene.Scene]). The format is designed for:
//
//   - Handing layouts to external renderers without re-running the pipeline
//   - Storing flows alongside the projects they document
//   - Round-trip preservation: import, simulate, export, re-import identically
//
// # File Format
//
// The serialization format is chosen by file extension: .json for JSON,
// .yaml or .yml for YAML. Both encode the same document:
//
//	{
//	  "id": "2f1f6d0c-...",
//	  "name": "checkout",
//	  "source": "api -> db\n",
//	  "topology": {"nodes": [...], "edges": [...], "events": [...]},
//	  "layout": {"nodes": {...}, "edges": [...]},
//	  "created_at": "2025-11-02T10:00:00Z",
//	  "updated_at": "2025-11-02T10:00:00Z"
//	}
//
// # Import
//
// Use [ImportScene] to read a scene from a file path, or [ReadScene] to
// read from any io.Reader:
//
//	s, err := io.ImportScene("checkout.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Both functions validate the decoded scene (identity, name, topology and
// layout presence). Hand-edited files that drop required parts are
// rejected with a structured error.
//
// # Export
//
// Use [ExportScene] to write a scene to a file, or [WriteScene] to write
// to any io.Writer:
//
//	err := io.ExportScene(s, "checkout.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The export includes the full document, so a re-import reproduces the
// same coordinates without recomputing the layout.
//
// # Concurrency
//
// All functions are safe to call concurrently with other readers of the
// same scene, but not with concurrent modifications. Imported scenes are
// independent instances that can be modified freely.
//
// [scene.Scene]: github.com/flowviz/flowviz/pkg/scene.Scene
package io

// Package pkg provides the core libraries for the osm2svg conversion pipeline.
//
// # Overview
//
// osm2svg turns OpenStreetMap extracts into layered SVG outline drawings
// suitable for engraving and plotting workflows. The pkg directory is
// organized into four main areas:
//
//  1. Geometry (geom, path, stroke, smooth, clip, outset) - the numeric core
//  2. Domain model (feature, style, osm, svg, compose) - map features in and
//     renderable documents out
//  3. Orchestration (pipeline) - the convert → smooth → outset → compose
//     stage runner with per-stage caching
//  4. Infrastructure (cache, errors, observability, buildinfo)
//
// # Architecture
//
// The typical data flow:
//
//	OSM XML extract
//	         ↓
//	    [osm] package (project nodes, resolve styles, assemble features)
//	         ↓
//	    [stroke] package (stroked ways become filled outlines)
//	         ↓
//	    [smooth] package (auto-smooth cubic curve fitting)
//	         ↓
//	    [outset] package (grow selected feature classes)
//	         ↓
//	    [compose] package (z-order clipping with a clearance gap)
//	         ↓
//	    SVG output
//
// # Quick Start
//
// Run the full pipeline against an extract:
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/csites/osm2svg4opcd/pkg/pipeline"
//	    "github.com/csites/osm2svg4opcd/pkg/style"
//	    "github.com/csites/osm2svg4opcd/pkg/svg"
//	)
//
//	table, _ := style.Load("styles.toml")
//	data, _ := os.ReadFile("course.osm")
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Execute(context.Background(), data, pipeline.Options{Styles: table})
//	_ = svg.WriteFile("course.svg", res.Document)
//
// Individual stages are available on the runner (Convert, Smooth, Outset,
// Compose) for use by the per-stage CLI commands.
//
// # Main Packages
//
// [geom] - Points, vectors, and rectangles. Everything else builds on it.
//
// [path] - The path model (lines and cubic segments, open and closed) plus
// the SVG path-data grammar for parsing and serialization.
//
// [stroke] - Converts a stroked polyline into a single closed outline using
// mitered offsetting with cap geometry.
//
// [smooth] - Fits cubic curves through path nodes with tangents parallel to
// the neighbor chord, matching a drawing tool's auto-smooth node mode.
//
// [clip] - Polygon boolean operations and offsetting backed by the Clipper
// library. Shared by outset and compose.
//
// [outset] - Adaptive outward offsetting for selected feature classes, with
// resampling so the grown shape keeps curve fidelity.
//
// [compose] - Resolves z-order overlaps bottom-up, carving higher-priority
// features plus a clearance gap out of lower layers.
//
// [style] - The TOML style table mapping feature tags to fill, stroke,
// stacking priority, and outset selection.
//
// [osm] - OSM XML parsing, Mercator-style projection into drawing units, way
// and multipolygon assembly.
//
// [svg] - Reads and writes the stage artifact documents. Encoding is stable:
// re-encoding a parsed artifact is byte-identical, which keeps cache keys
// consistent across runs.
//
// [pipeline] - The stage runner. Each stage result is cached under a key
// derived from the stage name, the input artifact hash, and the stage
// options.
//
// [cache] - File-backed and null cache implementations plus stage keying.
//
// [errors] - Structured errors with a failure taxonomy separating
// per-feature geometric failures from run-fatal ones.
//
// [observability] - Optional stage and cache hooks for metrics backends.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/outset/...   # Specific package
//
// [geom]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/geom
// [path]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/path
// [stroke]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/stroke
// [smooth]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/smooth
// [clip]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/clip
// [outset]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/outset
// [compose]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/compose
// [style]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/style
// [osm]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/osm
// [svg]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/svg
// [pipeline]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/cache
// [errors]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/errors
// [observability]: https://pkg.go.dev/github.com/csites/osm2svg4opcd/pkg/observability
package pkg

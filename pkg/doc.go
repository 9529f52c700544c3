// Package pkg provides the core libraries for the Gravitas layout engine.
//
// # Overview
//
// Gravitas positions the nodes of large graphs with a force-directed
// simulation and reduces solved layouts to renderer-ready frames per
// viewport. The pkg directory is organized into four main areas:
//
//  1. Simulation - force solver and its supporting structures
//  2. Reduction - detail tiers, clustering, bundling, frame production
//  3. Data plane - wire snapshots, loaders, caching, export
//  4. Surfaces - pipeline orchestration, HTTP API, scene storage
//
// # Architecture
//
// The typical data flow through Gravitas:
//
//	JSON/DOT file or URL
//	         ↓
//	    [source] package (load full-replace snapshots)
//	         ↓
//	    [graph] package (topology + physics state)
//	         ↓
//	    [layout] package (Barnes-Hut force simulation)
//	         ↓
//	    [viewport] package (tiering, culling, clustering, bundling)
//	         ↓
//	    JSON/DOT/SVG/PDF/PNG frames
//
// # Main Packages
//
// ## Simulation
//
// [layout] - The force integrator: repulsion via Barnes-Hut approximation,
// springs along edges, centering gravity, velocity damping and simulated
// annealing with a convergence detector.
//
// [layout/coarsen] - Multi-level solving. Large graphs are contracted into
// a hierarchy of coarser graphs; each level solves quickly and seeds the
// next finer one.
//
// [layout/tune] - Parameter suggestion from graph size and the adaptive
// governor that trades detail for frame rate at render time.
//
// [spatial] - Quadtree for Barnes-Hut force evaluation and a uniform grid
// for viewport culling.
//
// [geom] - Vectors and rectangles shared by everything above.
//
// ## Reduction
//
// [lod] - Detail tiers classified from zoom and on-screen density, with
// per-tier budgets for nodes, edges, labels and boundaries.
//
// [cluster] - Connectivity clustering with convex-hull boundary polygons
// for coarse tiers.
//
// [bundle] - Edge merging between clusters, with deterministic sampling
// for the edges that stay individual.
//
// [viewport] - Frame production: classify a tier, cull to the visible
// rectangle, budget by importance, bundle edges, attach transition hints.
//
// ## Data Plane
//
// [graph] - Graph topology, physics state, and the full-replace snapshot
// wire format with survivor-preserving application.
//
// [source] - Snapshot loaders for JSON and DOT files, HTTP fetching with
// conditional requests, and filesystem watching for live reloads.
//
// [cache] - Content-hash keyed caching of snapshots, layouts and frames.
// File-backed for the CLI, Redis-backed with snappy compression for
// server deployments.
//
// [export] - Layout and frame serialization plus Graphviz rendering to
// SVG, PDF and PNG.
//
// ## Surfaces
//
// [pipeline] - The load → solve → frame pipeline used by CLI, TUI and API.
//
// [api] - HTTP server with scene CRUD, solve and frame queries, websocket
// live-solve streaming and Prometheus metrics.
//
// [store] - Named scene storage, in memory or MongoDB.
//
// [errors] - Structured error codes shared by CLI and API.
//
// [observability] - Hook interfaces the engine reports through; the API
// installs Prometheus implementations.
//
// # Quick Start
//
// Solve a layout and produce one frame:
//
//	import (
//	    "context"
//	    "github.com/jwkaltz/gravitas/pkg/graph"
//	    "github.com/jwkaltz/gravitas/pkg/layout"
//	    "github.com/jwkaltz/gravitas/pkg/layout/coarsen"
//	    "github.com/jwkaltz/gravitas/pkg/viewport"
//	)
//
//	g := graph.New()
//	g.ApplySnapshot(snap)
//
//	res, _ := coarsen.Solve(context.Background(), g, layout.DefaultConfig(), coarsen.Options{})
//
//	opt, _ := viewport.NewOptimizer(viewport.Options{})
//	frame, _ := opt.Optimize(g, 0, viewport.Viewport{
//	    Size: geom.Vec{X: 1920, Y: 1080}, Zoom: 1,
//	})
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/layout/...       # Specific package
//	go test -run Example           # Examples only
package pkg

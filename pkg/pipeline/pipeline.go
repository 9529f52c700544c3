// Package pipeline provides the core layout pipeline for Gravitas.
//
// This package implements the complete load → solve → frame pipeline that
// can be used by CLI, API, and TUI components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a full-replace snapshot from a file, URL, or raw bytes
//  2. Solve: Run the force simulation (multi-level when large) to position
//     every node
//  3. Frame: Reduce the solved layout to a renderer-ready frame for one
//     viewport query
//
// Each stage can be run independently or as part of the complete pipeline.
// Solve and Frame results are cached by content hash, so repeating a query
// against unchanged input is a cache read, not a recompute.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source: "graph.json",
//	    Query:  pipeline.Query{W: 1920, H: 1080, Zoom: 1},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	frame := result.Frame
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jwkaltz/gravitas/pkg/cache"
	"github.com/jwkaltz/gravitas/pkg/export"
	"github.com/jwkaltz/gravitas/pkg/geom"
	"github.com/jwkaltz/gravitas/pkg/graph"
	"github.com/jwkaltz/gravitas/pkg/layout"
	"github.com/jwkaltz/gravitas/pkg/layout/coarsen"
	"github.com/jwkaltz/gravitas/pkg/viewport"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Query is one viewport request against a solved layout. The zero value
// means "no frame stage": Execute stops after solving.
type Query struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Zoom float64 `json:"zoom"`

	// Bias shifts the classified tier toward less detail; the adaptive
	// governor feeds its tier bias here.
	Bias int `json:"bias,omitempty"`
}

// Requested reports whether the query asks for a frame at all.
func (q Query) Requested() bool { return q.Zoom > 0 }

// Viewport converts the query to the optimizer's viewport type.
func (q Query) Viewport() viewport.Viewport {
	return viewport.Viewport{
		Origin: geom.Vec{X: q.X, Y: q.Y},
		Size:   geom.Vec{X: q.W, Y: q.H},
		Zoom:   q.Zoom,
	}
}

// keyOpts converts the query to cache key options.
func (q Query) keyOpts() cache.FrameKeyOpts {
	return cache.FrameKeyOpts{X: q.X, Y: q.Y, W: q.W, H: q.H, Zoom: q.Zoom, Bias: q.Bias}
}

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Source is the snapshot origin: a local file path (JSON or DOT) or an
	// http(s) URL. Required unless the caller provides the snapshot
	// directly via the stage methods.
	Source string `json:"source,omitempty"`

	// Refresh bypasses cached snapshots and layouts.
	Refresh bool `json:"refresh,omitempty"`

	// Layout configures the force solver. Zero fields take documented
	// defaults.
	Layout layout.Config `json:"layout,omitempty"`

	// Coarsen configures the multi-level hierarchy for large graphs.
	Coarsen coarsen.Options `json:"coarsen,omitempty"`

	// Viewport configures frame production: tiers, clustering, bundling,
	// culling.
	Viewport viewport.Options `json:"viewport,omitempty"`

	// Query is the viewport request for the frame stage. The zero value
	// skips the frame stage.
	Query Query `json:"query,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. This method is idempotent - calling it multiple times
// has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.Layout.ValidateAndSetDefaults(); err != nil {
		return fmt.Errorf("invalid layout config: %w", err)
	}
	if err := o.Coarsen.ValidateAndSetDefaults(); err != nil {
		return fmt.Errorf("invalid coarsen options: %w", err)
	}
	if err := o.Viewport.ValidateAndSetDefaults(); err != nil {
		return fmt.Errorf("invalid viewport options: %w", err)
	}
	if o.Query.Requested() && !o.Query.Viewport().Valid() {
		return fmt.Errorf("invalid query: width, height and zoom must be positive")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the fields the load stage needs.
func (o *Options) ValidateForLoad() error {
	if o.Source == "" {
		return fmt.Errorf("source is required")
	}
	return nil
}

// solveKeyOpts returns everything that shapes a solved layout, for the
// layout cache key. Both solver config and coarsening participate: a
// different hierarchy threshold produces different positions.
type solveKeyOpts struct {
	Layout  layout.Config   `json:"layout"`
	Coarsen coarsen.Options `json:"coarsen"`
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the loaded input.
	Snapshot *graph.Snapshot

	// Diagnostics reports dropped edges and node churn from applying the
	// snapshot. Zero when the layout came from cache.
	Diagnostics graph.Diagnostics

	// Layout is the solved topology and positions.
	Layout export.Layout

	// LayoutHash is the content hash of the solved layout, used for frame
	// cache keys and API responses.
	LayoutHash string

	// Frame is the reduced render payload, nil when no query was made.
	Frame *viewport.Frame

	// Solve describes the solve that produced Layout. Zero when the
	// layout came from cache.
	Solve coarsen.Result

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount int
	EdgeCount int
	LoadTime  time.Duration
	SolveTime time.Duration
	FrameTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SnapshotHit bool // Whether the snapshot came from cache
	LayoutHit   bool // Whether solved positions came from cache
	FrameHit    bool // Whether the frame came from cache
}

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jwkaltz/gravitas/pkg/cache"
	"github.com/jwkaltz/gravitas/pkg/export"
	"github.com/jwkaltz/gravitas/pkg/graph"
	"github.com/jwkaltz/gravitas/pkg/layout/coarsen"
	"github.com/jwkaltz/gravitas/pkg/observability"
	"github.com/jwkaltz/gravitas/pkg/source"
	"github.com/jwkaltz/gravitas/pkg/viewport"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
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

// Execute runs the complete load → solve → frame pipeline with caching.
// The frame stage only runs when opts.Query requests one.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	snap, snapHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Snapshot = snap
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = len(snap.Nodes)
	result.Stats.EdgeCount = len(snap.Edges)
	result.CacheInfo.SnapshotHit = snapHit

	r.Logger.Info("loaded snapshot",
		"nodes", len(snap.Nodes),
		"edges", len(snap.Edges),
		"duration", result.Stats.LoadTime)

	// Stage 2: Solve
	solveStart := time.Now()
	solved, err := r.Solve(ctx, snap, opts)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	result.Layout = solved.Layout
	result.LayoutHash = solved.Hash
	result.Solve = solved.Run
	result.Diagnostics = solved.Diagnostics
	result.Stats.SolveTime = time.Since(solveStart)
	result.CacheInfo.LayoutHit = solved.Cached

	r.Logger.Info("solved layout",
		"iterations", solved.Run.Iterations,
		"levels", solved.Run.Levels,
		"cached", solved.Cached,
		"duration", result.Stats.SolveTime)

	// Stage 3: Frame (optional)
	if opts.Query.Requested() {
		frameStart := time.Now()
		frame, frameHit, err := r.FrameWithCacheInfo(ctx, solved.Layout, solved.Hash, opts)
		if err != nil {
			return nil, fmt.Errorf("frame: %w", err)
		}
		result.Frame = frame
		result.Stats.FrameTime = time.Since(frameStart)
		result.CacheInfo.FrameHit = frameHit

		r.Logger.Info("produced frame",
			"tier", frame.Tier.Name,
			"nodes", len(frame.Nodes),
			"edges", len(frame.Edges),
			"duration", result.Stats.FrameTime)
	}

	return result, nil
}

// LoadWithCacheInfo reads the snapshot from opts.Source and reports whether
// it came from the pipeline cache.
//
// Only URL sources use the pipeline snapshot cache; local files are
// re-parsed on every call because the parse is cheap and a content-blind
// cache entry would mask edits to the file.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*graph.Snapshot, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}

	if !isURL(opts.Source) {
		snap, err := source.LoadFile(opts.Source)
		return snap, false, err
	}

	cacheKey := r.Keyer.SnapshotKey(opts.Source)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var snap graph.Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				observability.Cache().OnCacheHit(ctx, "snapshot")
				return &snap, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "snapshot")
	}

	httpCache, err := source.NewSnapshotCache()
	if err != nil {
		return nil, false, err
	}
	snap, err := source.NewClient(httpCache).Fetch(ctx, opts.Source, opts.Refresh)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(snap); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLSnapshot)
		observability.Cache().OnCacheSet(ctx, "snapshot", len(data))
	}
	return snap, false, nil
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (*graph.Snapshot, error) {
	snap, _, err := r.LoadWithCacheInfo(ctx, opts)
	return snap, err
}

// Solved is the output of the solve stage.
type Solved struct {
	// Layout is the solved topology and positions.
	Layout export.Layout

	// Hash is the content hash of Layout, the key prefix for frame
	// caching.
	Hash string

	// Run describes the solve. Zero when Cached.
	Run coarsen.Result

	// Diagnostics from applying the snapshot. Zero when Cached.
	Diagnostics graph.Diagnostics

	// Cached reports whether the layout came from the cache.
	Cached bool
}

// Solve positions every node of the snapshot, reusing a cached layout for
// identical (snapshot, config) inputs unless opts.Refresh is set.
func (r *Runner) Solve(ctx context.Context, snap *graph.Snapshot, opts Options) (*Solved, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	snapData, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("serialize snapshot for cache key: %w", err)
	}
	snapHash := cache.Hash(snapData)
	cacheKey := r.Keyer.LayoutKey(snapHash, solveKeyOpts{Layout: opts.Layout, Coarsen: opts.Coarsen})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var l export.Layout
			if err := json.Unmarshal(data, &l); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return &Solved{Layout: l, Hash: cache.Hash(data), Cached: true}, nil
			}
			// Undecodable entries fall through to recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	g := graph.New()
	diag, err := g.ApplySnapshot(*snap)
	if err != nil {
		return nil, err
	}
	if diag.DroppedEdges > 0 {
		r.Logger.Warn("dropped edges with unknown or identical endpoints", "count", diag.DroppedEdges)
	}

	run, err := coarsen.Solve(ctx, g, opts.Layout, opts.Coarsen)
	if err != nil {
		return nil, err
	}

	l := export.NewLayout(g)
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("serialize layout: %w", err)
	}
	_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
	observability.Cache().OnCacheSet(ctx, "layout", len(data))

	return &Solved{Layout: l, Hash: cache.Hash(data), Run: run, Diagnostics: diag}, nil
}

// FrameWithCacheInfo reduces a solved layout to a frame for opts.Query and
// reports whether the frame came from cache.
func (r *Runner) FrameWithCacheInfo(ctx context.Context, l export.Layout, layoutHash string, opts Options) (*viewport.Frame, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	if !opts.Query.Requested() {
		return nil, false, fmt.Errorf("query is required for the frame stage")
	}

	cacheKey := r.Keyer.FrameKey(layoutHash, opts.Query.keyOpts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var f viewport.Frame
			if err := json.Unmarshal(data, &f); err == nil {
				observability.Cache().OnCacheHit(ctx, "frame")
				return &f, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "frame")
	}

	g, err := l.Graph()
	if err != nil {
		return nil, false, err
	}

	hooks := observability.Engine()
	hooks.OnFrameStart(ctx, opts.Query.Zoom, g.NodeCount())
	start := time.Now()

	opt, err := viewport.NewOptimizer(opts.Viewport)
	if err != nil {
		return nil, false, err
	}
	frame, err := opt.Optimize(g, opts.Query.Bias, opts.Query.Viewport())
	if err != nil {
		return nil, false, err
	}
	hooks.OnFrameComplete(ctx, frame.Tier.Level, len(frame.Nodes), len(frame.Edges), time.Since(start))

	if data, err := json.Marshal(frame); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLFrame)
		observability.Cache().OnCacheSet(ctx, "frame", len(data))
	}
	return frame, false, nil
}

// Frame is a convenience wrapper that calls FrameWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Frame(ctx context.Context, l export.Layout, layoutHash string, opts Options) (*viewport.Frame, error) {
	f, _, err := r.FrameWithCacheInfo(ctx, l, layoutHash, opts)
	return f, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// isURL reports whether source is fetched over HTTP rather than read from
// disk.
func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

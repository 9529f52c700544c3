package coarsen

import (
	"context"
	"hash/fnv"
	"math"
	"time"

	"github.com/jwkaltz/gravitas/pkg/geom"
	"github.com/jwkaltz/gravitas/pkg/graph"
	"github.com/jwkaltz/gravitas/pkg/layout"
)

// Result summarizes a multi-level solve.
type Result struct {
	// Levels is the number of coarsening passes that were applied;
	// zero means the graph was solved directly.
	Levels int `json:"levels"`

	// Iterations is the total tick count across all levels.
	Iterations int `json:"iterations"`

	// Final is the result of the finest solve, the one that positioned
	// the original graph.
	Final layout.Result `json:"final"`

	// Elapsed covers hierarchy construction and every level's solve.
	Elapsed time.Duration `json:"elapsed"`
}

// Solve lays out g, building the multi-level hierarchy when the graph is
// larger than opts.Threshold and solving directly otherwise.
//
// The coarsest proxy gets the full iteration budget from cfg. Each finer
// level is seeded from the level above via [Level.Parent] and runs with
// half the previous budget, floored at opts.MinIterations, and a
// temperature scaled by opts.RefineTemperature. Cancellation propagates
// from ctx at tick boundaries; positions reached so far stay readable.
func Solve(ctx context.Context, g *graph.Graph, cfg layout.Config, opts Options) (Result, error) {
	start := time.Now()
	var res Result

	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return res, err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return res, err
	}

	h := Build(g, opts.Threshold)
	res.Levels = h.Depth()

	if h.Depth() == 0 {
		final, err := runLevel(ctx, g, cfg, cfg.MaxIterations, 1)
		res.Iterations = final.Iterations
		res.Final = final
		res.Elapsed = time.Since(start)
		return res, err
	}

	// Coarsest proxy first, with the full budget.
	budget := cfg.MaxIterations
	final, err := runLevel(ctx, h.Coarsest(), cfg, budget, 1)
	res.Iterations += final.Iterations

	// Descend, seeding each finer graph from the solved level above it.
	for i := h.Depth() - 1; i >= 0 && err == nil; i-- {
		level := h.Levels[i]
		seed(level)

		budget /= 2
		if budget < opts.MinIterations {
			budget = opts.MinIterations
		}
		final, err = runLevel(ctx, level.Fine, cfg, budget, opts.RefineTemperature)
		res.Iterations += final.Iterations
	}

	res.Final = final
	res.Elapsed = time.Since(start)
	return res, err
}

// runLevel solves one graph with a scoped iteration budget and starting
// temperature.
func runLevel(ctx context.Context, g *graph.Graph, cfg layout.Config, budget int, tempScale float64) (layout.Result, error) {
	cfg.MaxIterations = budget
	cfg.Temperature *= tempScale
	it, err := layout.NewIntegrator(g, cfg)
	if err != nil {
		return layout.Result{}, err
	}
	return it.Run(ctx)
}

// seed places every fine node from its solved super-node. Carried-over
// nodes take the super-node position exactly; the folded partner of a
// matched pair lands on a small circle around it with a hash-derived
// angle, so pair members start separated and expansion is reproducible.
func seed(level Level) {
	for _, n := range level.Fine.Nodes() {
		sn := level.Coarse.Node(level.Parent[n.ID])
		if sn == nil {
			continue
		}
		if level.Parent[n.ID] == n.ID {
			n.State.Pos = sn.State.Pos
		} else {
			n.State.Pos = sn.State.Pos.Add(seedDir(n.ID).Scale(n.Radius() * 2))
		}
		n.State.Vel = geom.Vec{}
		n.State.Force = geom.Vec{}
	}
}

// seedDir returns a deterministic unit vector for a node id: FNV-1a hash
// mapped onto [0, 2π), the same convention snapshot placement uses.
func seedDir(id string) geom.Vec {
	h := fnv.New32a()
	h.Write([]byte(id))
	angle := float64(h.Sum32()) / float64(math.MaxUint32) * 2 * math.Pi
	return geom.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
}

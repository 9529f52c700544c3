package layout

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jwkaltz/gravitas/pkg/geom"
	"github.com/jwkaltz/gravitas/pkg/graph"
	"github.com/jwkaltz/gravitas/pkg/observability"
	"github.com/jwkaltz/gravitas/pkg/spatial"
)

// =============================================================================
// Status - Integrator State Machine
// =============================================================================

// Status is the integrator's lifecycle state. Converged and Cancelled are
// terminal; a terminal integrator never steps again.
type Status int

const (
	// Uninitialized is the state before Initialize seeds the system.
	Uninitialized Status = iota
	// Running means the integrator accepts Step calls.
	Running
	// Converged means the solve finished, either below the energy threshold
	// or at the iteration cap (see Result.DidConverge).
	Converged
	// Cancelled means the solve was stopped at a tick boundary. Positions
	// remain readable.
	Cancelled
)

// String returns the status name in the wire spelling used by logs and the
// API.
func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool { return s == Converged || s == Cancelled }

// =============================================================================
// Integrator
// =============================================================================

// Integrator advances a graph through the force simulation.
//
// The zero value is not usable - use NewIntegrator. An integrator is a
// single-stepper: it owns no goroutines, takes no locks, and exactly one
// caller may drive it at a time. Concurrent steppers need external
// synchronization.
type Integrator struct {
	g   *graph.Graph
	cfg Config

	status      Status
	iteration   int
	temperature float64
	energy      float64

	nodes   []*graph.Node
	index   map[string]int
	springs [][]spring
	bodies  []spatial.Body
	qt      *spatial.Quadtree
}

// Result summarizes a completed solve.
type Result struct {
	Status      Status        `json:"status"`
	Iterations  int           `json:"iterations"`
	Energy      float64       `json:"energy"`
	DidConverge bool          `json:"did_converge"` // false when the iteration cap fired or the run was cancelled
	Elapsed     time.Duration `json:"elapsed"`
}

// NewIntegrator creates an integrator over the given graph. The config is
// validated and defaulted; invalid values fail here, before any step runs.
func NewIntegrator(g *graph.Graph, cfg Config) (*Integrator, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Integrator{
		g:   g,
		cfg: cfg,
		qt:  spatial.New(),
	}, nil
}

// Config returns the validated configuration the integrator runs with.
func (it *Integrator) Config() Config { return it.cfg }

// Status returns the current lifecycle state.
func (it *Integrator) Status() Status { return it.status }

// Iteration returns the number of completed ticks.
func (it *Integrator) Iteration() int { return it.iteration }

// Energy returns the total kinetic energy of the last completed tick.
func (it *Integrator) Energy() float64 { return it.energy }

// Temperature returns the current temperature multiplier.
func (it *Integrator) Temperature() float64 { return it.temperature }

// Initialize seeds the system and moves the integrator to Running.
//
// Existing positions are preserved, including pinned nodes. Nodes that sit
// exactly on top of an earlier node are moved onto a small circle around
// the shared point, with the angle derived from a hash of the node ID, so
// degenerate inputs start separable without shared random state. All
// velocities and forces are zeroed and the temperature resets.
//
// Initialize may be called again after a terminal state to restart the
// solve from current positions.
func (it *Integrator) Initialize() {
	it.nodes = it.g.Nodes()
	it.rebuildSprings()

	seen := make(map[geom.Vec]int, len(it.nodes))
	for _, n := range it.nodes {
		p := n.State.Pos
		if dup := seen[p]; dup > 0 && !n.Fixed {
			dir := jitterDir(n.ID)
			n.State.Pos = p.Add(dir.Scale(n.Radius() * 2))
		}
		seen[p]++
		n.State.Vel = geom.Vec{}
		n.State.Force = geom.Vec{}
	}

	it.status = Running
	it.iteration = 0
	it.temperature = it.cfg.Temperature
	it.energy = 0
}

// Rebind refreshes the integrator's internal indices after the graph's
// topology changed, typically following ApplySnapshot on a live
// simulation. State vectors are left untouched, so surviving nodes keep
// their motion; the temperature is not reset.
func (it *Integrator) Rebind() {
	it.nodes = it.g.Nodes()
	it.rebuildSprings()
}

// Step advances the simulation by one tick and reports whether the
// integrator is still running. Calling Step in any state but Running is a
// no-op returning false.
func (it *Integrator) Step() bool {
	if it.status != Running {
		return false
	}

	tc := it.buildTick()
	it.accumulateForces(tc)
	it.integrate()
	it.cool()
	it.iteration++

	if it.energy < it.cfg.MinMovement {
		it.status = Converged
	} else if it.iteration >= it.cfg.MaxIterations {
		it.status = Converged
	}
	return it.status == Running
}

// integrate applies the velocity update and position clamp, accumulating
// total kinetic energy for the convergence check.
func (it *Integrator) integrate() {
	dt := it.cfg.TimeStep
	var energy float64

	for _, n := range it.nodes {
		if n.Fixed {
			n.State.Vel = geom.Vec{}
			continue
		}
		v := n.State.Vel.Add(n.State.Force.Scale(dt))
		v = v.Scale(it.cfg.Damping * it.temperature)
		v = v.ClampLen(it.cfg.MaxVelocity)

		n.State.Vel = v
		n.State.Pos = it.cfg.Bounds.ClampPoint(n.State.Pos.Add(v.Scale(dt)))

		energy += n.Mass() * v.LenSq()
	}
	it.energy = energy
}

// cool applies exponential temperature decay with the positive floor.
func (it *Integrator) cool() {
	it.temperature = math.Max(it.temperature*it.cfg.CoolingRate, TempFloor)
}

// Cancel stops a running solve at the current tick boundary. The spatial
// and force state is discarded; positions stay readable on the graph.
// Cancelling a terminal or uninitialized integrator is a no-op.
func (it *Integrator) Cancel() {
	if it.status != Running {
		return
	}
	it.status = Cancelled
	it.qt = spatial.New()
	it.bodies = nil
}

// Run initializes if needed and steps until the integrator leaves Running,
// honoring context cancellation at tick boundaries. On cancellation the
// returned error is the context's and the result carries the state at the
// stopping point.
func (it *Integrator) Run(ctx context.Context) (Result, error) {
	if it.status == Uninitialized || it.status.Terminal() {
		it.Initialize()
	}

	hooks := observability.Engine()
	hooks.OnSolveStart(ctx, len(it.nodes), it.g.EdgeCount())
	start := time.Now()

	for it.status == Running {
		if err := ctx.Err(); err != nil {
			it.Cancel()
			hooks.OnSolveComplete(ctx, it.iteration, false, time.Since(start))
			return it.result(start), err
		}
		it.Step()
		hooks.OnSolveTick(ctx, it.iteration, it.energy)
	}

	res := it.result(start)
	hooks.OnSolveComplete(ctx, res.Iterations, res.DidConverge, res.Elapsed)
	return res, nil
}

func (it *Integrator) result(start time.Time) Result {
	return Result{
		Status:      it.status,
		Iterations:  it.iteration,
		Energy:      it.energy,
		DidConverge: it.status == Converged && it.energy < it.cfg.MinMovement,
		Elapsed:     time.Since(start),
	}
}

// Package layout implements the force-directed solver: the force model and
// the numerical integrator that advances node positions until the system
// converges.
//
// # Force Model
//
// Each tick combines four forces per node:
//
//   - Repulsion between all node pairs, approximated in O(n log n) with the
//     Barnes-Hut quadtree from pkg/spatial
//   - Spring attraction along edges toward a configurable rest length,
//     scaled by accumulated edge weight
//   - Gravity toward the world center, which keeps disconnected
//     components from drifting apart indefinitely
//   - Boundary containment, a linear inward push once a node enters the
//     margin near the world edge
//
// The net force per node is clamped before integration so degenerate
// inputs saturate instead of exploding.
//
// # Integrator
//
// [Integrator] is a small state machine: Uninitialized -> Running ->
// Converged or Cancelled, both terminal. Each [Integrator.Step] computes
// forces, applies damped temperature-scaled velocity updates, clamps
// positions to the world bounds and accumulates kinetic energy. The run
// converges when energy drops below the configured threshold, or
// terminates at the iteration cap with the result marked not converged.
//
// The integrator owns no goroutines and takes no locks. A single caller
// steps it; concurrent steppers need external synchronization. Use
// [Integrator.Run] for the common solve-to-completion loop with context
// cancellation at tick boundaries.
//
// Multi-level solving for large graphs lives in the coarsen subpackage,
// parameter heuristics in the tune subpackage.
package layout

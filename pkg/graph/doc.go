// Package graph provides the force-directed graph model at the center of the
// layout engine.
//
// # Architecture
//
// The package owns two closely related surfaces:
//
//   - [Graph], [Node], [Edge]: the live graph the solver iterates over,
//     including per-node physics state (position, velocity, force)
//   - [Snapshot]: the wire contract for full-replace data updates, produced
//     by pkg/source loaders and applied with [Graph.ApplySnapshot]
//
// Physics state is owned by the graph. Render output (pkg/viewport) is
// always produced as fresh copies, never as aliases into node state.
//
// # Snapshot Semantics
//
// Snapshots are full replacements, not diffs. Applying one:
//
//   - keeps position and velocity for node IDs that survive
//   - discards state for IDs absent from the snapshot
//   - places new IDs deterministically on a circle around the surviving
//     centroid, with the angle derived from a stable hash of the ID
//   - drops edges whose endpoints are unknown (and self-loops) and counts
//     them in [Diagnostics] instead of failing
//
// # Concurrency
//
// Graph is not safe for concurrent use without external synchronization.
// The solver owns the graph while running; callers read render state
// through pkg/viewport frames rather than reading nodes mid-tick.
package graph

package layout

import (
	"hash/fnv"
	"math"

	"github.com/jwkaltz/gravitas/pkg/geom"
	"github.com/jwkaltz/gravitas/pkg/spatial"
)

// spring is one precomputed neighbor reference: the peer's index in the
// integrator's node slice and the accumulated edge weight to it.
type spring struct {
	peer   int
	weight float64
}

// tick carries the per-iteration context: the freshly built quadtree, the
// anchor gravity pulls toward and the bounds containment pushes from.
// A tick is rebuilt from scratch every iteration and never cached across
// iterations, so forces always reflect current positions.
type tick struct {
	qt     *spatial.Quadtree
	anchor geom.Vec
	bounds geom.Rect
}

// jitterDir returns a deterministic unit vector for a node, used to
// separate coincident nodes. Hashing the ID instead of consulting shared
// random state keeps force computation reproducible across runs.
func jitterDir(id string) geom.Vec {
	h := fnv.New32a()
	h.Write([]byte(id))
	angle := float64(h.Sum32()) / float64(math.MaxUint32) * 2 * math.Pi
	return geom.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
}

// separation returns the displacement from `from` to `to`, its length, and
// whether the pair needed the deterministic jitter fallback. Distances
// below minSeparation are floored and redirected along the jitter
// direction of the probing node.
func separation(id string, from, to geom.Vec) (dir geom.Vec, dist float64) {
	d := to.Sub(from)
	dist = d.Len()
	if dist < minSeparation {
		return jitterDir(id), minSeparation
	}
	return d.Scale(1 / dist), dist
}

// accumulateForces computes the net force for every node into its State.
// Fixed nodes are skipped as force receivers; they still act as sources
// because their bodies are part of the quadtree.
//
// Each node's accumulator has exactly one writer, so callers may partition
// the node range across goroutines after the tick context is built.
func (it *Integrator) accumulateForces(tc *tick) {
	for i, n := range it.nodes {
		if n.Fixed {
			n.State.Force = geom.Vec{}
			continue
		}
		n.State.Force = it.nodeForce(tc, i)
	}
}

// nodeForce computes the clamped net force on one node.
func (it *Integrator) nodeForce(tc *tick, i int) geom.Vec {
	n := it.nodes[i]
	pos := n.State.Pos
	mass := n.Mass()
	var f geom.Vec

	// Repulsion over the Barnes-Hut tree. The visitor receives either a
	// single far quadrant as a pseudo-body or individual nearby bodies.
	tc.qt.Accumulate(i, it.cfg.Theta, func(m float64, at geom.Vec) {
		dir, dist := separation(n.ID, pos, at)
		mag := it.cfg.Repulsion * mass * m / (dist * dist)
		f = f.Sub(dir.Scale(mag)) // pushes away from the visited mass
	})

	// Spring attraction toward each neighbor, using accumulated weights so
	// parallel edges pull once with their summed weight.
	for _, s := range it.springs[i] {
		peer := it.nodes[s.peer]
		dir, dist := separation(n.ID, pos, peer.State.Pos)
		stretch := dist - it.cfg.SpringLength
		f = f.Add(dir.Scale(it.cfg.SpringCoeff * stretch * s.weight))
	}

	// Gravity toward the world center, proportional to distance. A fixed
	// anchor keeps disconnected components from drifting apart and settles
	// isolated nodes at the center of the usable area.
	f = f.Add(tc.anchor.Sub(pos).Scale(it.cfg.Gravity))

	// Containment: linear inward push once inside the boundary margin.
	f = f.Add(it.containment(pos, tc.bounds))

	return f.ClampLen(it.cfg.maxForce())
}

// containment returns the inward force for a position near or beyond the
// world edge. The push grows linearly with penetration into the margin
// band and keeps growing past the edge, so clamped nodes re-enter.
func (it *Integrator) containment(pos geom.Vec, bounds geom.Rect) geom.Vec {
	m := it.cfg.BoundsMargin
	k := it.cfg.Containment
	var f geom.Vec

	if over := (bounds.X + m) - pos.X; over > 0 {
		f.X += k * over
	}
	if over := pos.X - (bounds.MaxX() - m); over > 0 {
		f.X -= k * over
	}
	if over := (bounds.Y + m) - pos.Y; over > 0 {
		f.Y += k * over
	}
	if over := pos.Y - (bounds.MaxY() - m); over > 0 {
		f.Y -= k * over
	}
	return f
}

// buildTick rebuilds the spatial index and tick context from current
// positions.
func (it *Integrator) buildTick() *tick {
	it.bodies = it.bodies[:0]
	for _, n := range it.nodes {
		it.bodies = append(it.bodies, spatial.Body{Pos: n.State.Pos, Mass: n.Mass()})
	}
	pad := it.cfg.SpringLength
	it.qt.Build(it.bodies, it.g.Bounds(pad))

	return &tick{
		qt:     it.qt,
		anchor: it.cfg.Bounds.Center(),
		bounds: it.cfg.Bounds,
	}
}

// rebuildSprings recomputes the neighbor index from the graph's adjacency.
// Called on Initialize and Rebind; topology is stable between those points,
// so per-tick force passes allocate nothing.
func (it *Integrator) rebuildSprings() {
	it.index = make(map[string]int, len(it.nodes))
	for i, n := range it.nodes {
		it.index[n.ID] = i
	}
	it.springs = make([][]spring, len(it.nodes))
	for i, n := range it.nodes {
		var ss []spring
		for _, peerID := range it.g.Neighbors(n.ID) {
			j, ok := it.index[peerID]
			if !ok {
				continue
			}
			ss = append(ss, spring{peer: j, weight: it.g.Weight(n.ID, peerID)})
		}
		it.springs[i] = ss
	}
}

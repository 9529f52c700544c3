package spatial

import (
	"github.com/jwkaltz/gravitas/pkg/geom"
)

const (
	// leafCap is the number of bodies a leaf may hold before subdividing.
	leafCap = 4

	// maxDepth bounds subdivision so coincident bodies cannot recurse the
	// tree into denormal cell sizes. Leaves at this depth chain bodies past
	// the usual capacity.
	maxDepth = 32

	// noQuad marks an absent child index.
	noQuad = int32(-1)

	// noBody terminates a leaf's body chain.
	noBody = int32(-1)
)

// Body is a point mass inserted into the quadtree. Mass must be positive
// for aggregates to stay meaningful; the layout layer guarantees this.
type Body struct {
	Pos  geom.Vec
	Mass float64
}

// quad is one quadrant record in the arena. Children are stored as indices
// into the arena slice; pointers would defeat the point of rebuilding the
// tree from a truncated slice every tick.
type quad struct {
	bounds   geom.Rect
	children [4]int32 // NW, NE, SW, SE arena indices, noQuad when leaf
	first    int32    // head of the direct body chain (leaves only)
	count    int32    // bodies beneath this quadrant, inclusive
	direct   int32    // bodies stored directly in this leaf
	mass     float64  // aggregate mass of all bodies beneath
	com      geom.Vec // aggregate center of mass
}

func (q *quad) isLeaf() bool { return q.children[0] == noQuad }

// Quadtree is a Barnes-Hut quadtree over an arena of quadrant records.
//
// The zero value is not usable - use New. Build resets and refills the
// arena; the tree is then immutable until the next Build, and read methods
// are safe for concurrent use in that window.
type Quadtree struct {
	quads  []quad
	bodies []Body
	next   []int32 // body chain links, parallel to bodies
	bounds geom.Rect
}

// New creates an empty quadtree. The arena grows on first build and is
// reused afterwards.
func New() *Quadtree {
	return &Quadtree{}
}

// Build resets the tree and inserts all bodies. The bounds are squared so
// quadrants subdivide evenly in both axes; callers typically pass the
// padded bounding box of all positions. Bodies are copied, so the caller's
// slice may be reused freely.
func (t *Quadtree) Build(bodies []Body, bounds geom.Rect) {
	t.quads = t.quads[:0]
	t.bodies = append(t.bodies[:0], bodies...)
	t.next = t.next[:0]
	for range t.bodies {
		t.next = append(t.next, noBody)
	}
	t.bounds = bounds.Square()

	t.newQuad(t.bounds)
	for i := range t.bodies {
		t.insertAt(0, int32(i), 0)
	}
}

// newQuad appends a fresh leaf quadrant and returns its arena index.
func (t *Quadtree) newQuad(b geom.Rect) int32 {
	t.quads = append(t.quads, quad{
		bounds:   b,
		children: [4]int32{noQuad, noQuad, noQuad, noQuad},
		first:    noBody,
	})
	return int32(len(t.quads) - 1)
}

// insertAt inserts body bi into the subtree rooted at qi, updating the
// aggregate mass and center of mass of every quadrant along the path.
// Recursion depth is bounded by maxDepth.
func (t *Quadtree) insertAt(qi, bi int32, depth int) {
	b := t.bodies[bi]

	q := &t.quads[qi]
	total := q.mass + b.Mass
	if total > 0 {
		q.com = geom.Vec{
			X: (q.com.X*q.mass + b.Pos.X*b.Mass) / total,
			Y: (q.com.Y*q.mass + b.Pos.Y*b.Mass) / total,
		}
	}
	q.mass = total
	q.count++

	if q.isLeaf() {
		if q.direct < leafCap || depth >= maxDepth {
			t.next[bi] = q.first
			q.first = bi
			q.direct++
			return
		}
		t.subdivide(qi, depth)
	}

	// subdivide appends to the arena, so the local pointer is stale here.
	// Descend by index only.
	child := t.childFor(qi, b.Pos)
	t.insertAt(child, bi, depth+1)
}

// subdivide converts the leaf at qi into an internal quadrant and pushes
// its direct bodies down one level. The quadrant's own aggregates already
// include those bodies, so only the children's aggregates change.
func (t *Quadtree) subdivide(qi int32, depth int) {
	b := t.quads[qi].bounds
	hw, hh := b.W/2, b.H/2

	nw := t.newQuad(geom.Rect{X: b.X, Y: b.Y, W: hw, H: hh})
	ne := t.newQuad(geom.Rect{X: b.X + hw, Y: b.Y, W: hw, H: hh})
	sw := t.newQuad(geom.Rect{X: b.X, Y: b.Y + hh, W: hw, H: hh})
	se := t.newQuad(geom.Rect{X: b.X + hw, Y: b.Y + hh, W: hw, H: hh})

	// Re-take the quad after the appends above.
	q := &t.quads[qi]
	q.children = [4]int32{nw, ne, sw, se}

	chain := q.first
	q.first = noBody
	q.direct = 0

	for chain != noBody {
		bi := chain
		chain = t.next[bi]
		t.next[bi] = noBody
		t.insertAt(t.childFor(qi, t.bodies[bi].Pos), bi, depth+1)
	}
}

// childFor picks the child quadrant index for a position. Points exactly on
// a split line go east/south, making placement total and deterministic.
// Positions outside the bounds land in the nearest edge quadrant.
func (t *Quadtree) childFor(qi int32, p geom.Vec) int32 {
	q := &t.quads[qi]
	c := q.bounds.Center()
	i := 0
	if p.X >= c.X {
		i++ // east column
	}
	if p.Y >= c.Y {
		i += 2 // south row
	}
	return q.children[i]
}

// =============================================================================
// Traversal
// =============================================================================

// Accumulate walks the tree for the probe body (by its index in the Build
// slice) and calls visit for every mass that acts on it.
//
// An internal quadrant is reported as a single pseudo-body at its center of
// mass when size²/distance² < theta², the Barnes-Hut accuracy test and the
// one place squared distance deliberately replaces Euclidean distance.
// Quadrants that fail the test are opened and their children visited. In
// leaves, bodies are reported individually with the probe itself skipped.
//
// A larger theta opens fewer quadrants: faster, less accurate. Theta of 0
// degrades to the exact pairwise computation.
func (t *Quadtree) Accumulate(probe int, theta float64, visit func(mass float64, at geom.Vec)) {
	if len(t.quads) == 0 || probe < 0 || probe >= len(t.bodies) {
		return
	}
	p := t.bodies[probe].Pos
	t.walk(0, int32(probe), p, theta*theta, visit)
}

func (t *Quadtree) walk(qi, probe int32, p geom.Vec, thetaSq float64, visit func(mass float64, at geom.Vec)) {
	q := &t.quads[qi]
	if q.count == 0 {
		return
	}

	if q.isLeaf() {
		for bi := q.first; bi != noBody; bi = t.next[bi] {
			if bi == probe {
				continue
			}
			visit(t.bodies[bi].Mass, t.bodies[bi].Pos)
		}
		return
	}

	size := q.bounds.W
	distSq := p.DistSq(q.com)
	if distSq > 0 && size*size/distSq < thetaSq {
		visit(q.mass, q.com)
		return
	}

	for _, ci := range q.children {
		t.walk(ci, probe, p, thetaSq, visit)
	}
}

// =============================================================================
// Inspection
// =============================================================================

// Len returns the number of bodies in the tree.
func (t *Quadtree) Len() int { return len(t.bodies) }

// QuadCount returns the number of quadrant records in the arena.
func (t *Quadtree) QuadCount() int { return len(t.quads) }

// Bounds returns the squared world bounds the tree was built over.
func (t *Quadtree) Bounds() geom.Rect { return t.bounds }

// AggregateMass returns the total mass at the root, which must equal the
// sum of all inserted body masses.
func (t *Quadtree) AggregateMass() float64 {
	if len(t.quads) == 0 {
		return 0
	}
	return t.quads[0].mass
}

// AggregateCOM returns the center of mass of the whole tree.
func (t *Quadtree) AggregateCOM() geom.Vec {
	if len(t.quads) == 0 {
		return geom.Vec{}
	}
	return t.quads[0].com
}

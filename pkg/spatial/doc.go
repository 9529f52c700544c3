// Package spatial provides the two spatial acceleration structures the
// layout engine relies on: a Barnes-Hut quadtree for O(n log n) repulsion
// and a uniform grid for viewport culling.
//
// # Quadtree
//
// [Quadtree] stores quadrants in a flat arena addressed by index instead of
// a pointer-linked tree. A rebuild happens every simulation tick, so the
// arena is reset with a slice truncation and refilled without churning the
// allocator. Leaves hold up to four bodies before subdividing; aggregate
// mass and center of mass are maintained incrementally on every ancestor
// along each insertion path, so aggregates always reflect exactly the
// bodies beneath them.
//
// [Quadtree.Accumulate] drives force computation: it walks the tree for a
// probe body and reports each quadrant that may be treated as a single
// pseudo-body under the theta accuracy test, leaving the force law itself
// to the caller.
//
// # Grid
//
// [Grid] buckets node positions into fixed-size cells for rectangle
// queries. The viewport optimizer rebuilds it per frame and queries an
// expanded visible rectangle to find candidate nodes.
//
// Neither structure is safe for concurrent mutation. Accumulate and
// QueryRect are read-only and may be called from multiple goroutines after
// a build completes.
package spatial

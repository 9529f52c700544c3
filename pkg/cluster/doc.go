// Package cluster groups transitively connected nodes and builds a smoothed
// boundary polygon around each group.
//
// # Pipeline
//
// [Find] runs one pass in four steps:
//
//  1. [Components] collects connected components over the accumulated-weight
//     adjacency, ignoring neighbor links below the weight threshold.
//     Components smaller than the minimum cluster size are dropped.
//  2. Member positions are padded outward from the component centroid so the
//     boundary clears the node glyphs.
//  3. [Hull] wraps the padded positions in a convex hull via Graham scan,
//     and [SimplifyAngles] removes near-collinear hull points.
//  4. [CatmullRom] closes the remaining points into a smooth curve.
//
// Membership is disjoint within one pass. Stability across passes is not
// guaranteed: nodes can change clusters whenever topology, positions or the
// weight threshold change.
//
// # Caching
//
// Boundary construction runs per frame at low detail tiers, where graphs are
// large. [Engine] wraps [Find] with a content hash over node ids, rounded
// positions, edges and options, and returns the previous pass while nothing
// relevant changed. The cache is a performance layer only: a cold cache
// produces identical output.
package cluster

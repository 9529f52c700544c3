// Package lod classifies viewport state into discrete detail tiers.
//
// A [TierSet] orders tiers from level 0 (highest detail) downward, each
// covering a zoom range and carrying the render limits a frame at that
// tier obeys: node and edge caps, an importance cutoff, an edge sampling
// rate, and flags for labels, bundling, and cluster boundaries.
//
// [TierSet.Classify] is pure and stateless. It is monotonic by
// construction: lowering the zoom or raising the node count never yields
// more detail, which the validation rules on zoom ranges and density caps
// guarantee. [ShouldRenderEdge] decides per-edge visibility from a stable
// hash of the edge identity, so sampling never flickers across frames.
package lod

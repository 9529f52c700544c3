// Package coarsen builds and solves a multi-level hierarchy of collapsed
// proxy graphs for large layouts.
//
// Above a node-count threshold, each pass greedily matches node pairs along
// the heaviest edges and collapses every matched pair into a super-node,
// producing a strictly smaller graph. Passes repeat until the graph drops
// below the threshold or no further matching is possible. The coarsest
// proxy is laid out first with the full iteration budget; each finer level
// then seeds its nodes near their super-node's solved position and refines
// with a reduced budget and a lowered temperature. Graphs at or below the
// threshold skip the hierarchy and solve directly.
package coarsen

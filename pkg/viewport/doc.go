// Package viewport turns the live graph into renderer-ready frames: the
// subset of nodes, edges and cluster boundaries worth drawing for one
// camera state, at the right level of detail.
//
// [Optimizer.Optimize] composes the reduction steps in order: grid culling
// over an expanded visible rectangle, detail-tier classification,
// importance filtering, stable edge sampling, then bundling and cluster
// boundaries where the tier asks for them. The output [Frame] carries
// plain values only and never aliases the graph's physics state, so a
// renderer may hold a frame while the simulation keeps stepping.
package viewport

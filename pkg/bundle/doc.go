// Package bundle merges related edges into aggregate bundles so low detail
// tiers render fewer, thicker lines without losing total relationship
// strength.
//
// Bundling runs two passes. The first collapses parallel edges: every edge
// sharing an unordered endpoint pair becomes one bundle whose weight is the
// sum of its parts. The second collapses near-parallel bundles between
// distinct pairs: each bundle's carrying line is quantized to an
// (angle, offset) bucket, and buckets holding more than one bundle merge
// the same way.
//
// Bundle thickness grows with the square root of the member count, so a
// bundle of four edges draws twice as thick as a single edge, not four
// times.
package bundle

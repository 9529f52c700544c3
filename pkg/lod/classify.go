package lod

import (
	"hash/fnv"
	"math"

	"github.com/jwkaltz/gravitas/pkg/geom"
)

// Classify maps viewport state to a detail tier. It is pure: the same
// inputs always produce the same tier, and no state is consulted or
// written. The tier set must have passed ValidateAndSetDefaults.
//
// Extreme zoom-out and huge graphs short-circuit to the lowest tier;
// extreme zoom-in over a small graph short-circuits to the highest.
// Otherwise the zoom picks a candidate tier by range, and the node
// density over the viewport area can only push the result toward less
// detail, never more. Degenerate inputs (non-positive zoom or area) take
// the lowest tier instead of dividing by zero.
func (ts *TierSet) Classify(zoom float64, nodeCount int, view geom.Rect) Tier {
	if zoom <= 0 || view.Area() <= 0 {
		return ts.Lowest()
	}
	if zoom < ts.ExtremeZoomOut || nodeCount > ts.HugeNodeCount {
		return ts.Lowest()
	}
	if zoom >= ts.ExtremeZoomIn && nodeCount <= ts.SmallNodeCount {
		return ts.Highest()
	}

	zoomLevel := len(ts.Tiers) - 1
	for i := range ts.Tiers {
		if zoom >= ts.Tiers[i].MinZoom {
			zoomLevel = i
			break
		}
	}

	density := float64(nodeCount) / view.Area()
	densityLevel := len(ts.Tiers) - 1
	for i := range ts.Tiers {
		if density <= ts.Tiers[i].MaxDensity {
			densityLevel = i
			break
		}
	}

	level := zoomLevel
	if densityLevel > level {
		level = densityLevel
	}
	return ts.Tiers[level]
}

// ShouldRenderEdge reports whether the edge between source and target is
// rendered at the given sampling rate. The decision hashes the unordered
// edge identity, so a given edge is consistently shown or hidden at a
// rate across frames; there is no hidden randomness and no flicker.
func ShouldRenderEdge(source, target string, rate float64) bool {
	if rate >= 1 {
		return true
	}
	if rate <= 0 {
		return false
	}
	a, b := source, target
	if b < a {
		a, b = b, a
	}
	h := fnv.New32a()
	h.Write([]byte(a))
	h.Write([]byte{0})
	h.Write([]byte(b))
	return float64(h.Sum32())/float64(math.MaxUint32) < rate
}

package lod

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/jwkaltz/gravitas/pkg/geom"
)

// TestClassifyProperties checks the ordering guarantees classification
// makes for any input, not just the handful of hand-picked cases.
func TestClassifyProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping property-based test in short mode")
	}

	ts := DefaultTierSet()
	if err := ts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() = %v", err)
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	// Zooming in never loses detail.
	properties.Property("higher zoom never raises the tier level", prop.ForAll(
		func(zoom, extra float64, nodes int, w, h float64) bool {
			view := geom.Rect{W: w, H: h}
			near := ts.Classify(zoom, nodes, view)
			far := ts.Classify(zoom+extra, nodes, view)
			return far.Level <= near.Level
		},
		gen.Float64Range(0.01, 10),
		gen.Float64Range(0, 10),
		gen.IntRange(0, 10000),
		gen.Float64Range(100, 2000),
		gen.Float64Range(100, 2000),
	))

	// Growing the graph never gains detail.
	properties.Property("more nodes never lower the tier level", prop.ForAll(
		func(zoom float64, nodes, extra int, w, h float64) bool {
			view := geom.Rect{W: w, H: h}
			small := ts.Classify(zoom, nodes, view)
			large := ts.Classify(zoom, nodes+extra, view)
			return large.Level >= small.Level
		},
		gen.Float64Range(0.01, 10),
		gen.IntRange(0, 10000),
		gen.IntRange(0, 10000),
		gen.Float64Range(100, 2000),
		gen.Float64Range(100, 2000),
	))

	// The classified tier always comes from the set.
	properties.Property("classification stays within the tier set", prop.ForAll(
		func(zoom float64, nodes int, w, h float64) bool {
			tier := ts.Classify(zoom, nodes, geom.Rect{W: w, H: h})
			return tier.Level >= 0 && tier.Level < len(ts.Tiers)
		},
		gen.Float64Range(-1, 10),
		gen.IntRange(0, 20000),
		gen.Float64Range(0, 2000),
		gen.Float64Range(0, 2000),
	))

	// Edge sampling ignores endpoint order and never flaps.
	properties.Property("edge sampling is symmetric and stable", prop.ForAll(
		func(source, target string, rate float64) bool {
			first := ShouldRenderEdge(source, target, rate)
			return ShouldRenderEdge(target, source, rate) == first &&
				ShouldRenderEdge(source, target, rate) == first
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

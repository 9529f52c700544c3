package lod

import (
	"fmt"
	"math"
	"testing"

	"github.com/jwkaltz/gravitas/pkg/geom"
)

// testTierSet returns the validated default tier set.
func testTierSet(t *testing.T) TierSet {
	t.Helper()
	ts := DefaultTierSet()
	if err := ts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() = %v", err)
	}
	return ts
}

func TestTierSet_ValidateAndSetDefaults(t *testing.T) {
	var ts TierSet
	if err := ts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() = %v", err)
	}
	if len(ts.Tiers) != 4 {
		t.Fatalf("len(Tiers) = %d, want 4", len(ts.Tiers))
	}
	if ts.ExtremeZoomOut != DefaultExtremeZoomOut {
		t.Errorf("ExtremeZoomOut = %v, want %v", ts.ExtremeZoomOut, DefaultExtremeZoomOut)
	}
	if ts.ExtremeZoomIn != DefaultExtremeZoomIn {
		t.Errorf("ExtremeZoomIn = %v, want %v", ts.ExtremeZoomIn, DefaultExtremeZoomIn)
	}
	if ts.SmallNodeCount != DefaultSmallNodeCount {
		t.Errorf("SmallNodeCount = %d, want %d", ts.SmallNodeCount, DefaultSmallNodeCount)
	}
	if ts.HugeNodeCount != DefaultHugeNodeCount {
		t.Errorf("HugeNodeCount = %d, want %d", ts.HugeNodeCount, DefaultHugeNodeCount)
	}
	for i, tier := range ts.Tiers {
		if tier.Level != i {
			t.Errorf("Tiers[%d].Level = %d, want %d", i, tier.Level, i)
		}
	}
	if got, want := ts.Highest().Name, "high"; got != want {
		t.Errorf("Highest().Name = %q, want %q", got, want)
	}
	if got, want := ts.Lowest().Name, "minimal"; got != want {
		t.Errorf("Lowest().Name = %q, want %q", got, want)
	}

	if err := ts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second ValidateAndSetDefaults() = %v", err)
	}
}

func TestTierSet_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*TierSet)
	}{
		{"levels out of order", func(ts *TierSet) { ts.Tiers[1].Level = 2 }},
		{"zoom range inverted", func(ts *TierSet) { ts.Tiers[2].MaxZoom = ts.Tiers[2].MinZoom }},
		{"negative min zoom", func(ts *TierSet) { ts.Tiers[2].MinZoom = -0.1 }},
		{"zoom ranges leave a gap", func(ts *TierSet) { ts.Tiers[1].MaxZoom = 1.4 }},
		{"zero density cap", func(ts *TierSet) { ts.Tiers[0].MaxDensity = 0 }},
		{"density cap shrinks with level", func(ts *TierSet) { ts.Tiers[2].MaxDensity = 0.004 }},
		{"zero node cap", func(ts *TierSet) { ts.Tiers[3].MaxNodes = 0 }},
		{"zero edge cap", func(ts *TierSet) { ts.Tiers[3].MaxEdges = 0 }},
		{"importance cutoff at one", func(ts *TierSet) { ts.Tiers[1].ImportanceCutoff = 1 }},
		{"negative importance cutoff", func(ts *TierSet) { ts.Tiers[1].ImportanceCutoff = -0.5 }},
		{"edge sample rate above one", func(ts *TierSet) { ts.Tiers[0].EdgeSampleRate = 1.2 }},
		{"lowest tier misses zoom zero", func(ts *TierSet) { ts.Tiers[3].MinZoom = 0.05 }},
		{"zoom-in threshold below zoom-out", func(ts *TierSet) { ts.ExtremeZoomIn = 0.05 }},
		{"huge count below small count", func(ts *TierSet) { ts.HugeNodeCount = 150 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := DefaultTierSet()
			tc.mutate(&ts)
			if err := ts.ValidateAndSetDefaults(); err == nil {
				t.Error("ValidateAndSetDefaults() = nil, want error")
			}
		})
	}
}

func TestClassify_ZoomBands(t *testing.T) {
	ts := testTierSet(t)
	view := geom.Rect{W: 1000, H: 800}

	// 50 nodes over this viewport stay far below every density cap, so
	// the band alone decides the tier.
	cases := []struct {
		zoom float64
		want string
	}{
		{3.5, "high"},
		{2.0, "high"},
		{1.5, "high"},
		{1.0, "medium"},
		{0.75, "medium"},
		{0.5, "low"},
		{0.3, "low"},
		{0.2, "minimal"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("zoom %v", tc.zoom), func(t *testing.T) {
			got := ts.Classify(tc.zoom, 50, view)
			if got.Name != tc.want {
				t.Errorf("Classify(%v, 50, view).Name = %q, want %q", tc.zoom, got.Name, tc.want)
			}
		})
	}
}

func TestClassify_FastPaths(t *testing.T) {
	ts := testTierSet(t)
	view := geom.Rect{W: 1000, H: 800}

	cases := []struct {
		name  string
		zoom  float64
		nodes int
		view  geom.Rect
		want  string
	}{
		{"extreme zoom-out", 0.05, 10, view, "minimal"},
		{"huge graph at high zoom", 2.0, 6000, view, "minimal"},
		{"extreme zoom-in on small graph", 3.5, 100, view, "high"},
		{"zero zoom", 0, 10, view, "minimal"},
		{"negative zoom", -1, 10, view, "minimal"},
		{"empty viewport", 2.0, 10, geom.Rect{}, "minimal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ts.Classify(tc.zoom, tc.nodes, tc.view)
			if got.Name != tc.want {
				t.Errorf("Classify(%v, %d, view).Name = %q, want %q", tc.zoom, tc.nodes, got.Name, tc.want)
			}
		})
	}

	// The zoom-in fast path needs a small graph. A larger one falls
	// through to the bands, where density still has a say.
	got := ts.Classify(3.5, 1000, view)
	if got.Name != "medium" {
		t.Errorf("Classify(3.5, 1000, view).Name = %q, want %q", got.Name, "medium")
	}
}

func TestClassify_DensityDowngrades(t *testing.T) {
	ts := testTierSet(t)
	view := geom.Rect{W: 1000, H: 800}

	// Zoom 2.0 alone lands in the high band; growing node count pushes
	// the result down one tier at a time.
	cases := []struct {
		nodes int
		want  string
	}{
		{100, "high"},
		{2000, "medium"},
		{4800, "low"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			got := ts.Classify(2.0, tc.nodes, view)
			if got.Name != tc.want {
				t.Errorf("Classify(2.0, %d, view).Name = %q, want %q", tc.nodes, got.Name, tc.want)
			}
		})
	}

	// A cramped viewport reaches the minimal tier without tripping the
	// huge-graph fast path.
	got := ts.Classify(2.0, 250, geom.Rect{W: 100, H: 100})
	if got.Name != "minimal" {
		t.Errorf("Classify(2.0, 250, small view).Name = %q, want %q", got.Name, "minimal")
	}
}

func TestTierSet_ByLevelAndBiased(t *testing.T) {
	ts := testTierSet(t)

	if got := ts.ByLevel(-1); got.Level != 0 {
		t.Errorf("ByLevel(-1).Level = %d, want 0", got.Level)
	}
	if got := ts.ByLevel(99); got.Level != 3 {
		t.Errorf("ByLevel(99).Level = %d, want 3", got.Level)
	}

	high := ts.Highest()
	if got := ts.Biased(high, 0); got.Level != 0 {
		t.Errorf("Biased(high, 0).Level = %d, want 0", got.Level)
	}
	if got := ts.Biased(high, 1); got.Level != 1 {
		t.Errorf("Biased(high, 1).Level = %d, want 1", got.Level)
	}
	if got := ts.Biased(high, 10); got.Level != 3 {
		t.Errorf("Biased(high, 10).Level = %d, want 3", got.Level)
	}
	if got := ts.Biased(ts.Lowest(), 2); got.Level != 3 {
		t.Errorf("Biased(minimal, 2).Level = %d, want 3", got.Level)
	}
}

func TestShouldRenderEdge_StableAndSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"a", "b"},
		{"api", "db"},
		{"worker-01", "queue"},
		{"n001", "n002"},
		{"x", "x"},
	}
	for _, p := range pairs {
		first := ShouldRenderEdge(p[0], p[1], 0.5)
		for i := 0; i < 10; i++ {
			if got := ShouldRenderEdge(p[0], p[1], 0.5); got != first {
				t.Fatalf("ShouldRenderEdge(%q, %q, 0.5) flapped: %v then %v", p[0], p[1], first, got)
			}
		}
		if got := ShouldRenderEdge(p[1], p[0], 0.5); got != first {
			t.Errorf("ShouldRenderEdge(%q, %q, 0.5) = %v, want %v (order must not matter)",
				p[1], p[0], got, first)
		}
	}
}

func TestShouldRenderEdge_RateBounds(t *testing.T) {
	cases := []struct {
		name string
		rate float64
		want bool
	}{
		{"rate one keeps all", 1, true},
		{"rate above one keeps all", 1.5, true},
		{"rate zero drops all", 0, false},
		{"negative rate drops all", -0.2, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				src, dst := fmt.Sprintf("s%d", i), fmt.Sprintf("t%d", i)
				if got := ShouldRenderEdge(src, dst, tc.rate); got != tc.want {
					t.Fatalf("ShouldRenderEdge(%q, %q, %v) = %v, want %v", src, dst, tc.rate, got, tc.want)
				}
			}
		})
	}
}

func TestShouldRenderEdge_KeepsRoughlyRateFraction(t *testing.T) {
	const total = 1000
	kept := 0
	for i := 0; i < total; i++ {
		if ShouldRenderEdge(fmt.Sprintf("edge%d", i), fmt.Sprintf("peer%d", i), 0.5) {
			kept++
		}
	}
	frac := float64(kept) / total
	if math.Abs(frac-0.5) > 0.15 {
		t.Errorf("kept %d of %d edges at rate 0.5 (%.2f); want within 0.35..0.65", kept, total, frac)
	}
}

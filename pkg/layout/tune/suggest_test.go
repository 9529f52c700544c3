package tune

import (
	"testing"

	"github.com/jwkaltz/gravitas/pkg/layout"
)

func TestSuggest_PureAndIdempotent(t *testing.T) {
	a := Suggest(120, 300)
	b := Suggest(120, 300)
	if a != b {
		t.Errorf("Suggest(120, 300) differed across calls: %+v vs %+v", a, b)
	}
}

func TestSuggest_RepulsionGrowsWithSize(t *testing.T) {
	small := Suggest(10, 10).Repulsion
	medium := Suggest(100, 100).Repulsion
	large := Suggest(1000, 1000).Repulsion
	if !(small < medium && medium < large) {
		t.Errorf("repulsion not increasing with size: %v, %v, %v", small, medium, large)
	}
	if small <= 0 {
		t.Errorf("repulsion = %v, want positive", small)
	}
}

func TestSuggest_SpringLengthGrowsAsDensityFalls(t *testing.T) {
	dense := Suggest(100, 400).SpringLength
	medium := Suggest(100, 100).SpringLength
	sparse := Suggest(100, 0).SpringLength
	if !(dense < medium && medium < sparse) {
		t.Errorf("spring length not growing as density falls: dense=%v medium=%v sparse=%v",
			dense, medium, sparse)
	}
	if sparse > 2*layout.DefaultSpringLength {
		t.Errorf("sparse spring length = %v, want <= %v", sparse, 2*layout.DefaultSpringLength)
	}
	if dense < layout.DefaultSpringLength {
		t.Errorf("dense spring length = %v, want >= default %v", dense, layout.DefaultSpringLength)
	}
}

func TestSuggest_BandsStepDown(t *testing.T) {
	cases := []struct {
		nodes       int
		wantDamping float64
		wantStep    float64
	}{
		{30, 0.9, 0.6},
		{80, 0.85, 0.5},
		{150, 0.8, 0.4},
		{300, 0.75, 0.3},
	}
	for _, tc := range cases {
		cfg := Suggest(tc.nodes, tc.nodes)
		if cfg.Damping != tc.wantDamping {
			t.Errorf("Suggest(%d).Damping = %v, want %v", tc.nodes, cfg.Damping, tc.wantDamping)
		}
		if cfg.TimeStep != tc.wantStep {
			t.Errorf("Suggest(%d).TimeStep = %v, want %v", tc.nodes, cfg.TimeStep, tc.wantStep)
		}
	}
}

func TestSuggest_ResultValidates(t *testing.T) {
	cfg := Suggest(150, 200)
	repulsion, length := cfg.Repulsion, cfg.SpringLength
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("suggested config failed validation: %v", err)
	}
	if cfg.Repulsion != repulsion || cfg.SpringLength != length {
		t.Error("validation overwrote suggested values")
	}
	if cfg.MaxIterations != layout.DefaultMaxIterations {
		t.Errorf("MaxIterations = %d, want default %d filled in", cfg.MaxIterations, layout.DefaultMaxIterations)
	}
}

func TestSuggest_DegenerateCounts(t *testing.T) {
	cfg := Suggest(0, 0)
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		t.Errorf("Suggest(0, 0) failed validation: %v", err)
	}
	cfg = Suggest(-5, -3)
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		t.Errorf("Suggest(-5, -3) failed validation: %v", err)
	}
}

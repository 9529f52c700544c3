package layout

import (
	"strings"
	"testing"
)

func TestConfig_DefaultsApplied(t *testing.T) {
	cfg := Config{}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() = %v", err)
	}

	if cfg.Repulsion != DefaultRepulsion {
		t.Errorf("Repulsion = %v, want %v", cfg.Repulsion, DefaultRepulsion)
	}
	if cfg.SpringLength != DefaultSpringLength {
		t.Errorf("SpringLength = %v, want %v", cfg.SpringLength, DefaultSpringLength)
	}
	if cfg.CoolingRate != DefaultCoolingRate {
		t.Errorf("CoolingRate = %v, want %v", cfg.CoolingRate, DefaultCoolingRate)
	}
	if cfg.MaxIterations != DefaultMaxIterations {
		t.Errorf("MaxIterations = %d, want %d", cfg.MaxIterations, DefaultMaxIterations)
	}
	if cfg.Bounds.Empty() {
		t.Error("Bounds still empty after defaults")
	}
	if c := cfg.Bounds.Center(); c.X != 0 || c.Y != 0 {
		t.Errorf("default world center = %v, want origin", c)
	}
}

func TestConfig_ExplicitValuesKept(t *testing.T) {
	cfg := Config{Repulsion: 123, Theta: 0.5, MaxIterations: 7}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() = %v", err)
	}
	if cfg.Repulsion != 123 {
		t.Errorf("Repulsion = %v, want 123", cfg.Repulsion)
	}
	if cfg.Theta != 0.5 {
		t.Errorf("Theta = %v, want 0.5", cfg.Theta)
	}
	if cfg.MaxIterations != 7 {
		t.Errorf("MaxIterations = %d, want 7", cfg.MaxIterations)
	}
}

func TestConfig_Idempotent(t *testing.T) {
	cfg := Config{Repulsion: 50}
	cfg.ValidateAndSetDefaults()
	first := cfg
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second ValidateAndSetDefaults() = %v", err)
	}
	if cfg != first {
		t.Errorf("second validation changed config: %+v vs %+v", cfg, first)
	}
}

func TestConfig_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		frag string
	}{
		{"negative repulsion", Config{Repulsion: -1}, "repulsion"},
		{"negative time step", Config{TimeStep: -0.5}, "time_step"},
		{"damping above one", Config{Damping: 1.5}, "damping"},
		{"negative damping", Config{Damping: -0.2}, "damping"},
		{"cooling above one", Config{CoolingRate: 1.1}, "cooling_rate"},
		{"negative cooling", Config{CoolingRate: -0.5}, "cooling_rate"},
		{"theta at one", Config{Theta: 1.0}, "theta"},
		{"negative theta", Config{Theta: -0.1}, "theta"},
		{"negative max velocity", Config{MaxVelocity: -3}, "max_velocity"},
		{"negative iterations", Config{MaxIterations: -1}, "max_iterations"},
		{"negative temperature", Config{Temperature: -1}, "temperature"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.ValidateAndSetDefaults()
			if err == nil {
				t.Fatalf("ValidateAndSetDefaults() = nil, want error for %s", tc.name)
			}
			if !strings.Contains(err.Error(), tc.frag) {
				t.Errorf("error %q does not mention %q", err, tc.frag)
			}
		})
	}
}

func TestDefaultConfig_Validated(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TimeStep <= 0 {
		t.Errorf("DefaultConfig().TimeStep = %v, want positive", cfg.TimeStep)
	}
	if cfg.maxForce() != cfg.MaxVelocity/cfg.TimeStep {
		t.Errorf("maxForce() = %v, want MaxVelocity/TimeStep", cfg.maxForce())
	}
}

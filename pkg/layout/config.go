package layout

import (
	"fmt"

	"github.com/jwkaltz/gravitas/pkg/geom"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Pipeline
// =============================================================================

const (
	// DefaultRepulsion is the repulsion constant. Forces follow
	// repulsion * massA * massB / d², so with unit masses two nodes at the
	// default spring length repel with about half the pull of a stretched
	// spring.
	DefaultRepulsion = 2000.0

	// DefaultSpringLength is the rest length of edge springs in world units.
	DefaultSpringLength = 60.0

	// DefaultSpringCoeff scales spring force per unit of stretch.
	DefaultSpringCoeff = 0.05

	// DefaultGravity scales the pull toward the world center per unit of
	// distance. Small on purpose; it only needs to beat slow drift.
	DefaultGravity = 0.03

	// DefaultDamping is the per-tick velocity retention factor.
	DefaultDamping = 0.85

	// DefaultTimeStep is the integration step dt.
	DefaultTimeStep = 0.5

	// DefaultTemperature is the initial temperature multiplier.
	DefaultTemperature = 1.0

	// DefaultCoolingRate is the per-tick temperature decay factor. The
	// decay horizon (about 200 ticks at 0.995) must comfortably exceed the
	// travel time of far-out nodes, or the system freezes before settling.
	DefaultCoolingRate = 0.995

	// TempFloor is the lower bound on temperature. Cooling never reaches
	// zero, so late ticks can still relax residual stress.
	TempFloor = 0.01

	// DefaultMinMovement is the total kinetic energy below which the system
	// counts as converged.
	DefaultMinMovement = 0.05

	// DefaultMaxIterations caps a solve regardless of convergence.
	DefaultMaxIterations = 500

	// DefaultTheta is the Barnes-Hut accuracy knob. Useful values live in
	// 0.5 (accurate) to 0.8 (fast).
	DefaultTheta = 0.8

	// DefaultMaxVelocity bounds per-tick node speed in world units.
	DefaultMaxVelocity = 50.0

	// DefaultWorldSize is the edge length of the default square world.
	DefaultWorldSize = 4000.0

	// DefaultBoundsMargin is the distance from the world edge at which
	// containment starts pushing inward.
	DefaultBoundsMargin = 50.0

	// DefaultContainment scales the inward containment push per unit of
	// margin penetration.
	DefaultContainment = 0.5

	// minSeparation is the distance floor for force computation. Pairs
	// closer than this are pushed apart along a deterministic jitter
	// direction instead of dividing by a vanishing distance.
	minSeparation = 0.1
)

// Config holds every solver knob. The zero value is not usable directly;
// call [Config.ValidateAndSetDefaults] (or start from [DefaultConfig]) so
// unset fields receive documented defaults.
//
// Config supports JSON and TOML serialization for API requests and config
// files.
type Config struct {
	Repulsion     float64 `json:"repulsion,omitempty" toml:"repulsion"`
	SpringLength  float64 `json:"spring_length,omitempty" toml:"spring_length"`
	SpringCoeff   float64 `json:"spring_coefficient,omitempty" toml:"spring_coefficient"`
	Gravity       float64 `json:"gravity,omitempty" toml:"gravity"`
	Damping       float64 `json:"damping,omitempty" toml:"damping"`
	TimeStep      float64 `json:"time_step,omitempty" toml:"time_step"`
	Temperature   float64 `json:"temperature,omitempty" toml:"temperature"`
	CoolingRate   float64 `json:"cooling_rate,omitempty" toml:"cooling_rate"`
	MinMovement   float64 `json:"min_movement,omitempty" toml:"min_movement"`
	MaxIterations int     `json:"max_iterations,omitempty" toml:"max_iterations"`
	Theta         float64 `json:"theta,omitempty" toml:"theta"`
	MaxVelocity   float64 `json:"max_velocity,omitempty" toml:"max_velocity"`

	// Bounds is the world rectangle positions are clamped to. Empty means
	// a DefaultWorldSize square centered on the origin.
	Bounds geom.Rect `json:"bounds,omitempty" toml:"bounds"`

	// BoundsMargin is the containment onset distance from the world edge.
	BoundsMargin float64 `json:"bounds_margin,omitempty" toml:"bounds_margin"`

	// Containment scales the inward push inside the margin.
	Containment float64 `json:"containment,omitempty" toml:"containment"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-" toml:"-"`
}

// DefaultConfig returns a validated config with every field at its default.
func DefaultConfig() Config {
	cfg := Config{}
	// Defaults cannot fail validation.
	_ = cfg.ValidateAndSetDefaults()
	return cfg
}

// ValidateAndSetDefaults checks field ranges and applies defaults for unset
// (zero) fields. Returns a descriptive error for values the solver cannot
// run with: negative repulsion, non-positive time step, cooling outside
// (0,1], theta outside [0,1), and similar.
//
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (c *Config) ValidateAndSetDefaults() error {
	if c.validated {
		return nil
	}

	if c.Repulsion == 0 {
		c.Repulsion = DefaultRepulsion
	}
	if c.SpringLength == 0 {
		c.SpringLength = DefaultSpringLength
	}
	if c.SpringCoeff == 0 {
		c.SpringCoeff = DefaultSpringCoeff
	}
	if c.Gravity == 0 {
		c.Gravity = DefaultGravity
	}
	if c.Damping == 0 {
		c.Damping = DefaultDamping
	}
	if c.TimeStep == 0 {
		c.TimeStep = DefaultTimeStep
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.CoolingRate == 0 {
		c.CoolingRate = DefaultCoolingRate
	}
	if c.MinMovement == 0 {
		c.MinMovement = DefaultMinMovement
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Theta == 0 {
		c.Theta = DefaultTheta
	}
	if c.MaxVelocity == 0 {
		c.MaxVelocity = DefaultMaxVelocity
	}
	if c.Bounds.Empty() {
		c.Bounds = geom.Rect{
			X: -DefaultWorldSize / 2, Y: -DefaultWorldSize / 2,
			W: DefaultWorldSize, H: DefaultWorldSize,
		}
	}
	if c.BoundsMargin == 0 {
		c.BoundsMargin = DefaultBoundsMargin
	}
	if c.Containment == 0 {
		c.Containment = DefaultContainment
	}

	if c.Repulsion < 0 {
		return fmt.Errorf("invalid repulsion: %v (must be positive)", c.Repulsion)
	}
	if c.SpringLength < 0 {
		return fmt.Errorf("invalid spring_length: %v (must be positive)", c.SpringLength)
	}
	if c.SpringCoeff < 0 {
		return fmt.Errorf("invalid spring_coefficient: %v (must be positive)", c.SpringCoeff)
	}
	if c.Gravity < 0 {
		return fmt.Errorf("invalid gravity: %v (must not be negative)", c.Gravity)
	}
	if c.Damping <= 0 || c.Damping > 1 {
		return fmt.Errorf("invalid damping: %v (must be in (0,1])", c.Damping)
	}
	if c.TimeStep <= 0 {
		return fmt.Errorf("invalid time_step: %v (must be positive)", c.TimeStep)
	}
	if c.Temperature <= 0 {
		return fmt.Errorf("invalid temperature: %v (must be positive)", c.Temperature)
	}
	if c.CoolingRate <= 0 || c.CoolingRate > 1 {
		return fmt.Errorf("invalid cooling_rate: %v (must be in (0,1])", c.CoolingRate)
	}
	if c.MinMovement < 0 {
		return fmt.Errorf("invalid min_movement: %v (must not be negative)", c.MinMovement)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("invalid max_iterations: %d (must be at least 1)", c.MaxIterations)
	}
	if c.Theta < 0 || c.Theta >= 1 {
		return fmt.Errorf("invalid theta: %v (must be in [0,1))", c.Theta)
	}
	if c.MaxVelocity <= 0 {
		return fmt.Errorf("invalid max_velocity: %v (must be positive)", c.MaxVelocity)
	}
	if c.BoundsMargin < 0 {
		return fmt.Errorf("invalid bounds_margin: %v (must not be negative)", c.BoundsMargin)
	}
	if c.Containment < 0 {
		return fmt.Errorf("invalid containment: %v (must not be negative)", c.Containment)
	}

	c.validated = true
	return nil
}

// maxForce returns the per-node force cap derived from the velocity bound:
// a single tick of the capped force cannot exceed the velocity limit.
func (c *Config) maxForce() float64 {
	return c.MaxVelocity / c.TimeStep
}

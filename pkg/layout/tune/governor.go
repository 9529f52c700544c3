package tune

import (
	"fmt"
	"time"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// MaxLevel is the highest optimization level the governor reaches.
	MaxLevel = 5

	// DefaultTargetFPS sets the frame budget the thresholds derive from.
	DefaultTargetFPS = 30.0

	// DefaultCooldown is the minimum time between level changes.
	DefaultCooldown = 500 * time.Millisecond

	// criticalFactor and warningFactor place the raise and relax
	// thresholds around the frame budget. The gap between them is the
	// hysteresis band that keeps the level stable at steady frame times.
	criticalFactor = 1.5
	warningFactor  = 0.75
)

// GovernorOptions configures a [Governor]. The zero value means "use
// defaults" for every field.
type GovernorOptions struct {
	// TargetFPS is the frame rate the renderer aims for; the critical
	// and warning thresholds derive from its frame budget.
	TargetFPS float64 `json:"target_fps,omitempty" toml:"target_fps"`

	// Cooldown is the minimum interval between level changes.
	Cooldown time.Duration `json:"cooldown,omitempty" toml:"cooldown"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults applies defaults for zero values and rejects
// invalid settings. This method is idempotent.
func (o *GovernorOptions) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.TargetFPS == 0 {
		o.TargetFPS = DefaultTargetFPS
	}
	if o.Cooldown == 0 {
		o.Cooldown = DefaultCooldown
	}
	if o.TargetFPS < 0 {
		return fmt.Errorf("invalid target_fps: %v (must be positive)", o.TargetFPS)
	}
	if o.Cooldown < 0 {
		return fmt.Errorf("invalid cooldown: %v (must not be negative)", o.Cooldown)
	}
	o.validated = true
	return nil
}

// =============================================================================
// Governor
// =============================================================================

// Governor tracks measured frame times and maintains an optimization
// level in [0, MaxLevel]. Frame times above the critical threshold raise
// the level; frame times below the warning threshold lower it. A change
// starts the cooldown clock, and no further change happens until it has
// run out, so a single slow frame cannot flip the level back and forth.
//
// The zero value is not usable - use NewGovernor. A Governor is not safe
// for concurrent use.
type Governor struct {
	level    int
	critical time.Duration
	warning  time.Duration
	cooldown time.Duration
	last     time.Time

	now func() time.Time // swapped in tests
}

// NewGovernor creates a governor at level 0.
func NewGovernor(opts GovernorOptions) (*Governor, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	budget := time.Duration(float64(time.Second) / opts.TargetFPS)
	return &Governor{
		critical: time.Duration(float64(budget) * criticalFactor),
		warning:  time.Duration(float64(budget) * warningFactor),
		cooldown: opts.Cooldown,
		now:      time.Now,
	}, nil
}

// Level returns the current optimization level.
func (g *Governor) Level() int { return g.level }

// Critical returns the frame-time threshold above which the level rises.
func (g *Governor) Critical() time.Duration { return g.critical }

// Warning returns the frame-time threshold below which the level falls.
func (g *Governor) Warning() time.Duration { return g.warning }

// Observe records one measured frame time and reports whether the level
// changed. Observations inside the cooldown window never change the
// level.
func (g *Governor) Observe(frameTime time.Duration) bool {
	now := g.now()
	if !g.last.IsZero() && now.Sub(g.last) < g.cooldown {
		return false
	}
	switch {
	case frameTime > g.critical && g.level < MaxLevel:
		g.level++
	case frameTime < g.warning && g.level > 0:
		g.level--
	default:
		return false
	}
	g.last = now
	return true
}

// TierBias is how many detail tiers the current level pushes the
// classifier toward less detail: one tier per two levels.
func (g *Governor) TierBias() int { return g.level / 2 }

// BatchSize scales a nominal per-frame work batch down by the current
// level, halving per step and never returning less than one.
func (g *Governor) BatchSize(base int) int {
	if base < 1 {
		return 1
	}
	scaled := base >> uint(g.level)
	if scaled < 1 {
		return 1
	}
	return scaled
}

package tune

import (
	"math"

	"github.com/jwkaltz/gravitas/pkg/layout"
)

const (
	// repulsionBase scales the log-of-size repulsion curve. A 100-node
	// graph lands near the layout default.
	repulsionBase = 500.0

	// springStretch bounds how far the rest length grows on sparse
	// graphs: up to double the default as density approaches zero.
	springStretch = 1.0
)

// Suggest maps graph shape to layout parameters. It is pure and
// idempotent: the same counts always produce the same configuration. Only
// the shape-dependent fields are set; everything else is left zero for
// [layout.Config.ValidateAndSetDefaults] to fill, and the suggested values
// themselves survive validation.
//
// Repulsion grows with log(n+1) so large graphs spread without blowing up
// small ones. The spring rest length stretches as edge density (edges per
// node) falls, giving sparse graphs room. Damping and the time step move
// down in fixed node-count bands, trading convergence speed for stability
// as the system grows.
func Suggest(nodeCount, edgeCount int) layout.Config {
	if nodeCount < 0 {
		nodeCount = 0
	}
	if edgeCount < 0 {
		edgeCount = 0
	}

	cfg := layout.Config{
		Repulsion: repulsionBase * math.Log(float64(nodeCount)+1),
	}
	if cfg.Repulsion == 0 {
		cfg.Repulsion = layout.DefaultRepulsion
	}

	density := 0.0
	if nodeCount > 0 {
		density = float64(edgeCount) / float64(nodeCount)
	}
	cfg.SpringLength = layout.DefaultSpringLength * (1 + springStretch/(1+density))

	switch {
	case nodeCount > 200:
		cfg.Damping = 0.75
		cfg.TimeStep = 0.3
	case nodeCount > 100:
		cfg.Damping = 0.8
		cfg.TimeStep = 0.4
	case nodeCount > 50:
		cfg.Damping = layout.DefaultDamping
		cfg.TimeStep = layout.DefaultTimeStep
	default:
		cfg.Damping = 0.9
		cfg.TimeStep = 0.6
	}
	return cfg
}

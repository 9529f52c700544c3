package lod

import (
	"fmt"
	"math"
)

// =============================================================================
// Tier
// =============================================================================

// Tier is one detail level. Level 0 is the highest detail; larger levels
// trade fidelity for rendering speed.
type Tier struct {
	// Level orders tiers; 0 is the highest detail.
	Level int `json:"level" toml:"level"`

	// Name is the wire spelling used in frames and logs.
	Name string `json:"name" toml:"name"`

	// MinZoom and MaxZoom bound the zoom range [MinZoom, MaxZoom) this
	// tier covers. Ranges tile contiguously across a TierSet, highest
	// zoom first.
	MinZoom float64 `json:"min_zoom" toml:"min_zoom"`
	MaxZoom float64 `json:"max_zoom" toml:"max_zoom"`

	// MaxDensity is the highest node density (nodes per square world
	// unit of viewport area) the tier tolerates before classification
	// falls through to a less detailed tier.
	MaxDensity float64 `json:"max_density" toml:"max_density"`

	// MaxNodes and MaxEdges cap how many nodes and edges a frame at
	// this tier renders.
	MaxNodes int `json:"max_nodes" toml:"max_nodes"`
	MaxEdges int `json:"max_edges" toml:"max_edges"`

	// ImportanceCutoff drops nodes whose normalized importance falls
	// below it, in [0, 1).
	ImportanceCutoff float64 `json:"importance_cutoff" toml:"importance_cutoff"`

	// EdgeSampleRate is the fraction of edges rendered at this tier, in
	// [0, 1]. Per-edge inclusion is stable across frames, see
	// [ShouldRenderEdge].
	EdgeSampleRate float64 `json:"edge_sample_rate" toml:"edge_sample_rate"`

	// ShowLabels reports whether node labels render at this tier.
	ShowLabels bool `json:"show_labels" toml:"show_labels"`

	// Bundle reports whether edges are bundled at this tier.
	Bundle bool `json:"bundle" toml:"bundle"`

	// Boundaries reports whether cluster boundaries are drawn at this
	// tier.
	Boundaries bool `json:"boundaries" toml:"boundaries"`
}

// =============================================================================
// TierSet
// =============================================================================

const (
	// DefaultExtremeZoomOut is the zoom below which classification
	// short-circuits to the lowest tier.
	DefaultExtremeZoomOut = 0.1

	// DefaultExtremeZoomIn is the zoom at or above which small graphs
	// short-circuit to the highest tier.
	DefaultExtremeZoomIn = 3.0

	// DefaultSmallNodeCount bounds "small graph" for the zoom-in fast
	// path.
	DefaultSmallNodeCount = 200

	// DefaultHugeNodeCount is the node count above which classification
	// short-circuits to the lowest tier regardless of zoom.
	DefaultHugeNodeCount = 5000
)

// TierSet is a validated, totally ordered set of detail tiers plus the
// fast-path thresholds around them. The zero value classifies with the
// default tiers after ValidateAndSetDefaults.
type TierSet struct {
	// Tiers is ordered by Level ascending; zoom ranges tile downward
	// from the first tier.
	Tiers []Tier `json:"tiers" toml:"tiers"`

	ExtremeZoomOut float64 `json:"extreme_zoom_out,omitempty" toml:"extreme_zoom_out"`
	ExtremeZoomIn  float64 `json:"extreme_zoom_in,omitempty" toml:"extreme_zoom_in"`
	SmallNodeCount int     `json:"small_node_count,omitempty" toml:"small_node_count"`
	HugeNodeCount  int     `json:"huge_node_count,omitempty" toml:"huge_node_count"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// DefaultTierSet returns the built-in four-tier set: high, medium, low,
// minimal.
func DefaultTierSet() TierSet {
	return TierSet{
		Tiers: []Tier{
			{
				Level: 0, Name: "high",
				MinZoom: 1.5, MaxZoom: math.Inf(1),
				MaxDensity: 0.001,
				MaxNodes:   2000, MaxEdges: 4000,
				ImportanceCutoff: 0, EdgeSampleRate: 1,
				ShowLabels: true,
			},
			{
				Level: 1, Name: "medium",
				MinZoom: 0.75, MaxZoom: 1.5,
				MaxDensity: 0.005,
				MaxNodes:   800, MaxEdges: 1500,
				ImportanceCutoff: 0.1, EdgeSampleRate: 0.7,
				ShowLabels: true,
			},
			{
				Level: 2, Name: "low",
				MinZoom: 0.3, MaxZoom: 0.75,
				MaxDensity: 0.02,
				MaxNodes:   300, MaxEdges: 500,
				ImportanceCutoff: 0.3, EdgeSampleRate: 0.4,
				Bundle: true, Boundaries: true,
			},
			{
				Level: 3, Name: "minimal",
				MinZoom: 0, MaxZoom: 0.3,
				MaxDensity: math.Inf(1),
				MaxNodes:   100, MaxEdges: 150,
				ImportanceCutoff: 0.6, EdgeSampleRate: 0.15,
				Bundle: true, Boundaries: true,
			},
		},
	}
}

// ValidateAndSetDefaults fills defaults for zero fields and checks the
// invariants classification relies on: contiguous levels, zoom ranges
// that tile without gap or overlap, and density caps that never tighten
// as detail falls. This method is idempotent.
func (ts *TierSet) ValidateAndSetDefaults() error {
	if ts.validated {
		return nil
	}
	if len(ts.Tiers) == 0 {
		ts.Tiers = DefaultTierSet().Tiers
	}
	if ts.ExtremeZoomOut == 0 {
		ts.ExtremeZoomOut = DefaultExtremeZoomOut
	}
	if ts.ExtremeZoomIn == 0 {
		ts.ExtremeZoomIn = DefaultExtremeZoomIn
	}
	if ts.SmallNodeCount == 0 {
		ts.SmallNodeCount = DefaultSmallNodeCount
	}
	if ts.HugeNodeCount == 0 {
		ts.HugeNodeCount = DefaultHugeNodeCount
	}

	if ts.ExtremeZoomOut < 0 {
		return fmt.Errorf("invalid extreme_zoom_out: %v (must not be negative)", ts.ExtremeZoomOut)
	}
	if ts.ExtremeZoomIn <= ts.ExtremeZoomOut {
		return fmt.Errorf("invalid extreme_zoom_in: %v (must exceed extreme_zoom_out %v)",
			ts.ExtremeZoomIn, ts.ExtremeZoomOut)
	}
	if ts.SmallNodeCount < 0 {
		return fmt.Errorf("invalid small_node_count: %d (must not be negative)", ts.SmallNodeCount)
	}
	if ts.HugeNodeCount <= ts.SmallNodeCount {
		return fmt.Errorf("invalid huge_node_count: %d (must exceed small_node_count %d)",
			ts.HugeNodeCount, ts.SmallNodeCount)
	}

	for i := range ts.Tiers {
		t := &ts.Tiers[i]
		if t.Level != i {
			return fmt.Errorf("invalid tier levels: tier %d has level %d (levels must run 0..%d in order)",
				i, t.Level, len(ts.Tiers)-1)
		}
		if t.MaxZoom <= t.MinZoom {
			return fmt.Errorf("tier %q: max_zoom %v must exceed min_zoom %v", t.Name, t.MaxZoom, t.MinZoom)
		}
		if t.MinZoom < 0 {
			return fmt.Errorf("tier %q: min_zoom %v must not be negative", t.Name, t.MinZoom)
		}
		if i > 0 && t.MaxZoom != ts.Tiers[i-1].MinZoom {
			return fmt.Errorf("tier %q: zoom range [%v, %v) does not touch tier %q at %v (ranges must tile)",
				t.Name, t.MinZoom, t.MaxZoom, ts.Tiers[i-1].Name, ts.Tiers[i-1].MinZoom)
		}
		if !(t.MaxDensity > 0) {
			return fmt.Errorf("tier %q: max_density %v must be positive", t.Name, t.MaxDensity)
		}
		if i > 0 && t.MaxDensity < ts.Tiers[i-1].MaxDensity {
			return fmt.Errorf("tier %q: max_density %v tighter than tier %q (%v); caps must not shrink as detail falls",
				t.Name, t.MaxDensity, ts.Tiers[i-1].Name, ts.Tiers[i-1].MaxDensity)
		}
		if t.MaxNodes < 1 || t.MaxEdges < 1 {
			return fmt.Errorf("tier %q: max_nodes and max_edges must be positive", t.Name)
		}
		if t.ImportanceCutoff < 0 || t.ImportanceCutoff >= 1 {
			return fmt.Errorf("tier %q: importance_cutoff %v must be in [0, 1)", t.Name, t.ImportanceCutoff)
		}
		if t.EdgeSampleRate < 0 || t.EdgeSampleRate > 1 {
			return fmt.Errorf("tier %q: edge_sample_rate %v must be in [0, 1]", t.Name, t.EdgeSampleRate)
		}
	}
	last := ts.Tiers[len(ts.Tiers)-1]
	if last.MinZoom != 0 {
		return fmt.Errorf("tier %q: the least detailed tier must reach min_zoom 0, got %v", last.Name, last.MinZoom)
	}
	ts.validated = true
	return nil
}

// Highest returns the most detailed tier.
func (ts *TierSet) Highest() Tier { return ts.Tiers[0] }

// Lowest returns the least detailed tier.
func (ts *TierSet) Lowest() Tier { return ts.Tiers[len(ts.Tiers)-1] }

// ByLevel returns the tier at the given level, clamped into range.
func (ts *TierSet) ByLevel(level int) Tier {
	if level < 0 {
		level = 0
	}
	if level >= len(ts.Tiers) {
		level = len(ts.Tiers) - 1
	}
	return ts.Tiers[level]
}

// Biased returns the tier bias levels less detailed than t, clamped to
// the least detailed tier. The adaptive governor feeds its tier bias
// through here.
func (ts *TierSet) Biased(t Tier, bias int) Tier {
	return ts.ByLevel(t.Level + bias)
}

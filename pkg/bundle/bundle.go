package bundle

import (
	"fmt"
	"math"
	"sort"

	"github.com/jwkaltz/gravitas/pkg/geom"
	"github.com/jwkaltz/gravitas/pkg/graph"
)

// =============================================================================
// Options
// =============================================================================

const (
	// DefaultAngleQuantum is the angular bucket width for the geometric
	// merge pass, in radians. Pi/12 groups lines within 15 degrees.
	DefaultAngleQuantum = math.Pi / 12

	// DefaultDistanceQuantum is the line-offset bucket width for the
	// geometric merge pass, in world units.
	DefaultDistanceQuantum = 32.0

	// DefaultBaseThickness is the rendered thickness of a single-edge
	// bundle.
	DefaultBaseThickness = 1.0
)

// degenerateLength is the segment length below which a bundle has no
// usable direction and skips the geometric pass.
const degenerateLength = 1e-9

// Options configures bundling. The zero value is usable after
// [Options.ValidateAndSetDefaults], which fills the documented defaults.
type Options struct {
	// AngleQuantum is the angular width of a geometric bucket, in
	// radians.
	AngleQuantum float64 `json:"angle_quantum" toml:"angle_quantum"`

	// DistanceQuantum is the line-offset width of a geometric bucket, in
	// world units.
	DistanceQuantum float64 `json:"distance_quantum" toml:"distance_quantum"`

	// BaseThickness is the thickness of a single-edge bundle; larger
	// bundles scale it by the square root of their member count.
	BaseThickness float64 `json:"base_thickness" toml:"base_thickness"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults fills defaults for zero fields and validates the
// rest. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.AngleQuantum == 0 {
		o.AngleQuantum = DefaultAngleQuantum
	}
	if o.DistanceQuantum == 0 {
		o.DistanceQuantum = DefaultDistanceQuantum
	}
	if o.BaseThickness == 0 {
		o.BaseThickness = DefaultBaseThickness
	}

	if o.AngleQuantum < 0 || o.AngleQuantum > math.Pi {
		return fmt.Errorf("invalid angle_quantum: %v (must be in (0, pi])", o.AngleQuantum)
	}
	if o.DistanceQuantum < 0 {
		return fmt.Errorf("invalid distance_quantum: %v (must be positive)", o.DistanceQuantum)
	}
	if o.BaseThickness < 0 {
		return fmt.Errorf("invalid base_thickness: %v (must be positive)", o.BaseThickness)
	}
	o.validated = true
	return nil
}

// =============================================================================
// Bundles
// =============================================================================

// Bundle is an aggregate of one or more edges drawn as a single line.
//
// Source and Target name the representative pair: the shared endpoints for
// a parallel merge, the heaviest member pair for a geometric merge. Source
// always sorts before Target.
type Bundle struct {
	Source    string  `json:"source"`
	Target    string  `json:"target"`
	Weight    float64 `json:"weight"`
	Count     int     `json:"count"`
	Thickness float64 `json:"thickness"`
}

// pair is an unordered endpoint pair with a <= b.
type pair struct {
	a, b string
}

// geoKey identifies one quantized (angle, offset) bucket.
type geoKey struct {
	angle int
	dist  int
}

// Merge bundles the edges of g: parallel edges collapse by endpoint pair,
// then near-parallel pair bundles collapse by quantized line geometry.
// Output is sorted by (Source, Target) and deterministic for a given graph.
func Merge(g *graph.Graph, opts Options) ([]Bundle, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	byPair := make(map[pair]*Bundle)
	for _, e := range g.Edges() {
		a, b := e.Source, e.Target
		if b < a {
			a, b = b, a
		}
		p := pair{a, b}
		if bd := byPair[p]; bd != nil {
			bd.Weight += e.Weight
			bd.Count++
			continue
		}
		byPair[p] = &Bundle{Source: a, Target: b, Weight: e.Weight, Count: 1}
	}
	if len(byPair) == 0 {
		return nil, nil
	}

	pairs := make([]pair, 0, len(byPair))
	for p := range byPair {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})

	// Geometric pass. Buckets collect pair bundles in sorted order, so
	// each merge is deterministic regardless of map iteration.
	out := make([]Bundle, 0, len(pairs))
	buckets := make(map[geoKey][]*Bundle)
	for _, p := range pairs {
		bd := byPair[p]
		from := g.Node(bd.Source).State.Pos
		seg := g.Node(bd.Target).State.Pos.Sub(from)
		if seg.Len() < degenerateLength {
			out = append(out, *bd)
			continue
		}
		k := quantize(from, seg, opts.AngleQuantum, opts.DistanceQuantum)
		buckets[k] = append(buckets[k], bd)
	}

	for _, members := range buckets {
		if len(members) == 1 {
			out = append(out, *members[0])
			continue
		}
		merged := Bundle{Source: members[0].Source, Target: members[0].Target}
		best := members[0].Weight
		for _, m := range members {
			merged.Weight += m.Weight
			merged.Count += m.Count
			if m.Weight > best {
				best = m.Weight
				merged.Source, merged.Target = m.Source, m.Target
			}
		}
		out = append(out, merged)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	for i := range out {
		out[i].Thickness = opts.BaseThickness * math.Sqrt(float64(out[i].Count))
	}
	return out, nil
}

// quantize maps a segment to its (angle, offset) bucket. The angle is the
// line direction folded into [0, pi); the offset is the signed distance of
// the carrying line from the origin, so parallel lines on opposite sides of
// the origin land in different buckets.
func quantize(origin, seg geom.Vec, angleQ, distQ float64) geoKey {
	theta := math.Mod(seg.Angle()+math.Pi, math.Pi)
	rho := origin.Y*math.Cos(theta) - origin.X*math.Sin(theta)
	return geoKey{
		angle: int(theta / angleQ),
		dist:  int(math.Floor(rho / distQ)),
	}
}

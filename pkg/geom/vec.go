// Package geom provides the small set of 2D primitives shared by the layout
// engine: vectors for positions, velocities and forces, and axis-aligned
// rectangles for world bounds and viewports. All coordinates are float64
// world units with Y increasing downward.
package geom

import "math"

// Vec is a 2D vector. It doubles as a point, a velocity and a force
// depending on context. The zero value is the origin and is valid.
type Vec struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns v + w.
func (v Vec) Add(w Vec) Vec { return Vec{v.X + w.X, v.Y + w.Y} }

// Sub returns v - w.
func (v Vec) Sub(w Vec) Vec { return Vec{v.X - w.X, v.Y - w.Y} }

// Scale returns v scaled by s.
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }

// Dot returns the dot product of v and w.
func (v Vec) Dot(w Vec) float64 { return v.X*w.X + v.Y*w.Y }

// Len returns the Euclidean length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// LenSq returns the squared length of v. It avoids the square root and is
// only appropriate where both sides of a comparison are squared.
func (v Vec) LenSq() float64 { return v.X*v.X + v.Y*v.Y }

// Dist returns the Euclidean distance between v and w.
func (v Vec) Dist(w Vec) float64 { return v.Sub(w).Len() }

// DistSq returns the squared distance between v and w.
func (v Vec) DistSq(w Vec) float64 { return v.Sub(w).LenSq() }

// Normalize returns the unit vector in the direction of v.
// The zero vector is returned unchanged so callers never receive NaN.
func (v Vec) Normalize() Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{v.X / l, v.Y / l}
}

// ClampLen returns v shortened to at most max. Vectors already within the
// limit are returned unchanged. A non-positive max returns the zero vector.
func (v Vec) ClampLen(max float64) Vec {
	if max <= 0 {
		return Vec{}
	}
	l := v.Len()
	if l <= max {
		return v
	}
	return v.Scale(max / l)
}

// Angle returns the angle of v in radians in (-pi, pi], measured from the
// positive X axis.
func (v Vec) Angle() float64 { return math.Atan2(v.Y, v.X) }

// Lerp returns the linear interpolation between v and w at parameter t,
// where t=0 yields v and t=1 yields w. t is not clamped.
func (v Vec) Lerp(w Vec, t float64) Vec {
	return Vec{v.X + (w.X-v.X)*t, v.Y + (w.Y-v.Y)*t}
}

// IsFinite reports whether both components are finite (neither NaN nor Inf).
func (v Vec) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

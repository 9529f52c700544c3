package geom

import "math"

// Rect is an axis-aligned rectangle described by its top-left corner and
// extent. Rectangles with non-positive width or height are considered empty.
type Rect struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	W float64 `json:"width" bson:"width"`
	H float64 `json:"height" bson:"height"`
}

// NewRect constructs a rectangle from two opposite corners, normalizing the
// orientation so width and height are non-negative.
func NewRect(x0, y0, x1, y1 float64) Rect {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Area returns the rectangle's area, or 0 for empty rectangles.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.W * r.H
}

// Center returns the rectangle's midpoint.
func (r Rect) Center() Vec { return Vec{r.X + r.W/2, r.Y + r.H/2} }

// MaxX returns the right edge coordinate.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge coordinate.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Contains reports whether p lies inside r. Points on the minimum edges are
// inside, points on the maximum edges are outside, so adjacent rectangles
// partition the plane without double-counting.
func (r Rect) Contains(p Vec) bool {
	return p.X >= r.X && p.X < r.MaxX() && p.Y >= r.Y && p.Y < r.MaxY()
}

// Intersects reports whether r and o share any area.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.MaxX() && o.X < r.MaxX() && r.Y < o.MaxY() && o.Y < r.MaxY()
}

// Expand returns r grown by margin on every side. A negative margin shrinks
// the rectangle and may produce an empty one.
func (r Rect) Expand(margin float64) Rect {
	return Rect{X: r.X - margin, Y: r.Y - margin, W: r.W + 2*margin, H: r.H + 2*margin}
}

// Union returns the smallest rectangle covering both r and o.
// An empty rectangle is the identity element.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return NewRect(
		math.Min(r.X, o.X), math.Min(r.Y, o.Y),
		math.Max(r.MaxX(), o.MaxX()), math.Max(r.MaxY(), o.MaxY()),
	)
}

// Square returns the smallest square sharing r's center that covers r.
// Quadtrees subdivide squares so their quadrants stay similar in both axes.
func (r Rect) Square() Rect {
	side := math.Max(r.W, r.H)
	c := r.Center()
	return Rect{X: c.X - side/2, Y: c.Y - side/2, W: side, H: side}
}

// ClampPoint returns p moved to the nearest point inside r.
func (r Rect) ClampPoint(p Vec) Vec {
	return Vec{
		X: math.Min(math.Max(p.X, r.X), r.MaxX()),
		Y: math.Min(math.Max(p.Y, r.Y), r.MaxY()),
	}
}

// BoundsOf returns the tight bounding rectangle of the given points expanded
// by padding on every side. With no points it returns a unit square at the
// origin so downstream spatial structures never divide by zero.
func BoundsOf(points []Vec, padding float64) Rect {
	if len(points) == 0 {
		return Rect{X: -0.5 - padding, Y: -0.5 - padding, W: 1 + 2*padding, H: 1 + 2*padding}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	r := NewRect(minX, minY, maxX, maxY).Expand(padding)
	// Degenerate spans (single point, collinear points) still need area.
	if r.W <= 0 {
		r.X -= 0.5
		r.W += 1
	}
	if r.H <= 0 {
		r.Y -= 0.5
		r.H += 1
	}
	return r
}

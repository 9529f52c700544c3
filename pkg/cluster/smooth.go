package cluster

import "github.com/jwkaltz/gravitas/pkg/geom"

// CatmullRom closes the given control points into a smooth curve, emitting
// segments interpolated points per polygon edge. The curve passes through
// every control point; segments of 1 keeps the straight hull edges. Inputs
// with fewer than three points are returned unchanged.
func CatmullRom(points []geom.Vec, segments int) Polygon {
	n := len(points)
	if n < 3 || segments < 1 {
		return Polygon(points)
	}
	out := make(Polygon, 0, n*segments)
	for i := 0; i < n; i++ {
		p0 := points[(i-1+n)%n]
		p1 := points[i]
		p2 := points[(i+1)%n]
		p3 := points[(i+2)%n]
		for s := 0; s < segments; s++ {
			out = append(out, catmullPoint(p0, p1, p2, p3, float64(s)/float64(segments)))
		}
	}
	return out
}

// catmullPoint evaluates the uniform Catmull-Rom basis at t in [0, 1),
// interpolating between p1 and p2 with tangents from the neighboring
// chords.
func catmullPoint(p0, p1, p2, p3 geom.Vec, t float64) geom.Vec {
	t2 := t * t
	t3 := t2 * t
	return p1.Scale(2).
		Add(p2.Sub(p0).Scale(t)).
		Add(p0.Scale(2).Sub(p1.Scale(5)).Add(p2.Scale(4)).Sub(p3).Scale(t2)).
		Add(p1.Scale(3).Sub(p0).Sub(p2.Scale(3)).Add(p3).Scale(t3)).
		Scale(0.5)
}

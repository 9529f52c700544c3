package cluster

import (
	"math"
	"slices"
	"sort"

	"github.com/jwkaltz/gravitas/pkg/geom"
)

// Hull computes the convex hull of the given points with a Graham scan.
//
// # Algorithm
//
//  1. Pick the pivot: minimum Y, ties broken by minimum X
//  2. Sort the remaining points by polar angle around the pivot, equal
//     angles by distance with the nearest first
//  3. Sweep in sorted order, popping any point that fails to make a
//     strict left turn
//
// Collinear points are popped during the sweep, so the result carries no
// redundant vertices. Inputs with fewer than three points are returned as a
// copy, and a fully collinear input degenerates to its two extreme points.
func Hull(points []geom.Vec) []geom.Vec {
	if len(points) < 3 {
		return slices.Clone(points)
	}
	pts := slices.Clone(points)

	pivot := 0
	for i, p := range pts {
		if p.Y < pts[pivot].Y || (p.Y == pts[pivot].Y && p.X < pts[pivot].X) {
			pivot = i
		}
	}
	pts[0], pts[pivot] = pts[pivot], pts[0]

	p0 := pts[0]
	rest := pts[1:]
	sort.Slice(rest, func(i, j int) bool {
		ai, aj := rest[i].Sub(p0).Angle(), rest[j].Sub(p0).Angle()
		if ai != aj {
			return ai < aj
		}
		return rest[i].DistSq(p0) < rest[j].DistSq(p0)
	})

	hull := make([]geom.Vec, 0, len(pts))
	for _, p := range pts {
		for len(hull) >= 2 {
			a, b := hull[len(hull)-2], hull[len(hull)-1]
			if cross(b.Sub(a), p.Sub(a)) > 0 {
				break
			}
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull
}

// SimplifyAngles drops polygon points whose turning angle falls below
// minAngle, flattening kinks too shallow to see. The polygon is treated as
// closed. Inputs that are already triangles, a non-positive minAngle, or a
// result that would fall below three points all return the input unchanged.
func SimplifyAngles(poly []geom.Vec, minAngle float64) []geom.Vec {
	n := len(poly)
	if n < 4 || minAngle <= 0 {
		return poly
	}
	out := make([]geom.Vec, 0, n)
	for i := 0; i < n; i++ {
		in := poly[i].Sub(poly[(i-1+n)%n])
		next := poly[(i+1)%n].Sub(poly[i])
		turn := math.Atan2(cross(in, next), in.Dot(next))
		if math.Abs(turn) >= minAngle {
			out = append(out, poly[i])
		}
	}
	if len(out) < 3 {
		return poly
	}
	return out
}

// cross returns the z component of the 2D cross product a x b. A positive
// value means b points to the left of a.
func cross(a, b geom.Vec) float64 {
	return a.X*b.Y - a.Y*b.X
}

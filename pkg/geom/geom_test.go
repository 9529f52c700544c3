package geom

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool { return math.Abs(a-b) < eps }

func TestVec_Arithmetic(t *testing.T) {
	v := Vec{3, 4}
	w := Vec{1, -2}

	if got := v.Add(w); got != (Vec{4, 2}) {
		t.Errorf("Add() = %v, want {4 2}", got)
	}
	if got := v.Sub(w); got != (Vec{2, 6}) {
		t.Errorf("Sub() = %v, want {2 6}", got)
	}
	if got := v.Scale(2); got != (Vec{6, 8}) {
		t.Errorf("Scale(2) = %v, want {6 8}", got)
	}
	if got := v.Dot(w); got != -5 {
		t.Errorf("Dot() = %v, want -5", got)
	}
}

func TestVec_Len(t *testing.T) {
	v := Vec{3, 4}
	if got := v.Len(); !almostEqual(got, 5) {
		t.Errorf("Len() = %v, want 5", got)
	}
	if got := v.LenSq(); !almostEqual(got, 25) {
		t.Errorf("LenSq() = %v, want 25", got)
	}
	if got := v.Dist(Vec{0, 0}); !almostEqual(got, 5) {
		t.Errorf("Dist(origin) = %v, want 5", got)
	}
}

func TestVec_NormalizeZero(t *testing.T) {
	got := Vec{}.Normalize()
	if got != (Vec{}) {
		t.Errorf("Normalize() of zero vector = %v, want zero vector", got)
	}
}

func TestVec_ClampLen(t *testing.T) {
	v := Vec{30, 40}
	clamped := v.ClampLen(5)
	if !almostEqual(clamped.Len(), 5) {
		t.Errorf("ClampLen(5).Len() = %v, want 5", clamped.Len())
	}
	// Direction must be preserved.
	if !almostEqual(clamped.X/clamped.Y, v.X/v.Y) {
		t.Errorf("ClampLen changed direction: %v", clamped)
	}
	short := Vec{1, 0}
	if got := short.ClampLen(5); got != short {
		t.Errorf("ClampLen(5) on short vector = %v, want unchanged", got)
	}
	if got := v.ClampLen(0); got != (Vec{}) {
		t.Errorf("ClampLen(0) = %v, want zero vector", got)
	}
}

func TestVec_IsFinite(t *testing.T) {
	if !(Vec{1, 2}).IsFinite() {
		t.Error("IsFinite() = false for finite vector")
	}
	if (Vec{math.NaN(), 0}).IsFinite() {
		t.Error("IsFinite() = true for NaN component")
	}
	if (Vec{0, math.Inf(1)}).IsFinite() {
		t.Error("IsFinite() = true for Inf component")
	}
}

func TestRect_ContainsEdges(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 10, H: 10}

	if !r.Contains(Vec{0, 0}) {
		t.Error("Contains(min corner) = false, want true")
	}
	if r.Contains(Vec{10, 5}) {
		t.Error("Contains(max edge) = true, want false")
	}
	if !r.Contains(Vec{5, 5}) {
		t.Error("Contains(center) = false, want true")
	}
}

func TestRect_Intersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 5, Y: 5, W: 10, H: 10}
	c := Rect{X: 20, Y: 20, W: 5, H: 5}

	if !a.Intersects(b) {
		t.Error("overlapping rects: Intersects() = false, want true")
	}
	if a.Intersects(c) {
		t.Error("disjoint rects: Intersects() = true, want false")
	}
	// Touching edges share no area.
	d := Rect{X: 10, Y: 0, W: 10, H: 10}
	if a.Intersects(d) {
		t.Error("edge-touching rects: Intersects() = true, want false")
	}
}

func TestRect_Square(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 10, H: 4}
	sq := r.Square()
	if sq.W != sq.H {
		t.Errorf("Square() = %v, want equal sides", sq)
	}
	if sq.W != 10 {
		t.Errorf("Square() side = %v, want 10", sq.W)
	}
	if sq.Center() != r.Center() {
		t.Errorf("Square() center = %v, want %v", sq.Center(), r.Center())
	}
}

func TestBoundsOf_Empty(t *testing.T) {
	r := BoundsOf(nil, 0)
	if r.Empty() {
		t.Errorf("BoundsOf(nil) = %v, want non-empty fallback", r)
	}
}

func TestBoundsOf_SinglePoint(t *testing.T) {
	r := BoundsOf([]Vec{{3, 7}}, 0)
	if r.Empty() {
		t.Errorf("BoundsOf(single point) = %v, want non-empty", r)
	}
	if !r.Contains(Vec{3, 7}) {
		t.Errorf("BoundsOf(single point) does not contain the point: %v", r)
	}
}

func TestBoundsOf_Padding(t *testing.T) {
	pts := []Vec{{0, 0}, {10, 10}}
	r := BoundsOf(pts, 5)
	if r.X != -5 || r.Y != -5 || r.W != 20 || r.H != 20 {
		t.Errorf("BoundsOf with padding = %v, want {-5 -5 20 20}", r)
	}
}

package spatial

import (
	"slices"
	"testing"

	"github.com/jwkaltz/gravitas/pkg/geom"
)

func TestGrid_QueryRect(t *testing.T) {
	g := NewGrid(10)
	g.Insert("inside", geom.Vec{X: 5, Y: 5})
	g.Insert("edge-cell", geom.Vec{X: 19, Y: 5})
	g.Insert("far", geom.Vec{X: 500, Y: 500})

	got := g.QueryRect(geom.Rect{X: 0, Y: 0, W: 12, H: 12})
	want := []string{"edge-cell", "inside"}
	if !slices.Equal(got, want) {
		t.Errorf("QueryRect() = %v, want %v (cell granularity includes edge-cell)", got, want)
	}
}

func TestGrid_QueryRectEmpty(t *testing.T) {
	g := NewGrid(10)
	if got := g.QueryRect(geom.Rect{X: 0, Y: 0, W: 10, H: 10}); got != nil {
		t.Errorf("QueryRect() on empty grid = %v, want nil", got)
	}
	g.Insert("a", geom.Vec{X: 1, Y: 1})
	if got := g.QueryRect(geom.Rect{}); got != nil {
		t.Errorf("QueryRect(empty rect) = %v, want nil", got)
	}
}

func TestGrid_NegativeCoordinates(t *testing.T) {
	g := NewGrid(10)
	g.Insert("neg", geom.Vec{X: -15, Y: -15})
	g.Insert("pos", geom.Vec{X: 15, Y: 15})

	got := g.QueryRect(geom.Rect{X: -20, Y: -20, W: 10, H: 10})
	if !slices.Equal(got, []string{"neg"}) {
		t.Errorf("QueryRect(negative quadrant) = %v, want [neg]", got)
	}
}

func TestGrid_ResetKeepsNothing(t *testing.T) {
	g := NewGrid(10)
	g.Insert("a", geom.Vec{X: 1, Y: 1})
	g.Reset()

	if g.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", g.Len())
	}
	if got := g.QueryRect(geom.Rect{X: 0, Y: 0, W: 10, H: 10}); len(got) != 0 {
		t.Errorf("QueryRect() after Reset = %v, want empty", got)
	}
}

func TestGrid_SortedOutput(t *testing.T) {
	g := NewGrid(10)
	g.Insert("zeta", geom.Vec{X: 1, Y: 1})
	g.Insert("alpha", geom.Vec{X: 2, Y: 2})
	g.Insert("mid", geom.Vec{X: 15, Y: 1})

	got := g.QueryRect(geom.Rect{X: 0, Y: 0, W: 20, H: 20})
	if !slices.IsSorted(got) {
		t.Errorf("QueryRect() = %v, want sorted output", got)
	}
}

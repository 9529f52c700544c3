package spatial

import (
	"math"
	"slices"

	"github.com/jwkaltz/gravitas/pkg/geom"
)

// DefaultCellSize is the grid cell edge length used when none is given.
// Cells comparable to a few node diameters keep bucket scans short without
// exploding the cell count on spread-out layouts.
const DefaultCellSize = 128.0

// Grid is a uniform spatial hash over node positions, used by the viewport
// optimizer to cull nodes outside the visible rectangle without scanning
// the whole graph.
//
// The zero value is not usable - use NewGrid. Build and Insert must not run
// concurrently with queries.
type Grid struct {
	cell  float64
	cells map[[2]int][]string
	n     int
}

// NewGrid creates an empty grid with the given cell size. Non-positive
// sizes fall back to [DefaultCellSize].
func NewGrid(cell float64) *Grid {
	if cell <= 0 {
		cell = DefaultCellSize
	}
	return &Grid{cell: cell, cells: make(map[[2]int][]string)}
}

// Reset clears the grid for a rebuild, keeping allocated buckets.
func (g *Grid) Reset() {
	for k := range g.cells {
		g.cells[k] = g.cells[k][:0]
	}
	g.n = 0
}

// Insert adds an id at the given position.
func (g *Grid) Insert(id string, p geom.Vec) {
	k := g.cellOf(p)
	g.cells[k] = append(g.cells[k], id)
	g.n++
}

// Len returns the number of inserted ids.
func (g *Grid) Len() int { return g.n }

func (g *Grid) cellOf(p geom.Vec) [2]int {
	return [2]int{
		int(math.Floor(p.X / g.cell)),
		int(math.Floor(p.Y / g.cell)),
	}
}

// QueryRect returns the ids of all entries whose cell overlaps r, sorted
// for deterministic downstream iteration. The result may include ids just
// outside r (cell granularity); callers needing exact bounds re-check
// positions.
func (g *Grid) QueryRect(r geom.Rect) []string {
	if r.Empty() || g.n == 0 {
		return nil
	}
	x0 := int(math.Floor(r.X / g.cell))
	y0 := int(math.Floor(r.Y / g.cell))
	x1 := int(math.Floor(r.MaxX() / g.cell))
	y1 := int(math.Floor(r.MaxY() / g.cell))

	var out []string
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			out = append(out, g.cells[[2]int{cx, cy}]...)
		}
	}
	slices.Sort(out)
	return out
}

package cluster

import (
	"math"
	"reflect"
	"testing"

	"github.com/jwkaltz/gravitas/pkg/geom"
	"github.com/jwkaltz/gravitas/pkg/graph"
)

// testGraph builds a graph from id->position and edge triples.
func testGraph(t *testing.T, positions map[string]geom.Vec, edges [][2]string, weights map[[2]string]float64) *graph.Graph {
	t.Helper()
	g := graph.New()
	for id, pos := range positions {
		n := graph.Node{ID: id}
		n.State.Pos = pos
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%q) = %v", id, err)
		}
	}
	for _, e := range edges {
		w := 1.0
		if weights != nil {
			if set, ok := weights[e]; ok {
				w = set
			}
		}
		if err := g.AddEdge(graph.Edge{Source: e[0], Target: e[1], Weight: w}); err != nil {
			t.Fatalf("AddEdge(%v) = %v", e, err)
		}
	}
	return g
}

// trianglePositions is an equilateral-ish triangle centered on the origin.
func trianglePositions() map[string]geom.Vec {
	return map[string]geom.Vec{
		"a": {X: 100, Y: 0},
		"b": {X: -50, Y: 87},
		"c": {X: -50, Y: -87},
	}
}

func TestOptions_ValidateAndSetDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() = %v", err)
	}
	if o.MinClusterSize != DefaultMinClusterSize {
		t.Errorf("MinClusterSize = %d, want %d", o.MinClusterSize, DefaultMinClusterSize)
	}
	if o.Padding != DefaultPadding {
		t.Errorf("Padding = %v, want %v", o.Padding, DefaultPadding)
	}
	if o.SmoothingAngle != DefaultSmoothingAngle {
		t.Errorf("SmoothingAngle = %v, want %v", o.SmoothingAngle, DefaultSmoothingAngle)
	}
	if o.SegmentsPerEdge != DefaultSegmentsPerEdge {
		t.Errorf("SegmentsPerEdge = %d, want %d", o.SegmentsPerEdge, DefaultSegmentsPerEdge)
	}

	before := o
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second ValidateAndSetDefaults() = %v", err)
	}
	if o != before {
		t.Error("second validation changed the options")
	}
}

func TestOptions_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		opts Options
	}{
		{"negative weight threshold", Options{WeightThreshold: -1}},
		{"min cluster size below three", Options{MinClusterSize: 2}},
		{"negative min cluster size", Options{MinClusterSize: -4}},
		{"negative padding", Options{Padding: -10}},
		{"negative smoothing angle", Options{SmoothingAngle: -0.1}},
		{"smoothing angle too wide", Options{SmoothingAngle: math.Pi / 2}},
		{"negative segments per edge", Options{SegmentsPerEdge: -2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.opts.ValidateAndSetDefaults(); err == nil {
				t.Errorf("ValidateAndSetDefaults(%+v) = nil, want error", tc.opts)
			}
		})
	}
}

func TestComponents_SplitsDisconnectedGroups(t *testing.T) {
	g := testGraph(t,
		map[string]geom.Vec{"a": {}, "b": {}, "c": {}, "d": {}, "e": {}, "f": {}},
		[][2]string{{"a", "b"}, {"b", "c"}, {"d", "e"}},
		nil,
	)

	got := Components(g, 0)
	want := [][]string{{"a", "b", "c"}, {"d", "e"}, {"f"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Components() = %v, want %v", got, want)
	}
}

func TestComponents_WeightThresholdSplits(t *testing.T) {
	g := testGraph(t,
		map[string]geom.Vec{"a": {}, "b": {}, "c": {}},
		[][2]string{{"a", "b"}, {"b", "c"}},
		map[[2]string]float64{{"a", "b"}: 5, {"b", "c"}: 0.5},
	)

	got := Components(g, 1)
	want := [][]string{{"a", "b"}, {"c"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Components(minWeight=1) = %v, want %v", got, want)
	}

	joined := Components(g, 0)
	if len(joined) != 1 || len(joined[0]) != 3 {
		t.Errorf("Components(minWeight=0) = %v, want one component of 3", joined)
	}
}

func TestFind_DropsSmallComponents(t *testing.T) {
	positions := trianglePositions()
	positions["d"] = geom.Vec{X: 500, Y: 0}
	positions["e"] = geom.Vec{X: 540, Y: 0}
	positions["f"] = geom.Vec{X: -500, Y: 0}

	g := testGraph(t, positions,
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}, {"d", "e"}},
		nil,
	)

	clusters, err := Find(g, Options{})
	if err != nil {
		t.Fatalf("Find() = %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1", len(clusters))
	}
	if got, want := clusters[0].NodeIDs, []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("NodeIDs = %v, want %v", got, want)
	}
	if clusters[0].ID != 0 {
		t.Errorf("ID = %d, want 0", clusters[0].ID)
	}
	for _, c := range clusters {
		if len(c.NodeIDs) < DefaultMinClusterSize {
			t.Errorf("cluster %d has %d members, below the minimum", c.ID, len(c.NodeIDs))
		}
	}
}

func TestFind_BoundaryGeometry(t *testing.T) {
	g := testGraph(t, trianglePositions(),
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
		nil,
	)

	clusters, err := Find(g, Options{})
	if err != nil {
		t.Fatalf("Find() = %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1", len(clusters))
	}
	c := clusters[0]

	if c.Centroid != (geom.Vec{}) {
		t.Errorf("Centroid = %v, want origin", c.Centroid)
	}

	// Three hull points, none collinear, so the curve has exactly
	// 3 * DefaultSegmentsPerEdge points.
	if got, want := len(c.Boundary), 3*DefaultSegmentsPerEdge; got != want {
		t.Fatalf("len(Boundary) = %d, want %d", got, want)
	}

	for i, p := range c.Boundary {
		if !p.IsFinite() {
			t.Fatalf("Boundary[%d] = %v, not finite", i, p)
		}
		if d := p.Len(); d > 200 {
			t.Errorf("Boundary[%d] is %v units from the centroid, implausibly far", i, d)
		}
	}

	// Every member's padded position is a curve control point and must
	// appear on the boundary exactly.
	for _, id := range c.NodeIDs {
		pos := g.Node(id).State.Pos
		want := pos.Add(pos.Sub(c.Centroid).Normalize().Scale(DefaultPadding))
		found := false
		for _, p := range c.Boundary {
			if p.Dist(want) < 1e-9 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("padded position %v of %q missing from boundary", want, id)
		}
	}
}

func TestFind_DeterministicAcrossInsertionOrder(t *testing.T) {
	positions := trianglePositions()
	edges := [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}}

	g1 := graph.New()
	for _, id := range []string{"a", "b", "c"} {
		n := graph.Node{ID: id}
		n.State.Pos = positions[id]
		if err := g1.AddNode(n); err != nil {
			t.Fatalf("AddNode() = %v", err)
		}
	}
	for _, e := range edges {
		if err := g1.AddEdge(graph.Edge{Source: e[0], Target: e[1], Weight: 1}); err != nil {
			t.Fatalf("AddEdge() = %v", err)
		}
	}

	g2 := graph.New()
	for _, id := range []string{"c", "a", "b"} {
		n := graph.Node{ID: id}
		n.State.Pos = positions[id]
		if err := g2.AddNode(n); err != nil {
			t.Fatalf("AddNode() = %v", err)
		}
	}
	for i := len(edges) - 1; i >= 0; i-- {
		e := edges[i]
		if err := g2.AddEdge(graph.Edge{Source: e[1], Target: e[0], Weight: 1}); err != nil {
			t.Fatalf("AddEdge() = %v", err)
		}
	}

	c1, err := Find(g1, Options{})
	if err != nil {
		t.Fatalf("Find(g1) = %v", err)
	}
	c2, err := Find(g2, Options{})
	if err != nil {
		t.Fatalf("Find(g2) = %v", err)
	}
	if !reflect.DeepEqual(c1, c2) {
		t.Errorf("clusters differ across insertion order:\n%v\n%v", c1, c2)
	}
}

func TestFind_UnchangedGraphSameBoundaries(t *testing.T) {
	g := testGraph(t, trianglePositions(),
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
		nil,
	)

	first, err := Find(g, Options{})
	if err != nil {
		t.Fatalf("Find() = %v", err)
	}
	second, err := Find(g, Options{})
	if err != nil {
		t.Fatalf("second Find() = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two passes over an unchanged graph produced different clusters")
	}
}

func TestEngine_CacheReuseAndInvalidation(t *testing.T) {
	g := testGraph(t, trianglePositions(),
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
		nil,
	)

	e, err := NewEngine(Options{})
	if err != nil {
		t.Fatalf("NewEngine() = %v", err)
	}

	first := e.Clusters(g)
	if len(first) != 1 {
		t.Fatalf("len(first) = %d, want 1", len(first))
	}

	// Sub-unit movement rounds to the same fingerprint, so the cached
	// pass comes back untouched.
	g.Node("a").State.Pos = geom.Vec{X: 100.3, Y: 0.2}
	cached := e.Clusters(g)
	if &cached[0] != &first[0] {
		t.Error("sub-unit movement recomputed the pass, want cache hit")
	}

	// A real move changes the fingerprint and the boundary.
	g.Node("a").State.Pos = geom.Vec{X: 140, Y: 0}
	moved := e.Clusters(g)
	if &moved[0] == &first[0] {
		t.Fatal("whole-unit movement returned the cached pass, want recompute")
	}
	if reflect.DeepEqual(first[0].Boundary, moved[0].Boundary) {
		t.Error("boundary unchanged after moving a member 40 units")
	}

	// Invalidation forces a recompute that must agree with the warm pass.
	e.Invalidate()
	cold := e.Clusters(g)
	if &cold[0] == &moved[0] {
		t.Fatal("Invalidate() did not drop the cached pass")
	}
	if !reflect.DeepEqual(cold, moved) {
		t.Error("cold pass differs from the warm pass it replaced")
	}
}

func TestHull_SquareWithInteriorPoints(t *testing.T) {
	points := []geom.Vec{
		{X: 0, Y: 0},
		{X: 10, Y: 0},
		{X: 10, Y: 10},
		{X: 0, Y: 10},
		{X: 5, Y: 5},
		{X: 5, Y: 0},
	}

	got := Hull(points)
	want := []geom.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Hull() = %v, want %v", got, want)
	}
}

func TestHull_CollinearDegeneratesToSegment(t *testing.T) {
	points := []geom.Vec{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}}

	got := Hull(points)
	want := []geom.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Hull() = %v, want %v", got, want)
	}
}

func TestHull_FewPointsCopiedThrough(t *testing.T) {
	points := []geom.Vec{{X: 1, Y: 2}, {X: 3, Y: 4}}

	got := Hull(points)
	if !reflect.DeepEqual(got, points) {
		t.Fatalf("Hull() = %v, want %v", got, points)
	}
	got[0] = geom.Vec{X: -1, Y: -1}
	if points[0] != (geom.Vec{X: 1, Y: 2}) {
		t.Error("Hull() aliases its input for small point sets")
	}
}

func TestSimplifyAngles_DropsShallowKinks(t *testing.T) {
	poly := []geom.Vec{
		{X: 0, Y: 0},
		{X: 5, Y: 0.05}, // barely off the bottom edge
		{X: 10, Y: 0},
		{X: 10, Y: 10},
		{X: 0, Y: 10},
	}

	got := SimplifyAngles(poly, DefaultSmoothingAngle)
	want := []geom.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SimplifyAngles() = %v, want %v", got, want)
	}
}

func TestSimplifyAngles_NeverDropsBelowTriangle(t *testing.T) {
	triangle := []geom.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 10}}
	if got := SimplifyAngles(triangle, DefaultSmoothingAngle); !reflect.DeepEqual(got, triangle) {
		t.Errorf("SimplifyAngles(triangle) = %v, want unchanged", got)
	}

	// A regular octagon turns pi/4 per vertex. A wider threshold would
	// drop every point, so the input must come back unchanged.
	octagon := make([]geom.Vec, 8)
	for i := range octagon {
		angle := float64(i) * math.Pi / 4
		octagon[i] = geom.Vec{X: 10 * math.Cos(angle), Y: 10 * math.Sin(angle)}
	}
	if got := SimplifyAngles(octagon, 1.2); !reflect.DeepEqual(got, octagon) {
		t.Errorf("SimplifyAngles(octagon, 1.2) = %v, want unchanged", got)
	}
}

func TestCatmullRom_PassesThroughControlPoints(t *testing.T) {
	square := []geom.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

	curve := CatmullRom(square, 4)
	if got, want := len(curve), 16; got != want {
		t.Fatalf("len(curve) = %d, want %d", got, want)
	}
	for i, p := range square {
		if curve[i*4] != p {
			t.Errorf("curve[%d] = %v, want control point %v", i*4, curve[i*4], p)
		}
	}

	// The curve bulges outward between control points.
	if got, want := curve[2], (geom.Vec{X: 5, Y: -1.25}); got != want {
		t.Errorf("curve[2] = %v, want %v", got, want)
	}
}

func TestCatmullRom_DegenerateInputsUnchanged(t *testing.T) {
	square := []geom.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	if got := CatmullRom(square, 1); !reflect.DeepEqual([]geom.Vec(got), square) {
		t.Errorf("CatmullRom(square, 1) = %v, want the control points", got)
	}

	segment := []geom.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}}
	if got := CatmullRom(segment, 8); !reflect.DeepEqual([]geom.Vec(got), segment) {
		t.Errorf("CatmullRom(segment) = %v, want unchanged", got)
	}
}

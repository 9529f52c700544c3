package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/jwkaltz/gravitas/pkg/geom"
)

func TestAddNode_EmptyID(t *testing.T) {
	g := New()
	err := g.AddNode(Node{})
	if !errors.Is(err, ErrEmptyNodeID) {
		t.Errorf("AddNode(empty ID) = %v, want ErrEmptyNodeID", err)
	}
}

func TestAddNode_Duplicate(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode(a) = %v", err)
	}
	err := g.AddNode(Node{ID: "a"})
	if !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(duplicate) = %v, want ErrDuplicateNodeID", err)
	}
}

func TestAddEdge_UnknownEndpoints(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})

	if err := g.AddEdge(Edge{Source: "x", Target: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(unknown source) = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge(Edge{Source: "a", Target: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(unknown target) = %v, want ErrUnknownTargetNode", err)
	}
}

func TestAddEdge_SelfLoop(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})
	if err := g.AddEdge(Edge{Source: "a", Target: "a"}); !errors.Is(err, ErrSelfLoop) {
		t.Errorf("AddEdge(self-loop) = %v, want ErrSelfLoop", err)
	}
}

func TestAddEdge_NegativeWeight(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})
	if err := g.AddEdge(Edge{Source: "a", Target: "b", Weight: -1}); !errors.Is(err, ErrNegativeWeight) {
		t.Errorf("AddEdge(negative weight) = %v, want ErrNegativeWeight", err)
	}
}

func TestAdjacency_ParallelEdgesAccumulate(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})
	g.AddEdge(Edge{Source: "a", Target: "b", Weight: 2})
	g.AddEdge(Edge{Source: "b", Target: "a", Weight: 3})

	if got := g.Weight("a", "b"); got != 5 {
		t.Errorf("Weight(a,b) = %v, want 5", got)
	}
	if got := g.Weight("b", "a"); got != 5 {
		t.Errorf("Weight(b,a) = %v, want 5", got)
	}
	if got := g.Degree("a"); got != 1 {
		t.Errorf("Degree(a) = %d, want 1 distinct neighbor", got)
	}
	if got := g.EdgeCount(); got != 2 {
		t.Errorf("EdgeCount() = %d, want 2", got)
	}
}

func TestNode_Mass(t *testing.T) {
	small := Node{ID: "s", Size: DefaultNodeSize}
	if got := small.Mass(); got != 1 {
		t.Errorf("Mass() at default size = %v, want 1", got)
	}
	big := Node{ID: "b", Size: DefaultNodeSize * 3}
	if got := big.Mass(); got != 3 {
		t.Errorf("Mass() at 3x size = %v, want 3", got)
	}
	unset := Node{ID: "u"}
	if got := unset.Mass(); got != 1 {
		t.Errorf("Mass() with unset size = %v, want 1", got)
	}
}

func TestApplySnapshot_FullReplace(t *testing.T) {
	g := New()
	first := Snapshot{
		Nodes: []SnapshotNode{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []SnapshotEdge{{SourceID: "a", TargetID: "b", Weight: 1}},
	}
	if _, err := g.ApplySnapshot(first); err != nil {
		t.Fatalf("ApplySnapshot(first) = %v", err)
	}

	// Move a node, then replace with a snapshot keeping a and b only.
	g.Node("a").State.Pos = geom.Vec{X: 42, Y: -7}
	g.Node("a").State.Vel = geom.Vec{X: 1, Y: 1}

	second := Snapshot{
		Nodes: []SnapshotNode{{ID: "a"}, {ID: "b"}, {ID: "d"}},
		Edges: []SnapshotEdge{{SourceID: "a", TargetID: "d", Weight: 1}},
	}
	diag, err := g.ApplySnapshot(second)
	if err != nil {
		t.Fatalf("ApplySnapshot(second) = %v", err)
	}

	if diag.Kept != 2 || diag.Added != 1 || diag.Removed != 1 {
		t.Errorf("Diagnostics = %+v, want Kept=2 Added=1 Removed=1", diag)
	}
	if got := g.Node("a").State.Pos; got != (geom.Vec{X: 42, Y: -7}) {
		t.Errorf("survivor position = %v, want {42 -7}", got)
	}
	if got := g.Node("a").State.Vel; got != (geom.Vec{X: 1, Y: 1}) {
		t.Errorf("survivor velocity = %v, want {1 1}", got)
	}
	if g.Node("c") != nil {
		t.Error("removed node still present after snapshot")
	}
	if g.Node("d") == nil {
		t.Fatal("new node missing after snapshot")
	}
}

func TestApplySnapshot_NewNodePlacementDeterministic(t *testing.T) {
	snap := Snapshot{Nodes: []SnapshotNode{{ID: "a"}, {ID: "b"}}}

	g1 := New()
	g1.ApplySnapshot(snap)
	g2 := New()
	g2.ApplySnapshot(snap)

	for _, id := range []string{"a", "b"} {
		p1 := g1.Node(id).State.Pos
		p2 := g2.Node(id).State.Pos
		if p1 != p2 {
			t.Errorf("placement of %q differs across runs: %v vs %v", id, p1, p2)
		}
	}

	// Distinct IDs should not stack on the same point.
	if g1.Node("a").State.Pos == g1.Node("b").State.Pos {
		t.Error("distinct new nodes placed at identical positions")
	}

	// New nodes sit on the spawn circle around the origin.
	d := g1.Node("a").State.Pos.Len()
	if math.Abs(d-SpawnRadius) > 1e-9 {
		t.Errorf("spawn distance = %v, want %v", d, SpawnRadius)
	}
}

func TestApplySnapshot_DropsBadEdges(t *testing.T) {
	g := New()
	snap := Snapshot{
		Nodes: []SnapshotNode{{ID: "a"}, {ID: "b"}},
		Edges: []SnapshotEdge{
			{SourceID: "a", TargetID: "b", Weight: 1},
			{SourceID: "a", TargetID: "ghost", Weight: 1},
			{SourceID: "ghost", TargetID: "b", Weight: 1},
			{SourceID: "a", TargetID: "a", Weight: 1},
		},
	}
	diag, err := g.ApplySnapshot(snap)
	if err != nil {
		t.Fatalf("ApplySnapshot() = %v, want dropped edges to be non-fatal", err)
	}
	if diag.DroppedEdges != 3 {
		t.Errorf("DroppedEdges = %d, want 3", diag.DroppedEdges)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestApplySnapshot_InvalidLeavesGraphUntouched(t *testing.T) {
	g := New()
	g.ApplySnapshot(Snapshot{Nodes: []SnapshotNode{{ID: "a"}}})

	bad := Snapshot{Nodes: []SnapshotNode{{ID: "x"}, {ID: "x"}}}
	if _, err := g.ApplySnapshot(bad); err == nil {
		t.Fatal("ApplySnapshot(duplicate IDs) = nil, want error")
	}
	if g.Node("a") == nil || g.NodeCount() != 1 {
		t.Error("failed snapshot modified the graph")
	}
}

func TestApplySnapshot_IterationOrderSorted(t *testing.T) {
	g := New()
	snap := Snapshot{Nodes: []SnapshotNode{{ID: "c"}, {ID: "a"}, {ID: "b"}}}
	g.ApplySnapshot(snap)

	want := []string{"a", "b", "c"}
	for i, n := range g.Nodes() {
		if n.ID != want[i] {
			t.Errorf("Nodes()[%d].ID = %q, want %q", i, n.ID, want[i])
		}
	}
}

func TestSetFixed(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})

	if !g.SetFixed("a", true) {
		t.Error("SetFixed(a) = false, want true")
	}
	if !g.Node("a").Fixed {
		t.Error("node not pinned after SetFixed")
	}
	if g.SetFixed("ghost", true) {
		t.Error("SetFixed(unknown) = true, want false")
	}
}

func TestCentroid(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", State: State{Pos: geom.Vec{X: 0, Y: 0}}})
	g.AddNode(Node{ID: "b", State: State{Pos: geom.Vec{X: 10, Y: 20}}})

	if got := g.Centroid(); got != (geom.Vec{X: 5, Y: 10}) {
		t.Errorf("Centroid() = %v, want {5 10}", got)
	}
	if got := (New()).Centroid(); got != (geom.Vec{}) {
		t.Errorf("Centroid() of empty graph = %v, want origin", got)
	}
}

func TestGraph_SnapshotRoundTrip(t *testing.T) {
	g := New()
	first := Snapshot{
		Nodes: []SnapshotNode{
			{ID: "a", Size: 20, Fixed: true, Payload: "root"},
			{ID: "b"},
			{ID: "c", Size: 8},
		},
		Edges: []SnapshotEdge{
			{SourceID: "a", TargetID: "b", Weight: 2},
			{SourceID: "b", TargetID: "c", Weight: 0.5},
		},
	}
	if _, err := g.ApplySnapshot(first); err != nil {
		t.Fatalf("ApplySnapshot() = %v", err)
	}

	snap := g.Snapshot()
	wantIDs := []string{"a", "b", "c"}
	if len(snap.Nodes) != len(wantIDs) {
		t.Fatalf("Snapshot() has %d nodes, want %d", len(snap.Nodes), len(wantIDs))
	}
	for i, id := range wantIDs {
		if snap.Nodes[i].ID != id {
			t.Errorf("Nodes[%d].ID = %q, want %q", i, snap.Nodes[i].ID, id)
		}
	}
	if n := snap.Nodes[0]; n.Size != 20 || !n.Fixed || n.Payload != "root" {
		t.Errorf("Nodes[0] = %+v, want Size=20 Fixed=true Payload=root", n)
	}
	if len(snap.Edges) != 2 {
		t.Fatalf("Snapshot() has %d edges, want 2", len(snap.Edges))
	}
	if e := snap.Edges[1]; e.SourceID != "b" || e.TargetID != "c" || e.Weight != 0.5 {
		t.Errorf("Edges[1] = %+v, want b -> c weight 0.5", e)
	}

	// Applying the captured snapshot to a fresh graph reproduces the topology.
	g2 := New()
	if _, err := g2.ApplySnapshot(snap); err != nil {
		t.Fatalf("ApplySnapshot(captured) = %v", err)
	}
	if g2.NodeCount() != g.NodeCount() || g2.EdgeCount() != g.EdgeCount() {
		t.Errorf("round trip: %d nodes %d edges, want %d nodes %d edges",
			g2.NodeCount(), g2.EdgeCount(), g.NodeCount(), g.EdgeCount())
	}
}

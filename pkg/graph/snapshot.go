package graph

import (
	"fmt"
	"hash/fnv"
	"math"
	"slices"

	"github.com/jwkaltz/gravitas/pkg/geom"
)

// =============================================================================
// Snapshot - Wire Contract
// =============================================================================

// Snapshot is the full-replace wire format for graph data. Loaders in
// pkg/source produce snapshots from JSON, DOT and HTTP inputs; the engine
// applies them with [Graph.ApplySnapshot].
type Snapshot struct {
	Nodes []SnapshotNode `json:"nodes" bson:"nodes"`
	Edges []SnapshotEdge `json:"edges" bson:"edges"`
}

// SnapshotNode describes one node in a snapshot.
type SnapshotNode struct {
	ID      string  `json:"id" bson:"id"`
	Size    float64 `json:"size,omitempty" bson:"size,omitempty"`
	Fixed   bool    `json:"fixed,omitempty" bson:"fixed,omitempty"`
	Payload any     `json:"payload,omitempty" bson:"payload,omitempty"`
}

// SnapshotEdge describes one edge in a snapshot. A zero weight is valid and
// means the edge contributes no spring force but still counts for
// connectivity.
type SnapshotEdge struct {
	SourceID string  `json:"source_id" bson:"source_id"`
	TargetID string  `json:"target_id" bson:"target_id"`
	Weight   float64 `json:"weight,omitempty" bson:"weight,omitempty"`
	Payload  any     `json:"payload,omitempty" bson:"payload,omitempty"`
}

// Validate checks structural snapshot invariants: non-empty unique node IDs
// and non-negative edge weights. Edges referencing unknown nodes are not an
// error here; ApplySnapshot drops and counts them.
func (s *Snapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.Nodes))
	for i, n := range s.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %d: %w", i, ErrEmptyNodeID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("node %q: %w", n.ID, ErrDuplicateNodeID)
		}
		seen[n.ID] = struct{}{}
	}
	for i, e := range s.Edges {
		if e.Weight < 0 {
			return fmt.Errorf("edge %d (%s -> %s): %w", i, e.SourceID, e.TargetID, ErrNegativeWeight)
		}
	}
	return nil
}

// Diagnostics reports what a snapshot application did. Dropped edges are
// informational, not errors: live data feeds routinely reference nodes that
// were filtered upstream.
type Diagnostics struct {
	Added        int `json:"added" bson:"added"`                 // nodes new in this snapshot
	Kept         int `json:"kept" bson:"kept"`                   // nodes that survived with state intact
	Removed      int `json:"removed" bson:"removed"`             // nodes discarded with their state
	DroppedEdges int `json:"dropped_edges" bson:"dropped_edges"` // unknown-endpoint and self-loop edges
}

// SpawnRadius is the distance from the surviving centroid at which new
// nodes are placed during snapshot application.
const SpawnRadius = 60.0

// =============================================================================
// Snapshot Application
// =============================================================================

// ApplySnapshot replaces the graph contents with the snapshot, preserving
// physics state for surviving node IDs.
//
// Surviving nodes keep position and velocity and take Size, Fixed and
// Payload from the snapshot. New nodes are placed on a circle of radius
// [SpawnRadius] around the centroid of surviving nodes (the origin when none
// survive); the angle derives from an FNV-1a hash of the node ID, so
// placement is reproducible across runs and processes. Edges with unknown
// endpoints or identical endpoints are dropped and counted in
// [Diagnostics], never fatal.
//
// On validation error the graph is left unchanged.
func (g *Graph) ApplySnapshot(s Snapshot) (Diagnostics, error) {
	var diag Diagnostics
	if err := s.Validate(); err != nil {
		return diag, err
	}

	// Survivor centroid anchors placement of new nodes. Computing it before
	// inserting anything keeps placement independent of snapshot order.
	var anchor geom.Vec
	survivors := 0
	for _, sn := range s.Nodes {
		if prev, ok := g.nodes[sn.ID]; ok {
			anchor = anchor.Add(prev.State.Pos)
			survivors++
		}
	}
	if survivors > 0 {
		anchor = anchor.Scale(1 / float64(survivors))
	}

	old := g.nodes
	g.nodes = make(map[string]*Node, len(s.Nodes))
	g.order = make([]*Node, 0, len(s.Nodes))
	g.edges = g.edges[:0]
	g.adjacency = make(map[string]map[string]float64, len(s.Nodes))

	// Node IDs are applied in sorted order so solver iteration is
	// deterministic regardless of snapshot ordering.
	sorted := make([]SnapshotNode, len(s.Nodes))
	copy(sorted, s.Nodes)
	slices.SortFunc(sorted, func(a, b SnapshotNode) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	for _, sn := range sorted {
		node := &Node{
			ID:      sn.ID,
			Size:    sn.Size,
			Fixed:   sn.Fixed,
			Payload: sn.Payload,
		}
		if prev, ok := old[sn.ID]; ok {
			node.State.Pos = prev.State.Pos
			node.State.Vel = prev.State.Vel
			diag.Kept++
		} else {
			node.State.Pos = spawnPosition(sn.ID, anchor)
			diag.Added++
		}
		g.nodes[node.ID] = node
		g.order = append(g.order, node)
	}
	diag.Removed = len(old) - diag.Kept

	for _, se := range s.Edges {
		e := Edge{Source: se.SourceID, Target: se.TargetID, Weight: se.Weight, Payload: se.Payload}
		if err := g.AddEdge(e); err != nil {
			diag.DroppedEdges++
		}
	}

	return diag, nil
}

// Snapshot captures the graph's current contents as a wire snapshot. Node
// order follows graph iteration order. Physics state is not part of the wire
// format; pair with [Graph.Positions] when positions matter.
func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{
		Nodes: make([]SnapshotNode, 0, g.NodeCount()),
		Edges: make([]SnapshotEdge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		s.Nodes = append(s.Nodes, SnapshotNode{
			ID:      n.ID,
			Size:    n.Size,
			Fixed:   n.Fixed,
			Payload: n.Payload,
		})
	}
	for _, e := range g.Edges() {
		s.Edges = append(s.Edges, SnapshotEdge{
			SourceID: e.Source,
			TargetID: e.Target,
			Weight:   e.Weight,
			Payload:  e.Payload,
		})
	}
	return s
}

// spawnPosition returns the deterministic initial position for a new node.
// The angle comes from hashing the ID, spreading unrelated IDs around the
// circle without any shared random state.
func spawnPosition(id string, center geom.Vec) geom.Vec {
	h := fnv.New32a()
	h.Write([]byte(id))
	angle := float64(h.Sum32()) / float64(math.MaxUint32) * 2 * math.Pi
	return geom.Vec{
		X: center.X + SpawnRadius*math.Cos(angle),
		Y: center.Y + SpawnRadius*math.Sin(angle),
	}
}

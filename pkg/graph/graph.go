package graph

import (
	"errors"
	"slices"

	"github.com/jwkaltz/gravitas/pkg/geom"
)

var (
	// ErrEmptyNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrEmptyNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists. Node IDs must be unique within a graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the Source
	// node does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the Target
	// node does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrNegativeWeight is returned by [Graph.AddEdge] and snapshot
	// validation when an edge carries a negative weight.
	ErrNegativeWeight = errors.New("edge weight must not be negative")

	// ErrSelfLoop is returned by [Graph.AddEdge] when source and target are
	// the same node. Self-loops have no meaning under a spring model.
	ErrSelfLoop = errors.New("self-loop edge")
)

// DefaultNodeSize is the radius assigned to nodes that do not specify one.
// Node mass scales linearly with size relative to this default, so a
// default-sized node has mass 1.
const DefaultNodeSize = 6.0

// State is the physics state of a single node. It is owned by the graph and
// mutated in place by the solver. Render layers must copy values out rather
// than holding references across ticks.
type State struct {
	Pos   geom.Vec // position in world units
	Vel   geom.Vec // velocity in world units per time step
	Force geom.Vec // force accumulated during the current tick
}

// Node is a vertex of the force-directed graph.
//
// The zero value is not usable - ID must be set before adding to a graph.
// Size defaults to [DefaultNodeSize] when non-positive.
type Node struct {
	ID      string  // Unique identifier, stable across snapshots
	Size    float64 // Visual radius in world units, drives mass
	Fixed   bool    // Pinned nodes exert force but never move
	Payload any     // Opaque caller data, carried through untouched

	// State is the node's live physics state. It persists across snapshot
	// applications for surviving IDs.
	State State
}

// Mass returns the node's mass for force computation. Mass scales linearly
// with Size so larger nodes repel harder and accelerate slower; a node at
// the default size has mass exactly 1.
func (n *Node) Mass() float64 {
	if n.Size <= 0 {
		return 1
	}
	return n.Size / DefaultNodeSize
}

// Radius returns the node's effective visual radius, substituting the
// default for unset sizes.
func (n *Node) Radius() float64 {
	if n.Size <= 0 {
		return DefaultNodeSize
	}
	return n.Size
}

// Edge is a weighted connection between two nodes. Edges are stored as
// given but treated as undirected by the spring model; an edge and its
// reverse attract the same pair identically.
type Edge struct {
	Source  string  // Source node ID
	Target  string  // Target node ID
	Weight  float64 // Attraction multiplier, must be >= 0
	Payload any     // Opaque caller data
}

// Graph is the live graph the layout engine operates on. It owns node
// physics state and maintains an accumulated-weight adjacency index for
// neighbor queries.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// use without external synchronization.
type Graph struct {
	nodes     map[string]*Node
	order     []*Node // deterministic iteration order
	edges     []Edge
	adjacency map[string]map[string]float64 // nodeID -> neighborID -> summed weight
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		adjacency: make(map[string]map[string]float64),
	}
}

// AddNode adds a node to the graph. Returns [ErrEmptyNodeID] or
// [ErrDuplicateNodeID] on invalid input. Nodes added directly keep whatever
// State the caller set, which lets tests and coarsening seed positions.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrEmptyNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node)
	return nil
}

// AddEdge adds an edge between two existing nodes and updates the adjacency
// index. Returns [ErrUnknownSourceNode], [ErrUnknownTargetNode],
// [ErrNegativeWeight] or [ErrSelfLoop] on invalid input.
//
// Parallel edges are allowed; the adjacency index accumulates their weights.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.Source]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return ErrUnknownTargetNode
	}
	if e.Weight < 0 {
		return ErrNegativeWeight
	}
	if e.Source == e.Target {
		return ErrSelfLoop
	}
	g.edges = append(g.edges, e)
	g.link(e.Source, e.Target, e.Weight)
	g.link(e.Target, e.Source, e.Weight)
	return nil
}

func (g *Graph) link(from, to string, w float64) {
	m := g.adjacency[from]
	if m == nil {
		m = make(map[string]float64)
		g.adjacency[from] = m
	}
	m[to] += w
}

// Node returns the node with the given ID, or nil if absent. The returned
// pointer is live; mutating its State moves the node.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// Nodes returns all nodes in deterministic order: sorted by ID after a
// snapshot application, insertion order for nodes added directly. The slice
// is shared with the graph and must not be modified.
func (g *Graph) Nodes() []*Node {
	return g.order
}

// NodeIDs returns all node IDs sorted lexicographically.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Edges returns the stored edge list. The slice is shared with the graph
// and must not be modified.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of stored edges (parallel edges counted
// individually).
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Degree returns the number of distinct neighbors of the given node.
func (g *Graph) Degree(id string) int {
	return len(g.adjacency[id])
}

// Neighbors returns the distinct neighbor IDs of the given node, sorted for
// deterministic traversal.
func (g *Graph) Neighbors(id string) []string {
	m := g.adjacency[id]
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Weight returns the accumulated edge weight between a and b, summing
// parallel edges in both directions. Returns 0 for unconnected pairs.
func (g *Graph) Weight(a, b string) float64 {
	return g.adjacency[a][b]
}

// NodeStrength returns the sum of accumulated edge weights incident to the
// node. Importance filtering ranks nodes by degree and strength.
func (g *Graph) NodeStrength(id string) float64 {
	var s float64
	for _, w := range g.adjacency[id] {
		s += w
	}
	return s
}

// SetFixed pins or releases a node. Pinned nodes keep exerting force on
// others but are skipped by integration. Returns false if the ID is
// unknown.
func (g *Graph) SetFixed(id string, fixed bool) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	n.Fixed = fixed
	return true
}

// Centroid returns the mean position of all nodes, or the origin for an
// empty graph.
func (g *Graph) Centroid() geom.Vec {
	if len(g.order) == 0 {
		return geom.Vec{}
	}
	var c geom.Vec
	for _, n := range g.order {
		c = c.Add(n.State.Pos)
	}
	return c.Scale(1 / float64(len(g.order)))
}

// Positions returns a copy of every node position in iteration order.
func (g *Graph) Positions() []geom.Vec {
	out := make([]geom.Vec, len(g.order))
	for i, n := range g.order {
		out[i] = n.State.Pos
	}
	return out
}

// Bounds returns the bounding rectangle of all node positions expanded by
// padding. An empty graph yields a small rectangle at the origin.
func (g *Graph) Bounds(padding float64) geom.Rect {
	return geom.BoundsOf(g.Positions(), padding)
}

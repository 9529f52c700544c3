package coarsen

import (
	"fmt"
	"sort"

	"github.com/jwkaltz/gravitas/pkg/graph"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultThreshold is the node count above which the multi-level
	// hierarchy is built. Smaller graphs are solved directly.
	DefaultThreshold = 100

	// DefaultMinIterations floors the iteration budget of refinement
	// levels as the budget halves on the way down.
	DefaultMinIterations = 60

	// DefaultRefineTemperature scales the starting temperature on levels
	// below the coarsest, so refinement adjusts seeded positions instead
	// of re-scrambling them.
	DefaultRefineTemperature = 0.3
)

// Options configures hierarchy construction and the multi-level solve.
// The zero value means "use defaults" for every field.
type Options struct {
	// Threshold is the node count above which coarsening kicks in.
	Threshold int `json:"threshold,omitempty" toml:"threshold"`

	// MinIterations floors the per-level refinement budget.
	MinIterations int `json:"min_iterations,omitempty" toml:"min_iterations"`

	// RefineTemperature scales the initial temperature of every level
	// below the coarsest, in (0, 1].
	RefineTemperature float64 `json:"refine_temperature,omitempty" toml:"refine_temperature"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults applies defaults for zero values and rejects
// invalid settings. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.MinIterations == 0 {
		o.MinIterations = DefaultMinIterations
	}
	if o.RefineTemperature == 0 {
		o.RefineTemperature = DefaultRefineTemperature
	}
	if o.Threshold < 2 {
		return fmt.Errorf("invalid threshold: %d (must be at least 2)", o.Threshold)
	}
	if o.MinIterations < 1 {
		return fmt.Errorf("invalid min_iterations: %d (must be positive)", o.MinIterations)
	}
	if o.RefineTemperature < 0 || o.RefineTemperature > 1 {
		return fmt.Errorf("invalid refine_temperature: %v (must be in (0, 1])", o.RefineTemperature)
	}
	o.validated = true
	return nil
}

// =============================================================================
// Hierarchy
// =============================================================================

// Level is one rung of the hierarchy: a finer graph, the coarser graph
// collapsed from it, and the mapping between the two.
type Level struct {
	// Fine is the finer graph; at the first level it is the original.
	Fine *graph.Graph

	// Coarse is the collapsed graph solved before Fine.
	Coarse *graph.Graph

	// Parent maps every fine node id to its node id in Coarse. Nodes that
	// were not matched map to themselves.
	Parent map[string]string
}

// Hierarchy is the stack of coarsening levels over an input graph. An
// empty hierarchy means the input was small enough to solve directly.
type Hierarchy struct {
	original *graph.Graph

	// Levels is ordered finest first: Levels[0].Fine is the original
	// graph and Levels[len-1].Coarse is the coarsest proxy.
	Levels []Level
}

// Depth returns the number of coarsening passes that were applied.
func (h *Hierarchy) Depth() int { return len(h.Levels) }

// Coarsest returns the smallest proxy graph, or the original graph when no
// coarsening was applied.
func (h *Hierarchy) Coarsest() *graph.Graph {
	if len(h.Levels) == 0 {
		return h.original
	}
	return h.Levels[len(h.Levels)-1].Coarse
}

// Build constructs the coarsening hierarchy for g. Passes repeat while the
// node count stays above threshold and matching still finds pairs; every
// recorded level strictly reduces the node count.
func Build(g *graph.Graph, threshold int) *Hierarchy {
	h := &Hierarchy{original: g}
	cur := g
	for cur.NodeCount() > threshold {
		pairs := match(cur)
		if len(pairs) == 0 {
			break
		}
		coarse, parent := collapse(cur, pairs)
		h.Levels = append(h.Levels, Level{Fine: cur, Coarse: coarse, Parent: parent})
		cur = coarse
	}
	return h
}

// =============================================================================
// Matching and Collapse
// =============================================================================

// pair is one matched node couple. The lexicographically smaller id
// becomes the super-node id, so collapsed ids stay unique and stable.
type pair struct {
	a, b string // a < b
}

// match computes a greedy maximal matching over the edges, heaviest first.
// Ties break on (Source, Target) so the matching is identical for any edge
// insertion order. Fixed nodes are never matched; they keep their own
// identity, and their pinned position, at every level.
func match(g *graph.Graph) []pair {
	edges := append([]graph.Edge(nil), g.Edges()...)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Weight != edges[j].Weight {
			return edges[i].Weight > edges[j].Weight
		}
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})

	matched := make(map[string]bool)
	var pairs []pair
	for _, e := range edges {
		if matched[e.Source] || matched[e.Target] {
			continue
		}
		if isFixed(g, e.Source) || isFixed(g, e.Target) {
			continue
		}
		matched[e.Source] = true
		matched[e.Target] = true
		a, b := e.Source, e.Target
		if b < a {
			a, b = b, a
		}
		pairs = append(pairs, pair{a: a, b: b})
	}
	return pairs
}

func isFixed(g *graph.Graph, id string) bool {
	n := g.Node(id)
	return n != nil && n.Fixed
}

// collapse builds the coarser graph. Every matched pair becomes one
// super-node under the pair's smaller id, carrying the summed effective
// size and the mass-weighted midpoint position; unmatched nodes carry over
// unchanged. Edges re-target through the parent mapping: edges folding
// into a single super-node disappear, and parallel collapsed edges sum
// their weights into one edge per unordered pair.
func collapse(g *graph.Graph, pairs []pair) (*graph.Graph, map[string]string) {
	parent := make(map[string]string, g.NodeCount())
	super := make(map[string]pair, len(pairs))
	for _, p := range pairs {
		parent[p.a] = p.a
		parent[p.b] = p.a
		super[p.a] = p
	}
	for _, id := range g.NodeIDs() {
		if _, ok := parent[id]; !ok {
			parent[id] = id
		}
	}

	coarse := graph.New()
	for _, id := range g.NodeIDs() {
		if parent[id] != id {
			continue // folded into its partner's super-node
		}
		if p, ok := super[id]; ok {
			a, b := g.Node(p.a), g.Node(p.b)
			ma, mb := a.Mass(), b.Mass()
			pos := a.State.Pos.Scale(ma).Add(b.State.Pos.Scale(mb)).Scale(1 / (ma + mb))
			_ = coarse.AddNode(graph.Node{
				ID:    id,
				Size:  a.Radius() + b.Radius(),
				State: graph.State{Pos: pos},
			})
			continue
		}
		n := g.Node(id)
		_ = coarse.AddNode(graph.Node{
			ID:    id,
			Size:  n.Size,
			Fixed: n.Fixed,
			State: graph.State{Pos: n.State.Pos},
		})
	}

	type edgeKey struct{ a, b string }
	weights := make(map[edgeKey]float64)
	for _, e := range g.Edges() {
		s, t := parent[e.Source], parent[e.Target]
		if s == t {
			continue // interior edge of a collapsed pair
		}
		if t < s {
			s, t = t, s
		}
		weights[edgeKey{s, t}] += e.Weight
	}
	keys := make([]edgeKey, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
	for _, k := range keys {
		_ = coarse.AddEdge(graph.Edge{Source: k.a, Target: k.b, Weight: weights[k]})
	}
	return coarse, parent
}

package viewport

import (
	"fmt"
	"slices"
	"sort"

	"github.com/jwkaltz/gravitas/pkg/bundle"
	"github.com/jwkaltz/gravitas/pkg/cluster"
	"github.com/jwkaltz/gravitas/pkg/geom"
	"github.com/jwkaltz/gravitas/pkg/graph"
	"github.com/jwkaltz/gravitas/pkg/lod"
	"github.com/jwkaltz/gravitas/pkg/spatial"
)

// DefaultCullMargin is the screen-space border, in world units at zoom 1,
// kept around the visible rectangle so nodes just off screen still render
// during a pan.
const DefaultCullMargin = 64.0

// Options configures an [Optimizer]. The zero value of every field means
// "use the default".
type Options struct {
	// Tiers is the detail-tier ladder used for classification.
	Tiers lod.TierSet `json:"tiers" toml:"tiers"`

	// Cluster configures boundary extraction at tiers that draw them.
	Cluster cluster.Options `json:"cluster" toml:"cluster"`

	// Bundle configures edge merging at tiers that bundle. Its base
	// thickness also styles unbundled edges.
	Bundle bundle.Options `json:"bundle" toml:"bundle"`

	// CellSize is the spatial grid cell size used for culling.
	CellSize float64 `json:"cell_size" toml:"cell_size"`

	// CullMargin is the screen-space overscan border in world units at
	// zoom 1. The world-space margin shrinks as zoom grows.
	CullMargin float64 `json:"cull_margin" toml:"cull_margin"`

	validated bool
}

// ValidateAndSetDefaults fills zero fields with defaults, validates the
// nested tier, cluster and bundle options, and returns an error describing
// the first invalid value.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.CellSize == 0 {
		o.CellSize = spatial.DefaultCellSize
	}
	if o.CullMargin == 0 {
		o.CullMargin = DefaultCullMargin
	}
	if o.CellSize < 0 {
		return fmt.Errorf("invalid cell size: %v (must be positive)", o.CellSize)
	}
	if o.CullMargin < 0 {
		return fmt.Errorf("invalid cull margin: %v (must be non-negative)", o.CullMargin)
	}
	if err := o.Tiers.ValidateAndSetDefaults(); err != nil {
		return fmt.Errorf("invalid tiers: %w", err)
	}
	if err := o.Cluster.ValidateAndSetDefaults(); err != nil {
		return fmt.Errorf("invalid cluster options: %w", err)
	}
	if err := o.Bundle.ValidateAndSetDefaults(); err != nil {
		return fmt.Errorf("invalid bundle options: %w", err)
	}
	o.validated = true
	return nil
}

// Optimizer produces renderer-ready frames for successive viewport states
// over the same graph. It keeps a culling grid and a cluster-boundary
// cache between calls, and remembers the previous tier so frames can carry
// a transition hint.
//
// The zero value is not usable - use [NewOptimizer]. An Optimizer is not
// safe for concurrent use.
type Optimizer struct {
	opts     Options
	grid     *spatial.Grid
	clusters *cluster.Engine

	// prev is the tier level of the last frame, -1 before the first.
	prev int
}

// NewOptimizer validates opts and returns an optimizer ready for
// [Optimizer.Optimize].
func NewOptimizer(opts Options) (*Optimizer, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	eng, err := cluster.NewEngine(opts.Cluster)
	if err != nil {
		return nil, err
	}
	return &Optimizer{
		opts:     opts,
		grid:     spatial.NewGrid(opts.CellSize),
		clusters: eng,
		prev:     -1,
	}, nil
}

// Options returns a copy of the validated options.
func (o *Optimizer) Options() Options {
	return o.opts
}

// Optimize reduces the graph to a frame for one viewport state.
//
// bias shifts the classified tier toward less detail; the adaptive
// governor feeds its tier bias here so an overloaded simulation renders
// more coarsely without touching physics. Zero means no shift.
//
// Returns [ErrInvalidViewport] when the viewport has non-positive zoom or
// size.
func (o *Optimizer) Optimize(g *graph.Graph, bias int, vp Viewport) (*Frame, error) {
	if !vp.Valid() {
		return nil, ErrInvalidViewport
	}

	tier := o.opts.Tiers.Classify(vp.Zoom, g.NodeCount(), vp.Rect())
	tier = o.opts.Tiers.Biased(tier, bias)

	visible := o.cull(g, vp)
	visible = o.filterImportance(g, visible, tier)
	visible = capNodes(g, visible, tier.MaxNodes)

	kept := make(map[string]bool, len(visible))
	for _, id := range visible {
		kept[id] = true
	}
	edges := sampleEdges(g, kept, tier.EdgeSampleRate)

	var renderEdges []RenderEdge
	if tier.Bundle {
		bundles, err := bundle.Merge(subgraph(g, visible, edges), o.opts.Bundle)
		if err != nil {
			return nil, err
		}
		renderEdges = bundleEdges(bundles, tier.MaxEdges)
	} else {
		renderEdges = plainEdges(edges, o.opts.Bundle.BaseThickness, tier.MaxEdges)
	}

	frame := &Frame{
		Nodes: renderNodes(g, visible, tier),
		Edges: renderEdges,
		Tier:  tier,
	}
	if tier.Boundaries {
		frame.Boundaries = o.boundaries(g, vp)
	}
	frame.Transition = o.transition(tier)
	return frame, nil
}

// cull returns the sorted ids of nodes inside the expanded visible
// rectangle. The grid narrows candidates to overlapping cells; exact
// positions are re-checked because cells are coarser than the rectangle.
func (o *Optimizer) cull(g *graph.Graph, vp Viewport) []string {
	o.grid.Reset()
	for _, n := range g.Nodes() {
		o.grid.Insert(n.ID, n.State.Pos)
	}
	area := vp.VisibleRect().Expand(o.opts.CullMargin / vp.Zoom)
	var out []string
	for _, id := range o.grid.QueryRect(area) {
		if area.Contains(g.Node(id).State.Pos) {
			out = append(out, id)
		}
	}
	return out
}

// filterImportance drops candidates whose normalized importance falls
// below the tier cutoff. Scores are normalized against the graph-wide
// maximum so panning the viewport never changes a node's score. A graph
// whose maximum score is zero treats every node as important.
func (o *Optimizer) filterImportance(g *graph.Graph, ids []string, tier lod.Tier) []string {
	if tier.ImportanceCutoff <= 0 || len(ids) == 0 {
		return ids
	}
	max := 0.0
	for _, id := range g.NodeIDs() {
		if s := importance(g, id); s > max {
			max = s
		}
	}
	if max == 0 {
		return ids
	}
	var out []string
	for _, id := range ids {
		if importance(g, id)/max >= tier.ImportanceCutoff {
			out = append(out, id)
		}
	}
	return out
}

// importance scores a node by degree plus accumulated edge weight. The
// score grows monotonically as connections are added.
func importance(g *graph.Graph, id string) float64 {
	return float64(g.Degree(id)) + g.NodeStrength(id)
}

// capNodes enforces the tier's node budget, keeping the highest-importance
// nodes and breaking ties by id. Output stays sorted by id.
func capNodes(g *graph.Graph, ids []string, max int) []string {
	if max <= 0 || len(ids) <= max {
		return ids
	}
	ranked := slices.Clone(ids)
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := importance(g, ranked[i]), importance(g, ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i] < ranked[j]
	})
	ranked = ranked[:max]
	slices.Sort(ranked)
	return ranked
}

// sampleEdges keeps edges whose endpoints both survived reduction and
// whose endpoint pair passes the stable sampling hash. Parallel edges
// share one decision, so a connection never half-renders.
func sampleEdges(g *graph.Graph, kept map[string]bool, rate float64) []graph.Edge {
	var out []graph.Edge
	for _, e := range g.Edges() {
		if !kept[e.Source] || !kept[e.Target] {
			continue
		}
		if !lod.ShouldRenderEdge(e.Source, e.Target, rate) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// subgraph copies the kept nodes and sampled edges into a fresh graph for
// bundling. Node structs are copied whole so bundling sees positions.
func subgraph(g *graph.Graph, ids []string, edges []graph.Edge) *graph.Graph {
	sub := graph.New()
	for _, id := range ids {
		// ids come from the parent graph, so AddNode cannot fail.
		_ = sub.AddNode(*g.Node(id))
	}
	for _, e := range edges {
		// Both endpoints are in ids by construction.
		_ = sub.AddEdge(e)
	}
	return sub
}

// plainEdges converts sampled edges to render edges at the base thickness.
// When the tier budget forces a cut, the heaviest edges survive; output is
// sorted by endpoint pair either way.
func plainEdges(edges []graph.Edge, thickness float64, max int) []RenderEdge {
	es := slices.Clone(edges)
	if max > 0 && len(es) > max {
		sort.Slice(es, func(i, j int) bool {
			if es[i].Weight != es[j].Weight {
				return es[i].Weight > es[j].Weight
			}
			return lessPair(es[i].Source, es[i].Target, es[j].Source, es[j].Target)
		})
		es = es[:max]
	}
	sort.Slice(es, func(i, j int) bool {
		return lessPair(es[i].Source, es[i].Target, es[j].Source, es[j].Target)
	})
	out := make([]RenderEdge, 0, len(es))
	for _, e := range es {
		out = append(out, RenderEdge{Source: e.Source, Target: e.Target, Thickness: thickness})
	}
	return out
}

// bundleEdges converts bundles to render edges under the tier budget,
// keeping the heaviest bundles when a cut is needed.
func bundleEdges(bundles []bundle.Bundle, max int) []RenderEdge {
	bs := bundles
	if max > 0 && len(bs) > max {
		bs = slices.Clone(bs)
		sort.Slice(bs, func(i, j int) bool {
			if bs[i].Weight != bs[j].Weight {
				return bs[i].Weight > bs[j].Weight
			}
			return lessPair(bs[i].Source, bs[i].Target, bs[j].Source, bs[j].Target)
		})
		bs = bs[:max]
		sort.Slice(bs, func(i, j int) bool {
			return lessPair(bs[i].Source, bs[i].Target, bs[j].Source, bs[j].Target)
		})
	}
	out := make([]RenderEdge, 0, len(bs))
	for _, b := range bs {
		out = append(out, RenderEdge{Source: b.Source, Target: b.Target, Thickness: b.Thickness})
	}
	return out
}

// renderNodes produces fresh render nodes for the kept ids, copying values
// out of the physics state.
func renderNodes(g *graph.Graph, ids []string, tier lod.Tier) []RenderNode {
	out := make([]RenderNode, 0, len(ids))
	for _, id := range ids {
		n := g.Node(id)
		out = append(out, RenderNode{
			ID:           n.ID,
			X:            n.State.Pos.X,
			Y:            n.State.Pos.Y,
			Size:         n.Radius(),
			LabelVisible: tier.ShowLabels,
		})
	}
	return out
}

// boundaries returns the cached cluster boundaries whose bounding box
// touches the expanded visible rectangle. Clusters are computed over the
// whole graph, so a boundary stays stable while its off-screen members
// move in and out of view.
func (o *Optimizer) boundaries(g *graph.Graph, vp Viewport) []cluster.Polygon {
	area := vp.VisibleRect().Expand(o.opts.CullMargin / vp.Zoom)
	var out []cluster.Polygon
	for _, c := range o.clusters.Clusters(g) {
		if len(c.Boundary) == 0 {
			continue
		}
		if geom.BoundsOf(c.Boundary, 0).Intersects(area) {
			out = append(out, c.Boundary)
		}
	}
	return out
}

// transition derives the renderer hint from the tier movement since the
// previous frame and records the new level.
func (o *Optimizer) transition(tier lod.Tier) TransitionKind {
	prev := o.prev
	o.prev = tier.Level
	switch {
	case prev < 0:
		return TransitionInstant
	case prev == tier.Level:
		return TransitionNone
	case abs(prev-tier.Level) == 1:
		return TransitionFade
	default:
		return TransitionMorph
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func lessPair(a1, b1, a2, b2 string) bool {
	if a1 != a2 {
		return a1 < a2
	}
	return b1 < b2
}

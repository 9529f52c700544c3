package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jwkaltz/gravitas/pkg/geom"
	"github.com/jwkaltz/gravitas/pkg/graph"
)

// Layout is the durable result of a solve: the snapshot that was laid out
// plus the final position of every node. It round-trips through JSON and
// can seed a new graph with [Layout.Graph], so a solve done once can feed
// any number of later viewport queries.
type Layout struct {
	Snapshot  graph.Snapshot      `json:"snapshot" bson:"snapshot"`
	Positions map[string]geom.Vec `json:"positions" bson:"positions"`
}

// NewLayout captures the graph's topology and current positions.
func NewLayout(g *graph.Graph) Layout {
	pos := make(map[string]geom.Vec, g.NodeCount())
	for _, n := range g.Nodes() {
		pos[n.ID] = n.State.Pos
	}
	return Layout{Snapshot: g.Snapshot(), Positions: pos}
}

// Graph rebuilds a graph from the layout, placing each node at its
// recorded position. Positions for ids the snapshot no longer contains
// are ignored; the snapshot is the source of truth for topology.
func (l Layout) Graph() (*graph.Graph, error) {
	g := graph.New()
	if _, err := g.ApplySnapshot(l.Snapshot); err != nil {
		return nil, fmt.Errorf("apply snapshot: %w", err)
	}
	for id, p := range l.Positions {
		if n := g.Node(id); n != nil {
			n.State.Pos = p
		}
	}
	return g, nil
}

// WriteLayout encodes a layout as indented JSON and writes it to w.
// Map keys are emitted in sorted order, so identical layouts produce
// byte-identical output. The result can be re-read with [ReadLayout].
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadLayout decodes a JSON layout from r and validates its snapshot.
func ReadLayout(r io.Reader) (Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return Layout{}, fmt.Errorf("decode: %w", err)
	}
	if err := l.Snapshot.Validate(); err != nil {
		return Layout{}, fmt.Errorf("invalid layout: %w", err)
	}
	return l, nil
}

// ExportLayout writes a layout to a JSON file at path.
// This is a convenience wrapper around [WriteLayout] for file-based output.
func ExportLayout(l Layout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteLayout(l, f)
}

// ImportLayout reads a JSON layout file at path.
// This is a convenience wrapper around [ReadLayout] for file-based input.
func ImportLayout(path string) (Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return Layout{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLayout(f)
}

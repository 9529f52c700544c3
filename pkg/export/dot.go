package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jwkaltz/gravitas/pkg/viewport"
)

// ToDOT converts a frame to Graphviz DOT with every node pinned at its
// solved position. The preamble selects the neato engine with pinned
// input positions, so renderers draw the layout the solver produced
// instead of computing their own.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(f *viewport.Frame) string {
	var buf bytes.Buffer
	buf.WriteString("graph layout {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fixedsize=true, fontsize=10];\n")
	buf.WriteString("  edge [color=grey];\n")
	buf.WriteString("\n")

	for _, n := range f.Nodes {
		attrs := nodeAttrs(n)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range f.Edges {
		fmt.Fprintf(&buf, "  %q -- %q [penwidth=%.2f];\n", e.Source, e.Target, e.Thickness)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n viewport.RenderNode) []string {
	label := ""
	if n.LabelVisible {
		label = n.ID
	}
	// Size is a radius in world units; DOT width is a diameter in inches.
	return []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("pos=\"%.2f,%.2f!\"", n.X, n.Y),
		fmt.Sprintf("width=%.3f", 2*n.Size/72),
	}
}

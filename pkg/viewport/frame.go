package viewport

import (
	"fmt"

	"github.com/jwkaltz/gravitas/pkg/cluster"
	"github.com/jwkaltz/gravitas/pkg/lod"
)

// TransitionKind hints how a renderer should move from the previous frame
// to this one. The engine only reports the hint, it never animates.
type TransitionKind int

const (
	// TransitionNone means the detail tier is unchanged and positions can
	// update in place.
	TransitionNone TransitionKind = iota
	// TransitionInstant means there is no previous frame to animate from.
	TransitionInstant
	// TransitionFade means the tier moved by one level, so elements should
	// fade in or out.
	TransitionFade
	// TransitionMorph means the tier jumped by two or more levels, so
	// geometry should be interpolated.
	TransitionMorph
)

// String returns a human-readable name for the transition kind.
func (k TransitionKind) String() string {
	switch k {
	case TransitionNone:
		return "none"
	case TransitionInstant:
		return "instant"
	case TransitionFade:
		return "fade"
	case TransitionMorph:
		return "morph"
	default:
		return fmt.Sprintf("transition(%d)", int(k))
	}
}

// RenderNode is one drawable node. Frames carry fresh copies, never
// pointers into the graph's physics state.
type RenderNode struct {
	ID           string  `json:"id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Size         float64 `json:"size"`
	LabelVisible bool    `json:"label_visible"`
}

// RenderEdge is one drawable edge, or one bundle of merged edges when the
// tier bundles.
type RenderEdge struct {
	Source    string  `json:"source"`
	Target    string  `json:"target"`
	Thickness float64 `json:"thickness"`
}

// Frame is the renderer-ready payload for one viewport state. Nodes are
// sorted by id and edges by endpoint pair, so identical inputs produce
// byte-identical frames.
type Frame struct {
	Nodes      []RenderNode      `json:"nodes"`
	Edges      []RenderEdge      `json:"edges"`
	Tier       lod.Tier          `json:"tier"`
	Boundaries []cluster.Polygon `json:"boundaries,omitempty"`
	Transition TransitionKind    `json:"transition"`
}

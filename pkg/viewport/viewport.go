package viewport

import (
	"errors"

	"github.com/jwkaltz/gravitas/pkg/geom"
)

// ErrInvalidViewport reports a viewport with non-positive zoom or size.
var ErrInvalidViewport = errors.New("viewport: zoom and size must be positive")

// Viewport is the camera state a frame is produced for. Origin and Size
// describe the base world rectangle at zoom 1. Zoom magnifies around the
// rectangle's center, so higher zoom sees a smaller world window in more
// detail.
type Viewport struct {
	Origin geom.Vec `json:"origin"`
	Size   geom.Vec `json:"size"`
	Zoom   float64  `json:"zoom"`
}

// Valid reports whether the viewport can produce a frame.
func (v Viewport) Valid() bool {
	return v.Zoom > 0 && v.Size.X > 0 && v.Size.Y > 0
}

// Rect returns the base world rectangle at zoom 1. Detail classification
// measures density against this rectangle, so zooming does not change how
// crowded a graph counts as.
func (v Viewport) Rect() geom.Rect {
	return geom.Rect{X: v.Origin.X, Y: v.Origin.Y, W: v.Size.X, H: v.Size.Y}
}

// VisibleRect returns the world rectangle actually on screen: the base
// rectangle scaled by 1/zoom around its center.
func (v Viewport) VisibleRect() geom.Rect {
	base := v.Rect()
	if v.Zoom <= 0 || v.Zoom == 1 {
		return base
	}
	c := base.Center()
	w := base.W / v.Zoom
	h := base.H / v.Zoom
	return geom.Rect{X: c.X - w/2, Y: c.Y - h/2, W: w, H: h}
}

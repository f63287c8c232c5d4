package interact

import (
	"math"

	"github.com/matzehuels/familytree/pkg/render/tree/layout"
	"github.com/matzehuels/familytree/pkg/render/tree/surface"
)

// Default viewport limits.
const (
	DefaultMinZoom    = 0.1
	DefaultMaxZoom    = 20.0
	DefaultPanMargin  = 40.0
	DefaultFitPadding = 40.0
)

// Viewport holds the zoom range and pan limits of a surface.
type Viewport struct {
	MinZoom    float64
	MaxZoom    float64
	PanMargin  float64
	FitPadding float64
}

// DefaultViewport returns the default limits.
func DefaultViewport() Viewport {
	return Viewport{
		MinZoom:    DefaultMinZoom,
		MaxZoom:    DefaultMaxZoom,
		PanMargin:  DefaultPanMargin,
		FitPadding: DefaultFitPadding,
	}
}

// ClampZoom limits z to the zoom range. NaN becomes MinZoom.
func (v Viewport) ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return v.MinZoom
	}
	return min(max(z, v.MinZoom), v.MaxZoom)
}

// ZoomAt returns t zoomed to z (clamped) so that the layout point under
// screen stays under it.
func (v Viewport) ZoomAt(t surface.Transform, z float64, screen surface.Point) surface.Transform {
	anchor := t.Invert(screen)
	return Pin(v.ClampZoom(z), anchor, screen)
}

// Pin returns the transform with zoom z that maps layout point anchor onto
// screen point at.
func Pin(z float64, anchor, at surface.Point) surface.Transform {
	return surface.Transform{Zoom: z, TX: at.X - anchor.X*z, TY: at.Y - anchor.Y*z}
}

// ClampPan shifts t so that at least PanMargin pixels of the content
// bounds stay inside a w×h surface on every axis.
func (v Viewport) ClampPan(t surface.Transform, content layout.Rect, w, h float64) surface.Transform {
	t.TX = clampAxis(t.TX, content.MinX*t.Zoom, content.MaxX*t.Zoom, w, v.PanMargin)
	t.TY = clampAxis(t.TY, content.MinY*t.Zoom, content.MaxY*t.Zoom, h, v.PanMargin)
	return t
}

// clampAxis keeps the screen span [lo+off, hi+off] overlapping [0, size]
// by at least margin.
func clampAxis(off, lo, hi, size, margin float64) float64 {
	margin = min(margin, (hi-lo)/2, size/2)
	minOff := margin - hi
	maxOff := size - margin - lo
	if minOff > maxOff {
		return off
	}
	return min(max(off, minOff), maxOff)
}

// Fit returns the transform that shows all of content inside a w×h
// surface with FitPadding on each side, using the largest zoom not above 1,
// centered.
func (v Viewport) Fit(content layout.Rect, w, h float64) surface.Transform {
	z := 1.0
	if bw := content.Width(); bw > 0 {
		z = min(z, (w-2*v.FitPadding)/bw)
	}
	if bh := content.Height(); bh > 0 {
		z = min(z, (h-2*v.FitPadding)/bh)
	}
	z = v.ClampZoom(z)
	cx := (content.MinX + content.MaxX) / 2
	cy := (content.MinY + content.MaxY) / 2
	return Pin(z, surface.Point{X: cx, Y: cy}, surface.Point{X: w / 2, Y: h / 2})
}

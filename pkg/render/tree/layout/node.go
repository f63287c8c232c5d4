package layout

import "fmt"

// Node is a positioned person card. X and Y are the top-left corner in
// layout space; y grows downwards.
type Node struct {
	ID            string
	X, Y          float64
	Width, Height float64
	Generation    int
}

// Left returns the x of the left card edge.
func (n Node) Left() float64 { return n.X }

// Right returns the x of the right card edge.
func (n Node) Right() float64 { return n.X + n.Width }

// Top returns the y of the top card edge.
func (n Node) Top() float64 { return n.Y }

// Bottom returns the y of the bottom card edge.
func (n Node) Bottom() float64 { return n.Y + n.Height }

// CenterX returns the horizontal center of the card.
func (n Node) CenterX() float64 { return n.X + n.Width/2 }

// CenterY returns the vertical center of the card.
func (n Node) CenterY() float64 { return n.Y + n.Height/2 }

// Overlaps reports whether the boxes of n and o intersect.
func (n Node) Overlaps(o Node) bool {
	return n.Left() < o.Right() && o.Left() < n.Right() &&
		n.Top() < o.Bottom() && o.Top() < n.Bottom()
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal span.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical span.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.MaxX <= r.MinX || r.MaxY <= r.MinY }

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{min(r.MinX, o.MinX), min(r.MinY, o.MinY), max(r.MaxX, o.MaxX), max(r.MaxY, o.MaxY)}
}

// Reason explains why a person was not positioned.
type Reason string

const (
	ReasonUnreachable        Reason = "unreachable"
	ReasonAboveRoot          Reason = "above_root"
	ReasonGenerationMismatch Reason = "generation_mismatch"
	ReasonOrphan             Reason = "orphan"
)

// Unpositioned records a person left out of the layout.
type Unpositioned struct {
	ID         string
	Generation int
	Reason     Reason
	Detail     string
}

func (u Unpositioned) String() string {
	return fmt.Sprintf("%s (generation %d): %s, %s", u.ID, u.Generation, u.Reason, u.Detail)
}

package surface

import (
	"image"
	"math"

	"github.com/matzehuels/familytree/pkg/render/tree/connect"
)

// Point is a position in screen or layout coordinates.
type Point struct{ X, Y float64 }

// Transform maps layout coordinates to screen coordinates:
// screen = layout × Zoom + (TX, TY).
type Transform struct {
	Zoom   float64
	TX, TY float64
}

// Identity is the transform with zoom 1 and no offset.
func Identity() Transform { return Transform{Zoom: 1} }

// Apply maps a layout point to the screen.
func (t Transform) Apply(p Point) Point {
	return Point{p.X*t.Zoom + t.TX, p.Y*t.Zoom + t.TY}
}

// Invert maps a screen point back to layout coordinates.
func (t Transform) Invert(p Point) Point {
	z := t.Zoom
	if z == 0 {
		z = 1
	}
	return Point{(p.X - t.TX) / z, (p.Y - t.TY) / z}
}

// Card is a composite person primitive: background, circular avatar, name
// and label. Geometry is in layout coordinates.
type Card struct {
	ID       string
	PersonID string
	X, Y     float64
	W, H     float64
	Name     string
	Label    string
	Accent   string
	Avatar   image.Image
	Opacity  float64
	Deceased bool
}

// Contains reports whether layout point p lies inside the card.
func (c Card) Contains(p Point) bool {
	return p.X >= c.X && p.X <= c.X+c.W && p.Y >= c.Y && p.Y <= c.Y+c.H
}

// Line is a connector primitive in layout coordinates.
type Line struct {
	ID         string
	RelationID string
	Kind       connect.Kind
	Style      connect.Style
	X1, Y1     float64
	X2, Y2     float64
}

// Length returns the line length.
func (l Line) Length() float64 { return math.Hypot(l.X2-l.X1, l.Y2-l.Y1) }

// Item is one primitive in z-order: exactly one of Card and Line is set.
type Item struct {
	Card *Card
	Line *Line
}

// EventKind identifies an input event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	Wheel
	TouchStart
	TouchMove
	TouchEnd
	DoubleClick
	LongPress
)

var eventNames = [...]string{
	"pointerdown", "pointermove", "pointerup", "wheel",
	"touchstart", "touchmove", "touchend", "dblclick", "longpress",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is an input event in screen coordinates. Touches lists the active
// touch points for touch events; DeltaY is the wheel delta.
type Event struct {
	Kind    EventKind
	X, Y    float64
	DeltaY  float64
	Touches []Point
}

// Handler receives events registered with [Surface.On].
type Handler func(Event)

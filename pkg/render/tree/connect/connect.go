package connect

import (
	"math"

	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/render/tree/layout"
)

// Kind identifies the role of a segment.
type Kind int

const (
	Partner Kind = iota
	Drop
	Bus
	Riser
)

func (k Kind) String() string {
	switch k {
	case Partner:
		return "partner"
	case Drop:
		return "drop"
	case Bus:
		return "bus"
	case Riser:
		return "riser"
	}
	return "unknown"
}

// Style is the stroke style of a segment.
type Style int

const (
	Solid Style = iota
	Dashed
)

func (s Style) String() string {
	if s == Dashed {
		return "dashed"
	}
	return "solid"
}

// Segment is a straight connector line in layout space.
type Segment struct {
	Kind       Kind
	Style      Style
	RelationID string
	// From and To are the person IDs the segment connects. Drop and bus
	// segments belong to the union's owner; risers lead To a child.
	From, To       string
	X1, Y1, X2, Y2 float64
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 { return math.Hypot(s.X2-s.X1, s.Y2-s.Y1) }

// minBusWidth is the shortest bus worth drawing. A single child centered
// under its drop has no bus.
const minBusWidth = 0.5

// Route computes every connector for l. Relations are visited in tree
// order, so the result is deterministic.
func Route(t *family.Tree, l *layout.Layout) []Segment {
	var segs []Segment
	for _, rel := range t.AllRelations() {
		u := l.Union(rel)
		if u.Paired() {
			segs = append(segs, partnerLine(u))
		}
		segs = append(segs, descent(u, l)...)
	}
	return segs
}

// PartnerStyle is solid for a married primary union.
func PartnerStyle(rel *family.Relation) Style {
	if rel.Married && rel.Primary {
		return Solid
	}
	return Dashed
}

// DescentStyle is solid for a primary union that is married or has no
// partner.
func DescentStyle(rel *family.Relation) Style {
	if rel.Primary && (rel.Married || !rel.HasPartner()) {
		return Solid
	}
	return Dashed
}

func partnerLine(u layout.Union) Segment {
	left, right := u.Ordered()
	y := left.CenterY()
	return Segment{
		Kind:       Partner,
		Style:      PartnerStyle(u.Relation),
		RelationID: u.Relation.ID,
		From:       left.ID,
		To:         right.ID,
		X1:         left.Right(),
		Y1:         y,
		X2:         right.Left(),
		Y2:         y,
	}
}

func descent(u layout.Union, l *layout.Layout) []Segment {
	x, y, ok := u.Drop()
	if !ok {
		return nil
	}
	parentGen := u.Owner.Generation
	if !u.HasOwner {
		parentGen = u.Partner.Generation
	}

	var kids []layout.Node
	for _, id := range u.Relation.Children {
		if n, ok := l.Node(id); ok && n.Generation == parentGen+1 {
			kids = append(kids, n)
		}
	}
	if len(kids) == 0 {
		return nil
	}

	rel := u.Relation
	style := DescentStyle(rel)
	busY := kids[0].Top() - l.VerticalGap/2
	segs := []Segment{{
		Kind: Drop, Style: style, RelationID: rel.ID, From: rel.Owner,
		X1: x, Y1: y, X2: x, Y2: busY,
	}}

	lo, hi := x, x
	for _, k := range kids {
		lo, hi = min(lo, k.CenterX()), max(hi, k.CenterX())
	}
	if hi-lo >= minBusWidth {
		segs = append(segs, Segment{
			Kind: Bus, Style: style, RelationID: rel.ID, From: rel.Owner,
			X1: lo, Y1: busY, X2: hi, Y2: busY,
		})
	}
	for _, k := range kids {
		segs = append(segs, Segment{
			Kind: Riser, Style: style, RelationID: rel.ID, From: rel.Owner, To: k.ID,
			X1: k.CenterX(), Y1: busY, X2: k.CenterX(), Y2: k.Top(),
		})
	}
	return segs
}

// Bounds returns the bounding box of segs.
func Bounds(segs []Segment) layout.Rect {
	if len(segs) == 0 {
		return layout.Rect{}
	}
	r := layout.Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, s := range segs {
		r.MinX = min(r.MinX, s.X1, s.X2)
		r.MaxX = max(r.MaxX, s.X1, s.X2)
		r.MinY = min(r.MinY, s.Y1, s.Y2)
		r.MaxY = max(r.MaxY, s.Y1, s.Y2)
	}
	return r
}

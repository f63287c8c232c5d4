package layout

import "github.com/matzehuels/familytree/pkg/family"

// Union is the positioned view of a relation: its owner and partner nodes
// when they were placed. A partner in a different band than the owner is
// treated as absent.
type Union struct {
	Relation   *family.Relation
	Owner      Node
	Partner    Node
	HasOwner   bool
	HasPartner bool
}

// Union resolves rel against the layout.
func (l *Layout) Union(rel *family.Relation) Union {
	u := Union{Relation: rel}
	u.Owner, u.HasOwner = l.Nodes[rel.Owner]
	if rel.HasPartner() {
		u.Partner, u.HasPartner = l.Nodes[rel.Partner]
		if u.HasOwner && u.HasPartner && u.Owner.Generation != u.Partner.Generation {
			u.HasPartner = false
		}
	}
	return u
}

// Paired reports whether both sides of the union are positioned.
func (u Union) Paired() bool { return u.HasOwner && u.HasPartner }

// Ordered returns the two nodes of a paired union left to right.
func (u Union) Ordered() (left, right Node) {
	if u.Partner.X < u.Owner.X {
		return u.Partner, u.Owner
	}
	return u.Owner, u.Partner
}

// Drop returns the point where the line down to the union's children
// starts.
//
// For a paired union this is the midpoint between the facing card edges at
// card mid-height; a non-primary union moves it a quarter of the gap towards
// the partner. A union with a single positioned member drops from that
// card's bottom center.
func (u Union) Drop() (x, y float64, ok bool) {
	switch {
	case u.Paired():
		left, right := u.Ordered()
		x = (left.Right() + right.Left()) / 2
		if !u.Relation.Primary {
			offset := (right.Left() - left.Right()) / 4
			if u.Partner.X < u.Owner.X {
				offset = -offset
			}
			x += offset
		}
		return x, u.Owner.CenterY(), true
	case u.HasOwner:
		return u.Owner.CenterX(), u.Owner.Bottom(), true
	case u.HasPartner:
		return u.Partner.CenterX(), u.Partner.Bottom(), true
	}
	return 0, 0, false
}

// Anchor returns the x of rel's drop point, used to center its children.
func (l *Layout) Anchor(rel *family.Relation) (float64, bool) {
	x, _, ok := l.Union(rel).Drop()
	return x, ok
}

package family

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	// ErrInvalidPersonID is returned by [Tree.AddPerson] when the person ID is empty.
	ErrInvalidPersonID = errors.New("person ID must not be empty")

	// ErrDuplicatePersonID is returned by [Tree.AddPerson] when a person with
	// the same ID is already part of the tree.
	ErrDuplicatePersonID = errors.New("duplicate person ID")

	// ErrDuplicateRelationID is returned by [Tree.AddRelation] when a relation
	// with the same ID already exists.
	ErrDuplicateRelationID = errors.New("duplicate relation ID")

	// ErrUnknownOwner is returned by [Tree.AddRelation] when the owner of the
	// relation has not been added.
	ErrUnknownOwner = errors.New("unknown relation owner")

	// ErrUnknownPartner is returned by [Tree.AddRelation] when a partner ID is
	// set but no such person exists.
	ErrUnknownPartner = errors.New("unknown partner")

	// ErrUnknownChild is returned by [Tree.AddRelation] when a child ID does
	// not refer to a person in the tree.
	ErrUnknownChild = errors.New("unknown child")

	// ErrSelfPartner is returned by [Tree.AddRelation] when owner and partner
	// are the same person.
	ErrSelfPartner = errors.New("person cannot be their own partner")

	// ErrMultipleParents is returned by [Tree.AddRelation] when a child is
	// already listed under another relation. A person has at most one parent
	// relation.
	ErrMultipleParents = errors.New("child already belongs to a parent relation")
)

// Gender is the binary gender enum used for placeholders and styling.
type Gender int

const (
	// Male is the zero value so records without a gender still render.
	Male Gender = iota
	// Female selects the female placeholder avatar and card accent.
	Female
)

// String returns "male" or "female".
func (g Gender) String() string {
	if g == Female {
		return "female"
	}
	return "male"
}

// ParseGender maps "male"/"m" and "female"/"f" in any case to a Gender.
// An empty string is Male. Unknown values yield Male and false.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "female", "f":
		return Female, true
	case "male", "m", "":
		return Male, true
	}
	return Male, false
}

// Person is a node of the kinship graph.
//
// Generation 0 is the root couple; each step down adds one. Birth and Death
// are optional; a person with a death date is never considered alive.
type Person struct {
	ID         string
	Name       string
	Gender     Gender
	Generation int
	Alive      bool
	Birth      *time.Time
	Death      *time.Time
	AvatarURL  string
}

// Deceased reports whether the person should get the deceased treatment.
func (p Person) Deceased() bool { return !p.Alive || p.Death != nil }

// Relation is a union between Owner and an optional Partner.
//
// Children are kept in input order. Primary is set by [Tree.AssignPrimary]
// when the relation is the primary union of both its owner and its partner.
// Before that it holds the input flag.
type Relation struct {
	ID       string
	Owner    string
	Partner  string
	Married  bool
	Primary  bool
	Children []string

	explicitPrimary bool
	order           int
}

// HasPartner reports whether a partner is recorded.
func (r Relation) HasPartner() bool { return r.Partner != "" }

// HasChildren reports whether the relation lists any child.
func (r Relation) HasChildren() bool { return len(r.Children) > 0 }

// Other returns the person on the other side of the union from id, or ""
// when id is not part of the relation or the partner is unknown.
func (r Relation) Other(id string) string {
	switch id {
	case r.Owner:
		return r.Partner
	case r.Partner:
		return r.Owner
	}
	return ""
}

// Tree is an arena of persons and relations with lookup indexes.
//
// The zero value is not usable; create trees with [New] or [Build].
type Tree struct {
	persons   map[string]*Person
	order     []string
	relations map[string]*Relation
	owned     map[string][]string // personID -> relation IDs the person owns
	partnered map[string][]string // personID -> relation IDs naming the person as partner
	parentOf  map[string]string   // childID -> relation ID
	cards     map[string]string   // personID -> drawn card primitive
	primary   map[string]string   // personID -> primary relation ID
	nextRel   int
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{
		persons:   make(map[string]*Person),
		relations: make(map[string]*Relation),
		owned:     make(map[string][]string),
		partnered: make(map[string][]string),
		parentOf:  make(map[string]string),
		cards:     make(map[string]string),
		primary:   make(map[string]string),
	}
}

// AddPerson adds p to the arena.
func (t *Tree) AddPerson(p Person) error {
	if p.ID == "" {
		return ErrInvalidPersonID
	}
	if _, ok := t.persons[p.ID]; ok {
		return ErrDuplicatePersonID
	}
	t.persons[p.ID] = &p
	t.order = append(t.order, p.ID)
	return nil
}

// AddRelation adds r and indexes it under its owner, partner and children.
// An empty r.ID is replaced by a generated "owner#n" identifier. The
// returned ID is the one stored in the tree.
func (t *Tree) AddRelation(r Relation) (string, error) {
	if _, ok := t.persons[r.Owner]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOwner, r.Owner)
	}
	if r.Partner != "" {
		if r.Partner == r.Owner {
			return "", ErrSelfPartner
		}
		if _, ok := t.persons[r.Partner]; !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownPartner, r.Partner)
		}
	}
	for i, c := range r.Children {
		if slices.Contains(r.Children[:i], c) {
			return "", fmt.Errorf("%w: %q", ErrMultipleParents, c)
		}
		if _, ok := t.persons[c]; !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownChild, c)
		}
		if _, ok := t.parentOf[c]; ok {
			return "", fmt.Errorf("%w: %q", ErrMultipleParents, c)
		}
	}
	if r.ID == "" {
		r.ID = fmt.Sprintf("%s#%d", r.Owner, len(t.owned[r.Owner]))
	}
	if _, ok := t.relations[r.ID]; ok {
		return "", ErrDuplicateRelationID
	}

	r.Children = slices.Clone(r.Children)
	r.explicitPrimary = r.Primary
	r.order = t.nextRel
	t.nextRel++

	rel := &r
	t.relations[r.ID] = rel
	t.owned[r.Owner] = append(t.owned[r.Owner], r.ID)
	if r.Partner != "" {
		t.partnered[r.Partner] = append(t.partnered[r.Partner], r.ID)
	}
	for _, c := range r.Children {
		t.parentOf[c] = r.ID
	}
	return r.ID, nil
}

// Person returns the person with the given ID.
func (t *Tree) Person(id string) (*Person, bool) {
	p, ok := t.persons[id]
	return p, ok
}

// Persons returns all persons in insertion order.
func (t *Tree) Persons() []*Person {
	out := make([]*Person, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.persons[id])
	}
	return out
}

// Len returns the number of persons.
func (t *Tree) Len() int { return len(t.persons) }

// Relation returns the relation with the given ID.
func (t *Tree) Relation(id string) (*Relation, bool) {
	r, ok := t.relations[id]
	return r, ok
}

// AllRelations returns every relation in insertion order.
func (t *Tree) AllRelations() []*Relation {
	out := make([]*Relation, 0, len(t.relations))
	for _, r := range t.relations {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *Relation) int { return a.order - b.order })
	return out
}

// Relations returns the relations owned by id in input order.
func (t *Tree) Relations(id string) []*Relation {
	return t.lookup(t.owned[id])
}

// PartnerRelations returns the relations in which id is the partner.
func (t *Tree) PartnerRelations(id string) []*Relation {
	return t.lookup(t.partnered[id])
}

// Unions returns every relation that id takes part in, owned first.
func (t *Tree) Unions(id string) []*Relation {
	return append(t.Relations(id), t.PartnerRelations(id)...)
}

// ParentRelation returns the relation listing id as a child.
func (t *Tree) ParentRelation(id string) (*Relation, bool) {
	rid, ok := t.parentOf[id]
	if !ok {
		return nil, false
	}
	return t.relations[rid], true
}

// Partners returns the IDs of everyone id has a recorded union with, in
// union order. Partnerless relations contribute nothing.
func (t *Tree) Partners(id string) []string {
	var out []string
	for _, r := range t.Unions(id) {
		if o := r.Other(id); o != "" && !slices.Contains(out, o) {
			out = append(out, o)
		}
	}
	return out
}

// Parents returns the owner and, when known, the partner of id's parent relation.
func (t *Tree) Parents(id string) []string {
	r, ok := t.ParentRelation(id)
	if !ok {
		return nil
	}
	if r.Partner == "" {
		return []string{r.Owner}
	}
	return []string{r.Owner, r.Partner}
}

// AttachCard records the drawn card primitive for a person.
func (t *Tree) AttachCard(personID, primitiveID string) { t.cards[personID] = primitiveID }

// Card returns the card primitive attached to a person by the last draw.
func (t *Tree) Card(personID string) (string, bool) {
	c, ok := t.cards[personID]
	return c, ok
}

// DetachCards drops every card attachment. Called at the start of each redraw.
func (t *Tree) DetachCards() { clear(t.cards) }

func (t *Tree) lookup(ids []string) []*Relation {
	if len(ids) == 0 {
		return nil
	}
	out := make([]*Relation, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.relations[id])
	}
	return out
}

package family

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the layout of birth and death dates in records.
const DateLayout = "2006-01-02"

// Record is the nested host representation of a person and their unions.
// It is what data-fetching layers hand over and what [Build] consumes.
type Record struct {
	ID         string           `json:"id" yaml:"id" validate:"required"`
	Name       string           `json:"name" yaml:"name" validate:"required"`
	Gender     string           `json:"gender,omitempty" yaml:"gender,omitempty" validate:"omitempty,oneof=male female m f Male Female M F"`
	Generation *int             `json:"generation,omitempty" yaml:"generation,omitempty" validate:"omitempty,min=0"`
	Alive      *bool            `json:"alive,omitempty" yaml:"alive,omitempty"`
	Birth      string           `json:"birth,omitempty" yaml:"birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Death      string           `json:"death,omitempty" yaml:"death,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AvatarURL  string           `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Relations  []RelationRecord `json:"relations,omitempty" yaml:"relations,omitempty" validate:"dive"`
}

// RelationRecord is the nested host representation of a union.
type RelationRecord struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty"`
	Partner  *Record  `json:"partner,omitempty" yaml:"partner,omitempty"`
	Married  bool     `json:"married,omitempty" yaml:"married,omitempty"`
	Primary  bool     `json:"primary,omitempty" yaml:"primary,omitempty"`
	Children []Record `json:"children,omitempty" yaml:"children,omitempty" validate:"dive"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateRecord checks struct-level constraints of the nested record
// (required IDs and names, gender values, date formats).
func ValidateRecord(root Record) error {
	return recordValidator().Struct(root)
}

// Build validates root and converts it to a fresh [Tree] with primary
// relations assigned. The root person keeps root.ID.
//
// A record that repeats an ID already seen is treated as a reference to the
// earlier person; its relations are not walked again.
func Build(root Record) (*Tree, error) {
	if err := ValidateRecord(root); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}
	t := New()
	b := builder{tree: t, visited: make(map[string]bool)}
	gen := 0
	if root.Generation != nil {
		gen = *root.Generation
	}
	if err := b.walk(root, gen); err != nil {
		return nil, err
	}
	t.AssignPrimary()
	return t, nil
}

type builder struct {
	tree    *Tree
	visited map[string]bool
}

func (b *builder) walk(r Record, inherited int) error {
	if b.visited[r.ID] {
		return nil
	}
	b.visited[r.ID] = true

	p, err := personFromRecord(r, inherited)
	if err != nil {
		return err
	}
	if err := b.tree.AddPerson(p); err != nil {
		return fmt.Errorf("person %s: %w", r.ID, err)
	}

	for i, rr := range r.Relations {
		rel := Relation{ID: rr.ID, Owner: r.ID, Married: rr.Married, Primary: rr.Primary}
		if rr.Partner != nil {
			if err := b.walk(*rr.Partner, p.Generation); err != nil {
				return err
			}
			rel.Partner = rr.Partner.ID
		}
		for _, c := range rr.Children {
			if err := b.walk(c, p.Generation+1); err != nil {
				return err
			}
			rel.Children = append(rel.Children, c.ID)
		}
		if _, err := b.tree.AddRelation(rel); err != nil {
			return fmt.Errorf("relation %d of %s: %w", i, r.ID, err)
		}
	}
	return nil
}

func personFromRecord(r Record, inherited int) (Person, error) {
	gender, _ := ParseGender(r.Gender)
	p := Person{
		ID:         r.ID,
		Name:       r.Name,
		Gender:     gender,
		Generation: inherited,
		Alive:      true,
		AvatarURL:  r.AvatarURL,
	}
	if r.Generation != nil {
		p.Generation = *r.Generation
	}
	if r.Alive != nil {
		p.Alive = *r.Alive
	}
	var err error
	if p.Birth, err = parseDate(r.Birth); err != nil {
		return Person{}, fmt.Errorf("person %s birth: %w", r.ID, err)
	}
	if p.Death, err = parseDate(r.Death); err != nil {
		return Person{}, fmt.Errorf("person %s death: %w", r.ID, err)
	}
	if p.Death != nil {
		p.Alive = false
	}
	return p, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ToRecord converts the tree back to the nested form, starting at rootID.
// Persons already emitted appear again only as ID/name references.
func (t *Tree) ToRecord(rootID string) (Record, bool) {
	if _, ok := t.persons[rootID]; !ok {
		return Record{}, false
	}
	seen := make(map[string]bool)
	return t.toRecord(rootID, seen), true
}

func (t *Tree) toRecord(id string, seen map[string]bool) Record {
	p := t.persons[id]
	gen := p.Generation
	rec := Record{ID: p.ID, Name: p.Name, Gender: p.Gender.String(), Generation: &gen, AvatarURL: p.AvatarURL}
	if seen[id] {
		return rec
	}
	seen[id] = true
	if !p.Alive {
		alive := false
		rec.Alive = &alive
	}
	if p.Birth != nil {
		rec.Birth = p.Birth.Format(DateLayout)
	}
	if p.Death != nil {
		rec.Death = p.Death.Format(DateLayout)
	}
	for _, r := range t.Relations(id) {
		rr := RelationRecord{ID: r.ID, Married: r.Married, Primary: r.explicitPrimary}
		if r.Partner != "" {
			partner := t.toRecord(r.Partner, seen)
			rr.Partner = &partner
		}
		for _, c := range r.Children {
			rr.Children = append(rr.Children, t.toRecord(c, seen))
		}
		rec.Relations = append(rec.Relations, rr)
	}
	return rec
}

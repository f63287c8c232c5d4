package family

import (
	"errors"
	"slices"
	"testing"
)

func mustPerson(t *testing.T, tr *Tree, id string, gen int) {
	t.Helper()
	if err := tr.AddPerson(Person{ID: id, Name: id, Generation: gen, Alive: true}); err != nil {
		t.Fatalf("AddPerson(%s): %v", id, err)
	}
}

func mustRelation(t *testing.T, tr *Tree, r Relation) string {
	t.Helper()
	id, err := tr.AddRelation(r)
	if err != nil {
		t.Fatalf("AddRelation(%+v): %v", r, err)
	}
	return id
}

func TestAddPerson(t *testing.T) {
	tr := New()
	if err := tr.AddPerson(Person{ID: ""}); !errors.Is(err, ErrInvalidPersonID) {
		t.Errorf("empty id: got %v, want ErrInvalidPersonID", err)
	}
	mustPerson(t, tr, "a", 0)
	if err := tr.AddPerson(Person{ID: "a"}); !errors.Is(err, ErrDuplicatePersonID) {
		t.Errorf("duplicate: got %v, want ErrDuplicatePersonID", err)
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tr.Len())
	}
}

func TestAddRelationErrors(t *testing.T) {
	tr := New()
	mustPerson(t, tr, "a", 0)
	mustPerson(t, tr, "b", 0)
	mustPerson(t, tr, "c", 1)
	mustPerson(t, tr, "d", 1)
	mustRelation(t, tr, Relation{ID: "r1", Owner: "a", Partner: "b", Children: []string{"c"}})

	tests := []struct {
		name string
		rel  Relation
		want error
	}{
		{"unknown owner", Relation{Owner: "x"}, ErrUnknownOwner},
		{"unknown partner", Relation{Owner: "a", Partner: "x"}, ErrUnknownPartner},
		{"self partner", Relation{Owner: "a", Partner: "a"}, ErrSelfPartner},
		{"unknown child", Relation{Owner: "a", Children: []string{"x"}}, ErrUnknownChild},
		{"child has parents", Relation{Owner: "b", Children: []string{"c"}}, ErrMultipleParents},
		{"child listed twice", Relation{Owner: "b", Children: []string{"d", "d"}}, ErrMultipleParents},
		{"duplicate id", Relation{ID: "r1", Owner: "b"}, ErrDuplicateRelationID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tr.AddRelation(tt.rel); !errors.Is(err, tt.want) {
				t.Errorf("AddRelation() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddRelationGeneratesID(t *testing.T) {
	tr := New()
	mustPerson(t, tr, "a", 0)
	first := mustRelation(t, tr, Relation{Owner: "a"})
	second := mustRelation(t, tr, Relation{Owner: "a"})
	if first != "a#0" || second != "a#1" {
		t.Errorf("generated ids = %q, %q; want a#0, a#1", first, second)
	}
}

func TestAddRelationCopiesChildren(t *testing.T) {
	tr := New()
	mustPerson(t, tr, "a", 0)
	mustPerson(t, tr, "c", 1)
	kids := []string{"c"}
	id := mustRelation(t, tr, Relation{Owner: "a", Children: kids})
	kids[0] = "mutated"
	r, _ := tr.Relation(id)
	if r.Children[0] != "c" {
		t.Errorf("stored children changed with caller slice: %v", r.Children)
	}
}

func TestIndexes(t *testing.T) {
	tr := New()
	for _, id := range []string{"a", "b", "z"} {
		mustPerson(t, tr, id, 0)
	}
	mustPerson(t, tr, "c", 1)
	mustPerson(t, tr, "d", 1)
	mustRelation(t, tr, Relation{ID: "ab", Owner: "a", Partner: "b", Married: true, Children: []string{"c", "d"}})
	mustRelation(t, tr, Relation{ID: "za", Owner: "z", Partner: "a"})

	if got := tr.Parents("c"); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Parents(c) = %v", got)
	}
	if got := tr.Partners("a"); !slices.Equal(got, []string{"b", "z"}) {
		t.Errorf("Partners(a) = %v", got)
	}
	if got := tr.PartnerRelations("a"); len(got) != 1 || got[0].ID != "za" {
		t.Errorf("PartnerRelations(a) = %v", got)
	}
	if r, ok := tr.ParentRelation("d"); !ok || r.ID != "ab" {
		t.Errorf("ParentRelation(d) = %v, %v", r, ok)
	}
	if _, ok := tr.ParentRelation("a"); ok {
		t.Error("ParentRelation(a) should not exist")
	}
	if got := len(tr.AllRelations()); got != 2 {
		t.Errorf("AllRelations() len = %d, want 2", got)
	}
}

func TestCardAttachments(t *testing.T) {
	tr := New()
	mustPerson(t, tr, "a", 0)
	tr.AttachCard("a", "card-1")
	if c, ok := tr.Card("a"); !ok || c != "card-1" {
		t.Fatalf("Card(a) = %q, %v", c, ok)
	}
	tr.DetachCards()
	if _, ok := tr.Card("a"); ok {
		t.Error("card attachment survived DetachCards")
	}
}

func TestParseGender(t *testing.T) {
	tests := []struct {
		in     string
		want   Gender
		wantOK bool
	}{
		{"female", Female, true},
		{" F ", Female, true},
		{"Male", Male, true},
		{"", Male, true},
		{"other", Male, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseGender(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseGender(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

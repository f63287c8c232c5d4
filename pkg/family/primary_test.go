package family

import "testing"

func countPrimary(tr *Tree, owner string) int {
	n := 0
	for _, r := range tr.Relations(owner) {
		if r.Primary {
			n++
		}
	}
	return n
}

func TestAssignPrimaryPrefersChildren(t *testing.T) {
	tr := New()
	for _, id := range []string{"p", "x", "y"} {
		mustPerson(t, tr, id, 0)
	}
	mustPerson(t, tr, "kid", 1)
	mustRelation(t, tr, Relation{ID: "childless", Owner: "p", Partner: "x", Married: true})
	mustRelation(t, tr, Relation{ID: "parents", Owner: "p", Partner: "y", Married: true, Children: []string{"kid"}})

	tr.AssignPrimary()

	r, ok := tr.PrimaryRelation("p")
	if !ok || r.ID != "parents" {
		t.Fatalf("PrimaryRelation(p) = %v, want parents", r)
	}
	if n := countPrimary(tr, "p"); n != 1 {
		t.Errorf("primary count = %d, want 1", n)
	}
}

func TestAssignPrimaryRanking(t *testing.T) {
	tests := []struct {
		name string
		rels []Relation
		want string
	}{
		{
			name: "married beats unmarried",
			rels: []Relation{{ID: "u", Partner: "x"}, {ID: "m", Partner: "y", Married: true}},
			want: "m",
		},
		{
			name: "partner beats partnerless",
			rels: []Relation{{ID: "alone"}, {ID: "with", Partner: "x"}},
			want: "with",
		},
		{
			name: "ties keep input order",
			rels: []Relation{{ID: "first", Partner: "x"}, {ID: "second", Partner: "y"}},
			want: "first",
		},
		{
			name: "explicit flag wins",
			rels: []Relation{{ID: "kids", Partner: "x", Children: []string{"k"}}, {ID: "flagged", Partner: "y", Primary: true}},
			want: "flagged",
		},
		{
			name: "first explicit flag wins",
			rels: []Relation{{ID: "one", Partner: "x", Primary: true}, {ID: "two", Partner: "y", Primary: true}},
			want: "one",
		},
		{
			name: "single partnerless relation",
			rels: []Relation{{ID: "solo", Children: []string{"k"}}},
			want: "solo",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			for _, id := range []string{"p", "x", "y"} {
				mustPerson(t, tr, id, 0)
			}
			mustPerson(t, tr, "k", 1)
			for _, r := range tt.rels {
				r.Owner = "p"
				mustRelation(t, tr, r)
			}
			tr.AssignPrimary()
			tr.AssignPrimary()

			r, ok := tr.PrimaryRelation("p")
			if !ok || r.ID != tt.want {
				t.Errorf("primary = %v, want %s", r, tt.want)
			}
			if n := countPrimary(tr, "p"); n != 1 {
				t.Errorf("primary count = %d, want 1", n)
			}
		})
	}
}

func TestRankRelationsDoesNotModifyInput(t *testing.T) {
	in := []*Relation{{ID: "a"}, {ID: "b", Children: []string{"c"}}}
	out := RankRelations(in)
	if in[0].ID != "a" {
		t.Error("input slice reordered")
	}
	if out[0].ID != "b" {
		t.Errorf("RankRelations()[0] = %s, want b", out[0].ID)
	}
}

func TestAssignPrimaryAcrossPartnerUnions(t *testing.T) {
	// ben married into anna's family and owns a second, childless marriage.
	root := Record{
		ID: "anna", Name: "Anna",
		Relations: []RelationRecord{{
			Married: true,
			Partner: &Record{
				ID: "ben", Name: "Ben",
				Relations: []RelationRecord{{
					Married: true,
					Partner: &Record{ID: "cara", Name: "Cara"},
				}},
			},
			Children: []Record{{ID: "kid", Name: "Kid"}},
		}},
	}
	tr, err := Build(root)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	tr.AssignPrimary()

	for _, id := range []string{"anna", "ben", "cara", "kid"} {
		n := 0
		for _, r := range tr.Unions(id) {
			if tr.IsPrimaryFor(id, r) {
				n++
			}
		}
		want := 1
		if id == "kid" {
			want = 0
		}
		if n != want {
			t.Errorf("%s has %d primary unions, want %d", id, n, want)
		}
	}

	withAnna, _ := tr.PrimaryRelation("anna")
	if got, _ := tr.PrimaryRelation("ben"); got != withAnna {
		t.Errorf("ben's primary = %v, want the union with anna", got)
	}
	if !withAnna.Primary {
		t.Error("union with children should be primary for both sides")
	}
	withCara := tr.Relations("ben")[0]
	if got, _ := tr.PrimaryRelation("cara"); got != withCara {
		t.Errorf("cara's primary = %v, want her only union", got)
	}
	if withCara.Primary {
		t.Error("childless second marriage is primary only for cara")
	}
}

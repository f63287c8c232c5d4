package family

import (
	"slices"
	"testing"
)

// threeGenerations builds grandparents g1+g2, their children p1 (married to
// s1) and p2, and p1's child c1. loner is not connected to anyone.
func threeGenerations(t *testing.T) *Tree {
	t.Helper()
	tr := New()
	mustPerson(t, tr, "g1", 0)
	mustPerson(t, tr, "g2", 0)
	mustPerson(t, tr, "p1", 1)
	mustPerson(t, tr, "p2", 1)
	mustPerson(t, tr, "s1", 1)
	mustPerson(t, tr, "c1", 2)
	mustPerson(t, tr, "loner", 1)
	mustRelation(t, tr, Relation{Owner: "g1", Partner: "g2", Married: true, Children: []string{"p1", "p2"}})
	mustRelation(t, tr, Relation{Owner: "p1", Partner: "s1", Married: true, Children: []string{"c1"}})
	tr.AssignPrimary()
	return tr
}

func TestAncestors(t *testing.T) {
	tr := threeGenerations(t)
	got := tr.Ancestors("c1")
	want := []string{"p1", "s1", "g1", "g2"}
	if !slices.Equal(got, want) {
		t.Errorf("Ancestors(c1) = %v, want %v", got, want)
	}
	if got := tr.Ancestors("g1"); len(got) != 0 {
		t.Errorf("Ancestors(g1) = %v, want none", got)
	}
}

func TestDescendants(t *testing.T) {
	tr := threeGenerations(t)
	got := tr.Descendants("g2")
	want := []string{"p1", "p2", "c1"}
	if !slices.Equal(got, want) {
		t.Errorf("Descendants(g2) = %v, want %v", got, want)
	}
}

func TestReachable(t *testing.T) {
	tr := threeGenerations(t)
	reach := tr.Reachable("g1")
	for _, id := range []string{"g1", "g2", "p1", "p2", "s1", "c1"} {
		if !reach[id] {
			t.Errorf("%s should be reachable", id)
		}
	}
	if reach["loner"] {
		t.Error("loner should not be reachable")
	}
	if got := tr.Reachable("nobody"); len(got) != 0 {
		t.Errorf("Reachable(unknown) = %v, want empty", got)
	}
}

func TestValidate(t *testing.T) {
	tr := threeGenerations(t)
	issues := tr.Validate("g1")
	if len(issues) != 1 || issues[0].Kind != IssueUnreachable || issues[0].PersonID != "loner" {
		t.Fatalf("Validate() = %v, want one unreachable loner", issues)
	}

	bad := New()
	mustPerson(t, bad, "a", 0)
	mustPerson(t, bad, "kid", 2)
	mustRelation(t, bad, Relation{Owner: "a", Children: []string{"kid"}})
	issues = bad.Validate("")
	if len(issues) != 1 || issues[0].Kind != IssueGenerationMismatch || issues[0].PersonID != "kid" {
		t.Errorf("Validate() = %v, want generation mismatch for kid", issues)
	}
}

func TestGenerationMonotonicity(t *testing.T) {
	tr := threeGenerations(t)
	for _, r := range tr.AllRelations() {
		for _, parent := range []string{r.Owner, r.Partner} {
			if parent == "" {
				continue
			}
			pp, _ := tr.Person(parent)
			for _, c := range r.Children {
				cp, _ := tr.Person(c)
				if cp.Generation != pp.Generation+1 {
					t.Errorf("%s gen %d under %s gen %d", c, cp.Generation, parent, pp.Generation)
				}
			}
		}
	}
}

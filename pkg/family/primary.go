package family

import (
	"cmp"
	"slices"
)

// relationRank orders unions for primary selection. Lower ranks win.
func relationRank(r *Relation) int {
	switch {
	case r.HasChildren():
		return 0
	case r.HasPartner() && r.Married:
		return 1
	case r.HasPartner():
		return 2
	default:
		return 3
	}
}

// RankRelations returns rels sorted for primary selection: unions with
// children first, then married unions, then unions with a partner, then the
// rest. Ties keep input order. The input slice is not modified.
func RankRelations(rels []*Relation) []*Relation {
	out := slices.Clone(rels)
	slices.SortStableFunc(out, func(a, b *Relation) int {
		return cmp.Compare(relationRank(a), relationRank(b))
	})
	return out
}

// AssignPrimary picks exactly one primary union for every person taking
// part in at least one relation, owned or as partner.
//
// Persons are visited in insertion order. For each person the first owned
// relation flagged primary in the input wins; otherwise a union the other
// side already chose is preferred; otherwise the first union of
// [RankRelations]. A relation's Primary field is then set when it is the
// primary union of its owner and of its partner, if any.
// Calling AssignPrimary twice yields the same result.
func (t *Tree) AssignPrimary() {
	clear(t.primary)
	for _, id := range t.order {
		unions := t.Unions(id)
		if len(unions) == 0 {
			continue
		}
		t.primary[id] = t.choosePrimary(id, unions).ID
	}
	for _, r := range t.relations {
		r.Primary = t.IsPrimaryFor(r.Owner, r) &&
			(!r.HasPartner() || t.IsPrimaryFor(r.Partner, r))
	}
}

func (t *Tree) choosePrimary(id string, unions []*Relation) *Relation {
	for _, r := range unions {
		if r.Owner == id && r.explicitPrimary {
			return r
		}
	}
	var chosen []*Relation
	for _, r := range unions {
		if other := r.Other(id); other != "" && t.primary[other] == r.ID {
			chosen = append(chosen, r)
		}
	}
	if len(chosen) > 0 {
		return RankRelations(chosen)[0]
	}
	return RankRelations(unions)[0]
}

// IsPrimaryFor reports whether r is the primary union of personID.
func (t *Tree) IsPrimaryFor(personID string, r *Relation) bool {
	return r != nil && t.primary[personID] == r.ID
}

// PrimaryRelation returns the primary union of id, owned or as partner.
func (t *Tree) PrimaryRelation(id string) (*Relation, bool) {
	rid, ok := t.primary[id]
	if !ok {
		return nil, false
	}
	return t.relations[rid], true
}

// Package family provides the in-memory kinship graph that the tree renderer
// lays out and draws.
//
// # Overview
//
// A [Tree] is an arena of [Person] values keyed by ID plus a set of
// [Relation] values describing unions. A relation is owned by one person
// and optionally names a partner and an ordered list of children. Nothing
// in the graph holds a pointer to another person: parent, partner and child
// lookups go through the tree's indexes.
//
//	t := family.New()
//	t.AddPerson(family.Person{ID: "anna", Name: "Anna", Gender: family.Female})
//	t.AddPerson(family.Person{ID: "ben", Name: "Ben", Gender: family.Male})
//	t.AddPerson(family.Person{ID: "cleo", Name: "Cleo", Generation: 1})
//	t.AddRelation(family.Relation{Owner: "anna", Partner: "ben", Married: true, Children: []string{"cleo"}})
//	t.AssignPrimary()
//
// # Building From Host Data
//
// Hosts usually hand over a nested structure: a root person with relations,
// each relation carrying a partner record and child records. [Build] walks a
// [Record] depth-first and produces a fresh tree on every call, so relations
// and child lists are never patched in place between renders.
//
// Generation indexes are taken from the records when present. When a record
// omits its generation, it is derived from the parent (children) or the
// owner (partners).
//
// # Primary Relations
//
// Every person in a union has exactly one primary union, counting both the
// relations they own and those naming them as partner. [Tree.AssignPrimary]
// picks it using [RankRelations]; an explicit primary flag from the input
// wins for the owner, and a union the partner already chose is preferred.
// Lines are drawn solid only for unions that are primary for both sides.
//
// # Integrity
//
// [Tree.Validate] reports generation mismatches between parents and children
// and persons that cannot be reached from a root. Issues are returned, not
// fixed: the layout solver reports the same persons as unpositioned.
//
// # Concurrency
//
// A Tree is not safe for concurrent mutation. Read-only queries may run
// concurrently once building has finished.
package family

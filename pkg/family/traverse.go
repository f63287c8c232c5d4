package family

import "fmt"

// Ancestors returns the parents of id, their parents and so on, breadth
// first and without duplicates. id itself is not included.
func (t *Tree) Ancestors(id string) []string {
	seen := map[string]bool{id: true}
	var out []string
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range t.Parents(cur) {
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
			queue = append(queue, p)
		}
	}
	return out
}

// Descendants returns the children of id (through every union id takes
// part in), their children and so on, breadth first.
func (t *Tree) Descendants(id string) []string {
	seen := map[string]bool{id: true}
	var out []string
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, r := range t.Unions(cur) {
			for _, c := range r.Children {
				if seen[c] {
					continue
				}
				seen[c] = true
				out = append(out, c)
				queue = append(queue, c)
			}
		}
	}
	return out
}

// Reachable returns the set of person IDs connected to rootID through
// partner and parent-child links, root included. An unknown root yields an
// empty set.
func (t *Tree) Reachable(rootID string) map[string]bool {
	seen := make(map[string]bool)
	if _, ok := t.persons[rootID]; !ok {
		return seen
	}
	seen[rootID] = true
	stack := []string{rootID}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var next []string
		next = append(next, t.Partners(cur)...)
		next = append(next, t.Parents(cur)...)
		for _, r := range t.Unions(cur) {
			next = append(next, r.Children...)
		}
		for _, n := range next {
			if !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return seen
}

// IssueKind classifies a data-integrity problem found by [Tree.Validate].
type IssueKind string

const (
	// IssueGenerationMismatch flags a child whose generation is not exactly
	// one greater than a known parent's.
	IssueGenerationMismatch IssueKind = "generation_mismatch"
	// IssueUnreachable flags a person that cannot be reached from the root.
	IssueUnreachable IssueKind = "unreachable"
)

// Issue is a data-integrity finding. Issues are reported, never repaired.
type Issue struct {
	Kind     IssueKind
	PersonID string
	Detail   string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Kind, i.PersonID, i.Detail)
}

// Validate checks the generation invariant for every parent-child edge and,
// when rootID is not empty, reachability from the root.
func (t *Tree) Validate(rootID string) []Issue {
	var issues []Issue
	for _, id := range t.order {
		p := t.persons[id]
		for _, parent := range t.Parents(id) {
			pp := t.persons[parent]
			if p.Generation != pp.Generation+1 {
				issues = append(issues, Issue{
					Kind:     IssueGenerationMismatch,
					PersonID: id,
					Detail:   fmt.Sprintf("generation %d under parent %s at generation %d", p.Generation, parent, pp.Generation),
				})
				break
			}
		}
	}
	if rootID == "" {
		return issues
	}
	reach := t.Reachable(rootID)
	for _, id := range t.order {
		if !reach[id] {
			issues = append(issues, Issue{Kind: IssueUnreachable, PersonID: id, Detail: "not connected to " + rootID})
		}
	}
	return issues
}

// Package layout positions the persons of a family tree in generation bands.
//
// # Overview
//
// [Solve] takes a [family.Tree] and a root person and returns a [Layout]:
// one [Node] per positioned person with its top-left corner, card size and
// generation. Persons sharing a generation share a horizontal band; band y
// is (generation - root generation) × (card height + vertical gap).
//
// # Band Order
//
// The root band holds the root person flanked by their partners: the primary
// partner to the right, further partners to the left. If that band ends up
// with exactly two partners, they are centered as a pair around x = 0.
//
// Every lower band is built by walking the band above in x order. For each
// parent, its unions are visited primary first and their children emitted
// in input order. Each child brings along its partners from the same
// generation, using the same left/right rule as the root. A person is
// emitted at most once per band.
//
// # Spacing
//
// Children of one union form a sibling group that is centered under the
// union's drop point (see [Layout.Anchor]) when space allows and pushed
// right otherwise. Adjacent cards are at least the node distance apart;
// partners sit closer, at the spouse gap. Card widths come from measured
// text (see [styles.CardSize]), so long names widen their card instead of
// overlapping.
//
// # Unpositioned Persons
//
// Persons that cannot be placed are never defaulted to the origin. They are
// listed in [Layout.Unpositioned] with a [Reason], and [Layout.Err] turns
// the list into an UNPOSITIONED_NODE error for the host:
//
//   - [ReasonUnreachable]: no partner or parent-child path to the root.
//   - [ReasonAboveRoot]: generation lower than the root's.
//   - [ReasonGenerationMismatch]: generation not one below a parent.
//   - [ReasonOrphan]: below the root band with no positioned parent or partner.
//
// [family.Tree]: github.com/matzehuels/familytree/pkg/family.Tree
// [styles.CardSize]: github.com/matzehuels/familytree/pkg/render/tree/styles.CardSize
package layout

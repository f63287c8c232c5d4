// Package connect routes the connector lines of a positioned family tree.
//
// [Route] turns a [layout.Layout] into straight [Segment] values:
//
//   - A partner line joins the facing card edges of every union whose two
//     members are positioned. It is solid when the union is married and
//     primary, dashed otherwise.
//   - A drop line runs from the union's drop point (see [layout.Union.Drop])
//     down to a horizontal bus halfway into the gap above the children's band.
//   - The bus spans the drop and every child's center.
//   - A riser runs from the bus to the top edge of each child.
//
// Drop, bus and risers share one style: solid only for the owner's primary
// union, and when that union has a partner, only if it is married. Every
// other union is dashed, which marks secondary lineage without moving cards.
//
// Segments that would touch an unpositioned person are not emitted.
//
// [layout.Layout]: github.com/matzehuels/familytree/pkg/render/tree/layout.Layout
// [layout.Union.Drop]: github.com/matzehuels/familytree/pkg/render/tree/layout.Union.Drop
package connect

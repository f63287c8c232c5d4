// Package render groups the two visualizations of a family tree.
//
// The [tree] subpackages draw the banded family chart:
//   - [tree/layout]: generation bands and subtree packing
//   - [tree/connect]: partner, sibling and descent lines
//   - [tree/surface]: the retained drawing surface and the drawer
//   - [tree/interact]: pan, zoom and select on a surface
//   - [tree/avatar]: avatar images with placeholder fallback
//   - [tree/sink]: SVG, PNG and JSON output
//   - [tree/styles]: theme, card labels and text measurement
//
// The [nodelink] subpackage renders the same relations as a directed graph
// through Graphviz.
//
// [tree]: github.com/matzehuels/familytree/pkg/render/tree
// [tree/layout]: github.com/matzehuels/familytree/pkg/render/tree/layout
// [tree/connect]: github.com/matzehuels/familytree/pkg/render/tree/connect
// [tree/surface]: github.com/matzehuels/familytree/pkg/render/tree/surface
// [tree/interact]: github.com/matzehuels/familytree/pkg/render/tree/interact
// [tree/avatar]: github.com/matzehuels/familytree/pkg/render/tree/avatar
// [tree/sink]: github.com/matzehuels/familytree/pkg/render/tree/sink
// [tree/styles]: github.com/matzehuels/familytree/pkg/render/tree/styles
// [nodelink]: github.com/matzehuels/familytree/pkg/render/nodelink
package render

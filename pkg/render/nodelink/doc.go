// Package nodelink renders family trees as traditional node-link diagrams.
//
// # Overview
//
// This package produces Graphviz diagrams where persons appear as boxes
// and unions as small points between partners. It is an alternative to the
// card layout of the tree renderer when a plain diagram is preferred, or
// when the DOT source is wanted for external tools.
//
// # Usage
//
// Convert a tree to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(t, nodelink.Options{Root: "anna"})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: node labels include the generation and life span
//   - Root: only persons connected to this ID are emitted
//
// # DOT Format
//
// The generated DOT uses top-to-bottom layout (rankdir=TB) and pins each
// generation to one rank, so partners always share a row.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering.
package nodelink

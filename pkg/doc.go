// Package pkg provides the libraries behind the familytree command.
//
// # Overview
//
// Familytree turns a recursive document of persons, partners and children
// into a generation-banded diagram. The pkg directory is organized by stage:
//
//  1. [family] and [io] - the person/relation model and its YAML/JSON documents
//  2. [render/tree] - layout, connectors, drawing surface, interaction and sinks
//  3. [render/nodelink] - the same relations as a Graphviz graph
//  4. [pipeline] - orchestration (load → draw → export) with caching
//  5. [cache], [httputil], [observability], [errors], [buildinfo] - infrastructure
//
// # Architecture
//
//	tree.yaml / tree.json
//	         ↓
//	    [io] package (decode and validate records)
//	         ↓
//	    [family] package (tree, generations, ancestry)
//	         ↓
//	    [render/tree/layout] (generation bands, subtree packing)
//	         ↓
//	    [render/tree/surface] (cards, connectors, avatars)
//	         ↓
//	    SVG/PNG/JSON output, or DOT via [render/nodelink]
//
// # Quick Start
//
//	doc, _ := io.Import("smiths.yaml")
//	r := pipeline.NewRunner(nil, nil, nil)
//	res, _ := r.Execute(ctx, pipeline.Options{Document: doc, Formats: []string{"svg"}})
//	os.WriteFile("smiths.svg", res.Artifacts["svg"], 0o644)
//
// [family]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/family
// [io]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/io
// [render/tree]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/render/tree
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/buildinfo
//
// [render/tree/layout]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/render/tree/layout
// [render/tree/surface]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/render/tree/surface
package pkg

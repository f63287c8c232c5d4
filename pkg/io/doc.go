// Package io reads and writes family tree documents as JSON or YAML.
//
// # Format
//
// A document wraps the nested person record produced by data-fetching
// layers with an optional title and root:
//
//	{
//	  "title": "The Smiths",
//	  "root": "anna",
//	  "tree": {
//	    "id": "anna", "name": "Anna Smith", "gender": "female",
//	    "relations": [{
//	      "partner": {"id": "ben", "name": "Ben Smith"},
//	      "married": true,
//	      "children": [{"id": "cleo", "name": "Cleo Smith", "birth": "1990-04-01"}]
//	    }]
//	  }
//	}
//
// A bare person record (the "tree" object on its own) is accepted as well.
// YAML uses the same field names.
//
// # Import
//
// [Import] picks the decoder from the file extension (.json, .yaml, .yml).
// [Read] takes an explicit [Format]. Decoding validates the record the same
// way [family.Build] does, so a document that reads cleanly builds cleanly.
//
//	doc, err := io.Import("smiths.yaml")
//	tree, root, err := doc.Build()
//
// # Export
//
// [FromTree] converts a tree back to a document and [Export] writes it.
// Persons reachable more than once are written in full the first time and
// as ID/name references afterwards.
package io

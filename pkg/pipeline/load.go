package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/familytree/pkg/family"
	ftio "github.com/matzehuels/familytree/pkg/io"
	"github.com/matzehuels/familytree/pkg/observability"
)

// Load returns the tree document named by opts: opts.Document when set,
// otherwise the file at opts.Source. A root override in opts replaces the
// document root.
func Load(ctx context.Context, opts Options) (*ftio.Document, error) {
	source := opts.Source
	if opts.Document != nil {
		source = "inline"
	}
	observability.Pipeline().OnLoadStart(ctx, source)
	start := time.Now()

	doc, err := load(opts)
	persons := 0
	if err == nil {
		persons = countPersons(doc)
	}
	observability.Pipeline().OnLoadComplete(ctx, source, persons, time.Since(start), err)
	return doc, err
}

func load(opts Options) (*ftio.Document, error) {
	var doc *ftio.Document
	if opts.Document != nil {
		cp := *opts.Document
		doc = &cp
	} else {
		var err error
		if doc, err = ftio.Import(opts.Source); err != nil {
			return nil, err
		}
	}
	if opts.Root != "" {
		doc.Root = opts.Root
	}
	if opts.Title != "" && doc.Title == "" {
		doc.Title = opts.Title
	}
	return doc, nil
}

// countPersons counts the distinct IDs in the nested record.
func countPersons(doc *ftio.Document) int {
	seen := make(map[string]bool)
	var walk func(r *family.Record)
	walk = func(r *family.Record) {
		if seen[r.ID] {
			return
		}
		seen[r.ID] = true
		for i := range r.Relations {
			rel := &r.Relations[i]
			if rel.Partner != nil {
				walk(rel.Partner)
			}
			for j := range rel.Children {
				walk(&rel.Children[j])
			}
		}
	}
	walk(&doc.Tree)
	return len(seen)
}

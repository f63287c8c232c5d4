package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/render/tree/connect"
	"github.com/matzehuels/familytree/pkg/render/tree/styles"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the generation and life span under each name.
	// When false, only the name is shown.
	Detailed bool

	// Root limits the diagram to persons connected to this ID. Empty
	// includes every person.
	Root string

	// Theme supplies the accent and line colors. The zero value falls back
	// to [styles.DefaultTheme].
	Theme *styles.Theme
}

// ToDOT converts a family tree to Graphviz DOT format.
//
// Every union becomes a small point node placed on the same rank as the
// partners; partner edges run into it and child edges leave it. Dashed
// edges follow the same rules as the drawn tree: see [connect.PartnerStyle]
// and [connect.DescentStyle].
func ToDOT(t *family.Tree, opts Options) string {
	th := styles.DefaultTheme()
	if opts.Theme != nil {
		th = *opts.Theme
	}
	var include map[string]bool
	if opts.Root != "" {
		include = t.Reachable(opts.Root)
	}
	keep := func(id string) bool { return include == nil || include[id] }

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	fmt.Fprintf(&buf, "  edge [color=%q, arrowhead=none];\n", th.Line)
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	ranks := make(map[int][]string)
	var gens []int
	for _, p := range t.Persons() {
		if !keep(p.ID) {
			continue
		}
		attrs := personAttrs(p, th, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", p.ID, strings.Join(attrs, ", "))
		if _, ok := ranks[p.Generation]; !ok {
			gens = append(gens, p.Generation)
		}
		ranks[p.Generation] = append(ranks[p.Generation], p.ID)
	}

	buf.WriteString("\n")
	for _, r := range t.AllRelations() {
		if !keep(r.Owner) {
			continue
		}
		owner, _ := t.Person(r.Owner)
		u := unionNode(r)
		fmt.Fprintf(&buf, "  %q [shape=point, width=0.08, label=\"\"];\n", u)
		ranks[owner.Generation] = append(ranks[owner.Generation], u)

		partner := fmt.Sprintf("style=%s", connect.PartnerStyle(r))
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", r.Owner, u, partner)
		if r.HasPartner() && keep(r.Partner) {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", r.Partner, u, partner)
		}
		descent := fmt.Sprintf("style=%s", connect.DescentStyle(r))
		for _, c := range r.Children {
			if keep(c) {
				fmt.Fprintf(&buf, "  %q -> %q [%s];\n", u, c, descent)
			}
		}
	}

	buf.WriteString("\n")
	for _, g := range gens {
		fmt.Fprintf(&buf, "  { rank=same;")
		for _, id := range ranks[g] {
			fmt.Fprintf(&buf, " %q;", id)
		}
		buf.WriteString(" }\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func unionNode(r *family.Relation) string { return "union:" + r.ID }

func fmtLabel(p *family.Person, detailed bool) string {
	if !detailed {
		return p.Name
	}
	return p.Name + "\n" + styles.Label(p)
}

func personAttrs(p *family.Person, th styles.Theme, detailed bool) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(p, detailed)),
		fmt.Sprintf("color=%q", th.Accent(p.Gender)),
	}
	if p.Deceased() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", fmt.Sprintf("fontcolor=%q", th.MutedText))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	out, err := render(dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG with the in-process Graphviz
// renderer.
func RenderPNG(dot string) ([]byte, error) {
	out, err := render(dot, graphviz.PNG)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("render: empty PNG output")
	}
	return out, nil
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

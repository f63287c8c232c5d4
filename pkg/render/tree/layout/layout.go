package layout

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	ferrors "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/render/tree/styles"
)

// ErrUnknownRoot is returned by [Solve] when the root ID is not in the tree.
var ErrUnknownRoot = errors.New("unknown root person")

const (
	DefaultNodeDistance = 40.0
	DefaultSpouseGap    = 16.0
	DefaultVerticalGap  = 80.0
)

// Layout is the result of [Solve]. It is discarded after each redraw.
type Layout struct {
	RootID         string
	RootGeneration int

	// Nodes holds every positioned person by ID.
	Nodes map[string]Node
	// Bands holds the IDs of each generation band in left-to-right order.
	Bands map[int][]string
	// Unpositioned lists persons that could not be placed, in tree order.
	Unpositioned []Unpositioned

	NodeDistance float64
	SpouseGap    float64
	VerticalGap  float64
	CardHeight   float64
}

// Node returns the positioned node for id.
func (l *Layout) Node(id string) (Node, bool) {
	n, ok := l.Nodes[id]
	return n, ok
}

// Generations returns the band generations in ascending order.
func (l *Layout) Generations() []int {
	gens := make([]int, 0, len(l.Bands))
	for g := range l.Bands {
		gens = append(gens, g)
	}
	slices.Sort(gens)
	return gens
}

// Bounds returns the bounding box of all positioned cards.
func (l *Layout) Bounds() Rect {
	var r Rect
	first := true
	for _, n := range l.Nodes {
		b := Rect{n.Left(), n.Top(), n.Right(), n.Bottom()}
		if first {
			r, first = b, false
			continue
		}
		r = r.Union(b)
	}
	return r
}

// BandY returns the y of the band for gen.
func (l *Layout) BandY(gen int) float64 {
	return float64(gen-l.RootGeneration) * (l.CardHeight + l.VerticalGap)
}

// Err returns an UNPOSITIONED_NODE error listing every unpositioned person,
// or nil when all persons were placed.
func (l *Layout) Err() error {
	if len(l.Unpositioned) == 0 {
		return nil
	}
	ids := make([]string, len(l.Unpositioned))
	for i, u := range l.Unpositioned {
		ids[i] = u.ID
	}
	return ferrors.New(ferrors.ErrCodeUnpositionedNode,
		"%d person(s) could not be positioned: %s", len(ids), strings.Join(ids, ", "))
}

// Option configures [Solve].
type Option func(*config)

type config struct {
	nodeDistance float64
	spouseGap    float64
	verticalGap  float64
	theme        styles.Theme
	measurer     styles.TextMeasurer
}

func WithNodeDistance(d float64) Option { return func(c *config) { c.nodeDistance = d } }
func WithSpouseGap(d float64) Option    { return func(c *config) { c.spouseGap = d } }
func WithVerticalGap(d float64) Option  { return func(c *config) { c.verticalGap = d } }
func WithTheme(t styles.Theme) Option   { return func(c *config) { c.theme = t } }

// WithMeasurer sets the text measurer used to size cards.
func WithMeasurer(m styles.TextMeasurer) Option { return func(c *config) { c.measurer = m } }

// Solve positions every person reachable from rootID.
//
// Persons that cannot be placed are reported in [Layout.Unpositioned]; Solve
// itself only fails for an unknown root. Solve is deterministic: the same
// tree and options always yield the same positions.
func Solve(t *family.Tree, rootID string, opts ...Option) (*Layout, error) {
	cfg := config{
		nodeDistance: DefaultNodeDistance,
		spouseGap:    DefaultSpouseGap,
		verticalGap:  DefaultVerticalGap,
		theme:        styles.DefaultTheme(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.measurer == nil {
		cfg.measurer = styles.DefaultMeasurer()
	}

	root, ok := t.Person(rootID)
	if !ok {
		return nil, ferrors.Wrap(ferrors.ErrCodeUnknownRoot, ErrUnknownRoot, "root %q", rootID)
	}

	s := &solver{
		tree: t,
		cfg:  cfg,
		out: &Layout{
			RootID:         rootID,
			RootGeneration: root.Generation,
			Nodes:          make(map[string]Node),
			Bands:          make(map[int][]string),
			NodeDistance:   cfg.nodeDistance,
			SpouseGap:      cfg.spouseGap,
			VerticalGap:    cfg.verticalGap,
			CardHeight:     cfg.theme.CardHeight,
		},
		members: make(map[int][]string),
		skipped: make(map[string]Unpositioned),
	}
	s.bucket(rootID)
	s.solveRootBand(rootID)
	for gen := root.Generation + 1; gen <= s.maxGen; gen++ {
		s.solveBand(gen)
	}
	s.collectUnpositioned()
	return s.out, nil
}

type solver struct {
	tree    *family.Tree
	cfg     config
	out     *Layout
	members map[int][]string // eligible persons per generation, tree order
	skipped map[string]Unpositioned
	maxGen  int
}

// group is a run of cards packed together: the children of one union with
// their partners, or a partner cluster attached after the walk.
type group struct {
	ids      []string
	children map[string]bool
	anchor   float64
	anchored bool
}

// bucket sorts persons into generation buckets in a single pass, filtering
// out everyone who cannot be placed regardless of band order.
func (s *solver) bucket(rootID string) {
	reach := s.tree.Reachable(rootID)
	rootGen := s.out.RootGeneration
	s.maxGen = rootGen
	for _, p := range s.tree.Persons() {
		switch {
		case !reach[p.ID]:
			s.skip(p, ReasonUnreachable, "no path to "+rootID)
		case p.Generation < rootGen:
			s.skip(p, ReasonAboveRoot, fmt.Sprintf("root generation is %d", rootGen))
		default:
			if parent, bad := s.generationConflict(p); bad && p.Generation > rootGen {
				s.skip(p, ReasonGenerationMismatch, "parent "+parent+" is not one generation above")
				continue
			}
			s.members[p.Generation] = append(s.members[p.Generation], p.ID)
			s.maxGen = max(s.maxGen, p.Generation)
		}
	}
}

func (s *solver) generationConflict(p *family.Person) (string, bool) {
	for _, id := range s.tree.Parents(p.ID) {
		if parent, ok := s.tree.Person(id); ok && parent.Generation+1 != p.Generation {
			return id, true
		}
	}
	return "", false
}

func (s *solver) skip(p *family.Person, r Reason, detail string) {
	s.skipped[p.ID] = Unpositioned{ID: p.ID, Generation: p.Generation, Reason: r, Detail: detail}
}

func (s *solver) solveRootBand(rootID string) {
	gen := s.out.RootGeneration
	placed := make(map[string]bool)
	groups := []group{{ids: s.cluster(rootID, gen, placed)}}
	groups = append(groups, s.attachLeftovers(gen, placed)...)
	s.pack(gen, groups)

	// Center the band, and with it a lone root couple, around x = 0.
	ids := s.out.Bands[gen]
	first, last := s.out.Nodes[ids[0]], s.out.Nodes[ids[len(ids)-1]]
	s.shift(gen, -(first.Left()+last.Right())/2)
}

func (s *solver) solveBand(gen int) {
	if len(s.members[gen]) == 0 {
		return
	}
	prev := slices.Clone(s.out.Bands[gen-1])
	slices.SortStableFunc(prev, func(a, b string) int {
		return cmp.Compare(s.out.Nodes[a].X, s.out.Nodes[b].X)
	})

	placed := make(map[string]bool)
	visited := make(map[string]bool)
	var groups []group
	for _, parent := range prev {
		for _, rel := range s.unionsPrimaryFirst(parent) {
			if visited[rel.ID] {
				continue
			}
			visited[rel.ID] = true
			g := group{children: make(map[string]bool)}
			for _, c := range rel.Children {
				if placed[c] || !s.isMember(gen, c) {
					continue
				}
				g.children[c] = true
				g.ids = append(g.ids, s.cluster(c, gen, placed)...)
			}
			if len(g.ids) == 0 {
				continue
			}
			g.anchor, g.anchored = s.out.Anchor(rel)
			groups = append(groups, g)
		}
	}
	groups = append(groups, s.attachLeftovers(gen, placed)...)
	if len(groups) > 0 {
		s.pack(gen, groups)
	}
}

// unionsPrimaryFirst returns every union of id with id's primary union
// first, then the remaining owned unions, then unions in which id is the
// partner.
func (s *solver) unionsPrimaryFirst(id string) []*family.Relation {
	unions := s.tree.Unions(id)
	primary, ok := s.tree.PrimaryRelation(id)
	if !ok {
		return unions
	}
	out := make([]*family.Relation, 0, len(unions))
	out = append(out, primary)
	for _, r := range unions {
		if r != primary {
			out = append(out, r)
		}
	}
	return out
}

// cluster emits id with its unplaced same-generation partners: secondary
// partners to the left (the first one nearest), the primary partner to the
// right.
func (s *solver) cluster(id string, gen int, placed map[string]bool) []string {
	placed[id] = true
	primary := s.primaryPartner(id)
	var left []string
	right := ""
	for _, p := range s.tree.Partners(id) {
		if placed[p] || !s.isMember(gen, p) {
			continue
		}
		placed[p] = true
		if p == primary {
			right = p
		} else {
			left = append(left, p)
		}
	}
	slices.Reverse(left)
	out := append(left, id)
	if right != "" {
		out = append(out, right)
	}
	return out
}

// primaryPartner returns the partner of id's primary union, falling back to
// the first partner of any union.
func (s *solver) primaryPartner(id string) string {
	if r, ok := s.tree.PrimaryRelation(id); ok && r.Other(id) != "" {
		return r.Other(id)
	}
	if partners := s.tree.Partners(id); len(partners) > 0 {
		return partners[0]
	}
	return ""
}

// attachLeftovers places band members missed by the walk that have a
// partner already in the band. Members that stay unplaced are reported by
// collectUnpositioned.
func (s *solver) attachLeftovers(gen int, placed map[string]bool) []group {
	var groups []group
	for progress := true; progress; {
		progress = false
		for _, id := range s.members[gen] {
			if placed[id] || !s.hasPlacedPartner(id, placed) {
				continue
			}
			groups = append(groups, group{ids: s.cluster(id, gen, placed)})
			progress = true
		}
	}
	return groups
}

func (s *solver) hasPlacedPartner(id string, placed map[string]bool) bool {
	for _, p := range s.tree.Partners(id) {
		if placed[p] {
			return true
		}
	}
	return false
}

func (s *solver) isMember(gen int, id string) bool {
	p, ok := s.tree.Person(id)
	if !ok || p.Generation != gen {
		return false
	}
	_, skipped := s.skipped[id]
	return !skipped
}

// pack assigns x to each group left to right. Anchored groups center their
// children under the anchor; no group starts before the previous one ends
// plus the required gap.
func (s *solver) pack(gen int, groups []group) {
	y := s.out.BandY(gen)
	var band []string
	cursor, last := 0.0, ""
	for _, g := range groups {
		local := make([]float64, len(g.ids))
		x := 0.0
		for i, id := range g.ids {
			if i > 0 {
				x += s.gap(g.ids[i-1], id)
			}
			local[i] = x
			x += s.width(id)
		}

		left := 0.0
		if g.anchored {
			lo, hi := math.Inf(1), math.Inf(-1)
			for i, id := range g.ids {
				if g.children[id] {
					lo = min(lo, local[i])
					hi = max(hi, local[i]+s.width(id))
				}
			}
			left = g.anchor - (lo+hi)/2
		}
		if last != "" {
			minLeft := cursor + s.gap(last, g.ids[0])
			if !g.anchored || left < minLeft {
				left = minLeft
			}
		}

		for i, id := range g.ids {
			w, h := s.size(id)
			s.out.Nodes[id] = Node{ID: id, X: left + local[i], Y: y, Width: w, Height: h, Generation: gen}
			band = append(band, id)
		}
		cursor, last = left+x, g.ids[len(g.ids)-1]
	}
	s.out.Bands[gen] = band
}

func (s *solver) shift(gen int, dx float64) {
	for _, id := range s.out.Bands[gen] {
		n := s.out.Nodes[id]
		n.X += dx
		s.out.Nodes[id] = n
	}
}

func (s *solver) gap(a, b string) float64 {
	if slices.Contains(s.tree.Partners(a), b) {
		return s.cfg.spouseGap
	}
	return s.cfg.nodeDistance
}

func (s *solver) size(id string) (float64, float64) {
	p, _ := s.tree.Person(id)
	return styles.CardSize(p, s.cfg.theme, s.cfg.measurer)
}

func (s *solver) width(id string) float64 {
	w, _ := s.size(id)
	return w
}

func (s *solver) collectUnpositioned() {
	for _, p := range s.tree.Persons() {
		if _, ok := s.out.Nodes[p.ID]; ok {
			continue
		}
		u, ok := s.skipped[p.ID]
		if !ok {
			detail := "no positioned parent or partner"
			if parents := s.tree.Parents(p.ID); len(parents) > 0 {
				detail = "parent " + parents[0] + " is not positioned"
			}
			u = Unpositioned{ID: p.ID, Generation: p.Generation, Reason: ReasonOrphan, Detail: detail}
		}
		s.out.Unpositioned = append(s.out.Unpositioned, u)
	}
}

package connect

import (
	"math"
	"testing"

	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/render/tree/layout"
	"github.com/matzehuels/familytree/pkg/render/tree/styles"
)

func route(t *testing.T, rec family.Record) (*family.Tree, *layout.Layout, []Segment) {
	t.Helper()
	tr, err := family.Build(rec)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	l, err := layout.Solve(tr, rec.ID, layout.WithMeasurer(styles.HeuristicMeasurer{}))
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	return tr, l, Route(tr, l)
}

func p(id string) *family.Record { return &family.Record{ID: id, Name: id} }

func kids(ids ...string) []family.Record {
	out := make([]family.Record, len(ids))
	for i, id := range ids {
		out[i] = *p(id)
	}
	return out
}

func ofKind(segs []Segment, k Kind, rel string) []Segment {
	var out []Segment
	for _, s := range segs {
		if s.Kind == k && (rel == "" || s.RelationID == rel) {
			out = append(out, s)
		}
	}
	return out
}

func TestRootCoupleOnlyPartnerLine(t *testing.T) {
	root := *p("anna")
	root.Relations = []family.RelationRecord{{Partner: p("ben"), Married: true}}
	_, l, segs := route(t, root)

	if len(segs) != 1 {
		t.Fatalf("segments = %v, want one partner line", segs)
	}
	s := segs[0]
	a, b := l.Nodes["anna"], l.Nodes["ben"]
	if s.Kind != Partner || s.Style != Solid {
		t.Errorf("got %s %s, want solid partner", s.Style, s.Kind)
	}
	if s.X1 != a.Right() || s.X2 != b.Left() || s.Y1 != a.CenterY() || s.Y2 != s.Y1 {
		t.Errorf("partner line %+v does not join facing edges", s)
	}
}

func TestSingleChildSingleRiser(t *testing.T) {
	root := *p("anna")
	root.Relations = []family.RelationRecord{{Partner: p("ben"), Married: true, Children: kids("cleo")}}
	_, l, segs := route(t, root)

	for _, s := range segs {
		if s.Style == Dashed {
			t.Errorf("unexpected dashed %s", s.Kind)
		}
	}
	if got := len(ofKind(segs, Bus, "")); got != 0 {
		t.Errorf("bus count = %d, want 0", got)
	}
	drops, risers := ofKind(segs, Drop, ""), ofKind(segs, Riser, "")
	if len(drops) != 1 || len(risers) != 1 {
		t.Fatalf("drops %d risers %d, want 1 and 1", len(drops), len(risers))
	}
	c := l.Nodes["cleo"]
	d, r := drops[0], risers[0]
	if math.Abs(d.X1-r.X1) > 1e-9 {
		t.Errorf("riser x %v not under drop x %v", r.X1, d.X1)
	}
	if d.Y1 != l.Nodes["anna"].CenterY() {
		t.Errorf("drop starts at %v, want partner line height", d.Y1)
	}
	if want := c.Top() - l.VerticalGap/2; d.Y2 != want || r.Y1 != want {
		t.Errorf("bus height drop=%v riser=%v, want %v", d.Y2, r.Y1, want)
	}
	if r.Y2 != c.Top() || r.To != "cleo" {
		t.Errorf("riser %+v does not reach cleo's top", r)
	}
}

func TestPrimaryUnionSolidSecondaryDashed(t *testing.T) {
	root := *p("pat")
	root.Relations = []family.RelationRecord{
		{ID: "first", Partner: p("x"), Married: true},
		{ID: "second", Partner: p("y"), Married: true, Children: kids("k1", "k2")},
	}
	tr, _, segs := route(t, root)

	if r, _ := tr.PrimaryRelation("pat"); r.ID != "second" {
		t.Fatalf("primary = %s, want second", r.ID)
	}
	if s := ofKind(segs, Partner, "first"); len(s) != 1 || s[0].Style != Dashed {
		t.Errorf("childless union partner line = %v, want dashed", s)
	}
	if s := ofKind(segs, Partner, "second"); len(s) != 1 || s[0].Style != Solid {
		t.Errorf("primary partner line = %v, want solid", s)
	}
	if s := ofKind(segs, Drop, "second"); len(s) != 1 || s[0].Style != Solid {
		t.Errorf("primary drop = %v, want solid", s)
	}
	if s := ofKind(segs, Bus, "second"); len(s) != 1 {
		t.Errorf("two children need a bus, got %v", s)
	}
	if s := ofKind(segs, Riser, "second"); len(s) != 2 {
		t.Errorf("risers = %d, want 2", len(s))
	}
}

func TestPartnerOwnedSecondMarriageDashed(t *testing.T) {
	ben := p("ben")
	ben.Relations = []family.RelationRecord{{ID: "second", Partner: p("cara"), Married: true}}
	root := *p("anna")
	root.Relations = []family.RelationRecord{{ID: "first", Partner: ben, Married: true, Children: kids("kid")}}
	_, _, segs := route(t, root)

	if s := ofKind(segs, Partner, "first"); len(s) != 1 || s[0].Style != Solid {
		t.Errorf("anna-ben partner line = %v, want solid", s)
	}
	if s := ofKind(segs, Partner, "second"); len(s) != 1 || s[0].Style != Dashed {
		t.Errorf("ben-cara partner line = %v, want dashed", s)
	}
}

func TestSecondaryDropOffsetTowardPartner(t *testing.T) {
	root := *p("pat")
	root.Relations = []family.RelationRecord{
		{ID: "main", Partner: p("x"), Married: true, Children: kids("a")},
		{ID: "other", Partner: p("y"), Children: kids("b")},
	}
	_, l, segs := route(t, root)

	drop := ofKind(segs, Drop, "other")
	if len(drop) != 1 || drop[0].Style != Dashed {
		t.Fatalf("secondary drop = %v, want one dashed", drop)
	}
	y, pat := l.Nodes["y"], l.Nodes["pat"]
	if y.X > pat.X {
		t.Fatalf("secondary partner should sit left of pat")
	}
	mid := (y.Right() + pat.Left()) / 2
	want := mid - (pat.Left()-y.Right())/4
	if math.Abs(drop[0].X1-want) > 1e-9 {
		t.Errorf("drop x = %v, want %v", drop[0].X1, want)
	}
	for _, s := range ofKind(segs, Riser, "other") {
		if s.Style != Dashed {
			t.Error("secondary riser should be dashed")
		}
	}
}

func TestDescentStyle(t *testing.T) {
	tests := []struct {
		name string
		rel  family.Relation
		want Style
	}{
		{"primary married", family.Relation{Partner: "x", Married: true, Primary: true}, Solid},
		{"primary unmarried", family.Relation{Partner: "x", Primary: true}, Dashed},
		{"primary single parent", family.Relation{Primary: true}, Solid},
		{"secondary married", family.Relation{Partner: "x", Married: true}, Dashed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescentStyle(&tt.rel); got != tt.want {
				t.Errorf("DescentStyle() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSingleParentDropsFromBottom(t *testing.T) {
	root := *p("solo")
	root.Relations = []family.RelationRecord{{Children: kids("k")}}
	_, l, segs := route(t, root)

	drop := ofKind(segs, Drop, "")
	if len(drop) != 1 {
		t.Fatalf("drops = %v", drop)
	}
	s := l.Nodes["solo"]
	if drop[0].X1 != s.CenterX() || drop[0].Y1 != s.Bottom() {
		t.Errorf("drop starts at (%v,%v), want bottom center (%v,%v)", drop[0].X1, drop[0].Y1, s.CenterX(), s.Bottom())
	}
	if got := len(ofKind(segs, Partner, "")); got != 0 {
		t.Errorf("partner lines = %d, want 0", got)
	}
}

func TestDegenerate(t *testing.T) {
	t.Run("lonely person", func(t *testing.T) {
		if _, _, segs := route(t, *p("solo")); len(segs) != 0 {
			t.Errorf("segments = %v, want none", segs)
		}
	})

	t.Run("unpositioned child skipped", func(t *testing.T) {
		wrong := 5
		root := *p("anna")
		bad := *p("bad")
		bad.Generation = &wrong
		root.Relations = []family.RelationRecord{{Partner: p("ben"), Married: true, Children: []family.Record{bad}}}
		_, l, segs := route(t, root)

		if len(l.Unpositioned) != 1 {
			t.Fatalf("Unpositioned = %v", l.Unpositioned)
		}
		for _, s := range segs {
			if s.Kind != Partner {
				t.Errorf("unexpected %s segment toward unpositioned child", s.Kind)
			}
		}
	})
}

func TestBounds(t *testing.T) {
	segs := []Segment{{X1: 0, Y1: 5, X2: 10, Y2: 5}, {X1: 4, Y1: -2, X2: 4, Y2: 8}}
	r := Bounds(segs)
	if r != (layout.Rect{MinX: 0, MinY: -2, MaxX: 10, MaxY: 8}) {
		t.Errorf("Bounds() = %+v", r)
	}
	if Bounds(nil) != (layout.Rect{}) {
		t.Error("Bounds(nil) should be empty")
	}
}

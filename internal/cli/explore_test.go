package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/familytree/pkg/family"
	ftio "github.com/matzehuels/familytree/pkg/io"
	"github.com/matzehuels/familytree/pkg/pipeline"
)

func newTestExplorer(t *testing.T) *exploreModel {
	t.Helper()
	doc := &ftio.Document{
		Tree: family.Record{
			ID: "anna", Name: "Anna Smith", Gender: "female",
			Relations: []family.RelationRecord{{
				Partner: &family.Record{ID: "ben", Name: "Ben Smith", Gender: "male", Death: "2001-04-02"},
				Married: true,
				Children: []family.Record{
					{ID: "cleo", Name: "Cleo Smith", Gender: "female"},
					{ID: "dan", Name: "Dan Smith"},
				},
			}},
		},
	}
	opts := pipeline.Options{View: pipeline.ViewTree}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	d, err := pipeline.NewRunner(nil, nil, nil).Draw(context.Background(), doc, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(d.Scene.Destroy)
	return newExploreModel(d.Tree, d.Layout(), d.Scene)
}

func press(m *exploreModel, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestExploreStartsOnRoot(t *testing.T) {
	m := newTestExplorer(t)
	if id, ok := m.cursor(); !ok || id != "anna" {
		t.Errorf("cursor = %q, want anna", id)
	}
}

func TestExploreSelect(t *testing.T) {
	m := newTestExplorer(t)

	press(m, "down", "enter")
	sel := m.mgr.Selected()
	if sel != "cleo" && sel != "dan" {
		t.Fatalf("Selected() = %q, want a child", sel)
	}
	if !m.scene.Highlighted(sel) || !m.scene.Highlighted("anna") || !m.scene.Highlighted("ben") {
		t.Error("selection should highlight the person and both parents")
	}
	if !strings.Contains(m.status, "2 ancestors") {
		t.Errorf("status = %q", m.status)
	}

	press(m, "esc")
	if m.mgr.Selected() != "" || m.scene.Highlighted("anna") {
		t.Error("esc should clear the selection")
	}
}

func TestExploreCursorBounds(t *testing.T) {
	m := newTestExplorer(t)
	press(m, "k", "k", "k")
	if m.band != 0 {
		t.Errorf("band = %d, want 0", m.band)
	}
	press(m, "down", "down", "down", "right", "right", "right")
	if m.band != len(m.gens)-1 {
		t.Errorf("band = %d, want last", m.band)
	}
	if want := len(m.layout.Bands[m.gens[m.band]]) - 1; m.pos != want {
		t.Errorf("pos = %d, want %d", m.pos, want)
	}
}

func TestExploreZoomAndReset(t *testing.T) {
	m := newTestExplorer(t)
	fit := m.scene.Transform()

	press(m, "+")
	if z := m.scene.Transform().Zoom; z <= fit.Zoom {
		t.Errorf("zoom after + = %v, want > %v", z, fit.Zoom)
	}
	press(m, "r")
	if got := m.scene.Transform(); got != fit {
		t.Errorf("transform after reset = %+v, want %+v", got, fit)
	}
}

func TestExploreQuit(t *testing.T) {
	m := newTestExplorer(t)
	cmd := press(m, "q")
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if m.View() != "" {
		t.Error("View() after quit should be empty")
	}
}

func TestExploreView(t *testing.T) {
	m := newTestExplorer(t)
	m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	view := m.View()
	for _, want := range []string{"Anna", "Cleo", "G0", "G1", "zoom"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestClipRow(t *testing.T) {
	row := "G0    abcdefghij"
	if got := clipRow(row, 0, 10); got != "G0    abc…" {
		t.Errorf("clipRow(width 10) = %q", got)
	}
	if got := clipRow(row, 3, 80); got != "G0    defghij" {
		t.Errorf("clipRow(offset 3) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Anna", 10, "Anna"},
		{"Anna Smith", 5, "Anna…"},
		{"Anna", 1, "A"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

package cli

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/pipeline"
	"github.com/matzehuels/familytree/pkg/render/tree/interact"
	"github.com/matzehuels/familytree/pkg/render/tree/layout"
	"github.com/matzehuels/familytree/pkg/render/tree/styles"
	"github.com/matzehuels/familytree/pkg/render/tree/surface"
)

// Explorer styles
var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
	cardCursorStyle    = cardStyle.BorderForeground(colorCyan).Bold(true)
	cardHighlightStyle = cardStyle.BorderForeground(colorYellow)
	cardDeceasedStyle  = cardStyle.BorderStyle(lipgloss.NormalBorder()).Foreground(colorGray)
	bandLabelStyle     = lipgloss.NewStyle().Foreground(colorDim).Width(6)
	footerStyle        = lipgloss.NewStyle().Foreground(colorGray)
)

const (
	explorerPanStep  = 40.0 // screen pixels per pan key
	explorerZoomStep = 1.25
	// explorerPixelsPerCell converts horizontal pan into terminal cells.
	explorerPixelsPerCell = 8.0
)

// exploreCommand creates the explore command, an interactive terminal view
// of the laid-out tree.
func (c *CLI) exploreCommand() *cobra.Command {
	var noCache bool
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "explore [tree.yaml|tree.json]",
		Short: "Explore a family tree in the terminal",
		Long: `Explore a family tree in the terminal.

Keys:
  ←/→ ↑/↓   move between persons and generations
  enter      select the person and highlight their ancestors
  esc        clear the selection
  + / -      zoom in and out around the cursor
  w a s d    pan
  r          reset the view to fit the tree
  q          quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source = args[0]
			c.Config.apply(cmd.Flags(), &opts)
			return c.runExplore(cmd.Context(), opts, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	addLayoutFlags(cmd.Flags(), &opts)

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.View = pipeline.ViewTree
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	doc, err := pipeline.Load(ctx, opts)
	if err != nil {
		return err
	}
	d, err := runner.Draw(ctx, doc, opts)
	if err != nil {
		return err
	}
	defer d.Scene.Destroy()

	m := newExploreModel(d.Tree, d.Layout(), d.Scene)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// exploreModel - bubbletea model over an interaction manager
// =============================================================================

// exploreModel renders the generation bands as rows of cards. Keyboard input
// goes through an [interact.Manager] attached to the painted scene, so
// selection, highlight and viewport behave exactly as on a pointer device.
type exploreModel struct {
	tree   *family.Tree
	layout *layout.Layout
	scene  *surface.Scene
	mgr    *interact.Manager

	gens     []int
	band     int // cursor band index into gens
	pos      int // cursor position within the band
	status   string
	width    int
	quitting bool
}

func newExploreModel(t *family.Tree, l *layout.Layout, scene *surface.Scene) *exploreModel {
	m := &exploreModel{
		tree:   t,
		layout: l,
		scene:  scene,
		gens:   l.Generations(),
		width:  120,
	}
	m.mgr = interact.NewManager(t, interact.WithOnSelect(func(p *family.Person) {
		m.status = fmt.Sprintf("%s · %s · %d ancestors", p.Name, styles.Label(p), len(t.Ancestors(p.ID)))
	}))
	m.mgr.Attach(scene)
	m.mgr.Reset()
	for i, g := range m.gens {
		if g == l.RootGeneration {
			m.band = i
			m.pos = max(0, slices.Index(l.Bands[g], l.RootID))
		}
	}
	return m
}

// cursor returns the person under the cursor.
func (m *exploreModel) cursor() (string, bool) {
	if len(m.gens) == 0 {
		return "", false
	}
	ids := m.layout.Bands[m.gens[m.band]]
	if len(ids) == 0 {
		return "", false
	}
	return ids[m.pos], true
}

// cursorPoint returns the screen position of the cursor card's center.
func (m *exploreModel) cursorPoint() surface.Point {
	if id, ok := m.cursor(); ok {
		if n, ok := m.layout.Node(id); ok {
			return m.scene.Transform().Apply(surface.Point{X: n.CenterX(), Y: n.CenterY()})
		}
	}
	w, h := m.scene.Size()
	return surface.Point{X: w / 2, Y: h / 2}
}

func (m *exploreModel) moveBand(delta int) {
	if len(m.gens) == 0 {
		return
	}
	m.band = max(0, min(len(m.gens)-1, m.band+delta))
	m.pos = min(m.pos, max(0, len(m.layout.Bands[m.gens[m.band]])-1))
}

func (m *exploreModel) movePos(delta int) {
	if len(m.gens) == 0 {
		return
	}
	n := len(m.layout.Bands[m.gens[m.band]])
	m.pos = max(0, min(n-1, m.pos+delta))
}

func (m *exploreModel) Init() tea.Cmd {
	return nil
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.mgr.Detach()
			return m, tea.Quit
		case "up", "k":
			m.moveBand(-1)
		case "down", "j":
			m.moveBand(1)
		case "left", "h":
			m.movePos(-1)
		case "right", "l":
			m.movePos(1)
		case "enter", " ":
			if id, ok := m.cursor(); ok {
				m.mgr.Select(id)
			}
		case "esc":
			m.mgr.Select("")
			m.status = ""
		case "+", "=":
			m.mgr.ZoomBy(explorerZoomStep, m.cursorPoint())
		case "-":
			m.mgr.ZoomBy(1/explorerZoomStep, m.cursorPoint())
		case "w":
			m.mgr.PanBy(0, explorerPanStep)
		case "s":
			m.mgr.PanBy(0, -explorerPanStep)
		case "a":
			m.mgr.PanBy(explorerPanStep, 0)
		case "d":
			m.mgr.PanBy(-explorerPanStep, 0)
		case "r":
			m.mgr.Reset()
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				m.mgr.ZoomBy(explorerZoomStep, m.cursorPoint())
			case tea.MouseButtonWheelDown:
				m.mgr.ZoomBy(1/explorerZoomStep, m.cursorPoint())
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m *exploreModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Family Tree"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ ↑/↓ move  ⏎ select  esc clear  +/- zoom  wasd pan  r reset  q quit"))
	b.WriteString("\n\n")

	t := m.scene.Transform()
	cardWidth := int(math.Round(14 * t.Zoom))
	cardWidth = max(6, min(40, cardWidth))
	offset := max(0, int(-t.TX/explorerPixelsPerCell))

	cur, _ := m.cursor()
	for i, g := range m.gens {
		cards := make([]string, 0, len(m.layout.Bands[g]))
		for _, id := range m.layout.Bands[g] {
			cards = append(cards, m.renderCard(id, cardWidth, id == cur && i == m.band))
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
		row = lipgloss.JoinHorizontal(lipgloss.Center, bandLabelStyle.Render(fmt.Sprintf("G%d", g)), row)
		b.WriteString(clipRow(row, offset, m.width))
		b.WriteString("\n")
	}

	for _, u := range m.layout.Unpositioned {
		b.WriteString(StyleWarning.Render("! " + u.String()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := fmt.Sprintf("zoom %.0f%%  pan %.0f,%.0f  %s", t.Zoom*100, t.TX, t.TY, m.mgr.State())
	if sel := m.mgr.Selected(); sel != "" {
		footer += "  selected " + sel
	}
	b.WriteString(footerStyle.Render(footer))
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(StyleHighlight.Render(m.status))
	}
	return b.String()
}

func (m *exploreModel) renderCard(id string, width int, isCursor bool) string {
	p, ok := m.tree.Person(id)
	if !ok {
		return ""
	}
	style := cardStyle
	switch {
	case isCursor:
		style = cardCursorStyle
	case m.scene.Highlighted(id):
		style = cardHighlightStyle
	case p.Deceased():
		style = cardDeceasedStyle
	}
	name := truncate(p.Name, width)
	label := truncate(styles.Label(p), width)
	return style.Width(width).Render(name + "\n" + StyleDim.Render(label))
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// clipRow drops offset cells after the band label from every line of row
// and limits each line to width cells.
func clipRow(row string, offset, width int) string {
	const label = 6
	lines := strings.Split(row, "\n")
	for i, line := range lines {
		if offset > 0 {
			line = ansi.Truncate(line, label, "") + ansi.TruncateLeft(line, label+offset, "")
		}
		lines[i] = ansi.Truncate(line, width, "…")
	}
	return strings.Join(lines, "\n")
}

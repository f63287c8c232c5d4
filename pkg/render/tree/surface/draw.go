package surface

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"

	ferrors "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/observability"
	"github.com/matzehuels/familytree/pkg/render/tree/avatar"
	"github.com/matzehuels/familytree/pkg/render/tree/connect"
	"github.com/matzehuels/familytree/pkg/render/tree/layout"
	"github.com/matzehuels/familytree/pkg/render/tree/styles"
)

// Default timings for [Drawer].
const (
	DefaultInitDelay   = 100 * time.Millisecond
	DefaultResizeDelay = 150 * time.Millisecond
)

// Diagnostics is what a draw pass reports to the host besides its result.
type Diagnostics struct {
	SurfaceID    string
	Unpositioned []layout.Unpositioned
	// Avatars lists avatars that fell back to a placeholder with an error.
	Avatars []*avatar.Avatar
	// Err is set when the pass failed.
	Err error
}

// Result describes a finished draw pass.
type Result struct {
	// Dropped is true when the call arrived during another pass and did nothing.
	Dropped  bool
	Layout   *layout.Layout
	Segments []connect.Segment
	Avatars  avatar.Set
	Cards    int
	Lines    int
	Duration time.Duration
}

// Drawer paints trees onto a [Surface].
type Drawer struct {
	surface     Surface
	loader      *avatar.Loader
	theme       styles.Theme
	measurer    styles.TextMeasurer
	layoutOpts  []layout.Option
	logger      *log.Logger
	diagnostics func(Diagnostics)
	initDelay   time.Duration
	resize      func(func())

	drawing atomic.Bool

	mu       sync.Mutex
	lastTree *family.Tree
	lastRoot string
}

// Option configures a [Drawer].
type Option func(*Drawer)

func WithTheme(t styles.Theme) Option             { return func(d *Drawer) { d.theme = t } }
func WithMeasurer(m styles.TextMeasurer) Option   { return func(d *Drawer) { d.measurer = m } }
func WithLayoutOptions(o ...layout.Option) Option { return func(d *Drawer) { d.layoutOpts = o } }
func WithAvatarLoader(l *avatar.Loader) Option    { return func(d *Drawer) { d.loader = l } }
func WithLogger(l *log.Logger) Option             { return func(d *Drawer) { d.logger = l } }
func WithDiagnostics(fn func(Diagnostics)) Option { return func(d *Drawer) { d.diagnostics = fn } }
func WithInitDelay(delay time.Duration) Option    { return func(d *Drawer) { d.initDelay = delay } }
func WithResizeDelay(delay time.Duration) Option {
	return func(d *Drawer) { d.resize = debounce.New(delay) }
}

// NewDrawer creates a drawer for s.
func NewDrawer(s Surface, opts ...Option) *Drawer {
	d := &Drawer{
		surface:   s,
		theme:     styles.DefaultTheme(),
		initDelay: DefaultInitDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.measurer == nil {
		d.measurer = styles.DefaultMeasurer()
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard)
	}
	if d.loader == nil {
		d.loader = avatar.NewLoader(avatar.WithSize(int(d.theme.AvatarSize)), avatar.WithLogger(d.logger))
	}
	if d.resize == nil {
		d.resize = debounce.New(DefaultResizeDelay)
	}
	return d
}

// Surface returns the surface the drawer paints on.
func (d *Drawer) Surface() Surface { return d.surface }

// Init waits for the surface to become attached. If it is not attached, Init
// defers once for the init delay and checks again; a surface that is still
// not attached fails with SURFACE_NOT_ATTACHED.
func (d *Drawer) Init(ctx context.Context) error {
	if d.surface.Attached() {
		return nil
	}
	d.logger.Debug("surface not attached, deferring init", "surface", d.surface.ID(), "delay", d.initDelay)
	timer := time.NewTimer(d.initDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	if d.surface.Attached() {
		return nil
	}
	err := ferrors.New(ferrors.ErrCodeSurfaceNotAttached, "surface %s is not attached", d.surface.ID())
	d.logger.Error("tree not drawn", "error", err)
	d.report(Diagnostics{SurfaceID: d.surface.ID(), Err: err})
	return err
}

// DrawTree clears the surface and draws t from rootID.
//
// A call made while another pass is running returns a result with Dropped
// set and no error. Persons the layout could not place are left out of the
// drawing and reported through the diagnostics callback; they do not fail
// the pass.
func (d *Drawer) DrawTree(ctx context.Context, t *family.Tree, rootID string) (res Result, err error) {
	id := d.surface.ID()
	if !d.drawing.CompareAndSwap(false, true) {
		d.logger.Debug("draw dropped, pass in progress", "surface", id)
		observability.Draw().OnDrawDropped(ctx, id)
		return Result{Dropped: true}, nil
	}
	defer d.drawing.Store(false)

	start := time.Now()
	observability.Draw().OnDrawStart(ctx, id)
	defer func() {
		if r := recover(); r != nil {
			err = ferrors.New(ferrors.ErrCodeInternal, "draw panicked: %v", r)
			res = Result{}
		}
		res.Duration = time.Since(start)
		observability.Draw().OnDrawComplete(ctx, id, res.Cards, res.Lines, res.Duration, err)
		if err != nil {
			d.logger.Error("draw failed", "surface", id, "error", err)
			d.report(Diagnostics{SurfaceID: id, Err: err})
		}
	}()

	if !d.surface.Attached() {
		return Result{}, ferrors.New(ferrors.ErrCodeSurfaceNotAttached, "surface %s is not attached", id)
	}

	avatars := d.loader.LoadAll(ctx, t.Persons())

	opts := append([]layout.Option{layout.WithTheme(d.theme), layout.WithMeasurer(d.measurer)}, d.layoutOpts...)
	l, err := layout.Solve(t, rootID, opts...)
	if err != nil {
		return Result{}, err
	}
	segs := connect.Route(t, l)

	cards := d.stageCards(t, l, avatars)
	lines := stageLines(segs)
	d.commit(t, cards, lines)

	d.mu.Lock()
	d.lastTree, d.lastRoot = t, rootID
	d.mu.Unlock()

	d.reportPass(id, l, avatars)
	return Result{
		Layout:   l,
		Segments: segs,
		Avatars:  avatars,
		Cards:    len(cards),
		Lines:    len(lines),
	}, nil
}

// Resize updates the surface size and schedules a debounced redraw of the
// last tree. Bursts of resizes collapse into one redraw.
func (d *Drawer) Resize(w, h float64) {
	d.surface.SetSize(w, h)
	d.mu.Lock()
	t, root := d.lastTree, d.lastRoot
	d.mu.Unlock()
	if t == nil {
		return
	}
	d.resize(func() {
		if _, err := d.DrawTree(context.Background(), t, root); err != nil {
			d.logger.Warn("redraw after resize failed", "error", err)
		}
	})
}

func (d *Drawer) stageCards(t *family.Tree, l *layout.Layout, avatars avatar.Set) []Card {
	size := int(d.theme.AvatarSize)
	var cards []Card
	for _, gen := range l.Generations() {
		for _, pid := range l.Bands[gen] {
			n := l.Nodes[pid]
			p, _ := t.Person(pid)
			c := Card{
				PersonID: pid,
				X:        n.X,
				Y:        n.Y,
				W:        n.Width,
				H:        n.Height,
				Name:     styles.Truncate(d.measurer, p.Name, d.theme.NameFontSize, d.theme.MaxTextWidth),
				Label:    styles.Label(p),
				Accent:   d.theme.Accent(p.Gender),
				Avatar:   avatars.Image(p, size),
				Opacity:  1,
			}
			if p.Deceased() {
				c.Deceased = true
				c.Opacity = d.theme.DeceasedOpacity
				c.Avatar = avatar.Desaturate(c.Avatar)
			}
			cards = append(cards, c)
		}
	}
	return cards
}

func stageLines(segs []connect.Segment) []Line {
	lines := make([]Line, 0, len(segs))
	for _, s := range segs {
		lines = append(lines, Line{
			RelationID: s.RelationID,
			Kind:       s.Kind,
			Style:      s.Style,
			X1:         s.X1,
			Y1:         s.Y1,
			X2:         s.X2,
			Y2:         s.Y2,
		})
	}
	return lines
}

func (d *Drawer) commit(t *family.Tree, cards []Card, lines []Line) {
	d.surface.Clear()
	t.DetachCards()
	for _, l := range lines {
		d.surface.AddLine(l)
	}
	for _, c := range cards {
		t.AttachCard(c.PersonID, d.surface.AddCard(c))
	}
	d.surface.RaiseCards()
}

func (d *Drawer) reportPass(id string, l *layout.Layout, avatars avatar.Set) {
	var failed []*avatar.Avatar
	for _, a := range avatars {
		if a.Err != nil {
			failed = append(failed, a)
		}
	}
	if len(l.Unpositioned) == 0 && len(failed) == 0 {
		return
	}
	for _, u := range l.Unpositioned {
		d.logger.Warn("person not positioned", "person", u.ID, "reason", u.Reason, "detail", u.Detail)
	}
	if len(failed) > 0 {
		d.logger.Debug("avatars replaced by placeholders", "count", len(failed))
	}
	d.report(Diagnostics{SurfaceID: id, Unpositioned: l.Unpositioned, Avatars: failed})
}

func (d *Drawer) report(diag Diagnostics) {
	if d.diagnostics != nil {
		d.diagnostics(diag)
	}
}

func (r Result) String() string {
	if r.Dropped {
		return "dropped"
	}
	return fmt.Sprintf("%d cards, %d lines in %s", r.Cards, r.Lines, r.Duration)
}

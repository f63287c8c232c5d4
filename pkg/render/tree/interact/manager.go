package interact

import (
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/render/tree/surface"
)

// State is the gesture state of a [Manager].
type State int

const (
	Idle State = iota
	Panning
	GestureZooming
)

func (s State) String() string {
	switch s {
	case Panning:
		return "panning"
	case GestureZooming:
		return "gesture-zooming"
	}
	return "idle"
}

// Defaults for input interpretation.
const (
	// DefaultDragThreshold is how far in pixels a press may move and still
	// count as a click.
	DefaultDragThreshold = 4.0
	// DefaultWheelFactor scales wheel delta into zoom: zoom × exp(-Δy × factor).
	DefaultWheelFactor = 0.0015
)

// Manager interprets input on one surface.
type Manager struct {
	tree          *family.Tree
	vp            Viewport
	onSelect      func(*family.Person)
	logger        *log.Logger
	dragThreshold float64
	wheelFactor   float64

	mu       sync.Mutex
	surface  surface.Surface
	offs     []func()
	state    State
	selected string

	// pointer press
	pressed  bool
	downAt   surface.Point
	last     surface.Point
	downCard string
	dragged  bool

	// pinch
	startZoom  float64
	startDist  float64
	pinchPoint surface.Point
}

// Option configures a [Manager].
type Option func(*Manager)

// WithZoomRange sets the zoom clamp.
func WithZoomRange(lo, hi float64) Option {
	return func(m *Manager) { m.vp.MinZoom, m.vp.MaxZoom = lo, hi }
}

// WithViewport replaces all viewport limits.
func WithViewport(v Viewport) Option { return func(m *Manager) { m.vp = v } }

// WithOnSelect sets the callback fired when a person card is clicked.
func WithOnSelect(fn func(*family.Person)) Option { return func(m *Manager) { m.onSelect = fn } }

func WithDragThreshold(px float64) Option { return func(m *Manager) { m.dragThreshold = px } }
func WithWheelFactor(f float64) Option    { return func(m *Manager) { m.wheelFactor = f } }
func WithLogger(l *log.Logger) Option     { return func(m *Manager) { m.logger = l } }

// NewManager creates a manager for the persons of t.
func NewManager(t *family.Tree, opts ...Option) *Manager {
	m := &Manager{
		tree:          t,
		vp:            DefaultViewport(),
		dragThreshold: DefaultDragThreshold,
		wheelFactor:   DefaultWheelFactor,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	return m
}

// SetTree replaces the tree used to resolve selections, e.g. after a redraw
// with fresh data.
func (m *Manager) SetTree(t *family.Tree) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree = t
}

// Attach registers the manager's handlers on s. A manager attached to
// another surface is detached from it first.
func (m *Manager) Attach(s surface.Surface) {
	m.Detach()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surface = s
	m.state = Idle
	m.offs = []func(){
		s.On(surface.PointerDown, m.pointerDown),
		s.On(surface.PointerMove, m.pointerMove),
		s.On(surface.PointerUp, m.pointerUp),
		s.On(surface.Wheel, m.wheel),
		s.On(surface.TouchStart, m.touchStart),
		s.On(surface.TouchMove, m.touchMove),
		s.On(surface.TouchEnd, m.touchEnd),
		s.On(surface.DoubleClick, func(surface.Event) { m.Reset() }),
		s.On(surface.LongPress, func(surface.Event) { m.Reset() }),
	}
}

// Detach removes every handler registered by Attach.
func (m *Manager) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, off := range m.offs {
		off()
	}
	m.offs = nil
	m.surface = nil
	m.state = Idle
	m.pressed = false
}

// State returns the current gesture state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Selected returns the selected person ID, or "".
func (m *Manager) Selected() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// Viewport returns the manager's viewport limits.
func (m *Manager) Viewport() Viewport { return m.vp }

// Select selects personID as if its card was clicked. An empty ID clears
// the selection and the highlight.
func (m *Manager) Select(personID string) {
	m.mu.Lock()
	p := m.selectLocked(personID)
	m.mu.Unlock()
	m.notify(p)
}

// Reset sets the fit-to-content transform.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.surface == nil {
		return
	}
	w, h := m.surface.Size()
	m.surface.SetTransform(m.vp.Fit(m.surface.Bounds(), w, h))
	m.logger.Debug("viewport reset", "transform", m.surface.Transform())
}

// ZoomBy multiplies the zoom by factor around a screen point.
func (m *Manager) ZoomBy(factor float64, at surface.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.surface == nil {
		return
	}
	t := m.surface.Transform()
	m.surface.SetTransform(m.vp.ZoomAt(t, t.Zoom*factor, at))
}

// PanBy moves the view by a screen delta, clamped to keep content visible.
func (m *Manager) PanBy(dx, dy float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panLocked(dx, dy)
}

func (m *Manager) panLocked(dx, dy float64) {
	if m.surface == nil {
		return
	}
	t := m.surface.Transform()
	t.TX += dx
	t.TY += dy
	w, h := m.surface.Size()
	m.surface.SetTransform(m.vp.ClampPan(t, m.surface.Bounds(), w, h))
}

func (m *Manager) selectLocked(id string) *family.Person {
	if m.surface == nil {
		return nil
	}
	var p *family.Person
	if id != "" && m.tree != nil {
		p, _ = m.tree.Person(id)
	}
	if p == nil {
		m.selected = ""
		m.surface.SetHighlighted(nil)
		return nil
	}
	m.selected = id
	m.surface.SetHighlighted(append([]string{id}, m.tree.Ancestors(id)...))
	return p
}

func (m *Manager) notify(p *family.Person) {
	if p != nil && m.onSelect != nil {
		m.onSelect(p)
	}
}

func (m *Manager) pointerDown(e surface.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.surface == nil || m.state == GestureZooming {
		return
	}
	at := surface.Point{X: e.X, Y: e.Y}
	m.pressed, m.downAt, m.last, m.dragged = true, at, at, false
	if id, ok := m.surface.HitTest(at); ok {
		m.downCard = id
		return
	}
	m.downCard = ""
	m.state = Panning
}

func (m *Manager) pointerMove(e surface.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pressed {
		return
	}
	at := surface.Point{X: e.X, Y: e.Y}
	if dist(at, m.downAt) > m.dragThreshold {
		m.dragged = true
	}
	if m.state == Panning {
		m.panLocked(at.X-m.last.X, at.Y-m.last.Y)
	}
	m.last = at
}

func (m *Manager) pointerUp(e surface.Event) {
	m.mu.Lock()
	var p *family.Person
	if m.pressed {
		switch {
		case m.downCard != "" && !m.dragged:
			p = m.selectLocked(m.downCard)
		case m.state == Panning && !m.dragged:
			m.selectLocked("")
		}
		if m.state == Panning {
			m.state = Idle
		}
	}
	m.pressed, m.downCard = false, ""
	m.mu.Unlock()
	m.notify(p)
}

func (m *Manager) wheel(e surface.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.surface == nil || m.state == GestureZooming {
		return
	}
	t := m.surface.Transform()
	z := t.Zoom * math.Exp(-e.DeltaY*m.wheelFactor)
	m.surface.SetTransform(m.vp.ZoomAt(t, z, surface.Point{X: e.X, Y: e.Y}))
}

func (m *Manager) touchStart(e surface.Event) {
	if len(e.Touches) < 2 {
		if len(e.Touches) == 1 {
			m.pointerDown(surface.Event{Kind: surface.PointerDown, X: e.Touches[0].X, Y: e.Touches[0].Y})
		}
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.surface == nil {
		return
	}
	a, b := e.Touches[0], e.Touches[1]
	t := m.surface.Transform()
	m.state = GestureZooming
	m.pressed, m.downCard = false, ""
	m.startZoom = t.Zoom
	m.startDist = max(dist(a, b), 1)
	m.pinchPoint = t.Invert(mid(a, b))
}

func (m *Manager) touchMove(e surface.Event) {
	m.mu.Lock()
	if m.state != GestureZooming {
		m.mu.Unlock()
		if len(e.Touches) == 1 {
			m.pointerMove(surface.Event{Kind: surface.PointerMove, X: e.Touches[0].X, Y: e.Touches[0].Y})
		}
		return
	}
	defer m.mu.Unlock()
	if m.surface == nil || len(e.Touches) < 2 {
		return
	}
	a, b := e.Touches[0], e.Touches[1]
	z := m.vp.ClampZoom(m.startZoom * dist(a, b) / m.startDist)
	m.surface.SetTransform(Pin(z, m.pinchPoint, mid(a, b)))
}

func (m *Manager) touchEnd(e surface.Event) {
	m.mu.Lock()
	if m.state == GestureZooming {
		if len(e.Touches) < 2 {
			m.state = Idle
		}
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.pointerUp(surface.Event{Kind: surface.PointerUp, X: e.X, Y: e.Y})
}

func dist(a, b surface.Point) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

func mid(a, b surface.Point) surface.Point {
	return surface.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

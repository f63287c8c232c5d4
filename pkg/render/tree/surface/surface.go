package surface

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/familytree/pkg/render/tree/layout"
)

// Surface is a retained-mode drawing target.
type Surface interface {
	// ID is the unique handle of this surface instance.
	ID() string
	// Attached reports whether the surface is ready to draw on.
	Attached() bool
	Size() (w, h float64)
	SetSize(w, h float64)

	// Clear removes every primitive. Handlers, transform and highlight stay.
	Clear()
	AddCard(c Card) string
	AddLine(l Line) string
	// RaiseCards moves every card above every line, keeping relative order.
	RaiseCards()
	// Bounds returns the layout-space bounding box of all primitives.
	Bounds() layout.Rect

	SetTransform(t Transform)
	Transform() Transform

	// SetHighlighted replaces the set of highlighted person IDs.
	SetHighlighted(personIDs []string)
	Highlighted(personID string) bool

	// HitTest returns the person whose card is topmost under a screen point.
	HitTest(screen Point) (personID string, ok bool)

	// On registers h for events of kind and returns its deregistration.
	On(kind EventKind, h Handler) (off func())

	// Destroy detaches every primitive and handler. The surface is unusable
	// afterwards.
	Destroy()
}

// Config describes the host element a [Scene] is bound to.
type Config struct {
	// Element is the host's identifier for the drawing area.
	Element string
	// Width and Height are the pixel size. A zero size means the element is
	// not laid out yet and the surface is not attached.
	Width, Height float64
}

// Scene is the in-memory [Surface]. It is safe for concurrent use.
type Scene struct {
	id      string
	element string

	mu          sync.RWMutex
	width       float64
	height      float64
	destroyed   bool
	items       []Item
	nextPrim    int
	transform   Transform
	highlighted map[string]bool
	handlers    map[EventKind]map[int]Handler
	nextHandler int
}

// New creates a scene for cfg with a fresh UUID handle.
func New(cfg Config) *Scene {
	return &Scene{
		id:          uuid.NewString(),
		element:     cfg.Element,
		width:       cfg.Width,
		height:      cfg.Height,
		transform:   Identity(),
		highlighted: make(map[string]bool),
		handlers:    make(map[EventKind]map[int]Handler),
	}
}

func (s *Scene) ID() string { return s.id }

// Element returns the host element identifier from [Config].
func (s *Scene) Element() string { return s.element }

func (s *Scene) Attached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.destroyed && s.width > 0 && s.height > 0
}

func (s *Scene) Size() (w, h float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

func (s *Scene) SetSize(w, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = w, h
}

func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

func (s *Scene) AddCard(c Card) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ""
	}
	c.ID = s.primID("card")
	s.items = append(s.items, Item{Card: &c})
	return c.ID
}

func (s *Scene) AddLine(l Line) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ""
	}
	l.ID = s.primID("line")
	s.items = append(s.items, Item{Line: &l})
	return l.ID
}

func (s *Scene) primID(kind string) string {
	s.nextPrim++
	return fmt.Sprintf("%s-%d", kind, s.nextPrim)
}

func (s *Scene) RaiseCards() {
	s.mu.Lock()
	defer s.mu.Unlock()
	slices.SortStableFunc(s.items, func(a, b Item) int {
		return rank(a) - rank(b)
	})
}

func rank(it Item) int {
	if it.Card != nil {
		return 1
	}
	return 0
}

// Items returns a copy of the primitives in z-order, bottom first.
func (s *Scene) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Cards returns the card primitives in z-order.
func (s *Scene) Cards() []Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Card
	for _, it := range s.items {
		if it.Card != nil {
			out = append(out, *it.Card)
		}
	}
	return out
}

// Lines returns the line primitives in z-order.
func (s *Scene) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Line
	for _, it := range s.items {
		if it.Line != nil {
			out = append(out, *it.Line)
		}
	}
	return out
}

// Card returns the card drawn for a person.
func (s *Scene) Card(personID string) (Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.Card != nil && it.Card.PersonID == personID {
			return *it.Card, true
		}
	}
	return Card{}, false
}

func (s *Scene) Bounds() layout.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var r layout.Rect
	for i, it := range s.items {
		var b layout.Rect
		if c := it.Card; c != nil {
			b = layout.Rect{MinX: c.X, MinY: c.Y, MaxX: c.X + c.W, MaxY: c.Y + c.H}
		} else {
			l := it.Line
			b = layout.Rect{MinX: min(l.X1, l.X2), MinY: min(l.Y1, l.Y2), MaxX: max(l.X1, l.X2), MaxY: max(l.Y1, l.Y2)}
		}
		// Lines are degenerate rectangles, so Rect.Union would drop them.
		if i == 0 {
			r = b
			continue
		}
		r = layout.Rect{MinX: min(r.MinX, b.MinX), MinY: min(r.MinY, b.MinY), MaxX: max(r.MaxX, b.MaxX), MaxY: max(r.MaxY, b.MaxY)}
	}
	return r
}

func (s *Scene) SetTransform(t Transform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transform = t
}

func (s *Scene) Transform() Transform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transform
}

func (s *Scene) SetHighlighted(personIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.highlighted)
	for _, id := range personIDs {
		s.highlighted[id] = true
	}
}

func (s *Scene) Highlighted(personID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.highlighted[personID]
}

// HighlightedIDs returns the highlighted person IDs, sorted.
func (s *Scene) HighlightedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.highlighted))
	for id := range s.highlighted {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s *Scene) HitTest(screen Point) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.transform.Invert(screen)
	for i := len(s.items) - 1; i >= 0; i-- {
		if c := s.items[i].Card; c != nil && c.Contains(p) {
			return c.PersonID, true
		}
	}
	return "", false
}

func (s *Scene) On(kind EventKind, h Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return func() {}
	}
	if s.handlers[kind] == nil {
		s.handlers[kind] = make(map[int]Handler)
	}
	id := s.nextHandler
	s.nextHandler++
	s.handlers[kind][id] = h
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers[kind], id)
	}
}

// Dispatch delivers e to the handlers registered for its kind. Handlers
// run outside the scene lock and may call back into the scene.
func (s *Scene) Dispatch(e Event) {
	s.mu.RLock()
	hs := make([]int, 0, len(s.handlers[e.Kind]))
	for id := range s.handlers[e.Kind] {
		hs = append(hs, id)
	}
	slices.Sort(hs)
	fns := make([]Handler, 0, len(hs))
	for _, id := range hs {
		fns = append(fns, s.handlers[e.Kind][id])
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
}

// HandlerCount returns the number of registered handlers.
func (s *Scene) HandlerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, hs := range s.handlers {
		n += len(hs)
	}
	return n
}

func (s *Scene) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	s.items = nil
	clear(s.handlers)
	clear(s.highlighted)
}

var _ Surface = (*Scene)(nil)

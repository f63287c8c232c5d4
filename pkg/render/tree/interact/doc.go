// Package interact turns pointer, wheel and touch input on a drawing
// surface into viewport changes, selections and highlights.
//
// A [Manager] is attached to one surface at a time. It registers its
// handlers on [Manager.Attach] and removes every one of them on
// [Manager.Detach]:
//
//	m := interact.NewManager(tree, interact.WithOnSelect(func(p *family.Person) {
//	    fmt.Println("selected", p.Name)
//	}))
//	m.Attach(scene)
//	defer m.Detach()
//
// # States
//
// The manager is Idle, Panning or GestureZooming. A pointer pressed on empty
// canvas pans until it is released. Two touch points start a pinch: the zoom
// follows the ratio of finger distances relative to the zoom at gesture start
// and the layout point under the midpoint stays under the midpoint. Lifting
// a finger returns to Idle.
//
// A press and release on a card without moving past the drag threshold
// selects the person. The highlight becomes the person and all their
// ancestors.
//
// # Viewport
//
// Zoom is clamped to [Viewport.MinZoom, Viewport.MaxZoom]. Wheel input zooms
// around the pointer. Panning keeps a margin of the drawing inside the
// surface. A double click or long press resets to [Viewport.Fit].
package interact

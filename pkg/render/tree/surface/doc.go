// Package surface draws laid-out family trees onto a retained-mode 2-D
// surface.
//
// # Surface
//
// [Surface] is the small contract the rest of the renderer needs from a
// canvas: create cards and lines, clear, raise cards above lines, hold one
// viewport transform, mark highlighted persons, resolve a screen point back
// to a person and dispatch input to registered handlers. Layout and routing
// never touch it; only the [Drawer] and the interaction manager do.
//
// [Scene] is the in-memory implementation. It is created explicitly with
// [New] and handed to whatever needs it, such as the export sinks:
//
//	s := surface.New(surface.Config{Element: "tree", Width: 1200, Height: 800})
//	d := surface.NewDrawer(s, surface.WithAvatarLoader(loader))
//	res, err := d.DrawTree(ctx, tree, "anna")
//	svg := sink.RenderSVG(s)
//
// # Drawing
//
// [Drawer.DrawTree] is a full redraw. It loads avatars, solves the layout,
// routes connectors and stages every primitive before touching the surface.
// The commit clears the surface and the tree's card attachments, adds lines
// and cards, then raises every card above every line. A call that arrives
// while another pass is running is dropped and reports [Result.Dropped].
//
// Deceased persons are drawn with reduced opacity and a desaturated avatar.
// Geometry does not change.
//
// Persons the layout could not place are not drawn. They are logged and
// handed to the diagnostics callback set with [WithDiagnostics].
//
// # Readiness
//
// A surface with no size is not attached. [Drawer.Init] waits once for it to
// become attached and then fails with SURFACE_NOT_ATTACHED.
package surface

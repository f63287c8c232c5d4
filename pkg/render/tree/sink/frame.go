package sink

import (
	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/render/tree/styles"
	"github.com/matzehuels/familytree/pkg/render/tree/surface"
)

// DefaultPadding is the margin around the content bounds.
const DefaultPadding = 24.0

// Option configures the SVG and PNG sinks.
type Option func(*options)

type options struct {
	theme       styles.Theme
	padding     float64
	viewport    bool
	interaction bool
	tree        *family.Tree
	scale       float64
	title       string
}

// WithTheme sets colors and fonts.
func WithTheme(t styles.Theme) Option { return func(o *options) { o.theme = t } }

// WithPadding sets the margin around the content.
func WithPadding(p float64) Option { return func(o *options) { o.padding = p } }

// WithViewport frames the surface with its current transform instead of
// the content bounds.
func WithViewport() Option { return func(o *options) { o.viewport = true } }

// WithInteraction embeds the pan, zoom and highlight script in SVG output.
func WithInteraction() Option { return func(o *options) { o.interaction = true } }

// WithTree provides ancestry so interactive output can highlight ancestors.
func WithTree(t *family.Tree) Option { return func(o *options) { o.tree = t } }

// WithScale sets the PNG scale factor (default 2).
func WithScale(s float64) Option { return func(o *options) { o.scale = s } }

// WithTitle sets the document title.
func WithTitle(s string) Option { return func(o *options) { o.title = s } }

func newOptions(opts []Option) options {
	o := options{theme: styles.DefaultTheme(), padding: DefaultPadding, scale: 2}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scale <= 0 {
		o.scale = 1
	}
	return o
}

// frame maps layout coordinates onto the output canvas.
type frame struct {
	w, h float64
	t    surface.Transform
}

func newFrame(s *surface.Scene, o options) frame {
	if o.viewport {
		w, h := s.Size()
		return frame{w: w, h: h, t: s.Transform()}
	}
	b := s.Bounds()
	return frame{
		w: b.Width() + 2*o.padding,
		h: b.Height() + 2*o.padding,
		t: surface.Transform{Zoom: 1, TX: o.padding - b.MinX, TY: o.padding - b.MinY},
	}
}

package sink

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/matzehuels/familytree/pkg/render/tree/avatar"
	"github.com/matzehuels/familytree/pkg/render/tree/connect"
	"github.com/matzehuels/familytree/pkg/render/tree/interact"
	"github.com/matzehuels/familytree/pkg/render/tree/styles"
	"github.com/matzehuels/familytree/pkg/render/tree/surface"
)

const treeInteractionCSS = `
    .card { cursor: pointer; }
    .card rect.bg { transition: stroke-width 0.2s ease; }
    .card.highlight rect.bg { stroke-width: 3; stroke: var(--highlight); }
    svg.dragging { cursor: grabbing; }`

const treeInteractionJS = `
    const svg = document.currentScript ? document.currentScript.ownerSVGElement : document.querySelector('svg');
    const vp = document.getElementById('viewport');
    const initial = vp.transform.baseVal.consolidate().matrix;
    let z = initial.a, tx = initial.e, ty = initial.f, drag = null;
    const apply = () => vp.setAttribute('transform', 'matrix(' + z + ' 0 0 ' + z + ' ' + tx + ' ' + ty + ')');
    const pt = e => { const r = svg.getBoundingClientRect(), vb = svg.viewBox.baseVal;
      return { x: (e.clientX - r.left) * vb.width / r.width, y: (e.clientY - r.top) * vb.height / r.height }; };
    function highlight(id) {
      const card = document.getElementById('card-' + id);
      const ids = id ? [id].concat((card && card.dataset.ancestors || '').split(' ').filter(Boolean)) : [];
      document.querySelectorAll('.card').forEach(c => c.classList.toggle('highlight', ids.includes(c.dataset.person)));
    }
    svg.addEventListener('wheel', e => { e.preventDefault(); const p = pt(e);
      const nz = Math.min(%[2]g, Math.max(%[1]g, z * Math.exp(-e.deltaY * %[3]g)));
      tx = p.x - (p.x - tx) * nz / z; ty = p.y - (p.y - ty) * nz / z; z = nz; apply(); }, { passive: false });
    svg.addEventListener('pointerdown', e => { const card = e.target.closest('.card');
      drag = { p: pt(e), card: card, moved: false }; });
    svg.addEventListener('pointermove', e => { if (!drag) return; const p = pt(e);
      if (Math.hypot(p.x - drag.p.x, p.y - drag.p.y) > 4) drag.moved = true;
      if (!drag.card && drag.moved) { svg.classList.add('dragging'); tx += p.x - drag.p.x; ty += p.y - drag.p.y; drag.p = p; apply(); } });
    svg.addEventListener('pointerup', () => { if (drag && !drag.moved) highlight(drag.card ? drag.card.dataset.person : '');
      drag = null; svg.classList.remove('dragging'); });
    svg.addEventListener('dblclick', () => { z = initial.a; tx = initial.e; ty = initial.f; apply(); });`

// RenderSVG renders the scene as a standalone SVG document.
func RenderSVG(s *surface.Scene, opts ...Option) []byte {
	o := newOptions(opts)
	f := newFrame(s, o)
	th := o.theme

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family="%s" style="--highlight: %s">`+"\n",
		f.w, f.h, f.w, f.h, styles.EscapeXML(th.FontFamily), th.Highlight)
	if o.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", styles.EscapeXML(o.title))
	}
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", th.Background)
	fmt.Fprintf(&buf, `  <g id="viewport" transform="matrix(%g 0 0 %g %g %g)">`+"\n", f.t.Zoom, f.t.Zoom, f.t.TX, f.t.TY)

	for _, it := range s.Items() {
		switch {
		case it.Line != nil:
			renderLine(&buf, *it.Line, th)
		case it.Card != nil:
			renderCard(&buf, s, *it.Card, o)
		}
	}
	buf.WriteString("  </g>\n")

	if o.interaction {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", treeInteractionCSS)
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n",
			fmt.Sprintf(treeInteractionJS, interact.DefaultMinZoom, interact.DefaultMaxZoom, interact.DefaultWheelFactor))
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderLine(buf *bytes.Buffer, l surface.Line, th styles.Theme) {
	dash := ""
	if l.Style == connect.Dashed {
		dash = ` stroke-dasharray="6 4"`
	}
	fmt.Fprintf(buf, `    <line class="connector %s %s" data-relation="%s" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1.5"%s/>`+"\n",
		l.Kind, l.Style, styles.EscapeXML(l.RelationID), l.X1, l.Y1, l.X2, l.Y2, th.Line, dash)
}

func renderCard(buf *bytes.Buffer, s *surface.Scene, c surface.Card, o options) {
	th := o.theme
	class := "card"
	if c.Deceased {
		class += " deceased"
	}
	highlighted := s.Highlighted(c.PersonID)
	if highlighted {
		class += " highlight"
	}
	pid := styles.EscapeXML(c.PersonID)
	fmt.Fprintf(buf, `    <g class="%s" id="card-%s" data-person="%s"`, class, pid, pid)
	if o.tree != nil {
		fmt.Fprintf(buf, ` data-ancestors="%s"`, styles.EscapeXML(strings.Join(o.tree.Ancestors(c.PersonID), " ")))
	}
	if c.Opacity > 0 && c.Opacity < 1 {
		fmt.Fprintf(buf, ` opacity="%g"`, c.Opacity)
	}
	buf.WriteString(">\n")

	stroke, width := th.CardStroke, 1.0
	if highlighted {
		stroke, width = th.Highlight, 3
	}
	fmt.Fprintf(buf, `      <rect class="bg" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s" stroke="%s" stroke-width="%g"/>`+"\n",
		c.X, c.Y, c.W, c.H, th.CornerRadius, th.CardFill, stroke, width)
	fmt.Fprintf(buf, `      <rect x="%.1f" y="%.1f" width="4" height="%.1f" rx="2" fill="%s"/>`+"\n",
		c.X, c.Y+th.CornerRadius, c.H-2*th.CornerRadius, c.Accent)

	if c.Avatar != nil {
		if data, err := avatar.EncodePNG(c.Avatar); err == nil {
			fmt.Fprintf(buf, `      <image x="%.1f" y="%.1f" width="%.1f" height="%.1f" href="data:image/png;base64,%s"/>`+"\n",
				c.X+th.CardPadding, c.Y+(c.H-th.AvatarSize)/2, th.AvatarSize, th.AvatarSize, base64.StdEncoding.EncodeToString(data))
		}
	}

	tx := c.X + th.TextX()
	cy := c.Y + c.H/2
	fmt.Fprintf(buf, `      <text class="name" x="%.1f" y="%.1f" font-size="%g" fill="%s">%s</text>`+"\n",
		tx, cy-2, th.NameFontSize, th.Text, styles.EscapeXML(c.Name))
	fmt.Fprintf(buf, `      <text class="label" x="%.1f" y="%.1f" font-size="%g" fill="%s">%s</text>`+"\n",
		tx, cy+th.LabelFontSize+2, th.LabelFontSize, th.MutedText, styles.EscapeXML(c.Label))
	buf.WriteString("    </g>\n")
}

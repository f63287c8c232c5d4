package sink

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/familytree/pkg/render/tree/connect"
	"github.com/matzehuels/familytree/pkg/render/tree/styles"
	"github.com/matzehuels/familytree/pkg/render/tree/surface"
)

// MaxPNGPixels caps the output size of [RenderPNG].
const MaxPNGPixels = 64 << 20

// RenderPNG rasterizes the scene. Text uses the embedded Go font.
func RenderPNG(s *surface.Scene, opts ...Option) ([]byte, error) {
	img, err := RenderImage(s, opts...)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderImage rasterizes the scene into an image.
func RenderImage(s *surface.Scene, opts ...Option) (image.Image, error) {
	o := newOptions(opts)
	f := newFrame(s, o)
	th := o.theme
	scale := o.scale
	// Combined layout→pixel transform.
	k := f.t.Zoom * scale
	px := func(x, y float64) (float64, float64) {
		return (x*f.t.Zoom + f.t.TX) * scale, (y*f.t.Zoom + f.t.TY) * scale
	}

	if !(scale > 0) || math.IsInf(scale, 1) {
		return nil, errInvalidScale(scale)
	}
	fw, fh := max(math.Ceil(f.w*scale), 1), max(math.Ceil(f.h*scale), 1)
	// Compared in float64: the int product overflows for huge scales.
	if !(fw*fh <= MaxPNGPixels) {
		return nil, errImageTooLarge(fw, fh)
	}
	w, h := int(fw), int(fh)

	fm, err := styles.NewFontMeasurer()
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(parseHex(th.Background, 1))
	dc.Clear()

	for _, it := range s.Items() {
		if l := it.Line; l != nil {
			x1, y1 := px(l.X1, l.Y1)
			x2, y2 := px(l.X2, l.Y2)
			dc.SetColor(parseHex(th.Line, 1))
			dc.SetLineWidth(1.5 * k)
			if l.Style == connect.Dashed {
				dc.SetDash(6*k, 4*k)
			} else {
				dc.SetDash()
			}
			dc.DrawLine(x1, y1, x2, y2)
			dc.Stroke()
			continue
		}
		c := it.Card
		alpha := c.Opacity
		if alpha <= 0 {
			alpha = 1
		}
		x, y := px(c.X, c.Y)
		cw, ch := c.W*k, c.H*k

		dc.SetDash()
		dc.DrawRoundedRectangle(x, y, cw, ch, th.CornerRadius*k)
		dc.SetColor(parseHex(th.CardFill, alpha))
		dc.FillPreserve()
		stroke, lw := th.CardStroke, 1.0
		if s.Highlighted(c.PersonID) {
			stroke, lw = th.Highlight, 3
		}
		dc.SetColor(parseHex(stroke, alpha))
		dc.SetLineWidth(lw * k)
		dc.Stroke()

		dc.DrawRoundedRectangle(x, y+th.CornerRadius*k, 4*k, ch-2*th.CornerRadius*k, 2*k)
		dc.SetColor(parseHex(c.Accent, alpha))
		dc.Fill()

		if c.Avatar != nil {
			size := max(int(math.Round(th.AvatarSize*k)), 1)
			av := fade(imaging.Resize(c.Avatar, size, size, imaging.Lanczos), alpha)
			dc.DrawImage(av, int(math.Round(x+th.CardPadding*k)), int(math.Round(y+(ch-float64(size))/2)))
		}

		tx := x + th.TextX()*k
		cy := y + ch/2
		if face, err := fm.Face(th.NameFontSize * k); err == nil {
			dc.SetFontFace(face)
			dc.SetColor(parseHex(th.Text, alpha))
			dc.DrawString(c.Name, tx, cy-2*k)
		}
		if face, err := fm.Face(th.LabelFontSize * k); err == nil {
			dc.SetFontFace(face)
			dc.SetColor(parseHex(th.MutedText, alpha))
			dc.DrawString(c.Label, tx, cy+(th.LabelFontSize+2)*k)
		}
	}
	return dc.Image(), nil
}

// fade multiplies the alpha channel of img by a.
func fade(img *image.NRGBA, a float64) *image.NRGBA {
	if a >= 1 {
		return img
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(float64(img.Pix[i]) * a)
	}
	return img
}

// parseHex parses #rgb or #rrggbb and applies alpha a. Invalid input is black.
func parseHex(s string, a float64) color.NRGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		v = 0
	}
	return color.NRGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), uint8(math.Round(255 * a))}
}

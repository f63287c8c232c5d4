package avatar

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/familytree/pkg/family"
)

// Decode decodes PNG, JPEG, GIF or WebP data and returns the format name.
func Decode(data []byte) (image.Image, string, error) {
	return image.Decode(bytes.NewReader(data))
}

// Circle crops img to a centered square of size×size pixels and clips it to
// an inscribed circle. Pixels outside the circle are transparent.
func Circle(img image.Image, size int) image.Image {
	sq := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)
	dc := gg.NewContext(size, size)
	r := float64(size) / 2
	dc.DrawCircle(r, r, r)
	dc.Clip()
	dc.DrawImage(sq, 0, 0)
	return dc.Image()
}

// Desaturate returns a greyscale copy of img, keeping its alpha channel.
func Desaturate(img image.Image) image.Image {
	return imaging.Grayscale(img)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Placeholder colors per gender: a tinted disc with a lighter silhouette.
var placeholderColors = map[family.Gender][2]color.RGBA{
	family.Male:   {{0xc6, 0xdb, 0xf0, 0xff}, {0x4a, 0x90, 0xd9, 0xff}},
	family.Female: {{0xf3, 0xd1, 0xdf, 0xff}, {0xd9, 0x6b, 0x9a, 0xff}},
}

type placeholderKey struct {
	gender family.Gender
	size   int
}

var (
	placeholderMu    sync.Mutex
	placeholderCache = make(map[placeholderKey]image.Image)
)

// Placeholder returns the circular stand-in avatar for gender at size
// pixels. Results are cached and shared, so callers must not modify them.
func Placeholder(g family.Gender, size int) image.Image {
	key := placeholderKey{g, size}
	placeholderMu.Lock()
	defer placeholderMu.Unlock()
	if img, ok := placeholderCache[key]; ok {
		return img
	}
	img := drawPlaceholder(g, size)
	placeholderCache[key] = img
	return img
}

func drawPlaceholder(g family.Gender, size int) image.Image {
	cols := placeholderColors[g]
	s := float64(size)
	dc := gg.NewContext(size, size)
	dc.DrawCircle(s/2, s/2, s/2)
	dc.Clip()
	dc.SetColor(cols[0])
	dc.DrawRectangle(0, 0, s, s)
	dc.Fill()

	dc.SetColor(cols[1])
	dc.DrawCircle(s/2, s*0.38, s*0.18)
	dc.Fill()
	dc.DrawEllipse(s/2, s*0.95, s*0.34, s*0.3)
	dc.Fill()
	return dc.Image()
}

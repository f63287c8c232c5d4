package styles

import (
	"bytes"
	"encoding/xml"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// TextMeasurer returns the rendered width of text at a font size in pixels.
type TextMeasurer interface {
	Measure(text string, size float64) float64
}

const heuristicCharWidth = 0.55

// HeuristicMeasurer estimates width as runes × size × 0.55.
type HeuristicMeasurer struct{}

// Measure implements [TextMeasurer].
func (HeuristicMeasurer) Measure(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size * heuristicCharWidth
}

// FontMeasurer measures text with the Go Regular font. Faces are created
// lazily per size and cached. It is safe for concurrent use.
type FontMeasurer struct {
	mu    sync.Mutex
	font  *opentype.Font
	faces map[float64]font.Face
}

// NewFontMeasurer parses the embedded Go Regular font.
func NewFontMeasurer() (*FontMeasurer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return &FontMeasurer{font: f, faces: make(map[float64]font.Face)}, nil
}

// Face returns the cached face for size.
func (m *FontMeasurer) Face(size float64) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[size] = f
	return f, nil
}

// Measure implements [TextMeasurer]. It falls back to the heuristic if a
// face cannot be created for size.
func (m *FontMeasurer) Measure(text string, size float64) float64 {
	face, err := m.Face(size)
	if err != nil {
		return HeuristicMeasurer{}.Measure(text, size)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(font.MeasureString(face, text)) / 64
}

var (
	defaultMeasurerOnce sync.Once
	defaultMeasurer     TextMeasurer
)

// DefaultMeasurer returns a shared [FontMeasurer], or the heuristic if the
// embedded font fails to parse.
func DefaultMeasurer() TextMeasurer {
	defaultMeasurerOnce.Do(func() {
		if m, err := NewFontMeasurer(); err == nil {
			defaultMeasurer = m
		} else {
			defaultMeasurer = HeuristicMeasurer{}
		}
	})
	return defaultMeasurer
}

// Truncate shortens text so it measures at most maxWidth, ending in "..".
func Truncate(m TextMeasurer, text string, size, maxWidth float64) string {
	if m.Measure(text, size) <= maxWidth {
		return text
	}
	runes := []rune(text)
	for n := len(runes) - 1; n > 1; n-- {
		s := string(runes[:n]) + ".."
		if m.Measure(s, size) <= maxWidth {
			return s
		}
	}
	return string(runes[:min(len(runes), 1)]) + ".."
}

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

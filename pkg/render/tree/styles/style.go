package styles

import (
	"fmt"
	"strings"

	"github.com/matzehuels/familytree/pkg/family"
)

// Theme controls card geometry and colors.
type Theme struct {
	CardHeight    float64
	MinCardWidth  float64
	MaxTextWidth  float64 // names and labels longer than this are truncated
	CardPadding   float64
	AvatarSize    float64
	CornerRadius  float64
	NameFontSize  float64
	LabelFontSize float64

	DeceasedOpacity float64

	Background   string
	CardFill     string
	CardStroke   string
	Text         string
	MutedText    string
	MaleAccent   string
	FemaleAccent string
	Line         string
	Highlight    string
	FontFamily   string
}

// DefaultTheme returns the stock theme.
func DefaultTheme() Theme {
	return Theme{
		CardHeight:      64,
		MinCardWidth:    120,
		MaxTextWidth:    240,
		CardPadding:     10,
		AvatarSize:      44,
		CornerRadius:    8,
		NameFontSize:    14,
		LabelFontSize:   11,
		DeceasedOpacity: 0.5,
		Background:      "#ffffff",
		CardFill:        "#f8f9fb",
		CardStroke:      "#c9ced6",
		Text:            "#1f2933",
		MutedText:       "#6b7280",
		MaleAccent:      "#4a90d9",
		FemaleAccent:    "#d96b9a",
		Line:            "#6b7280",
		Highlight:       "#f5a623",
		FontFamily:      "Go, Helvetica, Arial, sans-serif",
	}
}

// Accent returns the gender accent color.
func (t Theme) Accent(g family.Gender) string {
	if g == family.Female {
		return t.FemaleAccent
	}
	return t.MaleAccent
}

// Label returns the secondary line shown under a person's name: the
// generation and, when known, the life span.
func Label(p *family.Person) string {
	parts := []string{fmt.Sprintf("Gen %d", p.Generation)}
	switch {
	case p.Birth != nil && p.Death != nil:
		parts = append(parts, fmt.Sprintf("%d-%d", p.Birth.Year(), p.Death.Year()))
	case p.Birth != nil:
		parts = append(parts, fmt.Sprintf("b. %d", p.Birth.Year()))
	case p.Death != nil:
		parts = append(parts, fmt.Sprintf("d. %d", p.Death.Year()))
	}
	return strings.Join(parts, " · ")
}

// lifeSpanSlot stands in for the widest life span when sizing cards, so a
// recorded birth or death never changes card geometry.
const lifeSpanSlot = "0000-0000"

// sizingLabel is the label CardSize measures: the generation with a full
// life span slot, whatever dates are known.
func sizingLabel(p *family.Person) string {
	return fmt.Sprintf("Gen %d · %s", p.Generation, lifeSpanSlot)
}

// CardSize returns the card dimensions for p. The width fits the avatar and
// the wider of name and label (capped at MaxTextWidth), never below
// MinCardWidth. Dates do not take part: the label is measured with a fixed
// life span slot.
func CardSize(p *family.Person, th Theme, m TextMeasurer) (w, h float64) {
	text := max(
		m.Measure(p.Name, th.NameFontSize),
		m.Measure(sizingLabel(p), th.LabelFontSize),
	)
	text = min(text, th.MaxTextWidth)
	w = th.CardPadding*3 + th.AvatarSize + text
	return max(w, th.MinCardWidth), th.CardHeight
}

// TextX returns the x offset of the text column inside a card.
func (t Theme) TextX() float64 { return t.CardPadding*2 + t.AvatarSize }

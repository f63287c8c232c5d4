package sink

import (
	"encoding/json"

	"github.com/matzehuels/familytree/pkg/render/tree/layout"
	"github.com/matzehuels/familytree/pkg/render/tree/surface"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	layout *layout.Layout
	indent bool
}

// WithJSONLayout adds generation bands and unpositioned persons from l.
func WithJSONLayout(l *layout.Layout) JSONOption { return func(r *jsonRenderer) { r.layout = l } }

// WithJSONIndent pretty-prints the output.
func WithJSONIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

// Document is the JSON export of a drawn scene.
type Document struct {
	Surface      string           `json:"surface"`
	Element      string           `json:"element,omitempty"`
	Width        float64          `json:"width"`
	Height       float64          `json:"height"`
	Transform    JSONTransform    `json:"transform"`
	Bounds       JSONRect         `json:"bounds"`
	Root         string           `json:"root,omitempty"`
	Bands        map[int][]string `json:"bands,omitempty"`
	Cards        []JSONCard       `json:"cards"`
	Lines        []JSONLine       `json:"lines"`
	Unpositioned []JSONSkipped    `json:"unpositioned,omitempty"`
}

type JSONTransform struct {
	Zoom float64 `json:"zoom"`
	TX   float64 `json:"tx"`
	TY   float64 `json:"ty"`
}

type JSONRect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

type JSONCard struct {
	ID          string  `json:"id"`
	Person      string  `json:"person"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	Accent      string  `json:"accent"`
	Opacity     float64 `json:"opacity"`
	Deceased    bool    `json:"deceased,omitempty"`
	Highlighted bool    `json:"highlighted,omitempty"`
}

type JSONLine struct {
	ID       string  `json:"id"`
	Relation string  `json:"relation"`
	Kind     string  `json:"kind"`
	Style    string  `json:"style"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
}

type JSONSkipped struct {
	Person     string `json:"person"`
	Generation int    `json:"generation"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail,omitempty"`
}

// BuildDocument converts the scene to its JSON document form.
func BuildDocument(s *surface.Scene, opts ...JSONOption) Document {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	w, h := s.Size()
	t := s.Transform()
	b := s.Bounds()
	doc := Document{
		Surface:   s.ID(),
		Element:   s.Element(),
		Width:     w,
		Height:    h,
		Transform: JSONTransform{Zoom: t.Zoom, TX: t.TX, TY: t.TY},
		Bounds:    JSONRect{b.MinX, b.MinY, b.MaxX, b.MaxY},
		Cards:     []JSONCard{},
		Lines:     []JSONLine{},
	}
	for _, c := range s.Cards() {
		doc.Cards = append(doc.Cards, JSONCard{
			ID:          c.ID,
			Person:      c.PersonID,
			X:           c.X,
			Y:           c.Y,
			Width:       c.W,
			Height:      c.H,
			Name:        c.Name,
			Label:       c.Label,
			Accent:      c.Accent,
			Opacity:     c.Opacity,
			Deceased:    c.Deceased,
			Highlighted: s.Highlighted(c.PersonID),
		})
	}
	for _, l := range s.Lines() {
		doc.Lines = append(doc.Lines, JSONLine{
			ID:       l.ID,
			Relation: l.RelationID,
			Kind:     l.Kind.String(),
			Style:    l.Style.String(),
			X1:       l.X1,
			Y1:       l.Y1,
			X2:       l.X2,
			Y2:       l.Y2,
		})
	}
	if l := r.layout; l != nil {
		doc.Root = l.RootID
		doc.Bands = l.Bands
		for _, u := range l.Unpositioned {
			doc.Unpositioned = append(doc.Unpositioned, JSONSkipped{
				Person:     u.ID,
				Generation: u.Generation,
				Reason:     string(u.Reason),
				Detail:     u.Detail,
			})
		}
	}
	return doc
}

// RenderJSON renders the scene as JSON.
func RenderJSON(s *surface.Scene, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	doc := BuildDocument(s, opts...)
	if r.indent {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

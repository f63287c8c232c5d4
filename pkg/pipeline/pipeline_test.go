package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/familytree/pkg/cache"
	ferrors "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/family"
	ftio "github.com/matzehuels/familytree/pkg/io"
	"github.com/matzehuels/familytree/pkg/observability"
	"github.com/matzehuels/familytree/pkg/render/tree/sink"
)

func intPtr(i int) *int { return &i }

func sampleDocument() *ftio.Document {
	return &ftio.Document{
		Title: "Smiths",
		Tree: family.Record{
			ID: "anna", Name: "Anna Smith", Gender: "female",
			Relations: []family.RelationRecord{{
				Partner: &family.Record{ID: "ben", Name: "Ben Smith", Gender: "male", Death: "2001-04-02"},
				Married: true,
				Children: []family.Record{
					{ID: "cleo", Name: "Cleo Smith", Gender: "female"},
					{ID: "dan", Name: "Dan Smith"},
				},
			}},
		},
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		view    string
		format  string
		wantErr bool
	}{
		{"tree", "svg", false},
		{"tree", "png", false},
		{"tree", "json", false},
		{"tree", "dot", true},
		{"nodelink", "dot", false},
		{"nodelink", "svg", false},
		{"nodelink", "json", true},
		{"tree", "SVG", true}, // case-sensitive
		{"tree", "", true},
		{"tower", "svg", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.view, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q, %q) error = %v, wantErr %v", tt.view, tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats(ViewTree, []string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	err := ValidateFormats(ViewTree, []string{"svg", "invalid"})
	if !ferrors.Is(err, ferrors.ErrCodeInvalidFormat) {
		t.Errorf("Invalid format should fail with INVALID_FORMAT, got %v", err)
	}

	// Empty slice is valid
	if err := ValidateFormats(ViewTree, nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsValidateForLoad(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForLoad(); !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("Missing source should fail with INVALID_INPUT, got %v", err)
	}

	opts = Options{Source: "tree.yaml", Root: "bad id!"}
	if err := opts.ValidateForLoad(); err == nil {
		t.Error("Invalid root ID should fail")
	}

	opts = Options{Document: sampleDocument()}
	if err := opts.ValidateForLoad(); err != nil {
		t.Errorf("Document options should pass: %v", err)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Source: "tree.yaml"}

	// First call
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	originalView := opts.View
	originalFormats := strings.Join(opts.Formats, ",")

	// Second call should be idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}

	if opts.View != originalView {
		t.Error("View changed on second call")
	}
	if strings.Join(opts.Formats, ",") != originalFormats {
		t.Error("Formats changed on second call")
	}
}

func TestSetLayoutDefaults(t *testing.T) {
	opts := Options{}
	opts.SetLayoutDefaults()

	if opts.View != DefaultView {
		t.Errorf("View should be %s, got %s", DefaultView, opts.View)
	}
	if opts.Width != DefaultWidth {
		t.Errorf("Width should be %f, got %f", DefaultWidth, opts.Width)
	}
	if opts.Height != DefaultHeight {
		t.Errorf("Height should be %f, got %f", DefaultHeight, opts.Height)
	}
	if opts.NodeDistance == 0 || opts.SpouseGap == 0 || opts.VerticalGap == 0 {
		t.Errorf("Gaps should default to layout defaults, got %+v", opts)
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale should be %g, got %g", DefaultScale, opts.Scale)
	}
}

func TestValidateForRenderRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"nan scale", Options{Scale: math.NaN()}},
		{"infinite scale", Options{Scale: math.Inf(1)}},
		{"negative scale", Options{Scale: -1}},
		{"nan width", Options{Width: math.NaN()}},
		{"infinite height", Options{Height: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateForRender(); !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
				t.Errorf("ValidateForRender() = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestArtifactKeyOptsDiffer(t *testing.T) {
	a := Options{View: ViewTree, Width: 800, Height: 600}
	b := a
	b.Interactive = true
	c := a
	c.Strict = true
	local := a
	local.Avatars = true
	remote := local
	remote.Remote = true
	dir := local
	dir.AvatarDir = "/srv/photos"

	keyer := cache.NewDefaultKeyer()
	keys := make(map[string]string)
	for name, o := range map[string]Options{"plain": a, "interactive": b, "strict": c, "avatars": local, "remote": remote, "dir": dir} {
		k := keyer.ArtifactKey("h", o.ArtifactKeyOpts(FormatSVG))
		if prev, ok := keys[k]; ok {
			t.Errorf("%s and %s share artifact key %s", prev, name, k)
		}
		keys[k] = name
	}
	ka := keyer.ArtifactKey("h", a.ArtifactKeyOpts(FormatSVG))
	if ka != keyer.ArtifactKey("h", a.ArtifactKeyOpts(FormatSVG)) {
		t.Error("artifact key is not deterministic")
	}
}

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Document: sampleDocument(),
		Formats:  []string{FormatSVG, FormatPNG, FormatJSON},
		Scale:    1,
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.Stats.Persons != 4 || res.Stats.Positioned != 4 || res.Stats.Unpositioned != 0 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.CacheInfo.RenderHit {
		t.Error("NullCache run should not hit")
	}
	if res.TreeHash == "" {
		t.Error("tree hash missing")
	}

	svg := string(res.Artifacts[FormatSVG])
	for _, want := range []string{"<svg", "<title>Smiths</title>", `data-person="cleo"`, "card deceased"} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
	if !bytes.HasPrefix(res.Artifacts[FormatPNG], []byte("\x89PNG")) {
		t.Error("PNG artifact is not a PNG")
	}

	var doc sink.Document
	if err := json.Unmarshal(res.Artifacts[FormatJSON], &doc); err != nil {
		t.Fatalf("JSON artifact: %v", err)
	}
	if doc.Root != "anna" || len(doc.Cards) != 4 {
		t.Errorf("JSON root=%q cards=%d", doc.Root, len(doc.Cards))
	}
}

func TestExecuteCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	opts := Options{Document: sampleDocument(), Formats: []string{FormatSVG, FormatJSON}}
	ctx := context.Background()

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.RenderHit {
		t.Fatal("first run should miss")
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.RenderHit || second.Draw != nil {
		t.Errorf("second run should be served from cache, hit=%v", second.CacheInfo.RenderHit)
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached SVG differs")
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}

	opts.Refresh = false
	opts.Formats = []string{FormatSVG, FormatPNG}
	partial, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if partial.CacheInfo.RenderHit {
		t.Error("a partially cached request should redraw")
	}
}

func TestExecuteNodelink(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Document: sampleDocument(),
		View:     ViewNodelink,
		Formats:  []string{FormatDOT},
	})
	if err != nil {
		t.Fatal(err)
	}
	dot := string(res.Artifacts[FormatDOT])
	if !strings.HasPrefix(dot, "digraph G {") || !strings.Contains(dot, `"cleo"`) {
		t.Errorf("unexpected DOT:\n%s", dot)
	}
	if res.Draw.Scene != nil {
		t.Error("node-link view should not paint a surface")
	}
}

func TestExecuteUnpositioned(t *testing.T) {
	doc := sampleDocument()
	doc.Tree.Relations[0].Children = append(doc.Tree.Relations[0].Children,
		family.Record{ID: "eve", Name: "Eve Smith", Generation: intPtr(3)})

	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{Document: doc})
	if err != nil {
		t.Fatalf("non-strict run should succeed: %v", err)
	}
	if res.Stats.Unpositioned != 1 {
		t.Errorf("Unpositioned = %d, want 1", res.Stats.Unpositioned)
	}

	_, err = r.Execute(context.Background(), Options{Document: doc, Strict: true})
	if !ferrors.Is(err, ferrors.ErrCodeUnpositionedNode) {
		t.Errorf("strict run error = %v, want UNPOSITIONED_NODE", err)
	}
}

func TestExecuteHighlight(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{Document: sampleDocument(), Highlight: "cleo"})
	if err != nil {
		t.Fatal(err)
	}
	got := res.Draw.Scene.HighlightedIDs()
	want := []string{"anna", "ben", "cleo"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("highlighted = %v, want %v", got, want)
	}
	if !strings.Contains(string(res.Artifacts[FormatSVG]), "highlight") {
		t.Error("SVG does not mark highlighted cards")
	}

	_, err = r.Execute(context.Background(), Options{Document: sampleDocument(), Highlight: "zed"})
	if !ferrors.Is(err, ferrors.ErrCodeNotFound) {
		t.Errorf("unknown highlight error = %v, want NOT_FOUND", err)
	}
}

func TestExecuteInteractive(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Document:    sampleDocument(),
		Interactive: true,
		Width:       400,
		Height:      300,
	})
	if err != nil {
		t.Fatal(err)
	}
	svg := string(res.Artifacts[FormatSVG])
	if !strings.Contains(svg, `viewBox="0 0 400.0 300.0"`) || !strings.Contains(svg, "<script") {
		t.Errorf("interactive SVG should be framed by the surface and carry the script:\n%.300s", svg)
	}
	if tr := res.Draw.Scene.Transform(); tr.Zoom > 1 {
		t.Errorf("fit zoom = %g, want <= 1", tr.Zoom)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smiths.yaml")
	if err := ftio.Export(sampleDocument(), path); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(context.Background(), Options{Source: path, Root: "cleo"})
	if err != nil {
		t.Fatal(err)
	}
	if doc.RootID() != "cleo" || doc.Title != "Smiths" {
		t.Errorf("root=%q title=%q", doc.RootID(), doc.Title)
	}

	_, err = Load(context.Background(), Options{Source: filepath.Join(dir, "missing.yaml")})
	if !ferrors.Is(err, ferrors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadDoesNotMutateDocument(t *testing.T) {
	doc := sampleDocument()
	if _, err := Load(context.Background(), Options{Document: doc, Root: "dan"}); err != nil {
		t.Fatal(err)
	}
	if doc.Root != "" {
		t.Errorf("input document root changed to %q", doc.Root)
	}
}

func TestAvatarsFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := sampleDocument()
	doc.Tree.AvatarURL = "broken.png"

	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{Document: doc, Avatars: true, AvatarDir: dir})
	if err != nil {
		t.Fatalf("a broken avatar must not fail the run: %v", err)
	}
	a := res.Draw.Pass.Avatars["anna"]
	if a == nil || !a.Placeholder || !ferrors.Is(a.Err, ferrors.ErrCodeAssetLoad) {
		t.Errorf("anna avatar = %+v, want placeholder with ASSET_LOAD", a)
	}
}

func TestLayoutJSON(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	opts := Options{Document: sampleDocument(), Formats: []string{FormatPNG}}

	data, hit, err := r.LayoutJSON(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first layout should miss")
	}
	var doc sink.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Bands[1]) != 2 {
		t.Errorf("generation 1 band = %v, want 2 persons", doc.Bands[1])
	}

	again, hit, err := r.LayoutJSON(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit || !bytes.Equal(data, again) {
		t.Error("second layout should come from the cache unchanged")
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnLoadComplete(_ context.Context, _ string, n int, _ time.Duration, err error) {
	h.add("load")
}

func (h *recordingHooks) OnLayoutComplete(_ context.Context, positioned, _ int, _ time.Duration, err error) {
	h.add("layout")
}

func (h *recordingHooks) OnRenderComplete(_ context.Context, _ []string, _ time.Duration, err error) {
	h.add("render")
}

func TestPipelineHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	t.Cleanup(observability.Reset)

	if _, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{Document: sampleDocument()}); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(h.events, ","); got != "load,layout,render" {
		t.Errorf("hook order = %s", got)
	}
}

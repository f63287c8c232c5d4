// Package pipeline provides the core rendering pipeline for familytree.
//
// This package implements the complete load → draw → export pipeline that
// is used by the CLI and the HTTP server. By centralizing this logic, both
// entry points lay out, paint and cache trees the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a tree document (JSON or YAML) and build the kinship graph
//  2. Draw: Decode avatars, solve the layout, route connectors and paint
//     cards and lines onto an in-memory surface
//  3. Export: Serialize the surface in the requested formats (SVG, PNG,
//     JSON) or emit the Graphviz node-link view (SVG, PNG, DOT)
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:  "examples/smiths.yaml",
//	    Formats: []string{"svg", "png"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	doc, err := pipeline.Load(ctx, opts)
//	draw, err := runner.Draw(ctx, doc, opts)
//	artifacts, err := pipeline.Export(draw, opts)
package pipeline

import (
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familytree/pkg/cache"
	ferrors "github.com/matzehuels/familytree/pkg/errors"
	ftio "github.com/matzehuels/familytree/pkg/io"
	"github.com/matzehuels/familytree/pkg/render/tree/avatar"
	"github.com/matzehuels/familytree/pkg/render/tree/layout"
	"github.com/matzehuels/familytree/pkg/render/tree/surface"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default surface width in pixels.
	DefaultWidth = 1280.0

	// DefaultHeight is the default surface height in pixels.
	DefaultHeight = 800.0

	// DefaultScale is the default PNG pixel density.
	DefaultScale = 2.0

	// DefaultView is the default visualization.
	DefaultView = ViewTree
)

// View constants select the visualization.
const (
	// ViewTree is the card layout with generation bands and connectors.
	ViewTree = "tree"
	// ViewNodelink is the Graphviz node-link diagram.
	ViewNodelink = "nodelink"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats lists the supported output formats per view.
var ValidFormats = map[string][]string{
	ViewTree:     {FormatSVG, FormatPNG, FormatJSON},
	ViewNodelink: {FormatSVG, FormatPNG, FormatDOT},
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the rendering pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Load options
	Source   string         `json:"source,omitempty"` // path of the tree document
	Document *ftio.Document `json:"document,omitempty"`
	Root     string         `json:"root,omitempty"` // overrides the document root

	// Layout options
	View         string  `json:"view,omitempty"`
	Width        float64 `json:"width,omitempty"`
	Height       float64 `json:"height,omitempty"`
	NodeDistance float64 `json:"node_distance,omitempty"`
	SpouseGap    float64 `json:"spouse_gap,omitempty"`
	VerticalGap  float64 `json:"vertical_gap,omitempty"`
	Strict       bool    `json:"strict,omitempty"`  // fail when persons cannot be positioned
	Refresh      bool    `json:"refresh,omitempty"` // skip cache reads

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Interactive bool     `json:"interactive,omitempty"` // embed pan/zoom/select script in SVG
	Highlight   string   `json:"highlight,omitempty"`   // person whose ancestry is highlighted
	Avatars     bool     `json:"avatars,omitempty"`
	AvatarDir   string   `json:"avatar_dir,omitempty"`
	Remote      bool     `json:"remote,omitempty"` // allow http(s) avatars
	Detailed    bool     `json:"detailed,omitempty"`
	Scale       float64  `json:"scale,omitempty"`
	Title       string   `json:"title,omitempty"`

	// Runtime options (not serialized)
	Logger  *log.Logger    `json:"-"`
	Fetcher avatar.Fetcher `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the loaded tree document.
	Document *ftio.Document

	// TreeHash is the content hash of the document tree.
	TreeHash string

	// Draw holds the painted surface and the layout. It is nil when every
	// artifact came from the cache.
	Draw *Drawing

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Persons      int
	Positioned   int
	Unpositioned int
	LoadTime     time.Duration
	DrawTime     time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateView checks that a view is valid.
func ValidateView(view string) error {
	if _, ok := ValidFormats[view]; !ok {
		return ferrors.New(ferrors.ErrCodeInvalidStyle, "invalid view: %q (must be one of: tree, nodelink)", view)
	}
	return nil
}

// ValidateFormat checks that a format is valid for view.
func ValidateFormat(view, format string) error {
	if err := ValidateView(view); err != nil {
		return err
	}
	if !slices.Contains(ValidFormats[view], format) {
		return ferrors.New(ferrors.ErrCodeInvalidFormat, "invalid format for %s view: %q (must be one of: %v)",
			view, format, ValidFormats[view])
	}
	return nil
}

// ValidateFormats checks that all formats are valid for view.
func ValidateFormats(view string, formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(view, f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that a tree source is given.
func (o *Options) ValidateForLoad() error {
	if o.Source == "" && o.Document == nil {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "source or document is required")
	}
	if o.Root != "" {
		if err := ferrors.ValidatePersonID(o.Root); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.View == "" {
		o.View = DefaultView
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.NodeDistance == 0 {
		o.NodeDistance = layout.DefaultNodeDistance
	}
	if o.SpouseGap == 0 {
		o.SpouseGap = layout.DefaultSpouseGap
	}
	if o.VerticalGap == 0 {
		o.VerticalGap = layout.DefaultVerticalGap
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForRender validates and sets defaults for drawing and export.
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if !finite(o.Width) || !finite(o.Height) || o.Width < 0 || o.Height < 0 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "surface size must be finite and not negative (%gx%g)", o.Width, o.Height)
	}
	if !finite(o.Scale) || o.Scale < 0 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "scale must be a positive finite number, got %g", o.Scale)
	}
	if o.Highlight != "" {
		if err := ferrors.ValidatePersonID(o.Highlight); err != nil {
			return err
		}
	}
	return ValidateFormats(o.View, o.Formats)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// IsNodelink returns true if this is a nodelink visualization.
func (o *Options) IsNodelink() bool {
	return o.View == ViewNodelink
}

// LayoutOptions returns the solver options.
func (o *Options) LayoutOptions() []layout.Option {
	return []layout.Option{
		layout.WithNodeDistance(o.NodeDistance),
		layout.WithSpouseGap(o.SpouseGap),
		layout.WithVerticalGap(o.VerticalGap),
	}
}

// SurfaceConfig returns the surface configuration for a drawing pass.
func (o *Options) SurfaceConfig() surface.Config {
	return surface.Config{Element: "pipeline", Width: o.Width, Height: o.Height}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts(root string) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Root:         root,
		NodeDistance: o.NodeDistance,
		SpouseGap:    o.SpouseGap,
		VerticalGap:  o.VerticalGap,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    fmt.Sprintf("%s/%s@%g", o.View, format, o.Scale),
		View:      o.viewKey(),
		Width:     int(o.Width),
		Height:    int(o.Height),
		Highlight: o.Highlight,
		Avatars:   o.Avatars,
	}
}

func (o *Options) viewKey() string {
	key := o.View
	if o.Interactive {
		key += "+interactive"
	}
	if o.Detailed {
		key += "+detailed"
	}
	if o.Strict {
		key += "+strict"
	}
	if o.Avatars && o.Remote {
		key += "+remote"
	}
	if o.Avatars && o.AvatarDir != "" {
		key += "+avatars=" + o.AvatarDir
	}
	if o.Title != "" {
		key += "+title=" + o.Title
	}
	return key
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familytree/pkg/cache"
	ftio "github.com/matzehuels/familytree/pkg/io"
	"github.com/matzehuels/familytree/pkg/render/tree/sink"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options; every run paints its own surface.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → draw → export pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	doc, err := Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Document = doc
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Persons = countPersons(doc)
	if result.TreeHash, err = cache.HashJSON(doc.Tree); err != nil {
		return nil, fmt.Errorf("hash tree: %w", err)
	}

	r.Logger.Info("loaded tree",
		"persons", result.Stats.Persons,
		"root", doc.RootID(),
		"duration", result.Stats.LoadTime)

	layoutHash := r.Keyer.LayoutKey(result.TreeHash, opts.LayoutKeyOpts(doc.RootID()))
	if artifacts, ok := r.cachedArtifacts(ctx, layoutHash, opts); ok {
		result.Artifacts = artifacts
		result.CacheInfo.RenderHit = true
		r.Logger.Debug("artifacts served from cache", "formats", opts.Formats)
		return result, nil
	}

	// Stage 2: Draw
	drawStart := time.Now()
	d, err := r.Draw(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("draw: %w", err)
	}
	result.Draw = d
	result.Stats.DrawTime = time.Since(drawStart)
	if l := d.Layout(); l != nil {
		result.Stats.Positioned = len(l.Nodes)
		result.Stats.Unpositioned = len(l.Unpositioned)
		for _, u := range l.Unpositioned {
			r.Logger.Warn("person not positioned", "id", u.ID, "reason", u.Reason, "detail", u.Detail)
		}
	}

	r.Logger.Info("drew tree",
		"view", opts.View,
		"positioned", result.Stats.Positioned,
		"unpositioned", result.Stats.Unpositioned,
		"duration", result.Stats.DrawTime)

	// Stage 3: Export
	renderStart := time.Now()
	artifacts, err := Export(ctx, d, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	for format, data := range artifacts {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// cachedArtifacts returns every requested format from the cache, or false
// when any one of them is missing.
func (r *Runner) cachedArtifacts(ctx context.Context, layoutHash string, opts Options) (map[string][]byte, bool) {
	if opts.Refresh {
		return nil, false
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			return nil, false
		}
		artifacts[format] = data
	}
	return artifacts, true
}

// LayoutJSON returns the positioned layout of the tree as a JSON document,
// cached under the layout key. Avatars are never fetched for it: the layout
// does not depend on them.
func (r *Runner) LayoutJSON(ctx context.Context, opts Options) ([]byte, bool, error) {
	opts.View = ViewTree
	opts.Formats = []string{FormatJSON}
	opts.Avatars = false
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, fmt.Errorf("invalid options: %w", err)
	}

	doc, err := Load(ctx, opts)
	if err != nil {
		return nil, false, fmt.Errorf("load: %w", err)
	}
	treeHash, err := cache.HashJSON(doc.Tree)
	if err != nil {
		return nil, false, fmt.Errorf("hash tree: %w", err)
	}
	key := r.Keyer.LayoutKey(treeHash, opts.LayoutKeyOpts(doc.RootID()))
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			return data, true, nil
		}
	}

	d, err := r.Draw(ctx, doc, opts)
	if err != nil {
		return nil, false, fmt.Errorf("draw: %w", err)
	}
	data, err := sink.RenderJSON(d.Scene, sink.WithJSONLayout(d.Layout()), sink.WithJSONIndent())
	if err != nil {
		return nil, false, fmt.Errorf("render json: %w", err)
	}
	_ = r.Cache.Set(ctx, key, data, cache.TTLLayout)
	return data, false, nil
}

// Document loads and validates the tree named by opts without drawing it.
func (r *Runner) Document(ctx context.Context, opts Options) (*ftio.Document, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	doc, err := Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	if _, _, err := doc.Build(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

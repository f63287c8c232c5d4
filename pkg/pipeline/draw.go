package pipeline

import (
	"context"
	"path/filepath"
	"time"

	ferrors "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/family"
	ftio "github.com/matzehuels/familytree/pkg/io"
	"github.com/matzehuels/familytree/pkg/observability"
	"github.com/matzehuels/familytree/pkg/render/tree/avatar"
	"github.com/matzehuels/familytree/pkg/render/tree/interact"
	"github.com/matzehuels/familytree/pkg/render/tree/layout"
	"github.com/matzehuels/familytree/pkg/render/tree/surface"
)

// Drawing is the outcome of the draw stage.
type Drawing struct {
	Document *ftio.Document
	Tree     *family.Tree
	Root     string

	// Scene and Pass are nil for the node-link view, which is laid out by
	// Graphviz at export time.
	Scene *surface.Scene
	Pass  *surface.Result

	// Diagnostics collects what the drawer reported during the pass.
	Diagnostics []surface.Diagnostics
}

// Layout returns the solved layout, or nil for the node-link view.
func (d *Drawing) Layout() *layout.Layout {
	if d.Pass == nil {
		return nil
	}
	return d.Pass.Layout
}

// Draw builds the tree in doc and paints it onto a fresh surface.
//
// Unpositioned persons are logged and kept in the layout; they fail the
// stage only when opts.Strict is set.
func (r *Runner) Draw(ctx context.Context, doc *ftio.Document, opts Options) (*Drawing, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	t, root, err := doc.Build()
	if err != nil {
		return nil, err
	}
	d := &Drawing{Document: doc, Tree: t, Root: root}
	if opts.IsNodelink() {
		return d, nil
	}

	d.Scene = surface.New(opts.SurfaceConfig())
	drawer := surface.NewDrawer(d.Scene,
		surface.WithLogger(opts.Logger),
		surface.WithLayoutOptions(opts.LayoutOptions()...),
		surface.WithAvatarLoader(r.avatarLoader(opts)),
		surface.WithDiagnostics(func(diag surface.Diagnostics) {
			d.Diagnostics = append(d.Diagnostics, diag)
		}),
	)
	if err := drawer.Init(ctx); err != nil {
		return nil, err
	}

	observability.Pipeline().OnLayoutStart(ctx, t.Len())
	start := time.Now()
	pass, err := drawer.DrawTree(ctx, t, root)
	positioned, unpositioned := 0, 0
	if pass.Layout != nil {
		positioned, unpositioned = len(pass.Layout.Nodes), len(pass.Layout.Unpositioned)
	}
	observability.Pipeline().OnLayoutComplete(ctx, positioned, unpositioned, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if pass.Dropped {
		return nil, ferrors.New(ferrors.ErrCodeInternal, "draw pass on a fresh surface was dropped")
	}
	d.Pass = &pass

	if opts.Strict {
		if err := pass.Layout.Err(); err != nil {
			return nil, err
		}
	}
	if opts.Highlight != "" {
		if _, ok := t.Person(opts.Highlight); !ok {
			return nil, ferrors.New(ferrors.ErrCodeNotFound, "highlighted person %q is not in the tree", opts.Highlight)
		}
		d.Scene.SetHighlighted(append([]string{opts.Highlight}, t.Ancestors(opts.Highlight)...))
	}
	if opts.Interactive {
		w, h := d.Scene.Size()
		d.Scene.SetTransform(interact.DefaultViewport().Fit(d.Scene.Bounds(), w, h))
	}
	return d, nil
}

// avatarLoader returns a loader that only draws placeholders unless avatars
// are enabled. Local avatar paths resolve against AvatarDir, or the
// directory of the source document.
func (r *Runner) avatarLoader(opts Options) *avatar.Loader {
	loaderOpts := []avatar.LoaderOption{avatar.WithLogger(opts.Logger)}
	if !opts.Avatars {
		return avatar.NewLoader(loaderOpts...)
	}
	f := opts.Fetcher
	if f == nil {
		dir := opts.AvatarDir
		if dir == "" && opts.Source != "" {
			dir = filepath.Dir(opts.Source)
		}
		fetchOpts := []avatar.FetcherOption{avatar.WithCache(r.Cache, r.Keyer)}
		if dir != "" {
			fetchOpts = append(fetchOpts, avatar.WithBaseDir(dir))
		}
		if !opts.Remote {
			fetchOpts = append(fetchOpts, avatar.WithoutRemote())
		}
		f = avatar.NewHTTPFetcher(fetchOpts...)
	}
	return avatar.NewLoader(append(loaderOpts, avatar.WithFetcher(f))...)
}

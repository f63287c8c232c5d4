package pipeline

import (
	"context"
	"fmt"
	"time"

	ferrors "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/observability"
	"github.com/matzehuels/familytree/pkg/render/nodelink"
	"github.com/matzehuels/familytree/pkg/render/tree/sink"
)

// Export generates output artifacts in the requested formats.
func Export(ctx context.Context, d *Drawing, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	var artifacts map[string][]byte
	var err error
	if opts.IsNodelink() {
		artifacts, err = renderNodelink(d, opts)
	} else {
		artifacts, err = renderTree(d, opts)
	}
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

// renderTree serializes the painted surface.
func renderTree(d *Drawing, opts Options) (map[string][]byte, error) {
	if d.Scene == nil {
		return nil, ferrors.New(ferrors.ErrCodeInternal, "tree view rendered without a surface")
	}
	title := opts.Title
	if title == "" && d.Document != nil {
		title = d.Document.Title
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(d.Scene, svgOptions(d, opts, title)...)
		case FormatPNG:
			data, err = sink.RenderPNG(d.Scene, sink.WithScale(opts.Scale))
		case FormatJSON:
			data, err = sink.RenderJSON(d.Scene, sink.WithJSONLayout(d.Layout()), sink.WithJSONIndent())
		default:
			return nil, ferrors.New(ferrors.ErrCodeUnsupported, "unsupported tree format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func svgOptions(d *Drawing, opts Options, title string) []sink.Option {
	svgOpts := []sink.Option{sink.WithTree(d.Tree)}
	if title != "" {
		svgOpts = append(svgOpts, sink.WithTitle(title))
	}
	if opts.Interactive {
		svgOpts = append(svgOpts, sink.WithViewport(), sink.WithInteraction())
	}
	return svgOpts
}

// renderNodelink generates the Graphviz outputs directly from the tree.
func renderNodelink(d *Drawing, opts Options) (map[string][]byte, error) {
	dot := nodelink.ToDOT(d.Tree, nodelink.Options{Detailed: opts.Detailed, Root: d.Root})

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(dot)
		case FormatDOT:
			data = []byte(dot)
		default:
			return nil, ferrors.New(ferrors.ErrCodeUnsupported, "unsupported nodelink format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

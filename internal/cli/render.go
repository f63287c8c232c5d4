package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/familytree/pkg/pipeline"
)

// renderFlags holds the flags of the render command that do not map
// directly onto pipeline.Options.
type renderFlags struct {
	output  string // output file (single format) or base path
	formats string // comma-separated output formats
	noCache bool
	watch   bool // re-render whenever the source changes
}

// renderCommand creates the render command for generating visualizations.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [tree.yaml|tree.json]",
		Short: "Render a family tree to SVG, PNG, JSON or DOT",
		Long: `Render a family tree document.

The tree view (-t tree) lays persons out in generation bands, pairs partners
and routes solid and dashed connector lines. It exports to svg (optionally an
interactive viewer with pan, zoom and click-to-highlight), png and json (the
positioned layout and connectors).

The node-link view (-t nodelink) hands the same relations to Graphviz and
exports to svg, png or dot.

Outputs are cached locally; use --refresh to bypass cached artifacts.
With --watch the tree is rendered again every time the file is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source = args[0]
			if cmd.Flags().Changed("format") {
				opts.Formats = parseFormats(flags.formats)
			}
			c.Config.apply(cmd.Flags(), &opts)
			return c.runRender(cmd.Context(), opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): svg (default), png, json, dot (comma-separated)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "re-render when the tree file changes")
	addRenderFlags(cmd.Flags(), &opts)

	return cmd
}

// addLayoutFlags registers the flags shared by every command that solves a
// layout.
func addLayoutFlags(fs *pflag.FlagSet, opts *pipeline.Options) {
	fs.StringVar(&opts.Root, "root", "", "person ID to lay the tree out from (default: document root)")
	fs.Float64Var(&opts.NodeDistance, "node-distance", 0, "horizontal gap between subtrees")
	fs.Float64Var(&opts.SpouseGap, "spouse-gap", 0, "horizontal gap between partners")
	fs.Float64Var(&opts.VerticalGap, "vertical-gap", 0, "vertical gap between generation bands")
	fs.BoolVar(&opts.Strict, "strict", false, "fail when a person cannot be positioned")
	fs.BoolVar(&opts.Refresh, "refresh", false, "ignore cached results")
}

// addRenderFlags registers the flags of the render and serve commands.
func addRenderFlags(fs *pflag.FlagSet, opts *pipeline.Options) {
	addLayoutFlags(fs, opts)
	fs.StringVarP(&opts.View, "type", "t", "", "visualization: tree (default), nodelink")
	fs.Float64Var(&opts.Width, "width", 0, "surface width in pixels")
	fs.Float64Var(&opts.Height, "height", 0, "surface height in pixels")
	fs.Float64Var(&opts.Scale, "scale", 0, "PNG pixel density")
	fs.BoolVar(&opts.Interactive, "interactive", false, "embed pan, zoom and select handling in the SVG")
	fs.StringVar(&opts.Highlight, "highlight", "", "person ID whose ancestry is highlighted")
	fs.BoolVar(&opts.Avatars, "avatars", false, "draw avatar images instead of placeholders")
	fs.StringVar(&opts.AvatarDir, "avatar-dir", "", "directory local avatar paths resolve against (default: next to the tree)")
	fs.BoolVar(&opts.Remote, "remote", false, "allow fetching http(s) avatars")
	fs.BoolVar(&opts.Detailed, "detailed", false, "show generation and life span (nodelink)")
	fs.StringVar(&opts.Title, "title", "", "document title (default: from the tree)")
}

// runRender executes the pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, flags renderFlags) error {
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if !flags.watch {
		return c.renderOnce(ctx, runner, opts, flags, 1)
	}

	if err := c.renderOnce(ctx, runner, opts, flags, 1); err != nil {
		printError("%v", err)
	}
	printInfo("Watching %s for changes (ctrl+c to stop)", opts.Source)

	logger := loggerFromContext(ctx)
	var mu sync.Mutex
	run := 1
	return watchFile(ctx, opts.Source, logger, func() {
		mu.Lock()
		defer mu.Unlock()
		run++
		st := startStep(logger, "Re-rendered "+filepath.Base(opts.Source))
		if err := c.renderOnce(ctx, runner, opts, flags, run); err != nil {
			st.failed(err)
			return
		}
		st.done("change", run-1)
	})
}

// renderOnce runs the pipeline for the n-th render and writes the artifacts.
func (c *CLI) renderOnce(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, flags renderFlags, n int) error {
	sp := startSpinner(ctx, os.Stderr, renderStatus(opts.Source, n))

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		sp.fail("Render failed")
		return err
	}
	if sp.cancelled() {
		sp.stop()
		return ctx.Err()
	}

	sp.update(fmt.Sprintf("Writing %d file(s)...", len(result.Artifacts)))
	paths, err := writeArtifacts(result.Artifacts, flags.output, opts.Source)
	if err != nil {
		sp.fail("Write failed")
		return err
	}

	sp.succeed("Rendered %s", opts.Source)
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.Persons, result.Stats.Unpositioned, result.CacheInfo.RenderHit)
	if result.Draw != nil {
		if l := result.Draw.Layout(); l != nil {
			for _, u := range l.Unpositioned {
				printWarning("%s", u.String())
			}
		}
	}
	return nil
}

// writeArtifacts writes each artifact next to input (or to output) and
// returns the written paths in format order.
func writeArtifacts(artifacts map[string][]byte, output, input string) ([]string, error) {
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	slices.Sort(formats)

	var paths []string
	for _, format := range formats {
		path := output
		if path == "" || len(formats) > 1 || filepath.Ext(output) != "."+format {
			path = basePath(output, input) + "." + format
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

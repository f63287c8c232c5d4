package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/pkg/pipeline"
)

// layoutCommand creates the layout command for computing positioned layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [tree.yaml|tree.json]",
		Short: "Compute the positioned layout of a family tree",
		Long: `Compute the positioned layout of a family tree.

The output is the same JSON document as 'render -f json': every card with its
generation band and position, every connector segment with its kind and line
style, and the persons that could not be positioned.

Use -o - to print the layout to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source = args[0]
			c.Config.apply(cmd.Flags(), &opts)
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json, - for stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	addLayoutFlags(cmd.Flags(), &opts)

	return cmd
}

// runLayout solves the layout and writes it.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	st := startStep(loggerFromContext(ctx), "Computed layout")
	data, cacheHit, err := runner.LayoutJSON(ctx, opts)
	if err != nil {
		st.failed(err)
		return fmt.Errorf("compute layout: %w", err)
	}
	st.done("source", opts.Source, "cached", cacheHit, "bytes", len(data))

	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if output == "" {
		output = strings.TrimSuffix(opts.Source, filepath.Ext(opts.Source)) + ".layout.json"
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(0, 0, cacheHit)
	printNewline()
	printNextStep("Render", appName+" render "+opts.Source)

	return nil
}

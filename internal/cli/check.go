package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	ferrors "github.com/matzehuels/familytree/pkg/errors"
	ftio "github.com/matzehuels/familytree/pkg/io"
	"github.com/matzehuels/familytree/pkg/pipeline"
)

// checkCommand creates the check command, which reports data-integrity
// issues without drawing anything.
func (c *CLI) checkCommand() *cobra.Command {
	var (
		root   string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "check [tree.yaml|tree.json]",
		Short: "Validate a family tree document",
		Long: `Validate a family tree document.

check builds the tree and reports children whose generation is not one below
their parents' and persons that cannot be reached from the root. Issues are
reported, never repaired. With --strict any issue fails the command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), pipeline.Options{Source: args[0], Root: root}, strict)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "person ID to check reachability from (default: document root)")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when issues are found")

	return cmd
}

func (c *CLI) runCheck(ctx context.Context, opts pipeline.Options, strict bool) error {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	doc, err := runner.Document(ctx, opts)
	if err != nil {
		return err
	}
	t, root, err := doc.Build()
	if err != nil {
		return err
	}

	printKeyValue("Tree", opts.Source)
	if doc.Title != "" {
		printKeyValue("Title", doc.Title)
	}
	printKeyValue("Root", root)
	printKeyValue("Persons", StyleNumber.Render(strconv.Itoa(t.Len())))
	printKeyValue("Relations", StyleNumber.Render(strconv.Itoa(len(t.AllRelations()))))
	printNewline()

	issues := t.Validate(root)
	if len(issues) == 0 {
		printSuccess("No issues found")
		return nil
	}
	printIssues(issues)
	if strict {
		return ferrors.New(ferrors.ErrCodeInvalidTree, "%d issue(s) found", len(issues))
	}
	printWarning("%d issue(s) found", len(issues))
	printDetail("Layout reports affected persons as unpositioned instead of guessing")
	return nil
}

// convertCommand creates the convert command, which rewrites a tree
// document between JSON and YAML.
func (c *CLI) convertCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Convert a family tree between JSON and YAML",
		Long: `Convert a family tree between JSON and YAML.

The output format follows the output file extension (.json, .yaml or .yml).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				output = args[1]
			}
			if output == "" {
				return ferrors.New(ferrors.ErrCodeInvalidInput, "output path is required")
			}
			return c.runConvert(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")

	return cmd
}

func (c *CLI) runConvert(ctx context.Context, input, output string) error {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	doc, err := runner.Document(ctx, pipeline.Options{Source: input})
	if err != nil {
		return err
	}
	if err := ftio.Export(doc, output); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Converted %s", input)
	printFile(output)
	return nil
}

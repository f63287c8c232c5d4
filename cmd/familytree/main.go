package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/internal/cli"
	ferrors "github.com/matzehuels/familytree/pkg/errors"
)

// Exit statuses. Scripts rendering many trees key off these to tell a bad
// input file apart from a tree that could not be drawn.
const (
	exitOK          = 0
	exitFailure     = 1
	exitBadTree     = 2 // input file, root or style rejected
	exitUndrawable  = 3 // layout left persons unplaced
	exitAssets      = 4 // avatars or remote sources unreachable
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	c := cli.New(stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.SetArgs(args)

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	// The level must be set before the root command loads the tree config.
	loadConfig := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if loadConfig == nil {
			return nil
		}
		return loadConfig(cmd, args)
	}

	return report(stderr, root.ExecuteContext(ctx), verbose)
}

// report prints err for the user and returns the process exit status.
// Verbose runs get the full chain including the code prefix.
func report(w io.Writer, err error, verbose bool) int {
	code := exitCode(err)
	if err == nil || code == exitInterrupted {
		return code
	}
	msg := ferrors.UserMessage(err)
	if verbose {
		msg = err.Error()
	}
	fmt.Fprintf(w, "familytree: %s\n", msg)
	if hint := hintFor(ferrors.GetCode(err)); hint != "" {
		fmt.Fprintf(w, "  %s\n", hint)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	}
	switch ferrors.GetCode(err) {
	case ferrors.ErrCodeInvalidInput, ferrors.ErrCodeInvalidFormat, ferrors.ErrCodeInvalidTree,
		ferrors.ErrCodeInvalidStyle, ferrors.ErrCodeInvalidPath, ferrors.ErrCodeUnknownRoot,
		ferrors.ErrCodeFileNotFound:
		return exitBadTree
	case ferrors.ErrCodeUnpositionedNode:
		return exitUndrawable
	case ferrors.ErrCodeAssetLoad, ferrors.ErrCodeNetwork, ferrors.ErrCodeTimeout,
		ferrors.ErrCodeRateLimited:
		return exitAssets
	}
	return exitFailure
}

func hintFor(code ferrors.Code) string {
	switch code {
	case ferrors.ErrCodeUnknownRoot:
		return "the root must be the ID of a person in the tree file"
	case ferrors.ErrCodeUnpositionedNode:
		return "persons not connected to the root cannot be placed"
	case ferrors.ErrCodeAssetLoad, ferrors.ErrCodeRateLimited:
		return "retry later or set avatars = false under [render] in the config"
	}
	return ""
}

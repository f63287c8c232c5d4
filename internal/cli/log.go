// Package cli implements the familytree command-line interface.
//
// The commands load a family tree document (JSON or YAML), lay it out in
// generation bands and export it, or open it in an interactive terminal
// explorer or an HTTP viewer. The CLI is built with cobra; status output is
// styled with lipgloss and logging goes through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - render: Export the tree or node-link view as SVG, PNG, JSON or DOT
//   - layout: Write the positioned layout as JSON
//   - explore: Browse the tree with the keyboard (pan, zoom, select)
//   - check: Report generation mismatches and unreachable persons
//   - convert: Rewrite a tree between JSON and YAML
//   - serve: Serve the render API and metrics over HTTP
//   - cache: Manage the layout, artifact and avatar cache
//
// # Configuration
//
// An optional TOML file (--config, default $XDG_CONFIG_HOME/familytree/config.toml)
// supplies defaults for flags that are not given on the command line.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// also attached to the command context for helpers that only see a context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// newLogger creates the CLI logger with short timestamps ("14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// commandLogger tags l with the running subcommand, so watch and serve
// output reads "cmd=render" or "cmd=serve".
func commandLogger(l *log.Logger, cmd *cobra.Command) *log.Logger {
	return l.With("cmd", cmd.Name())
}

// step times one stage of a command, such as solving a layout or one
// re-render in watch mode, and logs it once it ends.
type step struct {
	logger *log.Logger
	name   string
	start  time.Time
}

func startStep(l *log.Logger, name string) *step {
	return &step{logger: l, name: name, start: time.Now()}
}

// done logs the step at info level with its duration and the given
// key/value pairs, e.g. "Computed layout took=12ms cached=true".
func (s *step) done(kv ...any) {
	fields := append([]any{"took", s.elapsed()}, kv...)
	s.logger.Info(s.name, fields...)
}

// failed logs the step at warn level. Watch mode keeps running after a
// failed render, so the error is logged rather than returned.
func (s *step) failed(err error) {
	s.logger.Warn(s.name+" failed", "took", s.elapsed(), "err", err)
}

func (s *step) elapsed() time.Duration {
	return time.Since(s.start).Round(time.Millisecond)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx for helpers that only see a context.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default() outside a command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/pkg/buildinfo"
	"github.com/matzehuels/familytree/pkg/cache"
	"github.com/matzehuels/familytree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "familytree"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded by the root command's PersistentPreRunE.
	Config Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Familytree lays out and draws family trees",
		Long: `Familytree turns a tree of persons, partners and children into a
generation-banded diagram with typed connector lines, and lets you explore it
interactively in the terminal or in the browser.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), commandLogger(c.Logger, cmd)))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/familytree/config.toml)")

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cache, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

// newCache picks the cache backend: none, the configured Redis server, or
// the file cache under the cache directory.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if c.Config.Cache.Redis != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: c.Config.Cache.Redis, Prefix: appName + ":"})
		if err != nil {
			return nil, err
		}
		return cache.Instrument(rc), nil
	}
	dir := c.Config.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory ($XDG_CACHE_HOME/familytree, or
// ~/.cache/familytree). Layouts, artifacts and avatars share it.
func cacheDir() (string, error) { return xdgDir("XDG_CACHE_HOME", ".cache") }

// configDir returns the directory holding config.toml ($XDG_CONFIG_HOME/familytree,
// or ~/.config/familytree).
func configDir() (string, error) { return xdgDir("XDG_CONFIG_HOME", ".config") }

// xdgDir resolves the familytree directory under the base named by env,
// falling back to fallback in the home directory when env is unset.
func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// basePath derives the output base path. An empty output strips the
// extension from input; an output ending in a known format extension
// loses that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	for _, formats := range pipeline.ValidFormats {
		for _, f := range formats {
			if f == ext {
				return strings.TrimSuffix(output, "."+ext)
			}
		}
	}
	return output
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/internal/server"
	"github.com/matzehuels/familytree/pkg/cache"
	"github.com/matzehuels/familytree/pkg/pipeline"
)

// serveFlags holds flag values for the serve command.
type serveFlags struct {
	addr          string
	trees         string
	redis         string
	scope         string
	corsOrigins   []string
	remoteAvatars bool
	noCache       bool
	noMetrics     bool
}

// serveCommand creates the serve command, the HTTP front end of the render
// pipeline.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve family trees over HTTP",
		Long: `Serve family trees over HTTP.

Trees stored as YAML or JSON in the trees directory are served by name under
/v1/trees/{name}. POST /v1/render renders a document sent in the request body.
Prometheus metrics are exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				flags.addr = c.Config.Server.Addr
			}
			if !cmd.Flags().Changed("trees") {
				flags.trees = c.Config.Server.Trees
			}
			if !cmd.Flags().Changed("redis") {
				flags.redis = c.Config.Cache.Redis
			}
			if !cmd.Flags().Changed("cors-origin") {
				flags.corsOrigins = c.Config.Server.CORSOrigins
			}
			return c.runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&flags.trees, "trees", ".", "directory of tree documents")
	cmd.Flags().StringVar(&flags.redis, "redis", "", "Redis address for the shared cache (host:port)")
	cmd.Flags().StringVar(&flags.scope, "scope", "", "cache key scope, for several deployments sharing one Redis")
	cmd.Flags().StringSliceVar(&flags.corsOrigins, "cors-origin", nil, "allowed CORS origin (repeatable, wildcards like https://*.example.com)")
	cmd.Flags().BoolVar(&flags.remoteAvatars, "remote-avatars", false, "allow http(s) avatar URLs")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.noMetrics, "no-metrics", false, "disable the /metrics route")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags serveFlags) error {
	logger := loggerFromContext(ctx)

	store, err := c.serveCache(ctx, flags)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	var keyer cache.Keyer
	if flags.scope != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), flags.scope+":")
	}
	runner := pipeline.NewRunner(store, keyer, logger)
	defer runner.Close()

	opts := []server.Option{server.WithLogger(logger)}
	if !flags.noMetrics {
		m := server.NewMetrics(appName)
		m.Register()
		opts = append(opts, server.WithMetrics(m))
	}

	srv := server.New(server.Config{
		Addr:           flags.addr,
		TreesDir:       flags.trees,
		RemoteAvatars:  flags.remoteAvatars,
		AllowedOrigins: flags.corsOrigins,
	}, runner, opts...)
	return srv.ListenAndServe(ctx)
}

// serveCache is like newCache but instruments every backend and honors
// the --redis flag.
func (c *CLI) serveCache(ctx context.Context, flags serveFlags) (cache.Cache, error) {
	if flags.noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if flags.redis != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: flags.redis, Prefix: appName + ":"})
		if err != nil {
			return nil, err
		}
		return cache.Instrument(rc), nil
	}
	fc, err := c.newCache(ctx, false)
	if err != nil {
		return nil, err
	}
	return cache.Instrument(fc), nil
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gdstools/internal/server"
	"github.com/matzehuels/gdstools/pkg/cache"
)

// serveCommand creates the serve command for the HTTP build API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		buildTTL time.Duration
		maxBody  int64
		timeout  time.Duration
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the build API over HTTP",
		Long: `Serve the build API over HTTP.

  POST /v1/builds?formats=gds,json       build the design in the request body
  GET  /v1/builds/{id}                   build summary
  GET  /v1/builds/{id}/artifacts/{fmt}   download an artifact
  GET  /healthz                          version information

Artifacts are cached in the configured cache backend; finished builds are
kept in memory until --build-ttl elapses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := server.Config{
				Addr:         c.Config.Server.Addr,
				MaxBodyBytes: c.Config.Server.MaxBodyBytes,
				BuildTimeout: timeout,
			}
			if cmd.Flags().Changed("addr") || cfg.Addr == "" {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("max-body") || cfg.MaxBodyBytes == 0 {
				cfg.MaxBodyBytes = maxBody
			}
			ttl, err := c.buildTTL(buildTTL, cmd.Flags().Changed("build-ttl"))
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg, ttl, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().DurationVar(&buildTTL, "build-ttl", cache.TTLBuild, "how long finished builds stay available")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBodyBytes, "maximum design size in bytes")
	cmd.Flags().DurationVar(&timeout, "timeout", server.DefaultBuildTimeout, "maximum time per build")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable artifact caching")

	return cmd
}

// buildTTL prefers the flag when set, then the config file.
func (c *CLI) buildTTL(flag time.Duration, changed bool) (time.Duration, error) {
	if changed || c.Config.Server.BuildTTL == "" {
		return flag, nil
	}
	ttl, err := time.ParseDuration(c.Config.Server.BuildTTL)
	if err != nil {
		return 0, fmt.Errorf("config server.build_ttl: %w", err)
	}
	return ttl, nil
}

func (c *CLI) runServe(ctx context.Context, cfg server.Config, ttl time.Duration, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	store := server.NewStore(cache.NewMemoryCache(), nil, ttl)
	defer store.Close()

	cfg.Logger = loggerFromContext(ctx)
	printInfo("Serving on %s", StyleLink.Render("http://"+cfg.Addr))
	return server.New(runner, store, cfg).ListenAndServe(ctx)
}

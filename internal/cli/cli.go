// Package cli implements the flowviz command-line interface.
//
// This package provides commands for parsing flow descriptions, validating
// and laying out the resulting graphs, rendering them as SVG or DOT,
// animating them in the terminal, and serving them over HTTP. The CLI is
// built using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - parse: Parse a flow file and summarize its topology
//   - validate: Check every cross-reference in a flow
//   - layout: Compute node positions and save a scene file
//   - render: Generate SVG, DOT, or PNG diagrams
//   - play: Animate the particle simulation in the terminal
//   - serve: Run the HTTP API with live simulation streams
//   - cache: Manage the pipeline result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/flowviz/flowviz/pkg/buildinfo"
	"github.com/flowviz/flowviz/pkg/cache"
	"github.com/flowviz/flowviz/pkg/config"
	"github.com/flowviz/flowviz/pkg/pipeline"
)

// appName is the binary name used in help text and default paths.
const appName = "flowviz"

// Execute builds the root command and runs it with the given context. The
// context normally carries signal cancellation from main, so in-flight
// commands stop when the process is interrupted.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd assembles the root command with all subcommands and the
// global flags. The logger is built in PersistentPreRun, after flags are
// parsed, and attached to the command context for subcommands to retrieve
// with loggerFromContext.
func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   appName + " <command>",
		Short: "Visualize and simulate data-flow architectures",
		Long: `FlowViz turns a small text DSL describing a data-flow architecture into
diagrams and live particle simulations.

Describe services, topics, databases, and the connections between them;
flowviz parses the description, computes a layout, and renders it as SVG
or DOT, plays it as a terminal animation, or serves it over HTTP with
live simulation streams.

Examples:
  flowviz parse checkout.flow             # parse and summarize
  flowviz validate checkout.flow          # check cross-references
  flowviz render checkout.flow -f svg     # render a diagram
  flowviz play checkout.flow              # animate in the terminal
  flowviz serve                           # HTTP API + SSE streams`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("config", "", "config file (default ~/.config/flowviz/config.toml)")
	root.PersistentFlags().Bool("no-cache", false, "disable the pipeline cache")

	root.AddCommand(
		newParseCmd(),
		newValidateCmd(),
		newLayoutCmd(),
		newRenderCmd(),
		newPlayCmd(),
		newServeCmd(),
		newCacheCmd(),
		newCompletionCmd(),
	)

	return root
}

// loadConfig resolves configuration for a command, honoring the global
// --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// newCache selects the cache backend: Redis when configured, the file
// cache otherwise, and the null cache when caching is off. A backend that
// fails to come up degrades to the next one with a warning instead of
// failing the command.
func newCache(ctx context.Context, cfg *config.Config, disabled bool, logger *log.Logger) cache.Cache {
	if disabled || !cfg.Cache.Enabled {
		return cache.NewNullCache()
	}
	if cfg.Cache.Redis != "" {
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.Cache.Redis})
		if err == nil {
			return c
		}
		logger.Warn("redis cache unavailable, falling back to file cache", "addr", cfg.Cache.Redis, "err", err)
	}
	c, err := cache.NewFileCache(cfg.Cache.Dir)
	if err != nil {
		logger.Warn("file cache unavailable, caching disabled", "dir", cfg.Cache.Dir, "err", err)
		return cache.NewNullCache()
	}
	return c
}

// newKeyer builds the cache keyer. A configured scope prefixes every key
// so separate flowviz instances can share one Redis without collisions.
func newKeyer(cfg *config.Config) cache.Keyer {
	if cfg.Cache.Scope == "" {
		return nil
	}
	return cache.NewScopedKeyer(nil, cfg.Cache.Scope+":")
}

// newRunner builds the pipeline runner for a command from its global flags
// and configuration. The returned config lets commands pick up layout and
// simulation defaults without loading it twice.
func newRunner(cmd *cobra.Command) (*pipeline.Runner, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := loggerFromContext(cmd.Context())
	noCache, _ := cmd.Flags().GetBool("no-cache")
	c := newCache(cmd.Context(), cfg, noCache, logger)
	return pipeline.NewRunner(c, newKeyer(cfg), logger), cfg, nil
}

// pipelineOptions seeds pipeline options from the configured layout
// overrides. Unset config values stay zero and fall through to the layout
// engine defaults.
func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		HSpacing:   cfg.Layout.HSpacing,
		VSpacing:   cfg.Layout.VSpacing,
		NodeWidth:  cfg.Layout.NodeWidth,
		NodeHeight: cfg.Layout.NodeHeight,
	}
}

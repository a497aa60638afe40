package cli

import (
	"context"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/flowviz/flowviz/internal/server"
	"github.com/flowviz/flowviz/pkg/config"
	"github.com/flowviz/flowviz/pkg/pipeline"
	"github.com/flowviz/flowviz/pkg/store"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live simulation server",
		Long: `Start the HTTP server: a JSON API for parsing, rendering, and storing
scenes, plus server-driven simulation sessions streamed over SSE.

Scenes persist to a directory of JSON files by default; set
FLOWVIZ_MONGO_URI (or store.mongo_uri in the config file) to use MongoDB
instead. A .env file in the working directory is loaded before the
configuration is read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	// Feed .env into the environment before the config reads FLOWVIZ_* vars.
	_ = godotenv.Load()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	// Shutdown ctx is already cancelled by the time the server returns.
	defer st.Close(context.Background())

	noCache, _ := cmd.Flags().GetBool("no-cache")
	runner := pipeline.NewRunner(newCache(ctx, cfg, noCache, logger), newKeyer(cfg), logger)
	defer runner.Close()

	srv := server.New(cfg, server.Deps{Runner: runner, Store: st, Logger: logger})

	printInfo("Serving on %s", StyleLink.Render(displayURL(cfg.Server.Addr)))
	return srv.ListenAndServe(ctx)
}

// openStore picks the scene store backend from the configuration.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Store.MongoURI != "" {
		spinner := newSpinnerWithContext(ctx, "Connecting to MongoDB...")
		spinner.Start()
		st, err := store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDB)
		if err != nil {
			// An interrupt during the connect is not a connection failure.
			if spinner.Cancelled() {
				spinner.Stop()
				return nil, ctx.Err()
			}
			spinner.StopWithError("MongoDB connection failed")
			return nil, err
		}
		spinner.StopWithSuccess("Connected to MongoDB")
		return st, nil
	}
	return store.NewFileStore(cfg.Store.Dir)
}

// displayURL renders a listen address as a browsable URL.
func displayURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

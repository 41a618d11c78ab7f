package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seenimoa/stockrec/api"
	"github.com/seenimoa/stockrec/internal/datasource"
	"github.com/seenimoa/stockrec/internal/logging"
	"github.com/seenimoa/stockrec/internal/recommend"
	"github.com/seenimoa/stockrec/internal/search"
	"github.com/seenimoa/stockrec/internal/store"
	"github.com/seenimoa/stockrec/internal/supervisor"
)

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			cfg.Data.Watch = true
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := logging.Logger()
		holder := store.NewHolder(store.PathsFromConfig(cfg.Data), logger)
		idx := search.NewLive(logger)
		hub := api.NewWSHub(logger)
		holder.Subscribe(idx.Rebuild)
		holder.Subscribe(hub.PublishSnapshot)

		if _, err := holder.Reload(ctx); err != nil {
			return fmt.Errorf("initial load from %s: %w", cfg.Data.Dir, err)
		}

		srv := api.NewServer(cfg, api.Deps{
			Store:   holder,
			Engine:  recommend.NewEngine(holder, cfg.Recommend.TopN, logger),
			Search:  idx,
			News:    datasource.NewClient(cfg.Fetch, logger),
			Hub:     hub,
			Logger:  logger,
			Version: version,
		})

		tree := supervisor.NewTree(logger, supervisor.DefaultTreeConfig())
		if cfg.Data.Watch {
			tree.AddDataService(store.NewWatcher(holder, cfg.Data.WatchDebounce(), logger))
		}
		tree.AddMessagingService(hub)
		tree.AddAPIService(srv)

		fmt.Printf("🌐 stockrec API server on %s\n", cfg.API.Addr())
		err := tree.Serve(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default: api.port)")
	serveCmd.Flags().Bool("watch", false, "reload the snapshot when data files change")
}

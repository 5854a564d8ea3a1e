package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PROACTIVA-US/VISLZR/pkg/logging"
	"github.com/PROACTIVA-US/VISLZR/pkg/watcher"
	"github.com/PROACTIVA-US/VISLZR/pkg/web"
	"github.com/spf13/cobra"
)

const (
	watchQuietPeriod = 200 * time.Millisecond
	watchMaxWait     = 2 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves node context, actions, layout and dependency queries as JSON, streams
graph changes over SSE and exposes Prometheus metrics at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if rt.cfg.Watch {
			fw, err := watcher.NewFileWatcher(rt.cfg.Graph, rt.cfg.Catalog)
			if err != nil {
				return err
			}
			go watcher.Run(ctx, fw, watchQuietPeriod, watchMaxWait, rt.engine.Apply)
			logging.Info("watching for changes", "graph", rt.cfg.Graph, "catalog", rt.cfg.Catalog)
		}

		server := web.NewServer(rt.engine, rt.publisher, rt.metrics)
		return server.Start(ctx, rt.cfg.Port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload the graph and catalog when their files change")
}

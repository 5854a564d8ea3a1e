package main

import (
	"fmt"
	"os"

	"github.com/PROACTIVA-US/VISLZR/pkg/config"
	"github.com/PROACTIVA-US/VISLZR/pkg/engine"
	"github.com/PROACTIVA-US/VISLZR/pkg/logging"
	"github.com/PROACTIVA-US/VISLZR/pkg/metrics"
	"github.com/PROACTIVA-US/VISLZR/pkg/pubsub"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vislzr",
	Short: "Context-aware node actions and sibling layout for project graphs",
	Long: `vislzr loads a project graph, derives the context of each node and offers
the actions whose rules hold for it, laid out around the node on screen.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	f := rootCmd.PersistentFlags()
	f.String("config", "", "Config file (default "+config.DefaultFile+" when present)")
	f.StringP("graph", "g", "", "Project graph file (.json, .yaml)")
	f.StringP("catalog", "c", "", "Action catalog file (.toml, .yaml); defaults to the built-in catalog")
	f.String("project", "", "Project id recorded in action history")
	f.CountP("verbosity", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.Bool("json_logs", false, "Log as JSON")
}

// app is what every command needs once configuration is resolved
type app struct {
	cfg       *config.Config
	engine    *engine.Engine
	publisher *pubsub.SSEPublisher
	metrics   *metrics.Metrics
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	logging.Setup(logging.Options{
		Level: logging.LevelFromVerbosity(cfg.Verbosity),
		JSON:  cfg.JSONLogs,
	})

	publisher := pubsub.NewSSEPublisher()
	pubsub.ConfigureDefaultTopics(publisher)
	m := metrics.New()

	e, err := engine.Open(engine.Options{
		GraphPath:    cfg.Graph,
		CatalogPath:  cfg.Catalog,
		ProjectID:    cfg.Project,
		Layout:       cfg.Layout,
		HistoryLimit: cfg.History,
		Publisher:    publisher,
		Metrics:      m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open graph: %w", err)
	}
	return &app{cfg: cfg, engine: e, publisher: publisher, metrics: m}, nil
}

func (a *app) Close() {
	a.engine.Close()
	a.publisher.Close()
}

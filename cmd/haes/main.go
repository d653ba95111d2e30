// haes is the hybrid adaptive execution system CLI. It routes natural
// language requests to documents and personas, plans execution, and
// learns from feedback.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"haes/internal/config"
	"haes/internal/evolution"
	"haes/internal/planner"
	"haes/internal/routing"
	"haes/internal/stores"
)

var (
	// Global flags
	verbose    bool
	configPath string
	jsonOutput bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "haes",
	Short: "haes - Hybrid Adaptive Execution System",
	Long: `haes routes natural language requests through a keyword-first hybrid
router, plans multi-step execution with persona assignment, and evolves
its routing through recorded feedback.

Pipeline: route -> plan -> execute -> feedback -> learn.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// system bundles the wired components for one CLI invocation.
type system struct {
	cfg      *config.Config
	router   *routing.Router
	planner  *planner.Planner
	engine   *evolution.Engine
	docs     *stores.MemoryDocumentStore
	personas *stores.MemoryPersonaPool
}

// newSystem loads config and wires stores, engine, router and planner.
// The LLM fallback is left unwired here; keyword routing and learned
// patterns carry the CLI.
func newSystem() (*system, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	docs := stores.NewMemoryDocumentStore(documentCatalog())

	engine := evolution.NewEngine(cfg.SnapshotPath(), cfg.Evolution.AutoSave, logger)
	engine.Load()

	router := routing.NewRouter(docs, nil, engine, logger)
	router.SetLLMThreshold(cfg.Routing.LLMThreshold)
	pl := planner.NewPlanner(cfg.Planner.CacheSize, logger)

	return &system{
		cfg:      cfg,
		router:   router,
		planner:  pl,
		engine:   engine,
		docs:     docs,
		personas: stores.NewMemoryPersonaPool(stores.DefaultPersonas()),
	}, nil
}

// documentCatalog derives the routable document set from the keyword
// table so the store and the matcher never disagree.
func documentCatalog() []stores.Document {
	table := routing.NewKeywordMatcher().AllKeywords()
	docs := make([]stores.Document, 0, len(table))
	for _, entry := range table {
		docs = append(docs, stores.Document{
			ID:          entry.ID,
			Tags:        entry.Keywords,
			Description: strings.Join(entry.Keywords, ", "),
		})
	}
	return docs
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".haes/config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

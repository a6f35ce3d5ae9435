// Package main provides the insight engine CLI entrypoint.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/inboxpulse/insight-engine/internal/answer"
	"github.com/inboxpulse/insight-engine/internal/cache"
	"github.com/inboxpulse/insight-engine/internal/config"
	"github.com/inboxpulse/insight-engine/internal/embedding"
	"github.com/inboxpulse/insight-engine/internal/gather"
	"github.com/inboxpulse/insight-engine/internal/intent"
	"github.com/inboxpulse/insight-engine/internal/llm"
	"github.com/inboxpulse/insight-engine/internal/observability"
	"github.com/inboxpulse/insight-engine/internal/ranking"
	"github.com/inboxpulse/insight-engine/internal/storage"
	"github.com/inboxpulse/insight-engine/pkg/engine"
)

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool

	// Configuration and logger
	cfg    *config.Config
	logger *observability.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "insight-cli",
	Short: "Insight engine CLI for asking questions and loading warehouse data",
	Long: `Insight engine CLI operates the marketing analytics assistant.

Use this tool to:
- Ask questions against the email marketing warehouse
- Import subject line CSV exports
- Backfill embeddings for similarity search

All commands support --json for automation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logFormat := "console"
		if outputJSON {
			logFormat = "json"
		}

		level := cfg.Observability.LogLevel
		if !verbose {
			level = "warn"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      logFormat,
			ServiceName: "insight-cli",
		})

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newEmbedCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDB connects using the loaded config.
func openDB() (*sql.DB, error) {
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	return storage.Open(storage.OpenConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
}

// newEmbedder builds the cache-backed embedding client.
func newEmbedder() (embedding.Embedder, error) {
	client, err := embedding.NewClient(embedding.Config{
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.Embedding.Model,
		BaseURL:   cfg.LLM.BaseURL,
		Dimension: cfg.Embedding.Dimension,
	})
	if err != nil {
		return nil, err
	}
	memCache := cache.NewMemoryClient(cfg.Cache.MaxEntries)
	return embedding.NewCachedEmbedder(client, memCache, cfg.Cache.TTL), nil
}

// newAssistant wires the full pipeline for one CLI invocation.
func newAssistant(repos *storage.Repositories) (*engine.Assistant, error) {
	embedder, err := newEmbedder()
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}

	chatModel, err := llm.NewClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.ChatModel,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("chat client: %w", err)
	}

	rankCfg := ranking.Config{
		VectorWeight:     cfg.Retrieval.VectorWeight,
		KeywordWeight:    cfg.Retrieval.KeywordWeight,
		VectorThreshold:  cfg.Retrieval.VectorThreshold,
		KeywordThreshold: cfg.Retrieval.KeywordThreshold,
		MaxResults:       cfg.Retrieval.MaxResults,
	}

	executor := gather.NewExecutor(gather.RepoStore{Repos: repos}, embedder, rankCfg, logger)
	return engine.NewAssistant(
		intent.NewClassifier(chatModel, logger),
		gather.NewAggregator(executor, logger),
		answer.NewGenerator(chatModel, logger),
		logger,
	), nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

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

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("chat_model", cfg.LLM.ChatModel).
		Str("embedding_model", cfg.Embedding.Model).
		Msg("Starting insight API")

	db, err := storage.Open(storage.OpenConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	repos := storage.NewRepositories(db)

	var cacheClient cache.Client
	if cfg.Cache.Driver == "redis" {
		cacheClient, err = cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, using memory cache")
			cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
		}
	} else {
		cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}
	defer cacheClient.Close()

	embedClient, err := embedding.NewClient(embedding.Config{
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.Embedding.Model,
		BaseURL:   cfg.LLM.BaseURL,
		Dimension: cfg.Embedding.Dimension,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Embedding client init failed")
	}
	embedder := embedding.NewCachedEmbedder(embedClient, cacheClient, cfg.Cache.TTL)

	chatModel, err := llm.NewClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.ChatModel,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.RequestTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Chat client init failed")
	}

	rankCfg := ranking.Config{
		VectorWeight:     cfg.Retrieval.VectorWeight,
		KeywordWeight:    cfg.Retrieval.KeywordWeight,
		VectorThreshold:  cfg.Retrieval.VectorThreshold,
		KeywordThreshold: cfg.Retrieval.KeywordThreshold,
		MaxResults:       cfg.Retrieval.MaxResults,
	}

	executor := gather.NewExecutor(gather.RepoStore{Repos: repos}, embedder, rankCfg, logger)
	assistant := engine.NewAssistant(
		intent.NewClassifier(chatModel, logger),
		gather.NewAggregator(executor, logger),
		answer.NewGenerator(chatModel, logger),
		logger,
	)

	router := NewRouter(logger, cfg, Deps{
		Assistant: assistant,
		Repos:     repos,
		Embedder:  embedder,
		Cache:     cacheClient,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}

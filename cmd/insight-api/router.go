// Package main provides the insight API server entrypoint.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/inboxpulse/insight-engine/cmd/insight-api/handlers"
	"github.com/inboxpulse/insight-engine/cmd/insight-api/middleware"
	"github.com/inboxpulse/insight-engine/internal/cache"
	"github.com/inboxpulse/insight-engine/internal/config"
	"github.com/inboxpulse/insight-engine/internal/embedding"
	"github.com/inboxpulse/insight-engine/internal/observability"
	"github.com/inboxpulse/insight-engine/internal/storage"
	"github.com/inboxpulse/insight-engine/pkg/engine"
)

// Deps holds the constructed services the router exposes.
type Deps struct {
	Assistant *engine.Assistant
	Repos     *storage.Repositories
	Embedder  embedding.Embedder
	Cache     cache.Client
}

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"insight-engine"}`))
	})

	chatHandler := handlers.NewChatHandler(logger, deps.Assistant)
	searchHandler := handlers.NewSearchHandler(logger, deps.Repos.SubjectLines, deps.Embedder, deps.Cache, cfg.Cache.TTL)
	campaignsHandler := handlers.NewCampaignsHandler(logger, deps.Repos.Campaigns)
	spendHandler := handlers.NewSpendHandler(logger, deps.Repos.Spend)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/chat", func(r chi.Router) {
			r.Post("/", chatHandler.Chat)
			r.Post("/intent", chatHandler.Intent)
			r.Post("/gather", chatHandler.Gather)
		})

		r.Get("/search", searchHandler.Search)
		r.Get("/campaigns", campaignsHandler.List)
		r.Get("/spend", spendHandler.Series)
	})

	return r
}

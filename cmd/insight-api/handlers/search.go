package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/inboxpulse/insight-engine/internal/cache"
	"github.com/inboxpulse/insight-engine/internal/embedding"
	"github.com/inboxpulse/insight-engine/internal/observability"
	"github.com/inboxpulse/insight-engine/internal/storage"
)

// SearchHandler serves graded subject line similarity search.
type SearchHandler struct {
	logger   *observability.Logger
	repo     *storage.SubjectLineRepository
	embedder embedding.Embedder
	cache    cache.Client
	cacheTTL time.Duration
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(logger *observability.Logger, repo *storage.SubjectLineRepository, embedder embedding.Embedder, c cache.Client, cacheTTL time.Duration) *SearchHandler {
	return &SearchHandler{
		logger:   logger,
		repo:     repo,
		embedder: embedder,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// SearchResultDTO is one graded search hit.
type SearchResultDTO struct {
	SubjectLine string  `json:"subjectLine"`
	Company     string  `json:"company"`
	OpenRate    float64 `json:"openRate"`
	Volume      int64   `json:"volume"`
	DateSent    string  `json:"dateSent,omitempty"`
	Similarity  float64 `json:"similarity"`
	Grade       string  `json:"grade"`
}

// SearchResponseDTO is the search response.
type SearchResponseDTO struct {
	Query   string            `json:"query"`
	Results []SearchResultDTO `json:"results"`
}

// Search handles GET /api/v1/search?q=...&limit=...
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required", "")
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	cacheKey := cache.CacheKey("search", strconv.Itoa(limit), query)
	if data, err := h.cache.Get(r.Context(), cacheKey); err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	emb, err := h.embedder.EmbedSingle(r.Context(), query)
	if err != nil {
		h.logger.Error().Err(err).Msg("search embedding failed")
		writeError(w, http.StatusBadGateway, "embedding service unavailable", "")
		return
	}

	similar, err := h.repo.FindSimilar(r.Context(), emb, 0.0, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("similarity search failed")
		writeError(w, http.StatusInternalServerError, "search failed", "")
		return
	}

	resp := SearchResponseDTO{Query: query, Results: make([]SearchResultDTO, 0, len(similar))}
	for _, s := range similar {
		resp.Results = append(resp.Results, SearchResultDTO{
			SubjectLine: s.SubjectLine.SubjectLine,
			Company:     s.Company,
			OpenRate:    s.OpenRate,
			Volume:      s.ProjectedVolume,
			DateSent:    s.DateSent,
			Similarity:  s.Similarity,
			Grade:       gradeSimilarity(s.Similarity),
		})
	}

	if data, err := json.Marshal(resp); err == nil {
		_ = h.cache.Set(r.Context(), cacheKey, data, h.cacheTTL)
	}

	writeJSON(w, http.StatusOK, resp)
}

// gradeSimilarity maps a similarity score to a letter grade for quick
// eyeballing in the UI.
func gradeSimilarity(score float64) string {
	switch {
	case score >= 0.15:
		return "A"
	case score >= 0.10:
		return "B"
	case score >= 0.05:
		return "C"
	case score >= 0.02:
		return "D"
	default:
		return "F"
	}
}

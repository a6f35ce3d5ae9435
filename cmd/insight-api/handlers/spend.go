package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/inboxpulse/insight-engine/internal/observability"
	"github.com/inboxpulse/insight-engine/internal/storage"
)

// SpendHandler serves the monthly spend series for charting.
type SpendHandler struct {
	logger *observability.Logger
	repo   *storage.SpendRepository
}

// NewSpendHandler creates a new spend handler.
func NewSpendHandler(logger *observability.Logger, repo *storage.SpendRepository) *SpendHandler {
	return &SpendHandler{logger: logger, repo: repo}
}

// SpendPointDTO is one month of spend for the requested companies.
type SpendPointDTO struct {
	Date    string             `json:"date"`
	Year    int                `json:"year,omitempty"`
	Amounts map[string]float64 `json:"amounts"`
}

// SpendResponseDTO is the chart-shaped spend series.
type SpendResponseDTO struct {
	Companies []string        `json:"companies"`
	Points    []SpendPointDTO `json:"points"`
}

// Series handles GET /api/v1/spend?companies=chase,chime&category=...
func (h *SpendHandler) Series(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	raw := q.Get("companies")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "companies is required", "comma-separated company names")
		return
	}

	var companies []string
	for _, c := range strings.Split(raw, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := storage.SpendColumn(c); !ok {
			writeError(w, http.StatusBadRequest, "unknown company", c)
			return
		}
		companies = append(companies, c)
	}

	filter := storage.SpendFilter{
		Companies: companies,
		Category:  q.Get("category"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}

	rows, err := h.repo.ByCompanies(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("spend query failed")
		writeError(w, http.StatusInternalServerError, "failed to load spend data", "")
		return
	}

	resp := SpendResponseDTO{Companies: companies, Points: make([]SpendPointDTO, 0, len(rows))}
	for _, row := range rows {
		resp.Points = append(resp.Points, SpendPointDTO{
			Date:    row.DateCoded,
			Year:    row.Year,
			Amounts: row.Amounts,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

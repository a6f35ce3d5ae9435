package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/inboxpulse/insight-engine/internal/observability"
	"github.com/inboxpulse/insight-engine/internal/storage"
)

// CampaignsHandler serves the observed campaign listings.
type CampaignsHandler struct {
	logger *observability.Logger
	repo   *storage.CampaignRepository
}

// NewCampaignsHandler creates a new campaigns handler.
func NewCampaignsHandler(logger *observability.Logger, repo *storage.CampaignRepository) *CampaignsHandler {
	return &CampaignsHandler{logger: logger, repo: repo}
}

// CampaignDTO is one campaign record.
type CampaignDTO struct {
	CampaignID       int64  `json:"campaignId"`
	MarketingCompany string `json:"marketingCompany"`
	Industry         string `json:"industry,omitempty"`
	MediaChannel     string `json:"mediaChannel,omitempty"`
	ObservationDate  string `json:"observationDate"`
}

// CampaignsResponseDTO is a page of campaigns.
type CampaignsResponseDTO struct {
	Campaigns []CampaignDTO `json:"campaigns"`
	Total     int64         `json:"total"`
	Limit     int           `json:"limit"`
	Offset    int           `json:"offset"`
}

// List handles GET /api/v1/campaigns.
func (h *CampaignsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := storage.CampaignFilter{
		Company:      q.Get("company"),
		Industry:     q.Get("industry"),
		MediaChannel: q.Get("channel"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	page, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("campaign listing failed")
		writeError(w, http.StatusInternalServerError, "failed to list campaigns", "")
		return
	}

	resp := CampaignsResponseDTO{
		Campaigns: make([]CampaignDTO, 0, len(page.Campaigns)),
		Total:     page.Total,
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	for _, c := range page.Campaigns {
		resp.Campaigns = append(resp.Campaigns, CampaignDTO{
			CampaignID:       c.CampaignID,
			MarketingCompany: c.MarketingCompany,
			Industry:         c.Industry,
			MediaChannel:     c.MediaChannel,
			ObservationDate:  c.CampaignObservationDate.Format(time.DateOnly),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

package storage

import (
	"context"
	"fmt"
	"strings"
)

// CampaignRepository handles observed marketing campaign queries.
type CampaignRepository struct {
	db DB
}

// NewCampaignRepository creates a new campaign repository.
func NewCampaignRepository(db DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// CampaignFilter narrows a campaign listing.
type CampaignFilter struct {
	Company      string
	Industry     string
	MediaChannel string
	Limit        int
	Offset       int
}

// CampaignPage is one page of campaign results.
type CampaignPage struct {
	Campaigns []MarketingCampaign
	Total     int64
	Limit     int
	Offset    int
}

// List returns a page of campaigns matching the filter, newest observation
// first.
func (r *CampaignRepository) List(ctx context.Context, f CampaignFilter) (*CampaignPage, error) {
	var (
		conds []string
		args  []interface{}
	)
	argIdx := 1

	if f.Company != "" {
		conds = append(conds, fmt.Sprintf("marketing_company ILIKE $%d", argIdx))
		args = append(args, "%"+f.Company+"%")
		argIdx++
	}
	if f.Industry != "" {
		conds = append(conds, fmt.Sprintf("industry = $%d", argIdx))
		args = append(args, f.Industry)
		argIdx++
	}
	if f.MediaChannel != "" {
		conds = append(conds, fmt.Sprintf("media_channel = $%d", argIdx))
		args = append(args, f.MediaChannel)
		argIdx++
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM marketing_campaigns" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count campaigns: %w", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT campaign_id, marketing_company, COALESCE(industry, ''),
			COALESCE(media_channel, ''), campaign_observation_date
		FROM marketing_campaigns` + where +
		fmt.Sprintf(" ORDER BY campaign_observation_date DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	page := &CampaignPage{Total: total, Limit: limit, Offset: offset}
	for rows.Next() {
		var c MarketingCampaign
		if err := rows.Scan(&c.CampaignID, &c.MarketingCompany, &c.Industry,
			&c.MediaChannel, &c.CampaignObservationDate); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		page.Campaigns = append(page.Campaigns, c)
	}
	return page, rows.Err()
}

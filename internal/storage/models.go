// Package storage provides database models and repositories for the
// insight engine warehouse.
package storage

import "time"

// MailingType classifies how a campaign email was targeted.
type MailingType string

const (
	MailingTypeAcquisition MailingType = "acquisition"
	MailingTypeRetention   MailingType = "retention"
	MailingTypeWinback     MailingType = "winback"
)

// SubjectLine is one observed email subject line with engagement metrics.
// Rates are fractions in [0,1]; ProjectedVolume is an estimated send count.
type SubjectLine struct {
	ID                    int64
	SubjectLine           string
	Company               string
	SubIndustry           string
	OpenRate              float64
	ProjectedVolume       int64
	DateSent              string
	MailingType           string
	InboxRate             float64
	SpamRate              float64
	ReadRate              float64
	ReadDeleteRate        float64
	DeleteWithoutReadRate float64
}

// SimilarSubjectLine is a subject line returned by vector search, with the
// cosine similarity to the query embedding.
type SimilarSubjectLine struct {
	SubjectLine
	Similarity float64
}

// SpendRow is one month of marketing spend. Amounts maps company key to
// spend in millions of dollars; only requested companies are populated.
// DateCoded is free text in the warehouse ("April 2023" style), so month
// filtering happens on the formatted value, never in SQL.
type SpendRow struct {
	ID         int64
	DateCoded  string
	Year       int
	Category   string
	Amounts    map[string]float64
	GrandTotal float64
}

// MarketingCampaign is one observed campaign record.
type MarketingCampaign struct {
	CampaignID              int64
	MarketingCompany        string
	Industry                string
	MediaChannel            string
	CampaignObservationDate time.Time
}

// Row is a generic result row for gated raw SQL execution. Values are in
// column order; the executor formats them without knowing the shape.
type Row struct {
	Columns []string
	Values  []interface{}
}

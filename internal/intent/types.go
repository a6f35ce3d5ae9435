// Package intent turns a user question into a structured intent with typed
// data facets, using an LLM classifier with a deterministic fallback.
package intent

// FacetKind identifies what kind of data a facet needs.
type FacetKind string

const (
	// FacetSimilarItems asks for subject lines similar to an anchor text.
	FacetSimilarItems FacetKind = "similar_items"
	// FacetVolume asks for send volume figures.
	FacetVolume FacetKind = "volume"
	// FacetOpenRates asks for open rate figures.
	FacetOpenRates FacetKind = "open_rates"
	// FacetSpendAnalysis asks for monthly marketing spend.
	FacetSpendAnalysis FacetKind = "spend_analysis"
	// FacetCompanyComparison compares metrics across companies.
	FacetCompanyComparison FacetKind = "company_comparison"
	// FacetTrendAnalysis asks for changes over time.
	FacetTrendAnalysis FacetKind = "trend_analysis"
)

// knownKinds is the set of kinds the parser accepts. Unknown kinds coming
// back from the model are dropped, not errors.
var knownKinds = map[FacetKind]bool{
	FacetSimilarItems:      true,
	FacetVolume:            true,
	FacetOpenRates:         true,
	FacetSpendAnalysis:     true,
	FacetCompanyComparison: true,
	FacetTrendAnalysis:     true,
}

// DateRange bounds a facet in time. Values are free text as the model
// produced them ("July 2023", "2023-07-01").
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Facet is one typed data need extracted from a question.
type Facet struct {
	Kind          FacetKind  `json:"type"`
	Description   string     `json:"description,omitempty"`
	AnchorText    string     `json:"anchor_text,omitempty"`
	Companies     []string   `json:"companies,omitempty"`
	SubIndustries []string   `json:"sub_industries,omitempty"`
	MailingTypes  []string   `json:"mailing_types,omitempty"`
	DateRange     *DateRange `json:"date_range,omitempty"`
	Metric        string     `json:"metric,omitempty"`
	GeneratedSQL  string     `json:"generated_sql,omitempty"`
}

// IntentResult is the classifier output: a one-line restatement of what the
// user wants plus the facets needed to answer it.
type IntentResult struct {
	Intent string  `json:"intent"`
	Facets []Facet `json:"facets"`
}

// FallbackIntent is returned whenever classification cannot produce a
// usable result.
const FallbackIntent = "User is asking about email marketing"

// Fallback returns the degraded classification used on any parse failure.
func Fallback() IntentResult {
	return IntentResult{Intent: FallbackIntent, Facets: []Facet{}}
}

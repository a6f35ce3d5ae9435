package intent

import (
	"fmt"
	"strings"
)

// systemPrompt keeps the model in strict-JSON mode.
const systemPrompt = "You are an intent analysis system. Return only valid JSON responses."

// schemaContext describes the warehouse to the model. Column names must
// match the real schema or generated SQL never survives execution.
const schemaContext = `Available data:

1. subject_lines: email subject lines with engagement metrics.
   Columns: subject_line, company, sub_industry, open_rate (fraction 0-1),
   projected_volume, date_sent, mailing_type, inbox_rate, spam_rate,
   read_rate, read_delete_rate, delete_without_read_rate.

2. spend_summary: monthly marketing spend in millions of dollars, one
   column per company (chase, bank_of_america, chime, credit_karma, ...).
   The date_coded column is free text like "April 2023"; never filter on it.

3. marketing_campaigns: observed campaigns.
   Columns: marketing_company, industry, media_channel,
   campaign_observation_date.`

// facetTaxonomy tells the model which facet types exist and what fields
// each carries.
const facetTaxonomy = `Facet types:
- "similar_items": subject lines similar to a given text. Set anchor_text.
- "volume": send volume figures. Set companies/sub_industries/mailing_types as needed.
- "open_rates": open rate figures. Set companies/sub_industries/mailing_types as needed.
- "spend_analysis": monthly marketing spend. Set companies; optionally date_range.
- "company_comparison": compare a metric across companies. Set companies and metric.
- "trend_analysis": a metric over time. Set companies and metric; optionally date_range.

You may also include generated_sql with a single read-only SELECT against
the tables above when a facet needs data the fields cannot express.`

// decompositionRule forces comparisons apart into one facet per side.
const decompositionRule = `IMPORTANT: When the question compares two or more companies, or two or
more time periods, produce one facet per compared company or period.
Never merge a comparison into a single facet. For example, "Credit Karma
July vs August spend" needs two spend_analysis facets, one with a July
date_range and one with an August date_range.`

const responseShape = `Respond with exactly this JSON shape and nothing else:
{
  "intent": "<one sentence describing what the user wants>",
  "facets": [
    {"type": "...", "description": "...", "anchor_text": "...", "companies": [], "date_range": {"start": "", "end": ""}}
  ]
}
Omit fields a facet does not need.`

// buildIntentPrompt assembles the classification prompt for a question,
// with recent conversation turns for follow-up context.
func buildIntentPrompt(question string, history []string) string {
	var b strings.Builder

	b.WriteString(schemaContext)
	b.WriteString("\n\n")
	b.WriteString(facetTaxonomy)
	b.WriteString("\n\n")
	b.WriteString(decompositionRule)
	b.WriteString("\n\n")
	b.WriteString(responseShape)

	if len(history) > 0 {
		b.WriteString("\n\nConversation so far:\n")
		for _, turn := range history {
			b.WriteString(turn)
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n\nQuestion: %s", question)

	return b.String()
}

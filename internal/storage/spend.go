package storage

import (
	"context"
	"fmt"
	"strings"
)

// spendColumns maps a normalized company key to its spend_summary column.
// The warehouse stores one decimal column per tracked company, in millions.
var spendColumns = map[string]string{
	"chime":             "chime",
	"credit karma":      "credit_karma",
	"current":           "current_bank",
	"dave":              "dave",
	"earnin":            "earnin",
	"empower finance":   "empower_finance",
	"moneylion":         "moneylion",
	"one finance":       "one_finance",
	"varo":              "varo",
	"albert":            "albert",
	"chase":             "chase",
	"bank of america":   "bank_of_america",
	"wells fargo":       "wells_fargo",
	"citibank":          "citibank",
	"capital one":       "capital_one",
	"discover":          "discover",
	"american express":  "american_express",
	"us bank":           "us_bank",
	"pnc":               "pnc",
	"td bank":           "td_bank",
	"sofi":              "sofi",
	"ally":              "ally",
}

// SpendColumn resolves a company name to its spend_summary column. Matching
// is case-insensitive on the trimmed name.
func SpendColumn(company string) (string, bool) {
	col, ok := spendColumns[strings.ToLower(strings.TrimSpace(company))]
	return col, ok
}

// SpendCompanies returns the company names with a spend column, for prompt
// schema context.
func SpendCompanies() []string {
	out := make([]string, 0, len(spendColumns))
	for name := range spendColumns {
		out = append(out, name)
	}
	return out
}

// SpendRepository handles monthly spend summary queries.
type SpendRepository struct {
	db DB
}

// NewSpendRepository creates a new spend repository.
func NewSpendRepository(db DB) *SpendRepository {
	return &SpendRepository{db: db}
}

// SpendFilter narrows a spend query. Companies without a known column are
// ignored. No predicate is placed on date_coded: that column is free text
// and filtering it in SQL silently drops rows, so callers filter the
// returned rows instead.
type SpendFilter struct {
	Companies []string
	Category  string
	Limit     int
}

// ByCompanies returns monthly spend rows with amounts for the requested
// companies, oldest first.
func (r *SpendRepository) ByCompanies(ctx context.Context, f SpendFilter) ([]SpendRow, error) {
	type sel struct {
		name string
		col  string
	}

	var selected []sel
	for _, c := range f.Companies {
		if col, ok := SpendColumn(c); ok {
			selected = append(selected, sel{name: strings.ToLower(strings.TrimSpace(c)), col: col})
		}
	}

	cols := []string{"id", "COALESCE(date_coded, '')", "COALESCE(year, 0)", "COALESCE(category, '')", "COALESCE(grand_total, 0)"}
	for _, s := range selected {
		cols = append(cols, fmt.Sprintf("COALESCE(%s, 0)", s.col))
	}

	query := "SELECT " + strings.Join(cols, ", ") + " FROM spend_summary"

	var args []interface{}
	argIdx := 1
	if f.Category != "" {
		query += fmt.Sprintf(" WHERE category = $%d", argIdx)
		args = append(args, f.Category)
		argIdx++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 36
	}
	query += fmt.Sprintf(" ORDER BY year, id LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query spend summary: %w", err)
	}
	defer rows.Close()

	var out []SpendRow
	for rows.Next() {
		row := SpendRow{Amounts: make(map[string]float64, len(selected))}
		amounts := make([]float64, len(selected))

		dest := []interface{}{&row.ID, &row.DateCoded, &row.Year, &row.Category, &row.GrandTotal}
		for i := range amounts {
			dest = append(dest, &amounts[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan spend row: %w", err)
		}

		for i, s := range selected {
			row.Amounts[s.name] = amounts[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Categories returns the distinct spend categories.
func (r *SpendRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT category FROM spend_summary
		WHERE category IS NOT NULL ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("list spend categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

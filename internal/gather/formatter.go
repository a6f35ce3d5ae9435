package gather

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/inboxpulse/insight-engine/internal/storage"
)

// FormatSubjectLines renders subject lines as numbered rows the answer
// model can quote directly.
func FormatSubjectLines(lines []storage.SubjectLine) string {
	var b strings.Builder
	for i, s := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %q (Open Rate: %.1f%%), Company: %s, Volume: %d, Date: %s",
			i+1, s.SubjectLine, s.OpenRate*100, s.Company, s.ProjectedVolume, s.DateSent)
	}
	return b.String()
}

// FormatSimilarSubjectLines renders vector search results with their
// similarity percentage.
func FormatSimilarSubjectLines(lines []storage.SimilarSubjectLine) string {
	var b strings.Builder
	for i, s := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %q (Open Rate: %.1f%%), Company: %s, Volume: %d, Date: %s, Similarity: %.1f%%",
			i+1, s.SubjectLine.SubjectLine, s.OpenRate*100, s.Company, s.ProjectedVolume,
			s.DateSent, s.Similarity*100)
	}
	return b.String()
}

// FormatSpendRows renders monthly spend rows. Companies are sorted so the
// output is deterministic.
func FormatSpendRows(rows []storage.SpendRow) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. Date: %s", i+1, row.DateCoded)

		companies := make([]string, 0, len(row.Amounts))
		for c := range row.Amounts {
			companies = append(companies, c)
		}
		sort.Strings(companies)

		for _, c := range companies {
			fmt.Fprintf(&b, ", %s: $%.1fM", titleCase(c), row.Amounts[c])
		}
	}
	return b.String()
}

// FormatRows renders gated raw SQL results as numbered column: value rows.
func FormatRows(rows []storage.Row) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d.", i+1)
		for j, col := range row.Columns {
			if j > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, " %s: %s", col, formatValue(row.Values[j]))
		}
	}
	return b.String()
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

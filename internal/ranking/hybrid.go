// Package ranking combines vector similarity with keyword overlap to order
// retrieval candidates. Vector search alone ranks semantically close but
// lexically unrelated subject lines too high; blending in keyword overlap
// keeps results anchored to the words the user actually asked about.
package ranking

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Config holds ranking weights and retention thresholds.
type Config struct {
	VectorWeight     float64
	KeywordWeight    float64
	VectorThreshold  float64
	KeywordThreshold float64
	MaxResults       int
}

// DefaultConfig returns the production ranking parameters.
func DefaultConfig() Config {
	return Config{
		VectorWeight:     0.4,
		KeywordWeight:    0.6,
		VectorThreshold:  0.3,
		KeywordThreshold: 0.3,
		MaxResults:       10,
	}
}

// Candidate is one retrieval result to be ranked against the query text.
type Candidate struct {
	Text        string
	VectorScore float64
}

// Ranked is a retained candidate with its component and combined scores.
// Index refers back to the input slice.
type Ranked struct {
	Index        int
	VectorScore  float64
	KeywordScore float64
	Combined     float64
}

// Rank scores candidates against the query and returns the retained ones,
// best first. A candidate is retained when either component score clears
// its threshold. The sort is stable, so equal combined scores keep input
// order and the ranking is deterministic for fixed inputs.
func Rank(query string, candidates []Candidate, cfg Config) []Ranked {
	queryTokens := Tokenize(query)

	retained := make([]Ranked, 0, len(candidates))
	for i, c := range candidates {
		kw := KeywordScore(queryTokens, c.Text)
		if c.VectorScore < cfg.VectorThreshold && kw < cfg.KeywordThreshold {
			continue
		}
		retained = append(retained, Ranked{
			Index:        i,
			VectorScore:  c.VectorScore,
			KeywordScore: kw,
			Combined:     cfg.VectorWeight*c.VectorScore + cfg.KeywordWeight*kw,
		})
	}

	sort.SliceStable(retained, func(a, b int) bool {
		return retained[a].Combined > retained[b].Combined
	})

	if cfg.MaxResults > 0 && len(retained) > cfg.MaxResults {
		retained = retained[:cfg.MaxResults]
	}

	return retained
}

// Tokenize lowercases and splits text on whitespace, trimming punctuation
// from token edges. Tokens of a single rune or less are dropped; "a" or
// a stray "&" would otherwise substring-match almost anything.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `.,!?:;"'()[]{}`)
		if utf8.RuneCountInString(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// KeywordScore is the fraction of query tokens with a match in the
// candidate text. A query token matches when a text token contains it or
// is contained by it, so "finance" matches "refinance" and vice versa. A
// query token also counts as matched when another query token is a
// substring of it either way, which lets stem variants like "bonus" and
// "bonuses" reinforce each other.
func KeywordScore(queryTokens []string, text string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	textTokens := Tokenize(text)
	matched := 0
	for i, qt := range queryTokens {
		if matchesAny(qt, textTokens) {
			matched++
			continue
		}
		for j, ot := range queryTokens {
			if j == i {
				continue
			}
			if strings.Contains(qt, ot) || strings.Contains(ot, qt) {
				matched++
				break
			}
		}
	}

	return float64(matched) / float64(len(queryTokens))
}

func matchesAny(qt string, textTokens []string) bool {
	for _, tt := range textTokens {
		if strings.Contains(tt, qt) || strings.Contains(qt, tt) {
			return true
		}
	}
	return false
}

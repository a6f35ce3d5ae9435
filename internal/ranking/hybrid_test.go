package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordScore(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
		want  float64
	}{
		{"exact match", "cash back", "cash back rewards inside", 1.0},
		{"half match", "cash bonus", "cash rewards inside", 0.5},
		{"no match", "mortgage rates", "free pizza friday", 0.0},
		{"substring both directions", "finance", "refinance your home today", 1.0},
		{"case insensitive", "CASH Back", "Cash back offer", 1.0},
		{"punctuation trimmed", "bonus", "Your bonus! Claim it now.", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeywordScore(Tokenize(tt.query), tt.text)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestKeywordScoreEmptyQuery(t *testing.T) {
	assert.Equal(t, 0.0, KeywordScore(nil, "anything"))
	assert.Equal(t, 0.0, KeywordScore(Tokenize("   "), "anything"))
}

func TestTokenizeDropsSingleRuneTokens(t *testing.T) {
	assert.Empty(t, Tokenize("a z"))
	assert.Equal(t, []string{"cash"}, Tokenize("a cash & i"))

	// "a" and "z" are substrings of "amazing" but must not score.
	assert.Equal(t, 0.0, KeywordScore(Tokenize("a z"), "amazing deal"))
}

func TestKeywordScoreQueryTokensReinforce(t *testing.T) {
	// "bonus" and "bonuses" contain each other, so both count as matched
	// even when the candidate text matches neither.
	got := KeywordScore(Tokenize("bonus bonuses"), "no overlap here")
	assert.InDelta(t, 1.0, got, 1e-9)

	// An unrelated token still misses.
	got = KeywordScore(Tokenize("bonus bonuses mortgage"), "no overlap here")
	assert.InDelta(t, 2.0/3.0, got, 1e-9)
}

func TestRankCombinesScores(t *testing.T) {
	candidates := []Candidate{
		{Text: "unlock your cash bonus today", VectorScore: 0.5},
		{Text: "completely unrelated offer", VectorScore: 0.9},
		{Text: "cash bonus waiting for you", VectorScore: 0.2},
	}

	ranked := Rank("cash bonus", candidates, DefaultConfig())
	require.Len(t, ranked, 3)

	// Candidate 0: keyword 1.0, vector 0.5 -> combined 0.80.
	assert.Equal(t, 0, ranked[0].Index)
	assert.InDelta(t, 0.4*0.5+0.6*1.0, ranked[0].Combined, 1e-9)

	assert.Equal(t, 2, ranked[1].Index)
	assert.InDelta(t, 0.4*0.2+0.6*1.0, ranked[1].Combined, 1e-9)

	// Candidate 1 survives on vector alone, keyword 0.
	assert.Equal(t, 1, ranked[2].Index)
	assert.InDelta(t, 0.4*0.9, ranked[2].Combined, 1e-9)
}

func TestRankRetentionThresholds(t *testing.T) {
	candidates := []Candidate{
		{Text: "no overlap here", VectorScore: 0.29},   // both below: dropped
		{Text: "no overlap here", VectorScore: 0.3},    // vector at threshold: kept
		{Text: "cash bonus inside", VectorScore: 0.01}, // keyword above: kept
	}

	ranked := Rank("cash bonus", candidates, DefaultConfig())
	require.Len(t, ranked, 2)

	indices := []int{ranked[0].Index, ranked[1].Index}
	assert.Contains(t, indices, 1)
	assert.Contains(t, indices, 2)
}

func TestRankTruncatesToMaxResults(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 25; i++ {
		candidates = append(candidates, Candidate{Text: "cash bonus", VectorScore: 0.5})
	}

	ranked := Rank("cash bonus", candidates, DefaultConfig())
	assert.Len(t, ranked, 10)
}

func TestRankIsDeterministic(t *testing.T) {
	candidates := []Candidate{
		{Text: "cash bonus a", VectorScore: 0.5},
		{Text: "cash bonus b", VectorScore: 0.5},
		{Text: "cash bonus c", VectorScore: 0.5},
	}

	first := Rank("cash bonus", candidates, DefaultConfig())
	for i := 0; i < 10; i++ {
		again := Rank("cash bonus", candidates, DefaultConfig())
		require.Equal(t, first, again)
	}

	// Equal combined scores keep input order.
	assert.Equal(t, []int{0, 1, 2}, []int{first[0].Index, first[1].Index, first[2].Index})
}

func TestRankEmptyCandidates(t *testing.T) {
	ranked := Rank("anything", nil, DefaultConfig())
	assert.Empty(t, ranked)
}

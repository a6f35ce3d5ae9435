package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpulse/insight-engine/internal/llm"
)

func TestClassifyParsesFacets(t *testing.T) {
	model := &llm.MockModel{Responses: []string{`{
		"intent": "User wants subject lines similar to a cash bonus offer",
		"facets": [
			{"type": "similar_items", "anchor_text": "Get your cash bonus"},
			{"type": "open_rates", "companies": ["Chime"]}
		]
	}`}}

	c := NewClassifier(model, nil)
	result, err := c.Classify(context.Background(), "What works like 'Get your cash bonus'?", nil)
	require.NoError(t, err)

	assert.Equal(t, "User wants subject lines similar to a cash bonus offer", result.Intent)
	require.Len(t, result.Facets, 2)
	assert.Equal(t, FacetSimilarItems, result.Facets[0].Kind)
	assert.Equal(t, "Get your cash bonus", result.Facets[0].AnchorText)
	assert.Equal(t, FacetOpenRates, result.Facets[1].Kind)
	assert.Equal(t, []string{"Chime"}, result.Facets[1].Companies)

	// Model call parameters are fixed.
	require.Len(t, model.Calls, 1)
	assert.Equal(t, "You are an intent analysis system. Return only valid JSON responses.", model.Calls[0].System)
	assert.InDelta(t, 0.1, model.Calls[0].Temperature, 1e-9)
	assert.Equal(t, 1000, model.Calls[0].MaxTokens)
}

func TestClassifyDecomposesComparisons(t *testing.T) {
	// The prompt instructs one facet per compared period; this verifies the
	// pipeline carries both facets through, not that the model obeys.
	model := &llm.MockModel{Responses: []string{`{
		"intent": "User compares Credit Karma spend in July and August",
		"facets": [
			{"type": "spend_analysis", "companies": ["Credit Karma"], "date_range": {"start": "July 2023", "end": "July 2023"}},
			{"type": "spend_analysis", "companies": ["Credit Karma"], "date_range": {"start": "August 2023", "end": "August 2023"}}
		]
	}`}}

	c := NewClassifier(model, nil)
	result, err := c.Classify(context.Background(), "Credit Karma July vs August spend?", nil)
	require.NoError(t, err)

	require.Len(t, result.Facets, 2)
	assert.Equal(t, FacetSpendAnalysis, result.Facets[0].Kind)
	assert.Equal(t, FacetSpendAnalysis, result.Facets[1].Kind)
	assert.Equal(t, "July 2023", result.Facets[0].DateRange.Start)
	assert.Equal(t, "August 2023", result.Facets[1].DateRange.Start)
}

func TestClassifyStripsCodeFences(t *testing.T) {
	model := &llm.MockModel{Responses: []string{
		"```json\n{\"intent\": \"volume question\", \"facets\": [{\"type\": \"volume\"}]}\n```",
	}}

	c := NewClassifier(model, nil)
	result, err := c.Classify(context.Background(), "how much volume?", nil)
	require.NoError(t, err)

	assert.Equal(t, "volume question", result.Intent)
	require.Len(t, result.Facets, 1)
}

func TestClassifyFallsBackOnGarbage(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose", "I think the user is asking about marketing."},
		{"broken json", `{"intent": "x", "facets": [`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &llm.MockModel{Responses: []string{tt.response}}
			c := NewClassifier(model, nil)

			result, err := c.Classify(context.Background(), "anything", nil)
			require.NoError(t, err)
			assert.Equal(t, FallbackIntent, result.Intent)
			assert.Empty(t, result.Facets)
			assert.NotNil(t, result.Facets)
		})
	}
}

func TestClassifyFallsBackOnModelError(t *testing.T) {
	model := &llm.MockModel{Err: errors.New("upstream exploded")}
	c := NewClassifier(model, nil)

	result, err := c.Classify(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, FallbackIntent, result.Intent)
}

func TestClassifyPropagatesCancellation(t *testing.T) {
	model := &llm.MockModel{Err: context.Canceled}
	c := NewClassifier(model, nil)

	_, err := c.Classify(context.Background(), "anything", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyDropsUnknownKinds(t *testing.T) {
	model := &llm.MockModel{Responses: []string{`{
		"intent": "mixed bag",
		"facets": [
			{"type": "volume"},
			{"type": "astrology"},
			{"type": "open_rates"}
		]
	}`}}

	c := NewClassifier(model, nil)
	result, err := c.Classify(context.Background(), "anything", nil)
	require.NoError(t, err)

	require.Len(t, result.Facets, 2)
	assert.Equal(t, FacetVolume, result.Facets[0].Kind)
	assert.Equal(t, FacetOpenRates, result.Facets[1].Kind)
}

func TestBuildIntentPromptIncludesRulesAndHistory(t *testing.T) {
	prompt := buildIntentPrompt("compare Chase and Chime", []string{"user: hi", "assistant: hello"})

	assert.Contains(t, prompt, "one facet per compared company")
	assert.Contains(t, prompt, "subject_lines")
	assert.Contains(t, prompt, "spend_summary")
	assert.Contains(t, prompt, "user: hi")
	assert.Contains(t, prompt, "Question: compare Chase and Chime")
}

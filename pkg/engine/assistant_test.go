package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpulse/insight-engine/internal/answer"
	"github.com/inboxpulse/insight-engine/internal/embedding"
	"github.com/inboxpulse/insight-engine/internal/gather"
	"github.com/inboxpulse/insight-engine/internal/intent"
	"github.com/inboxpulse/insight-engine/internal/llm"
	"github.com/inboxpulse/insight-engine/internal/ranking"
	"github.com/inboxpulse/insight-engine/internal/storage"
)

// spendOnlyStore serves spend rows and nothing else.
type spendOnlyStore struct {
	spendCalls []storage.SpendFilter
}

func (s *spendOnlyStore) FindSimilar(ctx context.Context, emb []float32, threshold float64, limit int) ([]storage.SimilarSubjectLine, error) {
	return nil, nil
}

func (s *spendOnlyStore) SearchByKeyword(ctx context.Context, term string, limit int) ([]storage.SubjectLine, error) {
	return nil, nil
}

func (s *spendOnlyStore) TopPerforming(ctx context.Context, f storage.SubjectLineFilter) ([]storage.SubjectLine, error) {
	return nil, nil
}

func (s *spendOnlyStore) SpendByCompanies(ctx context.Context, f storage.SpendFilter) ([]storage.SpendRow, error) {
	s.spendCalls = append(s.spendCalls, f)
	rows := []storage.SpendRow{
		{DateCoded: "July 2023", Amounts: amountsFor(f.Companies, map[string]float64{
			"chase": 45.2, "bank of america": 38.7,
		})},
		{DateCoded: "August 2023", Amounts: amountsFor(f.Companies, map[string]float64{
			"chase": 47.9, "bank of america": 36.1,
		})},
	}
	return rows, nil
}

func (s *spendOnlyStore) Execute(ctx context.Context, query string) ([]storage.Row, error) {
	return nil, nil
}

func amountsFor(companies []string, all map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for _, c := range companies {
		key := strings.ToLower(strings.TrimSpace(c))
		if v, ok := all[key]; ok {
			out[key] = v
		}
	}
	return out
}

func newTestAssistant(store gather.Store, model llm.ChatModel) *Assistant {
	exec := gather.NewExecutor(store, embedding.NewMockClient(64), ranking.DefaultConfig(), nil)
	return NewAssistant(
		intent.NewClassifier(model, nil),
		gather.NewAggregator(exec, nil),
		answer.NewGenerator(model, nil),
		nil,
	)
}

func TestAskSpendComparisonEndToEnd(t *testing.T) {
	store := &spendOnlyStore{}
	model := &llm.MockModel{Responses: []string{
		// Intent call: one spend facet per compared company.
		`{
			"intent": "User compares Chase and Bank of America marketing spend",
			"facets": [
				{"type": "spend_analysis", "companies": ["Chase"]},
				{"type": "spend_analysis", "companies": ["Bank of America"]}
			]
		}`,
		// Answer call.
		"Chase outspent Bank of America in both months.",
	}}

	a := newTestAssistant(store, model)
	resp, err := a.Ask(context.Background(), AskRequest{
		Question: "Who spends more on marketing, Chase or Bank of America?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Chase outspent Bank of America in both months.", resp.Answer)
	require.Len(t, resp.Intent.Facets, 2)

	// Both facets resolved independently and in order.
	require.Len(t, store.spendCalls, 2)
	blocks := strings.Split(resp.Context, "\n\n")
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], "Chase: $45.2M")
	assert.Contains(t, blocks[1], "Bank Of America: $38.7M")

	// The answer model saw the gathered context.
	require.Len(t, model.Calls, 2)
	answerPrompt := model.Calls[1].Messages[0].Content
	assert.Contains(t, answerPrompt, "Chase: $45.2M")
	assert.Contains(t, answerPrompt, "Bank Of America: $36.1M")
}

func TestAskWithPrecomputedContextSkipsClassification(t *testing.T) {
	model := &llm.MockModel{Responses: []string{"grounded reply"}}
	a := newTestAssistant(&spendOnlyStore{}, model)

	resp, err := a.Ask(context.Background(), AskRequest{
		Question: "what does this mean?",
		Context:  "1. Date: July 2023, Chime: $18.2M",
	})
	require.NoError(t, err)

	assert.Equal(t, "grounded reply", resp.Answer)
	assert.Empty(t, resp.Intent.Facets)

	// Only the answer call happened.
	require.Len(t, model.Calls, 1)
	assert.Contains(t, model.Calls[0].Messages[0].Content, "Chime: $18.2M")
}

func TestAskRequiresQuestion(t *testing.T) {
	a := newTestAssistant(&spendOnlyStore{}, &llm.MockModel{Responses: []string{"x"}})

	_, err := a.Ask(context.Background(), AskRequest{Question: "   "})
	assert.Error(t, err)
}

func TestAskFallbackIntentStillAnswers(t *testing.T) {
	model := &llm.MockModel{Responses: []string{
		"this is not json at all",
		"general marketing advice",
	}}

	a := newTestAssistant(&spendOnlyStore{}, model)
	resp, err := a.Ask(context.Background(), AskRequest{Question: "help me out"})
	require.NoError(t, err)

	assert.Equal(t, intent.FallbackIntent, resp.Intent.Intent)
	assert.Equal(t, gather.FallbackParagraph, resp.Context)
	assert.Equal(t, "general marketing advice", resp.Answer)
}

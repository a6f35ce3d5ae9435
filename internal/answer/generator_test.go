package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpulse/insight-engine/internal/llm"
)

func TestGenerateInitialTurn(t *testing.T) {
	model := &llm.MockModel{Responses: []string{"use shorter subject lines"}}
	g := NewGenerator(model, nil)

	reply, err := g.Generate(context.Background(), Request{
		Question:      "How can I improve this?",
		Context:       "1. \"Cash bonus inside\" (Open Rate: 31.0%), Company: Chime",
		AnchorSubject: "Your exclusive offer awaits",
	})
	require.NoError(t, err)
	assert.Equal(t, "use shorter subject lines", reply)

	require.Len(t, model.Calls, 1)
	call := model.Calls[0]
	require.Len(t, call.Messages, 1)

	prompt := call.Messages[0].Content
	assert.Contains(t, prompt, `You're considering this subject line: "Your exclusive offer awaits"`)
	assert.Contains(t, prompt, "Database context:")
	assert.Contains(t, prompt, "Cash bonus inside")
	assert.Contains(t, prompt, "Question: How can I improve this?")
	assert.Contains(t, prompt, "State the user's original question or subject line")
	assert.Contains(t, prompt, "Print 3-10 representative rows verbatim")
	assert.Contains(t, prompt, "1-3 concrete recommendations")
	assert.Contains(t, prompt, "alternative suggestions or next steps")
	assert.NotContains(t, prompt, "Print 3-5 rows")

	assert.InDelta(t, 0.7, call.Temperature, 1e-9)
	assert.Equal(t, 1000, call.MaxTokens)
}

func TestGenerateFollowUpTurn(t *testing.T) {
	model := &llm.MockModel{Responses: []string{"here are the rows"}}
	g := NewGenerator(model, nil)

	history := []llm.Message{
		{Role: "user", Content: "show me chime data"},
		{Role: "assistant", Content: "chime data summary"},
	}

	_, err := g.Generate(context.Background(), Request{
		Question:      "what about their spend?",
		Context:       "1. Date: July 2023, Chime: $18.2M",
		AnchorSubject: "ignored on follow-ups",
		History:       history,
	})
	require.NoError(t, err)

	call := model.Calls[0]
	require.Len(t, call.Messages, 3)
	assert.Equal(t, "show me chime data", call.Messages[0].Content)

	prompt := call.Messages[2].Content
	assert.Contains(t, prompt, "Print 3-5 rows")
	assert.Contains(t, prompt, "short bullet points and a summary sentence")
	assert.NotContains(t, prompt, "Print 3-10 representative rows")
	assert.NotContains(t, prompt, "You're considering this subject line")
}

func TestGenerateEmptyContext(t *testing.T) {
	model := &llm.MockModel{Responses: []string{"sorry, nothing found"}}
	g := NewGenerator(model, nil)

	_, err := g.Generate(context.Background(), Request{Question: "anything?", Context: "   "})
	require.NoError(t, err)

	prompt := model.Calls[0].Messages[0].Content
	assert.Contains(t, prompt, "I couldn't find any information about that in our database.")
	assert.NotContains(t, prompt, "Database context:")
}

func TestGenerateClassifiesErrors(t *testing.T) {
	tests := []struct {
		name    string
		modelErr error
		want    error
	}{
		{"auth by message", errors.New("Incorrect API key provided"), llm.ErrAuth},
		{"quota by message", errors.New("insufficient quota for this request"), llm.ErrQuota},
		{"typed error passes through", llm.ErrQuota, llm.ErrQuota},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(&llm.MockModel{Err: tt.modelErr}, nil)

			_, err := g.Generate(context.Background(), Request{Question: "q"})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("transient error stays untyped", func(t *testing.T) {
		g := NewGenerator(&llm.MockModel{Err: errors.New("connection reset")}, nil)

		_, err := g.Generate(context.Background(), Request{Question: "q"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, llm.ErrAuth)
		assert.NotErrorIs(t, err, llm.ErrQuota)
	})
}

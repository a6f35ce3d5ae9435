package intent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/inboxpulse/insight-engine/internal/llm"
	"github.com/inboxpulse/insight-engine/internal/observability"
)

// Classifier extracts structured intent from user questions.
type Classifier struct {
	model llm.ChatModel
	log   *observability.Logger
}

// NewClassifier creates a classifier backed by the given chat model.
func NewClassifier(model llm.ChatModel, log *observability.Logger) *Classifier {
	if log == nil {
		log = observability.DefaultLogger()
	}
	return &Classifier{model: model, log: log.WithComponent("intent")}
}

const (
	intentTemperature = 0.1
	intentMaxTokens   = 1000
)

// Classify runs the intent model on a question. Model failures and
// malformed responses degrade to the fixed fallback intent; the only error
// returned is context cancellation, so a dead classifier never kills the
// pipeline.
func (c *Classifier) Classify(ctx context.Context, question string, history []string) (IntentResult, error) {
	prompt := buildIntentPrompt(question, history)

	raw, err := c.model.Complete(ctx, llm.CompletionRequest{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: intentTemperature,
		MaxTokens:   intentMaxTokens,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return IntentResult{}, err
		}
		c.log.Warn().Err(err).Msg("intent model call failed, using fallback")
		return Fallback(), nil
	}

	result, err := parseIntent(raw)
	if err != nil {
		c.log.Warn().Err(err).Str("raw", truncate(raw, 200)).Msg("intent parse failed, using fallback")
		return Fallback(), nil
	}

	kept := result.Facets[:0]
	for _, f := range result.Facets {
		if !knownKinds[f.Kind] {
			c.log.Warn().Str("kind", string(f.Kind)).Msg("dropping facet with unknown kind")
			continue
		}
		kept = append(kept, f)
	}
	result.Facets = kept

	c.log.Debug().
		Str("intent", result.Intent).
		Int("facets", len(result.Facets)).
		Msg("classified question")

	return result, nil
}

// parseIntent decodes the model response, tolerating markdown code fences.
func parseIntent(raw string) (IntentResult, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var result IntentResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return IntentResult{}, err
	}

	if result.Intent == "" {
		result.Intent = FallbackIntent
	}
	if result.Facets == nil {
		result.Facets = []Facet{}
	}

	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Package engine composes the classify, gather and answer stages into one
// assistant the API and CLI share.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/inboxpulse/insight-engine/internal/answer"
	"github.com/inboxpulse/insight-engine/internal/gather"
	"github.com/inboxpulse/insight-engine/internal/intent"
	"github.com/inboxpulse/insight-engine/internal/llm"
	"github.com/inboxpulse/insight-engine/internal/observability"
)

// AskRequest is one assistant turn.
type AskRequest struct {
	Question string
	// Context, when set, skips classification and gathering; callers that
	// already ran those stages pass the result through here.
	Context string
	// AnchorSubject frames an initial turn around a specific subject line.
	AnchorSubject string
	// History holds prior turns; non-empty history makes this a follow-up.
	History []llm.Message
}

// AskResponse is the assistant's reply plus the intermediate stages, so
// callers can show their work.
type AskResponse struct {
	Answer    string
	Intent    intent.IntentResult
	Context   string
	LatencyMs int64
}

// Assistant runs the full question pipeline.
type Assistant struct {
	classifier *intent.Classifier
	aggregator *gather.Aggregator
	generator  *answer.Generator
	log        *observability.Logger
}

// NewAssistant wires the three pipeline stages together.
func NewAssistant(classifier *intent.Classifier, aggregator *gather.Aggregator, generator *answer.Generator, log *observability.Logger) *Assistant {
	if log == nil {
		log = observability.DefaultLogger()
	}
	return &Assistant{
		classifier: classifier,
		aggregator: aggregator,
		generator:  generator,
		log:        log.WithComponent("assistant"),
	}
}

// Ask answers a question end to end: classify intent, gather context,
// generate the reply. A caller-supplied context short-circuits the first
// two stages.
func (a *Assistant) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("question is required")
	}

	start := time.Now()
	resp := &AskResponse{}

	if strings.TrimSpace(req.Context) != "" {
		resp.Context = req.Context
	} else {
		result, err := a.classifier.Classify(ctx, req.Question, historyLines(req.History))
		if err != nil {
			return nil, err
		}
		resp.Intent = result
		resp.Context = a.aggregator.Gather(ctx, result.Facets)
	}

	reply, err := a.generator.Generate(ctx, answer.Request{
		Question:      req.Question,
		Context:       resp.Context,
		AnchorSubject: req.AnchorSubject,
		History:       req.History,
	})
	if err != nil {
		return nil, err
	}

	resp.Answer = reply
	resp.LatencyMs = time.Since(start).Milliseconds()

	a.log.Info().
		Str("question", truncate(req.Question, 120)).
		Int("facets", len(resp.Intent.Facets)).
		Int64("latency_ms", resp.LatencyMs).
		Msg("answered question")

	return resp, nil
}

// Classify exposes the intent stage on its own, mirroring the step-by-step
// flow the UI drives.
func (a *Assistant) Classify(ctx context.Context, question string, history []llm.Message) (intent.IntentResult, error) {
	return a.classifier.Classify(ctx, question, historyLines(history))
}

// Gather exposes the context stage on its own.
func (a *Assistant) Gather(ctx context.Context, facets []intent.Facet) string {
	return a.aggregator.Gather(ctx, facets)
}

func historyLines(history []llm.Message) []string {
	if len(history) == 0 {
		return nil
	}
	lines := make([]string, len(history))
	for i, m := range history {
		lines[i] = m.Role + ": " + m.Content
	}
	return lines
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Package answer turns gathered context into a grounded reply, with
// separate prompt shapes for the first turn and follow-ups.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/inboxpulse/insight-engine/internal/llm"
	"github.com/inboxpulse/insight-engine/internal/observability"
)

const (
	answerTemperature = 0.7
	answerMaxTokens   = 1000
)

const initialSystem = "You are a marketing analytics assistant working over an email marketing " +
	"database of subject lines, engagement metrics and monthly spend. Answer from the provided " +
	"database context only; if the context does not cover the question, say so plainly."

const initialInstructions = "1. State the user's original question or subject line.\n" +
	"2. Print 3-10 representative rows verbatim from the database context to show your work.\n" +
	"3. Provide 1-3 concrete recommendations grounded in those rows.\n" +
	"4. End with alternative suggestions or next steps for the user."

const followUpInstructions = "Print 3-5 rows of the data from the database to demonstrate your " +
	"thinking. Reply succinctly and decisively, using short bullet points and a summary sentence."

// emptyContextNote shapes the reply when retrieval found nothing usable.
const emptyContextNote = "I couldn't find any information about that in our database."

// Request carries everything the generator needs for one reply.
type Request struct {
	Question string
	Context  string
	// AnchorSubject, when set on an initial turn, frames the reply around
	// the subject line the user is considering.
	AnchorSubject string
	// History holds prior turns; a non-empty history makes this a
	// follow-up turn.
	History []llm.Message
}

// Generator produces answers grounded on gathered context.
type Generator struct {
	model llm.ChatModel
	log   *observability.Logger
}

// NewGenerator creates a generator backed by the given chat model.
func NewGenerator(model llm.ChatModel, log *observability.Logger) *Generator {
	if log == nil {
		log = observability.DefaultLogger()
	}
	return &Generator{model: model, log: log.WithComponent("answer")}
}

// Generate runs one completion. Errors come back classified so transports
// can map auth failures to 401 and quota exhaustion to 429.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]llm.Message, 0, len(req.History)+1)
	messages = append(messages, req.History...)
	messages = append(messages, llm.Message{Role: "user", Content: buildUserPrompt(req)})

	reply, err := g.model.Complete(ctx, llm.CompletionRequest{
		System:      initialSystem,
		Messages:    messages,
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		return "", llm.Classify(err)
	}

	g.log.Debug().
		Int("context_bytes", len(req.Context)).
		Bool("follow_up", len(req.History) > 0).
		Msg("generated answer")

	return reply, nil
}

// buildUserPrompt assembles the user message for the current turn.
func buildUserPrompt(req Request) string {
	var b strings.Builder

	if len(req.History) == 0 && req.AnchorSubject != "" {
		fmt.Fprintf(&b, "You're considering this subject line: %q\n\n", req.AnchorSubject)
	}

	if strings.TrimSpace(req.Context) != "" {
		b.WriteString("Database context:\n")
		b.WriteString(req.Context)
		b.WriteString("\n\n")
	} else {
		b.WriteString(emptyContextNote)
		b.WriteString("\n\n")
	}

	if len(req.History) == 0 {
		b.WriteString(initialInstructions)
	} else {
		b.WriteString(followUpInstructions)
	}
	b.WriteString("\n\n")

	b.WriteString("Question: ")
	b.WriteString(req.Question)

	return b.String()
}

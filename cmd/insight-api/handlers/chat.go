// Package handlers provides HTTP handlers for the insight API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inboxpulse/insight-engine/internal/intent"
	"github.com/inboxpulse/insight-engine/internal/llm"
	"github.com/inboxpulse/insight-engine/internal/observability"
	"github.com/inboxpulse/insight-engine/pkg/engine"
)

// ChatHandler handles the assistant pipeline endpoints.
type ChatHandler struct {
	logger    *observability.Logger
	assistant *engine.Assistant
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(logger *observability.Logger, assistant *engine.Assistant) *ChatHandler {
	return &ChatHandler{logger: logger, assistant: assistant}
}

// MessageDTO is one conversation turn.
type MessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequestDTO is the full-pipeline request.
type ChatRequestDTO struct {
	Question      string       `json:"question"`
	Context       string       `json:"context,omitempty"`
	AnchorSubject string       `json:"anchorSubject,omitempty"`
	History       []MessageDTO `json:"history,omitempty"`
}

// ChatResponseDTO is the full-pipeline response.
type ChatResponseDTO struct {
	Answer    string    `json:"answer"`
	Intent    IntentDTO `json:"intent"`
	Context   string    `json:"context"`
	LatencyMs int64     `json:"latencyMs"`
}

// IntentDTO mirrors the classifier output.
type IntentDTO struct {
	Intent string         `json:"intent"`
	Facets []intent.Facet `json:"facets"`
}

// Chat handles POST /api/v1/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required", "")
		return
	}

	resp, err := h.assistant.Ask(r.Context(), engine.AskRequest{
		Question:      req.Question,
		Context:       req.Context,
		AnchorSubject: req.AnchorSubject,
		History:       toMessages(req.History),
	})
	if err != nil {
		h.writeModelError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponseDTO{
		Answer:    resp.Answer,
		Intent:    IntentDTO{Intent: resp.Intent.Intent, Facets: resp.Intent.Facets},
		Context:   resp.Context,
		LatencyMs: resp.LatencyMs,
	})
}

// IntentRequestDTO is the intent-only request.
type IntentRequestDTO struct {
	Question string       `json:"question"`
	History  []MessageDTO `json:"history,omitempty"`
}

// Intent handles POST /api/v1/chat/intent.
func (h *ChatHandler) Intent(w http.ResponseWriter, r *http.Request) {
	var req IntentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required", "")
		return
	}

	result, err := h.assistant.Classify(r.Context(), req.Question, toMessages(req.History))
	if err != nil {
		h.writeModelError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, IntentDTO{Intent: result.Intent, Facets: result.Facets})
}

// GatherRequestDTO is the gather-only request.
type GatherRequestDTO struct {
	Facets []intent.Facet `json:"facets"`
}

// GatherResponseDTO carries the joined context.
type GatherResponseDTO struct {
	Context string `json:"context"`
}

// Gather handles POST /api/v1/chat/gather.
func (h *ChatHandler) Gather(w http.ResponseWriter, r *http.Request) {
	var req GatherRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	context := h.assistant.Gather(r.Context(), req.Facets)
	writeJSON(w, http.StatusOK, GatherResponseDTO{Context: context})
}

// writeModelError maps typed LLM errors onto HTTP status codes.
func (h *ChatHandler) writeModelError(w http.ResponseWriter, r *http.Request, err error) {
	log := h.logger.WithContext(r.Context())

	switch {
	case errors.Is(err, llm.ErrAuth):
		log.Error().Err(err).Msg("model authentication failed")
		writeError(w, http.StatusUnauthorized, "model authentication failed", "")
	case errors.Is(err, llm.ErrQuota):
		log.Warn().Err(err).Msg("model quota exceeded")
		writeError(w, http.StatusTooManyRequests, "model quota exceeded, try again later", "")
	default:
		log.Error().Err(err).Msg("chat pipeline failed")
		writeError(w, http.StatusInternalServerError, "failed to answer question", "")
	}
}

func toMessages(history []MessageDTO) []llm.Message {
	if len(history) == 0 {
		return nil
	}
	out := make([]llm.Message, len(history))
	for i, m := range history {
		out[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}

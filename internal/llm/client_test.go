package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientComplete(t *testing.T) {
	var captured chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "hello back"}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	out, err := client.Complete(context.Background(), CompletionRequest{
		System:      "be terse",
		Messages:    []Message{{Role: "user", Content: "hello"}},
		Temperature: 0.1,
		MaxTokens:   100,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello back", out)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "be terse", captured.Messages[0].Content)
	assert.InDelta(t, 0.1, captured.Temperature, 1e-9)
	assert.Equal(t, 100, captured.MaxTokens)
}

func TestClientCompleteStatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided"}}`, ErrAuth},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"You exceeded your current quota"}}`, ErrQuota},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), CompletionRequest{
				Messages: []Message{{Role: "user", Content: "q"}},
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"api key message", errors.New("Incorrect API key provided"), ErrAuth},
		{"quota message", errors.New("you have exceeded your quota"), ErrQuota},
		{"rate limit message", errors.New("Rate limit reached for requests"), ErrQuota},
		{"already typed", fmt.Errorf("%w: wrapped", ErrAuth), ErrAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tt.err), tt.want)
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		err := errors.New("connection reset")
		got := Classify(err)
		assert.NotErrorIs(t, got, ErrAuth)
		assert.NotErrorIs(t, got, ErrQuota)
		assert.Equal(t, err, got)
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, Classify(nil))
	})
}

func TestMockModelScripting(t *testing.T) {
	m := &MockModel{Responses: []string{"first", "second"}}

	out, err := m.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	out, _ = m.Complete(context.Background(), CompletionRequest{})
	assert.Equal(t, "second", out)

	// Exhausted: last response repeats.
	out, _ = m.Complete(context.Background(), CompletionRequest{})
	assert.Equal(t, "second", out)

	assert.Len(t, m.Calls, 3)
}

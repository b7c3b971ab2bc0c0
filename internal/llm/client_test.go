package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	c, err := NewClient(ProviderOpenAI, "key", "")
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())

	c, err = NewClient(ProviderAnthropic, "key", "")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Name())

	_, err = NewClient("gemini", "key", "")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = NewClient(ProviderOpenAI, "", "")
	assert.Error(t, err)

	_, err = NewClient(ProviderOpenAI, "", "http://localhost:11434/v1")
	assert.NoError(t, err, "a local endpoint needs no key")
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got struct {
		Model       string              `json:"model"`
		Messages    []map[string]string `json:"messages"`
		MaxTokens   int                 `json:"max_tokens"`
		Temperature float64             `json:"temperature"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "TCS leads."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient("key", srv.URL+"/v1")
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), &CompletionRequest{
		System:      "You are FinWise.",
		Messages:    UserPrompt("Compare TCS and Infosys"),
		MaxTokens:   300,
		Temperature: 0.5,
	})
	require.NoError(t, err)

	assert.Equal(t, "TCS leads.", resp.Content)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, 12, resp.TokensIn)
	assert.Equal(t, 3, resp.TokensOut)

	assert.Equal(t, defaultOpenAIModel, got.Model)
	assert.Equal(t, 300, got.MaxTokens)
	assert.InDelta(t, 0.5, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0]["role"])
	assert.Equal(t, "You are FinWise.", got.Messages[0]["content"])
	assert.Equal(t, "user", got.Messages[1]["role"])
}

func TestOpenAIClient_CompleteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient("key", srv.URL+"/v1")
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), &CompletionRequest{Messages: UserPrompt("hi")})
	assert.Error(t, err)
}

func TestOpenAIClient_CompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","model":"gpt-4o-mini","choices":[],"usage":{"prompt_tokens":3,"completion_tokens":0}}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient("key", srv.URL+"/v1")
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), &CompletionRequest{Messages: UserPrompt("hi")})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
	assert.Nil(t, resp)
}

// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message roles understood by every provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrUnknownProvider is returned by NewClient for an unsupported provider.
var ErrUnknownProvider = errors.New("unknown LLM provider")

// ErrEmptyCompletion is returned when the provider answers without any content.
var ErrEmptyCompletion = errors.New("empty completion")

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a new LLM client based on provider. baseURL is optional
// and points the client at a compatible endpoint such as a local Ollama or a
// Gaia node.
func NewClient(provider Provider, apiKey, baseURL string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey, baseURL)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, baseURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// UserPrompt builds the single-message request used for one-shot prompts.
func UserPrompt(prompt string) []ChatMessage {
	return []ChatMessage{{Role: RoleUser, Content: prompt}}
}

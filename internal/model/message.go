package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one entry of a conversation transcript.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Message is a transcript entry published to the message stream.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	TenantID       string    `json:"tenant_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`

	// Sequence is populated from the stream acknowledgement.
	Sequence uint64 `json:"sequence,omitempty"`
}

// SendMessageRequest is the request to send a new message.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=100000"`
}

// TurnDiagnostics describes how the assistant arrived at an answer.
type TurnDiagnostics struct {
	Query       string         `json:"query,omitempty"`
	Valid       bool           `json:"valid"`
	Explanation string         `json:"explanation,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	RecordCount int            `json:"record_count"`
	Degraded    bool           `json:"degraded"`
	Entities    EntityBag      `json:"entities"`
	Intent      Intent         `json:"intent"`
}

// SendMessageResponse is the response after a completed turn.
type SendMessageResponse struct {
	UserMessage      *Message         `json:"user_message"`
	AssistantMessage *Message         `json:"assistant_message"`
	Diagnostics      *TurnDiagnostics `json:"diagnostics,omitempty"`
}

// ListMessagesResponse is the response for listing messages.
type ListMessagesResponse struct {
	Messages []ChatMessage `json:"messages"`
	Total    int           `json:"total"`
}

// InsightResponse carries a standalone insight.
type InsightResponse struct {
	Insight string `json:"insight"`
}

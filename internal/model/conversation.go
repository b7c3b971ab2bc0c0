package model

import (
	"time"
)

// Conversation is the persisted form of a conversation: transcript plus the
// complete serialized context.
type Conversation struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenant_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Title     string         `json:"title"`
	Messages  []ChatMessage  `json:"messages"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Context   ContextSummary `json:"context"`
}

// ConversationSummary is the list view of a conversation.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	Title string `json:"title" validate:"max=256"`
}

// UpdateConversationRequest is the request to rename a conversation.
type UpdateConversationRequest struct {
	Title string `json:"title" validate:"required,max=256"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	Total         int                   `json:"total"`
	HasMore       bool                  `json:"has_more"`
}

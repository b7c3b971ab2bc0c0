package model

import (
	"time"
)

// EventType represents the type of conversation event.
type EventType string

const (
	EventTypeDegradedTurn EventType = "degraded_turn"
	EventTypeInvalidQuery EventType = "invalid_query"
)

// ConversationEvent represents an event in a conversation.
type ConversationEvent struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	TenantID       string         `json:"tenant_id"`
	Type           EventType      `json:"type"`
	Reason         string         `json:"reason"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

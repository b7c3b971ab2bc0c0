package model

// HistoryEntry is a snapshot of one user turn.
type HistoryEntry struct {
	UserInput  string    `json:"user_input"`
	Entities   EntityBag `json:"entities"`
	Intent     Intent    `json:"intent"`
	KGData     string    `json:"kg_data"`
	AIResponse string    `json:"ai_response"`
}

// ContextSummary is the read-only view of a conversation context, used both
// for prompt construction and for persistence.
type ContextSummary struct {
	CurrentEntities EntityBag      `json:"current_entities"`
	CurrentIntent   Intent         `json:"current_intent"`
	RecentHistory   []HistoryEntry `json:"recent_history"`
	KGData          string         `json:"kg_data"`
	LastAIResponse  string         `json:"last_ai_response"`
}

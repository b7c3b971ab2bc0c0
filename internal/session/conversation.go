package session

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/capitalize-ai/finwise-assistant/internal/model"
)

const (
	// DefaultTitle is the title of a conversation before its first user message.
	DefaultTitle = "Untitled Conversation"

	// Greeting opens every new conversation.
	Greeting = "How can I help you with financial information today?"

	titleLength = 30
)

// ErrInvalidRecord is returned when a persisted conversation cannot be restored.
var ErrInvalidRecord = errors.New("invalid conversation record")

// Conversation is a live conversation: transcript plus its context.
type Conversation struct {
	ID        string
	TenantID  string
	UserID    string
	Title     string
	Messages  []model.ChatMessage
	CreatedAt time.Time
	UpdatedAt time.Time
	Context   *Context
}

// NewConversation starts a conversation with the assistant greeting. An empty
// id is replaced by a fresh UUIDv7, an empty title by DefaultTitle.
func NewConversation(id, title string, historySize int) *Conversation {
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}
	if title == "" {
		title = DefaultTitle
	}
	now := time.Now().UTC()
	conv := &Conversation{
		ID:        id,
		Title:     title,
		Messages:  []model.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
		Context:   New(historySize),
	}
	conv.AddMessage(model.RoleAssistant, Greeting)
	return conv
}

// AddMessage appends to the transcript. The first user message names an
// untitled conversation.
func (c *Conversation) AddMessage(role model.Role, content string) {
	c.Messages = append(c.Messages, model.ChatMessage{Role: role, Content: content})
	c.UpdatedAt = time.Now().UTC()

	if role == model.RoleUser && c.Title == DefaultTitle {
		c.Title = truncateRunes(content, titleLength)
	}
}

// Rename sets a new title.
func (c *Conversation) Rename(title string) {
	c.Title = title
	c.UpdatedAt = time.Now().UTC()
}

// Record serializes the conversation for persistence.
func (c *Conversation) Record() *model.Conversation {
	messages := make([]model.ChatMessage, len(c.Messages))
	copy(messages, c.Messages)
	return &model.Conversation{
		ID:        c.ID,
		TenantID:  c.TenantID,
		UserID:    c.UserID,
		Title:     c.Title,
		Messages:  messages,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Context:   c.Context.Summary(),
	}
}

// FromRecord reconstructs a conversation wholesale from its persisted form.
func FromRecord(rec *model.Conversation, historySize int) (*Conversation, error) {
	if rec == nil || rec.ID == "" {
		return nil, ErrInvalidRecord
	}
	messages := make([]model.ChatMessage, len(rec.Messages))
	copy(messages, rec.Messages)
	return &Conversation{
		ID:        rec.ID,
		TenantID:  rec.TenantID,
		UserID:    rec.UserID,
		Title:     rec.Title,
		Messages:  messages,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Context:   Restore(rec.Context, historySize),
	}, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

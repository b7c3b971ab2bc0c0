// Package session holds the mutable per-conversation state: the rolling
// context folded into every model call and the conversation transcript.
package session

import (
	"github.com/capitalize-ai/finwise-assistant/internal/model"
)

// DefaultHistorySize is the number of turns kept when no capacity is given.
const DefaultHistorySize = 5

// Context is the conversation context of a single session. It is not safe for
// concurrent use; each session owns its context exclusively.
type Context struct {
	capacity int

	entities       model.EntityBag
	intent         model.Intent
	kgData         string
	lastAIResponse string

	// history is a ring of at most capacity entries; head indexes the oldest.
	history []model.HistoryEntry
	head    int
}

// New creates an empty context keeping the last capacity turns.
func New(capacity int) *Context {
	if capacity < 1 {
		capacity = DefaultHistorySize
	}
	return &Context{
		capacity: capacity,
		entities: model.NewEntityBag(),
		intent:   model.UnknownIntent(),
		history:  make([]model.HistoryEntry, 0, capacity),
	}
}

// Capacity returns the maximum history length.
func (c *Context) Capacity() int {
	return c.capacity
}

// Len returns the current history length.
func (c *Context) Len() int {
	return len(c.history)
}

// Entities returns a copy of the current entity state.
func (c *Context) Entities() model.EntityBag {
	return c.entities.Clone()
}

// Intent returns the last seen intent.
func (c *Context) Intent() model.Intent {
	return c.intent
}

// KGData returns the last retrieval result.
func (c *Context) KGData() string {
	return c.kgData
}

// LastAIResponse returns the last assistant answer.
func (c *Context) LastAIResponse() string {
	return c.lastAIResponse
}

// Update folds a user turn into the context. Non-empty entity fields replace
// the stored ones, empty fields leave them untouched, and a "latest" time
// period never overwrites an established one. The intent is overwritten.
func (c *Context) Update(userInput string, entities model.EntityBag, intent model.Intent, kgData string) {
	c.entities = merge(c.entities, entities)
	c.intent = intent
	c.kgData = kgData

	c.push(model.HistoryEntry{
		UserInput: userInput,
		Entities:  c.entities.Clone(),
		Intent:    c.intent,
		KGData:    c.kgData,
	})
}

// UpdateAIResponse records the assistant answer and patches it into the most
// recent history entry. No other entry is touched.
func (c *Context) UpdateAIResponse(response string) {
	c.lastAIResponse = response
	if n := len(c.history); n > 0 {
		c.history[c.index(n-1)].AIResponse = response
	}
}

// Fallback fills the empty fields of a fresh extraction from the current state.
func (c *Context) Fallback(extracted model.EntityBag) model.EntityBag {
	return merge(c.entities, extracted)
}

// History returns the turns oldest first.
func (c *Context) History() []model.HistoryEntry {
	out := make([]model.HistoryEntry, len(c.history))
	for i := range c.history {
		entry := c.history[c.index(i)]
		entry.Entities = entry.Entities.Clone()
		out[i] = entry
	}
	return out
}

// Summary returns a snapshot of the whole context.
func (c *Context) Summary() model.ContextSummary {
	return model.ContextSummary{
		CurrentEntities: c.entities.Clone(),
		CurrentIntent:   c.intent,
		RecentHistory:   c.History(),
		KGData:          c.kgData,
		LastAIResponse:  c.lastAIResponse,
	}
}

// Restore rebuilds a context wholesale from a summary. When the summary holds
// more turns than capacity only the newest are kept.
func Restore(summary model.ContextSummary, capacity int) *Context {
	c := New(capacity)
	c.entities = summary.CurrentEntities.Clone()
	c.intent = summary.CurrentIntent
	if c.intent.Action == "" {
		c.intent = model.UnknownIntent()
	}
	c.kgData = summary.KGData
	c.lastAIResponse = summary.LastAIResponse
	for _, entry := range summary.RecentHistory {
		entry.Entities = entry.Entities.Clone()
		c.push(entry)
	}
	return c
}

func (c *Context) push(entry model.HistoryEntry) {
	if len(c.history) < c.capacity {
		c.history = append(c.history, entry)
		return
	}
	c.history[c.head] = entry
	c.head = (c.head + 1) % c.capacity
}

func (c *Context) index(i int) int {
	return (c.head + i) % len(c.history)
}

func merge(current, incoming model.EntityBag) model.EntityBag {
	out := current.Clone()
	if len(incoming.Companies) > 0 {
		out.Companies = append([]string(nil), incoming.Companies...)
	}
	if len(incoming.Metrics) > 0 {
		out.Metrics = append([]string(nil), incoming.Metrics...)
	}
	if incoming.HasPeriod() {
		out.TimePeriod = incoming.TimePeriod
	}
	if len(incoming.StartDate) > 0 {
		out.StartDate = append([]string(nil), incoming.StartDate...)
	}
	if len(incoming.EndDate) > 0 {
		out.EndDate = append([]string(nil), incoming.EndDate...)
	}
	if incoming.Industry != "" {
		out.Industry = incoming.Industry
	}
	if len(incoming.Limit) > 0 {
		out.Limit = append([]string(nil), incoming.Limit...)
	}
	return out
}

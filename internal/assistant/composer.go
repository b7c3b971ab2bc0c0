package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/finwise-assistant/internal/graph"
	"github.com/capitalize-ai/finwise-assistant/internal/llm"
	"github.com/capitalize-ai/finwise-assistant/internal/session"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
)

// Apology is returned in place of an answer when the model call fails.
const Apology = "I apologize, but I encountered an error while processing your request. Please try again."

const persona = `You are FinWise, a financial assistant backed by a knowledge graph of company metrics and reports. Answer accurately and concisely.

1. Prefer the knowledge graph data given in the context over general knowledge.
2. When the graph has no relevant data, answer from general financial knowledge and say so.
3. Always state whether information comes from the database or from general knowledge.
4. Express amounts in Indian Rupees (INR) using the Indian numbering system (lakh, crore).
5. When comparing companies or metrics, state the basis of comparison.
6. For trends, briefly explain the factors behind them.
7. Label every prediction as an estimate based on current data.
8. Summarize reports instead of reproducing them, and suggest reading the full report.
`

// ComposerConfig configures a Composer.
type ComposerConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Schema      *graph.Schema
}

// Composer asks the model for the final answer of a turn.
type Composer struct {
	client llm.Client
	cfg    ComposerConfig
	system string
	logger *logger.Logger
}

// NewComposer creates a composer.
func NewComposer(client llm.Client, cfg ComposerConfig, log *logger.Logger) *Composer {
	if cfg.Schema == nil {
		cfg.Schema = graph.DefaultSchema()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	return &Composer{
		client: client,
		cfg:    cfg,
		system: systemPrompt(cfg.Schema),
		logger: log.Named("composer"),
	}
}

// Respond answers userInput in light of the conversation context. It never
// fails: any model error yields Apology. The caller records the answer with
// UpdateAIResponse.
func (c *Composer) Respond(ctx context.Context, userInput string, sc *session.Context) string {
	if c.client == nil {
		c.logger.Error("no model client configured")
		return Apology
	}

	req := &llm.CompletionRequest{
		Model:       c.cfg.Model,
		System:      c.system,
		Messages:    llm.UserPrompt(fmt.Sprintf("Context: %s\n\nUser Query: %s", renderContext(sc), userInput)),
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	resp, err := llm.CompleteObserved(ctx, c.client, llm.PurposeRespond, req)
	if err != nil {
		c.logger.Error("response completion failed", zap.Error(err))
		return Apology
	}
	if strings.TrimSpace(resp.Content) == "" {
		c.logger.Error("response completion was empty")
		return Apology
	}
	return resp.Content
}

func systemPrompt(schema *graph.Schema) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\nThe database has this structure:\n")
	b.WriteString(schema.Describe())
	if examples := schema.DescribeExamples(); examples != "" {
		b.WriteString("\nTypical queries against it:\n")
		b.WriteString(examples)
	}
	return b.String()
}

// renderContext serializes the context summary for the prompt.
func renderContext(sc *session.Context) string {
	summary := sc.Summary()

	entities, _ := json.Marshal(summary.CurrentEntities)
	intent, _ := json.Marshal(summary.CurrentIntent)

	var b strings.Builder
	fmt.Fprintf(&b, "\nCurrent Entities: %s\n", entities)
	fmt.Fprintf(&b, "Current Intent: %s\n", intent)
	fmt.Fprintf(&b, "Knowledge Graph Data: %s\n", summary.KGData)
	b.WriteString("\nRecent Conversation History:\n")
	for _, entry := range summary.RecentHistory {
		fmt.Fprintf(&b, "User: %s\nAI: %s\n", entry.UserInput, entry.AIResponse)
	}
	return b.String()
}

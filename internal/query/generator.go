// Package query turns an intent and its entities into a graph query and binds
// the query's parameters.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/finwise-assistant/internal/graph"
	"github.com/capitalize-ai/finwise-assistant/internal/llm"
	"github.com/capitalize-ai/finwise-assistant/internal/model"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
	"github.com/capitalize-ai/finwise-assistant/pkg/metrics"
)

// ParseFailureExplanation is the explanation of a query whose verdict could
// not be read. Such a query is never treated as valid.
const ParseFailureExplanation = "Error parsing validation result."

const noExplanation = "No explanation provided."

var (
	// ErrNoClient is returned when the generator has no model client.
	ErrNoClient = errors.New("no LLM client configured")

	// ErrEmptyQuery is returned when the model answers with no query text.
	ErrEmptyQuery = errors.New("model returned an empty query")
)

// Result is a generated query together with its validation verdict.
type Result struct {
	Query       string
	Valid       bool
	Explanation string
}

// Verdict is the structured answer of the validating model.
type Verdict struct {
	IsValid      bool   `json:"is_valid"`
	Explanation  string `json:"explanation"`
	SuggestedFix string `json:"suggested_fix"`
}

// GeneratorConfig configures an LLMGenerator.
type GeneratorConfig struct {
	Model  string
	Schema *graph.Schema

	// ValidationAttempts bounds how many times an unreadable verdict is
	// requested again. A readable verdict is always final.
	ValidationAttempts int
}

// LLMGenerator asks a language model for a parameterized query and then asks
// the same model to check it against the schema.
type LLMGenerator struct {
	client   llm.Client
	model    string
	schema   *graph.Schema
	attempts int
	logger   *logger.Logger
}

// NewLLMGenerator creates a model-backed generator.
func NewLLMGenerator(client llm.Client, cfg GeneratorConfig, log *logger.Logger) *LLMGenerator {
	if cfg.Schema == nil {
		cfg.Schema = graph.DefaultSchema()
	}
	if cfg.ValidationAttempts < 1 {
		cfg.ValidationAttempts = 1
	}
	return &LLMGenerator{
		client:   client,
		model:    cfg.Model,
		schema:   cfg.Schema,
		attempts: cfg.ValidationAttempts,
		logger:   log.Named("query"),
	}
}

// GenerateAndValidate generates a query and validates it. An error means no
// query could be generated; an invalid query is reported through the result.
func (g *LLMGenerator) GenerateAndValidate(ctx context.Context, intent model.Intent, entities model.EntityBag) (Result, error) {
	q, err := g.Generate(ctx, intent, entities)
	if err != nil {
		return Result{}, err
	}
	valid, explanation := g.Validate(ctx, q)
	return Result{Query: q, Valid: valid, Explanation: explanation}, nil
}

// Generate asks the model for a query. Each call is stateless; the reply is
// used verbatim apart from surrounding whitespace.
func (g *LLMGenerator) Generate(ctx context.Context, intent model.Intent, entities model.EntityBag) (string, error) {
	if g.client == nil {
		return "", ErrNoClient
	}

	prompt, err := g.generationPrompt(intent, entities)
	if err != nil {
		return "", fmt.Errorf("building generation prompt: %w", err)
	}
	g.logger.Debug("generation prompt", zap.String("prompt", prompt))

	resp, err := llm.CompleteObserved(ctx, g.client, llm.PurposeGenerate, g.request(prompt))
	if err != nil {
		return "", fmt.Errorf("generating query: %w", err)
	}

	q := strings.TrimSpace(resp.Content)
	if q == "" {
		return "", ErrEmptyQuery
	}
	g.logger.Debug("generated query", zap.String("query", q))
	return q, nil
}

// Validate asks the model whether q is valid and safe to run. It fails
// closed: a verdict that cannot be obtained or read marks q invalid. When the
// verdict rejects q and suggests a fix, the fix is appended to the
// explanation but never substituted for q.
func (g *LLMGenerator) Validate(ctx context.Context, q string) (bool, string) {
	if g.client == nil {
		metrics.QueryValidationsTotal.WithLabelValues("unparseable").Inc()
		return false, ParseFailureExplanation
	}

	prompt := g.validationPrompt(q)
	g.logger.Debug("validation prompt", zap.String("prompt", prompt))

	for attempt := 1; attempt <= g.attempts; attempt++ {
		resp, err := llm.CompleteObserved(ctx, g.client, llm.PurposeValidate, g.request(prompt))
		if err != nil {
			g.logger.Error("validation call failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		verdict, err := ParseVerdict(resp.Content)
		if err != nil {
			g.logger.Warn("unreadable validation verdict",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		valid, explanation := verdict.Result()
		if valid {
			metrics.QueryValidationsTotal.WithLabelValues("valid").Inc()
		} else {
			metrics.QueryValidationsTotal.WithLabelValues("invalid").Inc()
		}
		return valid, explanation
	}

	metrics.QueryValidationsTotal.WithLabelValues("unparseable").Inc()
	return false, ParseFailureExplanation
}

// Result folds the verdict into a validity flag and explanation text.
func (v Verdict) Result() (bool, string) {
	explanation := v.Explanation
	if explanation == "" {
		explanation = noExplanation
	}
	if !v.IsValid && v.SuggestedFix != "" {
		explanation += "\nSuggested fix: " + v.SuggestedFix
	}
	return v.IsValid, explanation
}

// ParseVerdict reads a verdict from a model reply. Markdown fences and text
// around the outermost JSON object are ignored.
func ParseVerdict(reply string) (Verdict, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	reply = strings.TrimSpace(reply)

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end <= start {
		return Verdict{}, errors.New("no JSON object in reply")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(reply[start:end+1]), &fields); err != nil {
		return Verdict{}, fmt.Errorf("decoding verdict: %w", err)
	}
	if _, ok := fields["is_valid"]; !ok {
		return Verdict{}, errors.New("verdict has no is_valid field")
	}

	var v Verdict
	if err := json.Unmarshal([]byte(reply[start:end+1]), &v); err != nil {
		return Verdict{}, fmt.Errorf("decoding verdict: %w", err)
	}
	return v, nil
}

func (g *LLMGenerator) request(prompt string) *llm.CompletionRequest {
	return &llm.CompletionRequest{
		Model:       g.model,
		Messages:    llm.UserPrompt(prompt),
		MaxTokens:   1024,
		Temperature: 0.2,
	}
}

func (g *LLMGenerator) generationPrompt(intent model.Intent, entities model.EntityBag) (string, error) {
	intentJSON, err := json.Marshal(intent)
	if err != nil {
		return "", err
	}
	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Generate a parameterized Cypher query for a Neo4j database from the intent and entities below.\n\n")
	fmt.Fprintf(&b, "Intent: %s\nEntities: %s\n\n", intentJSON, entitiesJSON)
	b.WriteString("Database schema:\n")
	b.WriteString(g.schema.Describe())
	b.WriteString(`
Guidelines:
1. Refer to entity values only through parameters: $companies (or $companyName/$companyNames),
   $metrics (or $metricName/$metricNames), $timePeriod, $startDate, $endDate, $industry and $limit.
   Never write entity values into the query text.
2. Use only parameters whose entity is present.
3. Handle null parameters and empty lists.
4. Bound the result with LIMIT when the question allows it.
5. Use aggregation when several values per company are returned.
`)
	if examples := g.schema.DescribeExamples(); examples != "" {
		b.WriteString("\nExample queries:\n")
		b.WriteString(examples)
	}
	b.WriteString("\nReturn only the Cypher query, without explanation or markdown.\n")
	return b.String(), nil
}

func (g *LLMGenerator) validationPrompt(q string) string {
	var b strings.Builder
	b.WriteString("Validate the following Cypher query for Neo4j:\n\n")
	b.WriteString(q)
	b.WriteString(`

Check for:
1. Syntax errors
2. Security issues such as values written into the query instead of parameters
3. Unbounded queries
4. Labels, relationships and properties that do not exist in the schema
5. Proper use of parameters

Database schema:
`)
	b.WriteString(g.schema.Describe())
	b.WriteString(`
Respond with ONLY a JSON object with these fields:
"is_valid": boolean, true when the query is valid and safe to run
"explanation": string describing the result and any issues found
"suggested_fix": string with a corrected query when the query is not valid, otherwise ""

Example:
{"is_valid": false, "explanation": "The company name is inlined instead of parameterized.", "suggested_fix": "MATCH (c:Company {name: $companyName}) RETURN c"}
`)
	return b.String()
}

package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/finwise-assistant/internal/graph"
	"github.com/capitalize-ai/finwise-assistant/internal/llm"
	"github.com/capitalize-ai/finwise-assistant/internal/model"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
)

type reply struct {
	content string
	err     error
}

// scriptedClient answers calls in order from a fixed script.
type scriptedClient struct {
	replies  []reply
	requests []*llm.CompletionRequest
}

func (c *scriptedClient) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.requests = append(c.requests, req)
	if len(c.replies) == 0 {
		return nil, errors.New("script exhausted")
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.CompletionResponse{Content: r.content, Model: "test-model"}, nil
}

func (c *scriptedClient) Name() string { return "scripted" }

func newGenerator(client llm.Client, attempts int) *LLMGenerator {
	return NewLLMGenerator(client, GeneratorConfig{
		Model:              "test-model",
		Schema:             graph.DefaultSchema(),
		ValidationAttempts: attempts,
	}, logger.Nop())
}

func compareInput(t *testing.T) (model.Intent, model.EntityBag) {
	t.Helper()
	intent, err := model.NewIntent(model.ActionCompare, model.TimeframeCurrent)
	require.NoError(t, err)
	entities := model.NewEntityBag()
	entities.Companies = []string{"TCS", "Infosys"}
	entities.Metrics = []string{"Revenue"}
	return intent, entities
}

const generatedQuery = "MATCH (c:Company) WHERE c.name IN $companyNames RETURN c.name"

func TestGenerateAndValidate_Valid(t *testing.T) {
	client := &scriptedClient{replies: []reply{
		{content: "\n  " + generatedQuery + "  \n"},
		{content: `{"is_valid": true, "explanation": "Looks fine.", "suggested_fix": ""}`},
	}}
	intent, entities := compareInput(t)

	res, err := newGenerator(client, 1).GenerateAndValidate(context.Background(), intent, entities)
	require.NoError(t, err)

	assert.Equal(t, generatedQuery, res.Query)
	assert.True(t, res.Valid)
	assert.Equal(t, "Looks fine.", res.Explanation)

	require.Len(t, client.requests, 2)
	genPrompt := client.requests[0].Messages[0].Content
	assert.Len(t, client.requests[0].Messages, 1, "generation carries no conversational context")
	assert.Contains(t, genPrompt, `"action":"compare"`)
	assert.Contains(t, genPrompt, `"companies":["TCS","Infosys"]`)
	assert.Contains(t, genPrompt, "(:Company)-[:HAS_METRIC]->(:MetricValue)")
	assert.Contains(t, client.requests[1].Messages[0].Content, generatedQuery)
}

func TestGenerateAndValidate_SuggestedFixIsAppended(t *testing.T) {
	client := &scriptedClient{replies: []reply{
		{content: generatedQuery},
		{content: `{"is_valid": false, "explanation": "Unbounded query.", "suggested_fix": "MATCH (c:Company) RETURN c LIMIT 10"}`},
	}}
	intent, entities := compareInput(t)

	res, err := newGenerator(client, 1).GenerateAndValidate(context.Background(), intent, entities)
	require.NoError(t, err)

	assert.False(t, res.Valid)
	assert.Equal(t, generatedQuery, res.Query, "the fix is never substituted")
	assert.Equal(t, "Unbounded query.\nSuggested fix: MATCH (c:Company) RETURN c LIMIT 10", res.Explanation)
}

func TestValidate_FailsClosed(t *testing.T) {
	tests := []struct {
		name  string
		reply reply
	}{
		{"prose reply", reply{content: "The query looks valid to me."}},
		{"broken json", reply{content: `{"is_valid": true,`}},
		{"missing verdict field", reply{content: `{"explanation": "ok"}`}},
		{"call error", reply{err: errors.New("timeout")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedClient{replies: []reply{tt.reply}}
			valid, explanation := newGenerator(client, 1).Validate(context.Background(), generatedQuery)
			assert.False(t, valid)
			assert.Equal(t, ParseFailureExplanation, explanation)
		})
	}
}

func TestValidate_RetriesOnlyUnreadableVerdicts(t *testing.T) {
	client := &scriptedClient{replies: []reply{
		{content: "not json"},
		{content: "```json\n{\"is_valid\": true, \"explanation\": \"ok\"}\n```"},
	}}
	valid, explanation := newGenerator(client, 3).Validate(context.Background(), generatedQuery)
	assert.True(t, valid)
	assert.Equal(t, "ok", explanation)
	assert.Len(t, client.requests, 2)

	client = &scriptedClient{replies: []reply{
		{content: `{"is_valid": false, "explanation": "bad"}`},
		{content: `{"is_valid": true}`},
	}}
	valid, explanation = newGenerator(client, 3).Validate(context.Background(), generatedQuery)
	assert.False(t, valid)
	assert.Equal(t, "bad", explanation)
	assert.Len(t, client.requests, 1, "a readable verdict is final")
}

func TestGenerate_Errors(t *testing.T) {
	intent, entities := compareInput(t)

	_, err := newGenerator(nil, 1).GenerateAndValidate(context.Background(), intent, entities)
	assert.ErrorIs(t, err, ErrNoClient)

	client := &scriptedClient{replies: []reply{{content: "   "}}}
	_, err = newGenerator(client, 1).GenerateAndValidate(context.Background(), intent, entities)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	client = &scriptedClient{replies: []reply{{err: errors.New("connection refused")}}}
	_, err = newGenerator(client, 1).GenerateAndValidate(context.Background(), intent, entities)
	assert.Error(t, err)
	assert.Len(t, client.requests, 1, "no validation without a query")
}

func TestParseVerdict(t *testing.T) {
	v, err := ParseVerdict("Here is my verdict:\n{\"is_valid\": false, \"explanation\": \"x\", \"suggested_fix\": \"MATCH (c:Company {name: $companyName}) RETURN c\"}\nThanks.")
	require.NoError(t, err)
	assert.Equal(t, Verdict{IsValid: false, Explanation: "x", SuggestedFix: "MATCH (c:Company {name: $companyName}) RETURN c"}, v)

	valid, explanation := Verdict{IsValid: true}.Result()
	assert.True(t, valid)
	assert.Equal(t, "No explanation provided.", explanation)
}

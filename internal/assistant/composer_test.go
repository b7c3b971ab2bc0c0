package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/finwise-assistant/internal/model"
	"github.com/capitalize-ai/finwise-assistant/internal/session"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
)

func newComposer(client *fakeLLM) *Composer {
	return NewComposer(client, ComposerConfig{Model: "m", Temperature: 0.7, MaxTokens: 300}, logger.Nop())
}

func TestComposer_Respond(t *testing.T) {
	client := &fakeLLM{content: "TCS reported ₹2,40,893 crore."}
	sc := session.New(5)
	entities := model.NewEntityBag()
	entities.Companies = []string{"TCS"}
	sc.Update("What was TCS revenue?", entities, model.UnknownIntent(), `[{"Value":240893}]`)
	sc.UpdateAIResponse("It was ₹2,40,893 crore.")

	answer := newComposer(client).Respond(context.Background(), "And its profit?", sc)
	assert.Equal(t, "TCS reported ₹2,40,893 crore.", answer)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "m", req.Model)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	assert.Equal(t, 300, req.MaxTokens)
	assert.Contains(t, req.System, "Indian Rupees")
	assert.Contains(t, req.System, "(:Company)-[:HAS_REPORT]->(:Report)")

	require.Len(t, req.Messages, 1)
	content := req.Messages[0].Content
	assert.Contains(t, content, `Current Entities: {"companies":["TCS"]`)
	assert.Contains(t, content, `Knowledge Graph Data: [{"Value":240893}]`)
	assert.Contains(t, content, "User: What was TCS revenue?\nAI: It was ₹2,40,893 crore.")
	assert.Contains(t, content, "User Query: And its profit?")
}

func TestComposer_ModelErrorYieldsApology(t *testing.T) {
	client := &fakeLLM{err: errModelDown}
	sc := session.New(5)

	assert.NotPanics(t, func() {
		answer := newComposer(client).Respond(context.Background(), "hi", sc)
		assert.Equal(t, Apology, answer)
	})

	noClient := NewComposer(nil, ComposerConfig{}, logger.Nop())
	assert.Equal(t, Apology, noClient.Respond(context.Background(), "hi", sc))
}

func TestComposer_EmptyCompletionYieldsApology(t *testing.T) {
	for _, content := range []string{"", "  \n"} {
		client := &fakeLLM{content: content}
		answer := newComposer(client).Respond(context.Background(), "hi", session.New(5))
		assert.Equal(t, Apology, answer)
	}
}

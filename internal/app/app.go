// Package app wires the assistant components from configuration. It is shared
// by the API server and the command line client.
package app

import (
	"context"
	"fmt"

	"github.com/capitalize-ai/finwise-assistant/internal/assistant"
	"github.com/capitalize-ai/finwise-assistant/internal/config"
	"github.com/capitalize-ai/finwise-assistant/internal/extract"
	"github.com/capitalize-ai/finwise-assistant/internal/graph"
	"github.com/capitalize-ai/finwise-assistant/internal/llm"
	"github.com/capitalize-ai/finwise-assistant/internal/query"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
)

// Components are the long-lived parts of the assistant.
type Components struct {
	Pipeline *assistant.Pipeline
	Executor *graph.Neo4jExecutor
	Schema   *graph.Schema
}

// Close releases the graph driver.
func (c *Components) Close(ctx context.Context) error {
	return c.Executor.Close(ctx)
}

// Build creates the turn pipeline and its collaborators. The graph connection
// is not checked; call Executor.VerifyConnectivity for that.
func Build(cfg *config.Config, log *logger.Logger) (*Components, error) {
	schema, err := graph.LoadSchema(cfg.SchemaFile)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	client, err := NewLLMClient(cfg)
	if err != nil {
		return nil, err
	}

	executor, err := graph.NewNeo4jExecutor(graph.Config{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUsername,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	}, log)
	if err != nil {
		return nil, err
	}

	generator := query.NewLLMGenerator(client, query.GeneratorConfig{
		Model:              cfg.LLMModel,
		Schema:             schema,
		ValidationAttempts: cfg.ValidationAttempts,
	}, log)

	composer := assistant.NewComposer(client, assistant.ComposerConfig{
		Model:       cfg.LLMModel,
		Temperature: cfg.ResponseTemperature,
		MaxTokens:   cfg.ResponseMaxTokens,
		Schema:      schema,
	}, log)

	pipeline := assistant.NewPipeline(
		extract.NewExtractor(extract.DefaultResources()),
		generator,
		executor,
		composer,
		assistant.PipelineConfig{UnsafeTemplateQueries: cfg.UnsafeTemplateQueries},
		log,
	)

	return &Components{
		Pipeline: pipeline,
		Executor: executor,
		Schema:   schema,
	}, nil
}

// NewLLMClient creates the client of the configured provider.
func NewLLMClient(cfg *config.Config) (llm.Client, error) {
	provider := llm.Provider(cfg.LLMProvider)

	apiKey, baseURL := cfg.OpenAIAPIKey, cfg.OpenAIBaseURL
	if provider == llm.ProviderAnthropic {
		apiKey, baseURL = cfg.AnthropicAPIKey, ""
	}

	client, err := llm.NewClient(provider, apiKey, baseURL)
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}
	return client, nil
}

// Package assistant runs a conversational turn: extraction, query generation
// and validation, parameter binding, retrieval, context update and the final
// model answer.
package assistant

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/finwise-assistant/internal/extract"
	"github.com/capitalize-ai/finwise-assistant/internal/graph"
	"github.com/capitalize-ai/finwise-assistant/internal/model"
	"github.com/capitalize-ai/finwise-assistant/internal/query"
	"github.com/capitalize-ai/finwise-assistant/internal/session"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
	"github.com/capitalize-ai/finwise-assistant/pkg/metrics"
)

const (
	invalidQueryMessage = "I apologize, but I couldn't generate a valid query to answer your question. The issue was: %s. Could you please rephrase or provide more details?"

	generationFailedMessage = "I encountered an unexpected error while processing your question. Please try again or rephrase your query."

	executionFailedMessage = "I apologize, but I couldn't retrieve data for your question. It may be ambiguous or missing details such as the company or period. Could you please rephrase it?"

	insightPrompt = "Fetch the latest data from our database and return a meaningful, bite-sized insight about it. Keep the message as short as possible."
)

// Reasons a turn was answered without retrieved data.
const (
	ReasonGenerationFailed = "generation_failed"
	ReasonInvalidQuery     = "invalid_query"
	ReasonExecutionFailed  = "execution_failed"
)

// Generator produces a validated query for an intent and its entities.
type Generator interface {
	GenerateAndValidate(ctx context.Context, intent model.Intent, entities model.EntityBag) (query.Result, error)
}

// Turn is the outcome of one user turn.
type Turn struct {
	Response    string
	Entities    model.EntityBag
	Intent      model.Intent
	Query       string
	Valid       bool
	Explanation string
	Parameters  map[string]any
	Records     []graph.Record
	KGData      string

	// Degraded is set when no data could be retrieved; Reason says why.
	Degraded bool
	Reason   string
}

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	// UnsafeTemplateQueries replaces model generation with fixed templates
	// that write entity values into the query text. Demo use only.
	UnsafeTemplateQueries bool
}

// Pipeline handles turns. It holds no per-conversation state and may serve
// many sessions concurrently; each session context must be used by one turn
// at a time.
type Pipeline struct {
	extractor *extract.Extractor
	generator Generator
	templates *query.TemplateGenerator
	executor  graph.Executor
	composer  *Composer
	logger    *logger.Logger
	tracer    trace.Tracer
}

// NewPipeline creates a pipeline. generator may be nil when templates are enabled.
func NewPipeline(extractor *extract.Extractor, generator Generator, executor graph.Executor, composer *Composer, cfg PipelineConfig, log *logger.Logger) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		generator: generator,
		executor:  executor,
		composer:  composer,
		logger:    log.Named("pipeline"),
		tracer:    otel.Tracer("github.com/capitalize-ai/finwise-assistant/internal/assistant"),
	}
	if cfg.UnsafeTemplateQueries {
		p.templates = query.NewTemplateGenerator()
		p.logger.Warn("template queries enabled; entity values are interpolated into query text")
	}
	return p
}

// HandleTurn processes input against sc and returns the answer. Failures of
// the model or the graph never escape: they produce a degraded turn whose
// response is still a natural-language answer. sc is updated exactly once
// for the user turn and once with the answer.
func (p *Pipeline) HandleTurn(ctx context.Context, input string, sc *session.Context) Turn {
	ctx, span := p.tracer.Start(ctx, "assistant.turn")
	defer span.End()

	turn := Turn{}

	_, extractSpan := p.tracer.Start(ctx, "assistant.extract")
	turn.Entities, turn.Intent = p.extractor.Extract(input)
	extractSpan.SetAttributes(
		attribute.String("intent.action", string(turn.Intent.Action)),
		attribute.Int("entities.companies", len(turn.Entities.Companies)),
	)
	extractSpan.End()

	filled := sc.Fallback(turn.Entities)
	p.retrieve(ctx, &turn, filled)

	sc.Update(input, turn.Entities, turn.Intent, turn.KGData)

	respondCtx, respondSpan := p.tracer.Start(ctx, "assistant.respond")
	turn.Response = p.composer.Respond(respondCtx, input, sc)
	respondSpan.End()
	sc.UpdateAIResponse(turn.Response)

	outcome := "answered"
	if turn.Degraded {
		outcome = turn.Reason
		p.logger.Warn("degraded turn",
			zap.String("reason", turn.Reason),
			zap.String("query", turn.Query),
			zap.String("explanation", turn.Explanation),
		)
	}
	metrics.TurnsTotal.WithLabelValues(outcome).Inc()
	span.SetAttributes(
		attribute.Bool("turn.degraded", turn.Degraded),
		attribute.Int("turn.records", len(turn.Records)),
	)
	return turn
}

// Insight returns a short standalone insight using a fresh context.
func (p *Pipeline) Insight(ctx context.Context) string {
	return p.HandleTurn(ctx, insightPrompt, session.New(1)).Response
}

// retrieve generates, binds and executes a query, filling the data fields of
// turn. Failures set turn.KGData to a message for the model instead.
func (p *Pipeline) retrieve(ctx context.Context, turn *Turn, entities model.EntityBag) {
	genCtx, genSpan := p.tracer.Start(ctx, "assistant.generate")
	result, err := p.generate(genCtx, turn.Intent, entities)
	genSpan.End()
	if err != nil {
		p.logger.Error("query generation failed", zap.Error(err))
		turn.Degraded, turn.Reason = true, ReasonGenerationFailed
		turn.KGData = generationFailedMessage
		return
	}

	turn.Query, turn.Valid, turn.Explanation = result.Query, result.Valid, result.Explanation
	if !result.Valid {
		turn.Degraded, turn.Reason = true, ReasonInvalidQuery
		turn.KGData = fmt.Sprintf(invalidQueryMessage, result.Explanation)
		return
	}
	p.logger.Info("valid query generated", zap.String("query", result.Query))

	turn.Parameters = query.BindParameters(result.Query, entities)

	execCtx, execSpan := p.tracer.Start(ctx, "assistant.execute")
	records, err := p.execute(execCtx, result.Query, turn.Parameters)
	execSpan.SetAttributes(attribute.Int("records", len(records)))
	execSpan.End()
	if err != nil {
		turn.Degraded, turn.Reason = true, ReasonExecutionFailed
		turn.Records = []graph.Record{}
		turn.KGData = executionFailedMessage
		return
	}

	turn.Records = records
	turn.KGData = graph.EncodeRecords(turn.Records)
}

// execute prefers an executor that reports failures; plain executors fold
// them into an empty result.
func (p *Pipeline) execute(ctx context.Context, q string, params map[string]any) ([]graph.Record, error) {
	if querier, ok := p.executor.(graph.Querier); ok {
		return querier.Query(ctx, q, params)
	}
	return p.executor.Execute(ctx, q, params), nil
}

func (p *Pipeline) generate(ctx context.Context, intent model.Intent, entities model.EntityBag) (query.Result, error) {
	if p.templates != nil {
		q := p.templates.Generate(intent, entities)
		return query.Result{Query: q, Valid: true, Explanation: "template query"}, nil
	}
	if p.generator == nil {
		return query.Result{}, query.ErrNoClient
	}
	return p.generator.GenerateAndValidate(ctx, intent, entities)
}

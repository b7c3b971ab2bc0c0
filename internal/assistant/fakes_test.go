package assistant

import (
	"context"
	"errors"

	"github.com/capitalize-ai/finwise-assistant/internal/graph"
	"github.com/capitalize-ai/finwise-assistant/internal/llm"
	"github.com/capitalize-ai/finwise-assistant/internal/model"
	"github.com/capitalize-ai/finwise-assistant/internal/query"
)

type fakeLLM struct {
	content  string
	err      error
	requests []*llm.CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content, Model: "fake"}, nil
}

func (f *fakeLLM) Name() string { return "fake" }

type generateCall struct {
	intent   model.Intent
	entities model.EntityBag
}

type fakeGenerator struct {
	result query.Result
	err    error
	calls  []generateCall
}

func (f *fakeGenerator) GenerateAndValidate(_ context.Context, intent model.Intent, entities model.EntityBag) (query.Result, error) {
	f.calls = append(f.calls, generateCall{intent: intent, entities: entities})
	return f.result, f.err
}

type executeCall struct {
	query  string
	params map[string]any
}

type recordingExecutor struct {
	records []graph.Record
	err     error
	calls   []executeCall
}

func (r *recordingExecutor) Execute(ctx context.Context, q string, params map[string]any) []graph.Record {
	records, err := r.Query(ctx, q, params)
	if err != nil {
		return []graph.Record{}
	}
	return records
}

func (r *recordingExecutor) Query(_ context.Context, q string, params map[string]any) ([]graph.Record, error) {
	r.calls = append(r.calls, executeCall{query: q, params: params})
	if r.err != nil {
		return nil, r.err
	}
	if r.records == nil {
		return []graph.Record{}, nil
	}
	return r.records, nil
}

// executeOnly hides Query so the pipeline sees a plain Executor.
type executeOnly struct {
	graph.Executor
}

var (
	errModelDown = errors.New("model unavailable")
	errGraphDown = errors.New("graph unavailable")
)

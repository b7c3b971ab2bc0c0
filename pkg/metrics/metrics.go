// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMRequestDuration tracks model completion latency by purpose (generate, validate, respond).
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM completion duration in seconds",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"purpose"},
	)

	// LLMRequestsTotal tracks model completions by purpose and status.
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total LLM completion requests",
		},
		[]string{"purpose", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// QueryValidationsTotal tracks validator verdicts.
	QueryValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_validations_total",
			Help: "Generated graph query validations by outcome",
		},
		[]string{"outcome"},
	)

	// GraphQueriesTotal tracks graph query executions.
	GraphQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_queries_total",
			Help: "Graph query executions by status",
		},
		[]string{"status"},
	)

	// GraphQueryDuration tracks graph query latency.
	GraphQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graph_query_duration_seconds",
			Help:    "Graph query duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// TurnsTotal tracks assistant turns by outcome.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Assistant turns by outcome",
		},
		[]string{"outcome"},
	)

	// ConversationsTotal tracks total conversations created.
	ConversationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
		[]string{"tenant_id"},
	)

	// MessagesTotal tracks total messages sent.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages sent",
		},
		[]string{"tenant_id", "role"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMCall records metrics for a single model completion.
func RecordLLMCall(purpose, model, status string, duration float64, tokensIn, tokensOut int) {
	LLMRequestDuration.WithLabelValues(purpose).Observe(duration)
	LLMRequestsTotal.WithLabelValues(purpose, status).Inc()
	if model != "" {
		LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
		LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
	}
}

// RecordGraphQuery records metrics for a graph query execution.
func RecordGraphQuery(status string, duration float64) {
	GraphQueriesTotal.WithLabelValues(status).Inc()
	GraphQueryDuration.Observe(duration)
}

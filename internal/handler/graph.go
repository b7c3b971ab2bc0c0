package handler

import (
	"context"
	"net/http"

	"github.com/capitalize-ai/finwise-assistant/internal/graph"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
)

// GraphStater counts the nodes of the knowledge graph.
type GraphStater interface {
	Stats(ctx context.Context) (graph.Stats, error)
}

// GraphHandler exposes the knowledge graph schema and size.
type GraphHandler struct {
	stats  GraphStater
	schema *graph.Schema
	logger *logger.Logger
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(stats GraphStater, schema *graph.Schema, log *logger.Logger) *GraphHandler {
	return &GraphHandler{
		stats:  stats,
		schema: schema,
		logger: log.Named("graph"),
	}
}

// Stats handles GET /api/v1/graph/stats
func (h *GraphHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		serviceError(w, r, h.logger, err, "failed to read graph stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Schema handles GET /api/v1/graph/schema
func (h *GraphHandler) Schema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.schema)
}

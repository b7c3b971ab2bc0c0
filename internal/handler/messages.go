package handler

import (
	"net/http"

	"github.com/capitalize-ai/finwise-assistant/internal/middleware"
	"github.com/capitalize-ai/finwise-assistant/internal/model"
	"github.com/capitalize-ai/finwise-assistant/internal/service"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	service *service.MessageService
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: svc,
		logger:  log.Named("messages"),
	}
}

// List handles GET /api/v1/conversations/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID, ok := conversationID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.List(ctx, middleware.GetTenantID(ctx), conversationID)
	if err != nil {
		serviceError(w, r, h.logger, err, "failed to get messages")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Send handles POST /api/v1/conversations/{id}/messages. It answers once the
// turn is complete; degraded turns still answer 201 with an explanatory reply.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID, ok := conversationID(w, r)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.service.Send(ctx, middleware.GetTenantID(ctx), conversationID, &req)
	if err != nil {
		serviceError(w, r, h.logger, err, "failed to send message")
		return
	}

	if r.URL.Query().Get("diagnostics") != "true" {
		resp.Diagnostics = nil
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Insight handles GET /api/v1/insights
func (h *MessageHandler) Insight(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &model.InsightResponse{
		Insight: h.service.Insight(r.Context()),
	})
}

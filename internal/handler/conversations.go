// Package handler provides HTTP handlers for the API.
package handler

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/finwise-assistant/internal/middleware"
	"github.com/capitalize-ai/finwise-assistant/internal/model"
	"github.com/capitalize-ai/finwise-assistant/internal/service"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log.Named("conversations"),
	}
}

// Create handles POST /api/v1/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CreateConversationRequest
	if !decode(w, r, &req) {
		return
	}

	conv, err := h.service.Create(ctx, middleware.GetTenantID(ctx), middleware.GetUserID(ctx), &req)
	if err != nil {
		serviceError(w, r, h.logger, err, "failed to create conversation")
		return
	}

	writeJSON(w, http.StatusCreated, conv)
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := queryInt(r, "limit", 20, 1, 100)
	offset := queryInt(r, "offset", 0, 0, math.MaxInt32)

	resp, err := h.service.List(ctx, middleware.GetTenantID(ctx), limit, offset)
	if err != nil {
		serviceError(w, r, h.logger, err, "failed to list conversations")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID, ok := conversationID(w, r)
	if !ok {
		return
	}

	conv, err := h.service.Get(ctx, middleware.GetTenantID(ctx), conversationID)
	if err != nil {
		serviceError(w, r, h.logger, err, "failed to get conversation")
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// Context handles GET /api/v1/conversations/{id}/context
func (h *ConversationHandler) Context(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID, ok := conversationID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Context(ctx, middleware.GetTenantID(ctx), conversationID)
	if err != nil {
		serviceError(w, r, h.logger, err, "failed to get conversation context")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Update handles PUT /api/v1/conversations/{id}
func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID, ok := conversationID(w, r)
	if !ok {
		return
	}

	var req model.UpdateConversationRequest
	if !decode(w, r, &req) {
		return
	}

	conv, err := h.service.Update(ctx, middleware.GetTenantID(ctx), conversationID, &req)
	if err != nil {
		serviceError(w, r, h.logger, err, "failed to update conversation")
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// Delete handles DELETE /api/v1/conversations/{id}
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID, ok := conversationID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, middleware.GetTenantID(ctx), conversationID); err != nil {
		serviceError(w, r, h.logger, err, "failed to delete conversation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func conversationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/capitalize-ai/finwise-assistant/internal/middleware"
	"github.com/capitalize-ai/finwise-assistant/internal/service"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// decode reads a JSON body into req and checks its validate tags.
func decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := middleware.ValidateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// serviceError maps a service error to a response. Unknown errors are logged
// and reported without detail.
func serviceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error, msg string) {
	if errors.Is(err, service.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	log.Error(msg,
		zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, msg)
}

func queryInt(r *http.Request, name string, def, min, max int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < min || parsed > max {
		return def
	}
	return parsed
}

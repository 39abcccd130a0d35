// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/coursechat/internal/auth"
	"github.com/capitalize-ai/coursechat/internal/service"
	"github.com/capitalize-ai/coursechat/internal/upload"
	"github.com/capitalize-ai/coursechat/pkg/logger"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
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

// decodeJSON decodes the request body into v and reports a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, service.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoConversation),
		errors.Is(err, service.ErrBusy),
		errors.Is(err, service.ErrVersionConflict),
		errors.Is(err, service.ErrSelectionChanged):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidAttachment),
		errors.Is(err, service.ErrInvalidTag),
		errors.Is(err, service.ErrInvalidCourse),
		errors.Is(err, upload.ErrNoFiles),
		errors.Is(err, auth.ErrUnknownRole):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrAssistant):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeServiceError writes err with its mapped status. Assistant failures are
// reported with the generic action message; internal errors are logged.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, action string, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		log.Error("request failed", zap.String("action", action), zap.Error(err))
		writeError(w, status, "failed to "+action)
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		writeError(w, status, "failed to "+action)
	default:
		writeError(w, status, err.Error())
	}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/coursechat/internal/middleware"
	"github.com/capitalize-ai/coursechat/internal/model"
	"github.com/capitalize-ai/coursechat/internal/service"
	"github.com/capitalize-ai/coursechat/pkg/logger"
)

// sendErrorResponse reports a failed exchange together with the user message
// that was kept.
type sendErrorResponse struct {
	Error       string         `json:"error"`
	UserMessage *model.Message `json:"user_message,omitempty"`
}

// MessageHandler handles message endpoints of the current conversation.
type MessageHandler struct {
	service *service.ChatService
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.ChatService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/chat/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Messages(middleware.GetUserID(r.Context())))
}

// Pinned handles GET /api/v1/chat/messages/pinned
func (h *MessageHandler) Pinned(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Pinned(middleware.GetUserID(r.Context())))
}

// Send handles POST /api/v1/chat/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateMessageContent(req.Content, len(req.Attachments)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Send(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		if resp != nil {
			status := statusFor(err)
			msg := "failed to send message"
			if errors.Is(err, service.ErrSelectionChanged) {
				msg = err.Error()
			}
			writeJSON(w, status, &sendErrorResponse{Error: msg, UserMessage: &resp.UserMessage})
			return
		}
		writeServiceError(w, h.logger, "send message", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Update handles PATCH /api/v1/chat/messages/{msgID}
func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Tags != nil {
		tags, err := middleware.ValidateTags(*req.Tags)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Tags = &tags
	}

	msg, err := h.service.UpdateMessage(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "msgID"), &req)
	if err != nil {
		writeServiceError(w, h.logger, "update message", err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// Delete handles DELETE /api/v1/chat/messages/{msgID}
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMessage(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "msgID")); err != nil {
		writeServiceError(w, h.logger, "delete message", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TogglePin handles POST /api/v1/chat/messages/{msgID}/pin
func (h *MessageHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "pin message", func(ctx context.Context, userID, id string) (model.Message, error) {
		return h.service.TogglePin(ctx, userID, id)
	})
}

// AddTag handles PUT /api/v1/chat/messages/{msgID}/tags/{tag}
func (h *MessageHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	tag, err := model.ParseTag(chi.URLParam(r, "tag"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respond(w, r, "tag message", func(ctx context.Context, userID, id string) (model.Message, error) {
		return h.service.AddTag(ctx, userID, id, tag)
	})
}

// RemoveTag handles DELETE /api/v1/chat/messages/{msgID}/tags/{tag}
func (h *MessageHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	tag, err := model.ParseTag(chi.URLParam(r, "tag"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respond(w, r, "untag message", func(ctx context.Context, userID, id string) (model.Message, error) {
		return h.service.RemoveTag(ctx, userID, id, tag)
	})
}

// Regenerate handles POST /api/v1/chat/messages/{msgID}/regenerate
func (h *MessageHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "regenerate response", h.service.Regenerate)
}

// Improve handles POST /api/v1/chat/messages/{msgID}/improve
func (h *MessageHandler) Improve(w http.ResponseWriter, r *http.Request) {
	var req model.ImproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respondCreated(w, r, "improve answer", func(ctx context.Context, userID, id string) (model.Message, error) {
		return h.service.Improve(ctx, userID, id, req.Content)
	})
}

// StepByStep handles POST /api/v1/chat/messages/{msgID}/steps
func (h *MessageHandler) StepByStep(w http.ResponseWriter, r *http.Request) {
	h.respondCreated(w, r, "generate explanation", h.service.StepByStep)
}

// Summarize handles POST /api/v1/chat/summarize
func (h *MessageHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	msg, err := h.service.Summarize(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, "summarize chat", err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// StudyNotes handles POST /api/v1/chat/notes
func (h *MessageHandler) StudyNotes(w http.ResponseWriter, r *http.Request) {
	msg, err := h.service.StudyNotes(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, "create study notes", err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type messageOp func(ctx context.Context, userID, id string) (model.Message, error)

func (h *MessageHandler) respond(w http.ResponseWriter, r *http.Request, action string, op messageOp) {
	h.run(w, r, http.StatusOK, action, op)
}

func (h *MessageHandler) respondCreated(w http.ResponseWriter, r *http.Request, action string, op messageOp) {
	h.run(w, r, http.StatusCreated, action, op)
}

func (h *MessageHandler) run(w http.ResponseWriter, r *http.Request, status int, action string, op messageOp) {
	msg, err := op(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "msgID"))
	if err != nil {
		writeServiceError(w, h.logger, action, err)
		return
	}
	writeJSON(w, status, msg)
}

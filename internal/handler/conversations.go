package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/coursechat/internal/middleware"
	"github.com/capitalize-ai/coursechat/internal/model"
	"github.com/capitalize-ai/coursechat/internal/service"
	"github.com/capitalize-ai/coursechat/pkg/logger"
)

// ConversationHandler handles chat selection and conversation endpoints.
type ConversationHandler struct {
	service *service.ChatService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ChatService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// State handles GET /api/v1/chat/state
func (h *ConversationHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.State(middleware.GetUserID(r.Context())))
}

// SelectCourse handles PUT /api/v1/chat/course
func (h *ConversationHandler) SelectCourse(w http.ResponseWriter, r *http.Request) {
	var req model.SelectCourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateID(req.CourseID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.service.OpenCourse(r.Context(), middleware.GetUserID(r.Context()), req.CourseID)
	if err != nil {
		writeServiceError(w, h.logger, "open course", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// SetFilter handles PUT /api/v1/chat/filter
func (h *ConversationHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req model.TagFilterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tags, err := middleware.ValidateTags(req.Tags)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := h.service.SetTagFilter(middleware.GetUserID(r.Context()), tags)
	if err != nil {
		writeServiceError(w, h.logger, "set tag filter", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// SelectConversation handles PUT /api/v1/chat/current
func (h *ConversationHandler) SelectConversation(w http.ResponseWriter, r *http.Request) {
	var req model.SelectConversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.service.SelectConversation(middleware.GetUserID(r.Context()), req.ConversationID))
}

// List handles GET /api/v1/chat/conversations?course_id=
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	courseID := r.URL.Query().Get("course_id")
	list, err := h.service.ListConversations(middleware.GetUserID(r.Context()), courseID)
	if err != nil {
		writeServiceError(w, h.logger, "list conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/v1/chat/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateConversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title != "" {
		if err := middleware.ValidateTitle(req.Title); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	id, err := h.service.CreateConversation(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, h.logger, "create conversation", err)
		return
	}
	writeJSON(w, http.StatusCreated, &model.CreateConversationResponse{ID: id})
}

// Rename handles PUT /api/v1/chat/conversations/{id}
func (h *ConversationHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req model.RenameConversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.RenameConversation(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req.Title)
	if err != nil {
		writeServiceError(w, h.logger, "rename conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, conv.Summary())
}

// Delete handles DELETE /api/v1/chat/conversations/{id}
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteConversation(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, "delete conversation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /api/v1/chat/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	conv, err := h.service.GetConversation(middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, "get conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

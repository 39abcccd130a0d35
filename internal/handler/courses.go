package handler

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/coursechat/internal/auth"
	"github.com/capitalize-ai/coursechat/internal/middleware"
	"github.com/capitalize-ai/coursechat/internal/model"
	"github.com/capitalize-ai/coursechat/internal/service"
	"github.com/capitalize-ai/coursechat/internal/upload"
	"github.com/capitalize-ai/coursechat/pkg/logger"
	"github.com/capitalize-ai/coursechat/pkg/metrics"
)

// ProgressEvent reports upload progress over SSE.
type ProgressEvent struct {
	Percent float64 `json:"percent"`
}

// CourseHandler handles course directory and material endpoints.
type CourseHandler struct {
	catalog        *service.CatalogService
	logger         *logger.Logger
	maxUploadBytes int64
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(catalog *service.CatalogService, log *logger.Logger, maxUploadBytes int64) *CourseHandler {
	return &CourseHandler{
		catalog:        catalog,
		logger:         log,
		maxUploadBytes: maxUploadBytes,
	}
}

// List handles GET /api/v1/courses?search=
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.ListCourses(r.URL.Query().Get("search")))
}

// Mine handles GET /api/v1/courses/mine
func (h *CourseHandler) Mine(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, h.catalog.TeachingCourses(id.Name))
}

// Get handles GET /api/v1/courses/{courseID}
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalog.GetCourse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeServiceError(w, h.logger, "get course", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Create handles POST /api/v1/courses
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Course
	if !decodeJSON(w, r, &req) {
		return
	}

	id, _ := auth.FromContext(r.Context())
	c, err := h.catalog.CreateCourse(r.Context(), id.User, req)
	if err != nil {
		writeServiceError(w, h.logger, "create course", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Update handles PUT /api/v1/courses/{courseID}
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.CoursePatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	id, _ := auth.FromContext(r.Context())
	c, err := h.catalog.EditCourse(r.Context(), id.User, chi.URLParam(r, "courseID"), patch)
	if err != nil {
		writeServiceError(w, h.logger, "update course", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/v1/courses/{courseID}
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if err := h.catalog.DeleteCourse(r.Context(), id.User, chi.URLParam(r, "courseID")); err != nil {
		writeServiceError(w, h.logger, "delete course", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Materials handles GET /api/v1/courses/{courseID}/materials
func (h *CourseHandler) Materials(w http.ResponseWriter, r *http.Request) {
	resp, err := h.catalog.Materials(chi.URLParam(r, "courseID"))
	if err != nil {
		writeServiceError(w, h.logger, "list materials", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Upload handles POST /api/v1/courses/{courseID}/materials
// The body is multipart/form-data with one or more "files" parts and optional
// "required" and "visible" fields. With Accept: text/event-stream the handler
// streams progress events before the result.
func (h *CourseHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	courseID := chi.URLParam(r, "courseID")
	if err := middleware.ValidateID(courseID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form")
		return
	}

	var files []upload.File
	meta := upload.Meta{Visible: true}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writePartError(w, err)
			return
		}

		switch part.FormName() {
		case "files":
			body, err := readPart(part)
			if err != nil {
				writePartError(w, err)
				return
			}
			files = append(files, upload.File{
				Name:        part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Body:        body,
			})
		case "required", "visible":
			raw, err := readPart(part)
			if err != nil {
				writePartError(w, err)
				return
			}
			v, _ := strconv.ParseBool(strings.TrimSpace(raw.String()))
			if part.FormName() == "required" {
				meta.Required = v
			} else {
				meta.Visible = v
			}
		}
	}

	id, _ := auth.FromContext(ctx)

	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		uploaded, err := h.catalog.UploadMaterials(ctx, id.User, courseID, files, meta, nil)
		if err != nil {
			writeServiceError(w, h.logger, "upload materials", err)
			return
		}
		writeJSON(w, http.StatusCreated, &model.ListFilesResponse{Files: uploaded, Total: len(uploaded)})
		return
	}

	flusher, ok := startSSE(w)
	if !ok {
		return
	}
	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	uploaded, err := h.catalog.UploadMaterials(ctx, id.User, courseID, files, meta, func(p float64) {
		_ = sendSSEEvent(w, flusher, "progress", &ProgressEvent{Percent: p})
	})
	if err != nil {
		_ = sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
			Code:    "upload_error",
			Message: err.Error(),
		})
		return
	}
	_ = sendSSEEvent(w, flusher, "complete", &model.ListFilesResponse{Files: uploaded, Total: len(uploaded)})
}

func readPart(part *multipart.Part) (*bytes.Buffer, error) {
	defer part.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, part); err != nil {
		return nil, err
	}
	return &buf, nil
}

func writePartError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	writeError(w, http.StatusBadRequest, "malformed multipart form")
}

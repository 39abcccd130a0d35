package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/capitalize-ai/coursechat/internal/middleware"
	"github.com/capitalize-ai/coursechat/internal/model"
	"github.com/capitalize-ai/coursechat/internal/service"
	"github.com/capitalize-ai/coursechat/pkg/logger"
	"github.com/capitalize-ai/coursechat/pkg/metrics"
)

// StreamHandler handles SSE streaming endpoints.
type StreamHandler struct {
	service *service.ChatService
	logger  *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(svc *service.ChatService, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		service: svc,
		logger:  log,
	}
}

// sseStream opens the event stream on the first event, so requests rejected
// before the assistant produces anything still get a plain JSON error.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseStream) send(event string, data interface{}) error {
	if s.flusher == nil {
		flusher, ok := startSSE(s.w)
		if !ok {
			return errors.New("streaming not supported")
		}
		s.flusher = flusher
		metrics.IncrementSSEConnections()
	}
	return sendSSEEvent(s.w, s.flusher, event, data)
}

func (s *sseStream) close() {
	if s.flusher != nil {
		metrics.DecrementSSEConnections()
	}
}

// StreamWithMessage handles POST /api/v1/chat/messages/stream
// Events: user_message once the question is stored, then token events,
// then message_complete and done, or error.
func (h *StreamHandler) StreamWithMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateMessageContent(req.Content, len(req.Attachments)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := w.(http.Flusher); !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	stream := &sseStream{w: w}
	defer stream.close()

	onUserMessage := func(msg model.Message) {
		_ = stream.send("user_message", msg)
	}
	resp, err := h.service.Stream(ctx, userID, &req, onUserMessage, func(token string, index int) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return stream.send("token", &model.TokenEvent{
			Token: token,
			Index: index,
		})
	})

	if err != nil && resp == nil && stream.flusher == nil {
		writeServiceError(w, h.logger, "send message", err)
		return
	}

	if err != nil {
		msg := "failed to send message"
		if statusFor(err) != http.StatusBadGateway && statusFor(err) != http.StatusInternalServerError {
			msg = err.Error()
		}
		_ = stream.send("error", &model.ErrorEvent{
			Code:    "stream_error",
			Message: msg,
		})
		return
	}

	if resp.AssistantMessage != nil {
		_ = stream.send("message_complete", &model.MessageCompleteEvent{
			Message: *resp.AssistantMessage,
		})
	}

	_ = stream.send("done", map[string]bool{"success": true})
}

// startSSE writes the event stream headers.
func startSSE(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return flusher, true
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}

// Package service implements the chat flows on top of the session stores:
// it gates input while the assistant is busy, awaits the assistant and commits
// the results, and publishes change events.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/coursechat/internal/assistant"
	"github.com/capitalize-ai/coursechat/internal/chat"
	"github.com/capitalize-ai/coursechat/internal/course"
	"github.com/capitalize-ai/coursechat/internal/model"
	"github.com/capitalize-ai/coursechat/pkg/logger"
	"github.com/capitalize-ai/coursechat/pkg/metrics"
)

var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNoConversation       = errors.New("no conversation selected")
	ErrBusy                 = errors.New("assistant is busy")
	ErrAssistant            = errors.New("assistant request failed")
	ErrSelectionChanged     = errors.New("conversation changed before the reply arrived")
	ErrVersionConflict      = errors.New("message changed concurrently")
	ErrInvalidAttachment    = errors.New("invalid attachment")
	ErrInvalidTag           = errors.New("invalid tag")
)

// EventPublisher receives committed chat changes.
type EventPublisher interface {
	Publish(ctx context.Context, event model.ChatEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, model.ChatEvent) error { return nil }

// ChatService handles chat operations for every session.
type ChatService struct {
	sessions  *chat.Sessions
	courses   *course.Directory
	assistant assistant.Assistant
	publisher EventPublisher
	logger    *logger.Logger
	timeout   time.Duration
}

// NewChatService creates a new chat service.
func NewChatService(
	sessions *chat.Sessions,
	courses *course.Directory,
	asst assistant.Assistant,
	publisher EventPublisher,
	log *logger.Logger,
	timeout time.Duration,
) *ChatService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &ChatService{
		sessions:  sessions,
		courses:   courses,
		assistant: asst,
		publisher: publisher,
		logger:    log,
		timeout:   timeout,
	}
}

func (s *ChatService) store(userID string) *chat.Store {
	st := s.sessions.Get(userID)
	metrics.ChatSessions.Set(float64(s.sessions.Len()))
	return st
}

// State returns the selection state of a session.
func (s *ChatService) State(userID string) model.ChatState {
	return s.store(userID).Snapshot()
}

// emit publishes an event. Publishing failures are logged, never returned.
func (s *ChatService) emit(ctx context.Context, event model.ChatEvent) {
	event.ID = chat.NewID()
	event.CreatedAt = time.Now()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish chat event",
			zap.String("type", string(event.Type)),
			zap.String("user_id", event.UserID),
			zap.Error(err),
		)
	}
}

// call runs one assistant request under the service timeout and records its latency.
func (s *ChatService) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	metrics.RecordAssistantCall(op, err, time.Since(start).Seconds())
	return err
}

// Package assistant provides the course assistant the chat talks to.
package assistant

import (
	"context"
	"errors"

	"github.com/capitalize-ai/coursechat/internal/model"
)

// ErrUnavailable is returned when the assistant fails to answer.
var ErrUnavailable = errors.New("assistant unavailable")

// TokenCallback is called for each token during streaming.
type TokenCallback func(token string, index int) error

// Assistant is the interface for assistant backends. Every call may be slow
// and every call may fail.
type Assistant interface {
	// SendMessage answers a user message.
	SendMessage(ctx context.Context, courseID, text string) (model.Message, error)

	// StreamMessage answers a user message token by token and returns the full reply.
	StreamMessage(ctx context.Context, courseID, text string, onToken TokenCallback) (model.Message, error)

	// RegenerateMessage produces a fresh answer for an assistant message.
	RegenerateMessage(ctx context.Context, courseID, messageID string) (model.Message, error)

	// ImproveMessage produces a more detailed version of an answer.
	ImproveMessage(ctx context.Context, courseID, messageID, original string) (model.Message, error)

	// SummarizeChat condenses a conversation.
	SummarizeChat(ctx context.Context, courseID string, messages []model.Message) (string, error)

	// ConvertToStudyNotes turns a conversation into study notes.
	ConvertToStudyNotes(ctx context.Context, courseID string, messages []model.Message) (string, error)

	// ConvertToStepByStep rewrites an answer as numbered steps.
	ConvertToStepByStep(ctx context.Context, courseID, text string) (string, error)
}

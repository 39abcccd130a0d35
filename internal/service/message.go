package service

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/coursechat/internal/assistant"
	"github.com/capitalize-ai/coursechat/internal/chat"
	"github.com/capitalize-ai/coursechat/internal/model"
	"github.com/capitalize-ai/coursechat/internal/upload"
	"github.com/capitalize-ai/coursechat/pkg/metrics"
)

// Messages returns the current conversation as seen through the tag filter.
func (s *ChatService) Messages(userID string) *model.ListMessagesResponse {
	st := s.store(userID)
	state := st.Snapshot()
	return &model.ListMessagesResponse{
		ConversationID: state.ConversationID,
		Messages:       st.CurrentMessages(),
		TagFilter:      state.TagFilter,
		IsStreaming:    state.IsStreaming,
	}
}

// Pinned returns the pinned messages of the current conversation.
func (s *ChatService) Pinned(userID string) []model.Message {
	return s.store(userID).PinnedMessages()
}

// UpdateMessage applies a partial update to a message of the current conversation.
func (s *ChatService) UpdateMessage(ctx context.Context, userID, id string, req *model.UpdateMessageRequest) (model.Message, error) {
	st := s.store(userID)
	patch := chat.MessagePatch{
		Content:   req.Content,
		Pinned:    req.Pinned,
		Tags:      req.Tags,
		IfVersion: req.IfVersion,
	}
	if err := resultErr(st.UpdateMessage(id, patch)); err != nil {
		return model.Message{}, err
	}
	return s.changed(ctx, userID, st, id)
}

// DeleteMessage removes a message from the current conversation.
func (s *ChatService) DeleteMessage(ctx context.Context, userID, id string) error {
	st := s.store(userID)
	state := st.Snapshot()
	if !st.DeleteMessage(id) {
		return ErrMessageNotFound
	}

	s.emit(ctx, model.ChatEvent{
		Type:           model.EventMessageDeleted,
		UserID:         userID,
		CourseID:       state.CourseID,
		ConversationID: state.ConversationID,
		MessageID:      id,
	})
	return nil
}

// TogglePin flips the pinned flag of a message.
func (s *ChatService) TogglePin(ctx context.Context, userID, id string) (model.Message, error) {
	st := s.store(userID)
	if !st.TogglePinMessage(id) {
		return model.Message{}, ErrMessageNotFound
	}
	return s.changed(ctx, userID, st, id)
}

// AddTag adds a tag to a message.
func (s *ChatService) AddTag(ctx context.Context, userID, id string, tag model.Tag) (model.Message, error) {
	if !tag.Valid() {
		return model.Message{}, fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	st := s.store(userID)
	if !st.AddMessageTag(id, tag) {
		return model.Message{}, ErrMessageNotFound
	}
	return s.changed(ctx, userID, st, id)
}

// RemoveTag removes a tag from a message.
func (s *ChatService) RemoveTag(ctx context.Context, userID, id string, tag model.Tag) (model.Message, error) {
	if !tag.Valid() {
		return model.Message{}, fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	st := s.store(userID)
	if !st.RemoveMessageTag(id, tag) {
		return model.Message{}, ErrMessageNotFound
	}
	return s.changed(ctx, userID, st, id)
}

// Send adds a user message to the current conversation and waits for the
// assistant's reply. While a reply is pending every other assistant request
// of the session is rejected with ErrBusy. When the assistant fails the user
// message stays and the returned error wraps ErrAssistant.
func (s *ChatService) Send(ctx context.Context, userID string, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	return s.exchange(ctx, userID, req, "send", nil, s.assistant.SendMessage)
}

// Stream is Send with progress callbacks: onUserMessage is called once the
// user message is committed and before the assistant is asked, then the reply
// is delivered token by token through onToken before it is committed.
func (s *ChatService) Stream(
	ctx context.Context,
	userID string,
	req *model.SendMessageRequest,
	onUserMessage func(model.Message),
	onToken assistant.TokenCallback,
) (*model.SendMessageResponse, error) {
	ask := func(ctx context.Context, courseID, text string) (model.Message, error) {
		return s.assistant.StreamMessage(ctx, courseID, text, onToken)
	}
	return s.exchange(ctx, userID, req, "stream", onUserMessage, ask)
}

func (s *ChatService) exchange(
	ctx context.Context,
	userID string,
	req *model.SendMessageRequest,
	op string,
	onUserMessage func(model.Message),
	ask func(ctx context.Context, courseID, text string) (model.Message, error),
) (*model.SendMessageResponse, error) {
	attachments, err := resolveAttachments(req.Attachments)
	if err != nil {
		return nil, err
	}

	st := s.store(userID)
	state := st.Snapshot()
	if state.ConversationID == "" {
		return nil, ErrNoConversation
	}
	if !s.courses.Exists(state.CourseID) {
		return nil, ErrCourseNotFound
	}
	if !st.TryBeginStreaming() {
		return nil, ErrBusy
	}
	defer st.SetStreaming(false)

	userMsg, ok := st.AddMessageIfCurrent(state.ConversationID, model.Message{
		Role:        model.RoleUser,
		Content:     req.Content,
		Attachments: attachments,
	})
	if !ok {
		return nil, ErrNoConversation
	}
	s.added(ctx, userID, state, userMsg)
	if onUserMessage != nil {
		onUserMessage(userMsg)
	}

	resp := &model.SendMessageResponse{UserMessage: userMsg}

	var reply model.Message
	err = s.call(ctx, op, func(ctx context.Context) error {
		var err error
		reply, err = ask(ctx, state.CourseID, req.Content)
		return err
	})
	if err != nil {
		return resp, s.failed(ctx, userID, state, op, err)
	}

	reply.Role = model.RoleAssistant
	committed, ok := st.AddMessageIfCurrent(state.ConversationID, reply)
	if !ok {
		s.logger.Info("dropped assistant reply for inactive conversation",
			zap.String("user_id", userID),
			zap.String("conversation_id", state.ConversationID),
		)
		return resp, ErrSelectionChanged
	}
	s.added(ctx, userID, state, committed)

	resp.AssistantMessage = &committed
	return resp, nil
}

// Regenerate replaces the content of an assistant message with a fresh
// answer. The replacement is discarded with ErrVersionConflict when the
// message changed while the answer was generated, and with
// ErrSelectionChanged when the user moved to another conversation.
func (s *ChatService) Regenerate(ctx context.Context, userID, id string) (model.Message, error) {
	st := s.store(userID)
	state := st.Snapshot()
	msg, ok := st.Message(id)
	if !ok || msg.Role != model.RoleAssistant {
		return model.Message{}, ErrMessageNotFound
	}
	if !s.courses.Exists(state.CourseID) {
		return model.Message{}, ErrCourseNotFound
	}
	if !st.TryBeginStreaming() {
		return model.Message{}, ErrBusy
	}
	defer st.SetStreaming(false)

	var fresh model.Message
	err := s.call(ctx, "regenerate", func(ctx context.Context) error {
		var err error
		fresh, err = s.assistant.RegenerateMessage(ctx, state.CourseID, id)
		return err
	})
	if err != nil {
		return model.Message{}, s.failed(ctx, userID, state, "regenerate", err)
	}

	version := msg.Version
	result := st.UpdateMessageIfCurrent(state.ConversationID, id, chat.MessagePatch{Content: &fresh.Content, IfVersion: &version})
	if err := resultErr(result); err != nil {
		return model.Message{}, err
	}
	return s.changed(ctx, userID, st, id)
}

// Improve appends a more detailed version of an answer. An empty content
// improves the stored content of the message.
func (s *ChatService) Improve(ctx context.Context, userID, id, content string) (model.Message, error) {
	st := s.store(userID)
	msg, ok := st.Message(id)
	if !ok {
		return model.Message{}, ErrMessageNotFound
	}
	if content == "" {
		content = msg.Content
	}
	return s.appendReply(ctx, userID, "improve", nil, func(ctx context.Context, courseID string) (string, error) {
		reply, err := s.assistant.ImproveMessage(ctx, courseID, id, content)
		return reply.Content, err
	})
}

// Summarize appends a summary of the visible messages, tagged important.
func (s *ChatService) Summarize(ctx context.Context, userID string) (model.Message, error) {
	messages := s.store(userID).CurrentMessages()
	return s.appendReply(ctx, userID, "summarize", []model.Tag{model.TagImportant}, func(ctx context.Context, courseID string) (string, error) {
		return s.assistant.SummarizeChat(ctx, courseID, messages)
	})
}

// StudyNotes appends study notes built from the visible messages, tagged important.
func (s *ChatService) StudyNotes(ctx context.Context, userID string) (model.Message, error) {
	messages := s.store(userID).CurrentMessages()
	return s.appendReply(ctx, userID, "study_notes", []model.Tag{model.TagImportant}, func(ctx context.Context, courseID string) (string, error) {
		return s.assistant.ConvertToStudyNotes(ctx, courseID, messages)
	})
}

// StepByStep appends a step-by-step rewrite of a message.
func (s *ChatService) StepByStep(ctx context.Context, userID, id string) (model.Message, error) {
	msg, ok := s.store(userID).Message(id)
	if !ok {
		return model.Message{}, ErrMessageNotFound
	}
	return s.appendReply(ctx, userID, "step_by_step", nil, func(ctx context.Context, courseID string) (string, error) {
		return s.assistant.ConvertToStepByStep(ctx, courseID, msg.Content)
	})
}

func (s *ChatService) appendReply(
	ctx context.Context,
	userID, op string,
	tags []model.Tag,
	produce func(ctx context.Context, courseID string) (string, error),
) (model.Message, error) {
	st := s.store(userID)
	state := st.Snapshot()
	if state.ConversationID == "" {
		return model.Message{}, ErrNoConversation
	}
	if !s.courses.Exists(state.CourseID) {
		return model.Message{}, ErrCourseNotFound
	}
	if !st.TryBeginStreaming() {
		return model.Message{}, ErrBusy
	}
	defer st.SetStreaming(false)

	var content string
	err := s.call(ctx, op, func(ctx context.Context) error {
		var err error
		content, err = produce(ctx, state.CourseID)
		return err
	})
	if err != nil {
		return model.Message{}, s.failed(ctx, userID, state, op, err)
	}

	committed, ok := st.AddMessageIfCurrent(state.ConversationID, model.Message{
		Role:    model.RoleAssistant,
		Content: content,
		Tags:    tags,
	})
	if !ok {
		return model.Message{}, ErrSelectionChanged
	}
	s.added(ctx, userID, state, committed)
	return committed, nil
}

func (s *ChatService) added(ctx context.Context, userID string, state model.ChatState, msg model.Message) {
	metrics.MessagesTotal.WithLabelValues(state.CourseID, string(msg.Role)).Inc()
	s.emit(ctx, model.ChatEvent{
		Type:           model.EventMessageAdded,
		UserID:         userID,
		CourseID:       state.CourseID,
		ConversationID: state.ConversationID,
		MessageID:      msg.ID,
		Metadata:       map[string]string{"role": string(msg.Role)},
	})
}

func (s *ChatService) changed(ctx context.Context, userID string, st *chat.Store, id string) (model.Message, error) {
	msg, ok := st.Message(id)
	if !ok {
		return model.Message{}, ErrMessageNotFound
	}
	state := st.Snapshot()
	s.emit(ctx, model.ChatEvent{
		Type:           model.EventMessageUpdated,
		UserID:         userID,
		CourseID:       state.CourseID,
		ConversationID: state.ConversationID,
		MessageID:      id,
		Metadata:       map[string]string{"version": fmt.Sprint(msg.Version)},
	})
	return msg, nil
}

func (s *ChatService) failed(ctx context.Context, userID string, state model.ChatState, op string, err error) error {
	s.logger.Warn("assistant request failed",
		zap.String("operation", op),
		zap.String("user_id", userID),
		zap.String("conversation_id", state.ConversationID),
		zap.Error(err),
	)
	s.emit(ctx, model.ChatEvent{
		Type:           model.EventAssistantFailed,
		UserID:         userID,
		CourseID:       state.CourseID,
		ConversationID: state.ConversationID,
		Metadata:       map[string]string{"operation": op, "reason": err.Error()},
	})
	return fmt.Errorf("%w: %w", ErrAssistant, err)
}

func resultErr(r chat.Result) error {
	switch r {
	case chat.NotFound:
		return ErrMessageNotFound
	case chat.Conflict:
		return ErrVersionConflict
	case chat.Stale:
		return ErrSelectionChanged
	}
	return nil
}

// resolveAttachments fills in missing attachment kinds from the file name and
// rejects payloads that are not an image, a PDF or source code.
func resolveAttachments(in []model.Attachment) ([]model.Attachment, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]model.Attachment, len(in))
	for i, a := range in {
		if strings.TrimSpace(a.Ref) == "" {
			return nil, fmt.Errorf("%w: attachment %d has no reference", ErrInvalidAttachment, i)
		}
		if a.Kind == "" {
			kind, ok := upload.KindFor(mime.TypeByExtension(filepath.Ext(a.Name)), a.Name)
			if !ok {
				return nil, fmt.Errorf("%w: unsupported file %q", ErrInvalidAttachment, a.Name)
			}
			a.Kind = kind
		}
		switch a.Kind {
		case model.AttachmentImage, model.AttachmentPDF, model.AttachmentCode:
		default:
			return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidAttachment, a.Kind)
		}
		out[i] = a
	}
	return out, nil
}

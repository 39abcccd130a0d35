package service

import (
	"context"
	"fmt"

	"github.com/capitalize-ai/coursechat/internal/model"
	"github.com/capitalize-ai/coursechat/pkg/metrics"
)

// OpenCourse selects a course for the chat view and, when no conversation is
// selected yet, starts one.
func (s *ChatService) OpenCourse(ctx context.Context, userID, courseID string) (model.ChatState, error) {
	if !s.courses.Exists(courseID) {
		return model.ChatState{}, ErrCourseNotFound
	}

	st := s.store(userID)
	st.SetCurrentCourse(courseID)
	if st.Snapshot().ConversationID == "" {
		id := st.CreateConversation(courseID, "")
		metrics.ConversationsTotal.WithLabelValues(courseID).Inc()
		s.emit(ctx, model.ChatEvent{
			Type:           model.EventConversationCreated,
			UserID:         userID,
			CourseID:       courseID,
			ConversationID: id,
		})
	}
	return st.Snapshot(), nil
}

// ListConversations lists the conversations of a course. An empty course id
// means the current course; with no course selected the list is empty.
func (s *ChatService) ListConversations(userID, courseID string) (*model.ListConversationsResponse, error) {
	st := s.store(userID)
	if courseID == "" {
		courseID = st.Snapshot().CourseID
	}
	if courseID != "" && !s.courses.Exists(courseID) {
		return nil, ErrCourseNotFound
	}

	convs := st.ListConversations(courseID)
	summaries := make([]model.ConversationSummary, len(convs))
	for i, c := range convs {
		summaries[i] = c.Summary()
	}
	return &model.ListConversationsResponse{
		CourseID:      courseID,
		Conversations: summaries,
		Total:         len(summaries),
	}, nil
}

// CreateConversation starts a conversation in a course, selects the course and
// the new conversation. An empty course id means the current course.
func (s *ChatService) CreateConversation(ctx context.Context, userID string, req *model.CreateConversationRequest) (string, error) {
	st := s.store(userID)
	courseID := req.CourseID
	if courseID == "" {
		courseID = st.Snapshot().CourseID
	}
	if !s.courses.Exists(courseID) {
		return "", ErrCourseNotFound
	}

	st.SetCurrentCourse(courseID)
	id := st.CreateConversation(courseID, req.Title)

	metrics.ConversationsTotal.WithLabelValues(courseID).Inc()
	s.emit(ctx, model.ChatEvent{
		Type:           model.EventConversationCreated,
		UserID:         userID,
		CourseID:       courseID,
		ConversationID: id,
	})
	return id, nil
}

// GetConversation returns a conversation of the current course.
func (s *ChatService) GetConversation(userID, id string) (model.Conversation, error) {
	conv, ok := s.store(userID).Conversation(id)
	if !ok {
		return model.Conversation{}, ErrConversationNotFound
	}
	return conv, nil
}

// RenameConversation renames a conversation of the current course.
func (s *ChatService) RenameConversation(ctx context.Context, userID, id, title string) (model.Conversation, error) {
	st := s.store(userID)
	if !st.RenameConversation(id, title) {
		return model.Conversation{}, ErrConversationNotFound
	}
	conv, _ := st.Conversation(id)

	s.emit(ctx, model.ChatEvent{
		Type:           model.EventConversationRenamed,
		UserID:         userID,
		CourseID:       conv.CourseID,
		ConversationID: id,
		Metadata:       map[string]string{"title": title},
	})
	return conv, nil
}

// DeleteConversation deletes a conversation of the current course.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, id string) error {
	st := s.store(userID)
	courseID := st.Snapshot().CourseID
	if !st.DeleteConversation(id) {
		return ErrConversationNotFound
	}

	s.emit(ctx, model.ChatEvent{
		Type:           model.EventConversationDeleted,
		UserID:         userID,
		CourseID:       courseID,
		ConversationID: id,
	})
	return nil
}

// SelectConversation changes the current conversation. An empty id clears it.
func (s *ChatService) SelectConversation(userID, id string) model.ChatState {
	st := s.store(userID)
	st.SetCurrentConversation(id)
	return st.Snapshot()
}

// SetTagFilter replaces the active tag filter.
func (s *ChatService) SetTagFilter(userID string, tags []model.Tag) (model.ChatState, error) {
	st := s.store(userID)
	if !st.SetTagFilter(tags) {
		return model.ChatState{}, fmt.Errorf("%w: %v", ErrInvalidTag, tags)
	}
	return st.Snapshot(), nil
}

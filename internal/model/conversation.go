// Package model defines data structures for the course chat service.
package model

import (
	"time"
)

// DefaultConversationTitle is used when a conversation is created without a title.
const DefaultConversationTitle = "New Chat"

// Conversation is a named, ordered sequence of messages scoped to one course.
type Conversation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CourseID    string    `json:"course_id"`
	LastMessage time.Time `json:"last_message"`
	Messages    []Message `json:"messages"`
}

// Clone returns a deep copy safe to hand out of the store.
func (c Conversation) Clone() Conversation {
	out := c
	if c.Messages != nil {
		out.Messages = make([]Message, len(c.Messages))
		for i, m := range c.Messages {
			out.Messages[i] = m.Clone()
		}
	}
	return out
}

// ConversationSummary is the list view of a conversation without its messages.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CourseID     string    `json:"course_id"`
	LastMessage  time.Time `json:"last_message"`
	MessageCount int       `json:"message_count"`
}

// Summary builds the list view of c.
func (c Conversation) Summary() ConversationSummary {
	return ConversationSummary{
		ID:           c.ID,
		Title:        c.Title,
		CourseID:     c.CourseID,
		LastMessage:  c.LastMessage,
		MessageCount: len(c.Messages),
	}
}

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
}

// RenameConversationRequest is the request to rename a conversation.
type RenameConversationRequest struct {
	Title string `json:"title"`
}

// CreateConversationResponse is returned after a conversation is created.
type CreateConversationResponse struct {
	ID string `json:"id"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	CourseID      string                `json:"course_id"`
	Conversations []ConversationSummary `json:"conversations"`
	Total         int                   `json:"total"`
}

// SelectCourseRequest selects the course the chat view is showing.
type SelectCourseRequest struct {
	CourseID string `json:"course_id"`
}

// SelectConversationRequest selects a conversation. An empty id clears the selection.
type SelectConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

// TagFilterRequest replaces the active tag filter.
type TagFilterRequest struct {
	Tags []Tag `json:"tags"`
}

// ChatState is the selection state of a chat session.
type ChatState struct {
	CourseID       string `json:"course_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	IsStreaming    bool   `json:"is_streaming"`
	TagFilter      []Tag  `json:"tag_filter"`
}

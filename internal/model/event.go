package model

import (
	"time"
)

// EventType represents the type of chat change event.
type EventType string

const (
	EventConversationCreated EventType = "conversation.created"
	EventConversationRenamed EventType = "conversation.renamed"
	EventConversationDeleted EventType = "conversation.deleted"
	EventMessageAdded        EventType = "message.added"
	EventMessageUpdated      EventType = "message.updated"
	EventMessageDeleted      EventType = "message.deleted"
	EventAssistantFailed     EventType = "assistant.failed"
	EventCourseChanged       EventType = "course.changed"
	EventMaterialUploaded    EventType = "material.uploaded"
)

// ChatEvent is published after a state change is committed.
type ChatEvent struct {
	ID             string            `json:"id"`
	Type           EventType         `json:"type"`
	UserID         string            `json:"user_id,omitempty"`
	CourseID       string            `json:"course_id,omitempty"`
	ConversationID string            `json:"conversation_id,omitempty"`
	MessageID      string            `json:"message_id,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

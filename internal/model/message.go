package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the two message roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// AttachmentKind is the kind of payload attached to a message.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentPDF   AttachmentKind = "pdf"
	AttachmentCode  AttachmentKind = "code"
)

// Attachment is a payload reference attached to a message.
type Attachment struct {
	Kind AttachmentKind `json:"kind"`
	Name string         `json:"name,omitempty"`
	Ref  string         `json:"ref"`
}

// Message represents one turn in a conversation.
type Message struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	CreatedAt   time.Time    `json:"created_at"`
	Tags        []Tag        `json:"tags,omitempty"`
	Pinned      bool         `json:"pinned"`
	Attachments []Attachment `json:"attachments,omitempty"`

	// Version increments on every mutation after creation.
	Version uint64 `json:"version"`
}

// Clone returns a copy of m that shares no slices with it.
func (m Message) Clone() Message {
	out := m
	if m.Tags != nil {
		out.Tags = append([]Tag(nil), m.Tags...)
	}
	if m.Attachments != nil {
		out.Attachments = append([]Attachment(nil), m.Attachments...)
	}
	return out
}

// HasTag reports whether m carries tag.
func (m Message) HasTag(tag Tag) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether m carries at least one tag of set.
func (m Message) HasAnyTag(set []Tag) bool {
	for _, t := range set {
		if m.HasTag(t) {
			return true
		}
	}
	return false
}

// SendMessageRequest is the request to send a new user message.
type SendMessageRequest struct {
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// SendMessageResponse carries the committed user message and the assistant reply.
type SendMessageResponse struct {
	UserMessage      Message  `json:"user_message"`
	AssistantMessage *Message `json:"assistant_message,omitempty"`
}

// UpdateMessageRequest is a partial update of a message.
type UpdateMessageRequest struct {
	Content   *string `json:"content,omitempty"`
	Pinned    *bool   `json:"pinned,omitempty"`
	Tags      *[]Tag  `json:"tags,omitempty"`
	IfVersion *uint64 `json:"if_version,omitempty"`
}

// ListMessagesResponse is the response for listing messages of the current conversation.
type ListMessagesResponse struct {
	ConversationID string    `json:"conversation_id,omitempty"`
	Messages       []Message `json:"messages"`
	TagFilter      []Tag     `json:"tag_filter"`
	IsStreaming    bool      `json:"is_streaming"`
}

// ImproveRequest optionally overrides the text to improve.
type ImproveRequest struct {
	Content string `json:"content,omitempty"`
}

// TokenEvent represents a streaming token event.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// MessageCompleteEvent represents a message completion event.
type MessageCompleteEvent struct {
	Message Message `json:"message"`
}

// ErrorEvent represents an error event.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

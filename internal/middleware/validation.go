package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/capitalize-ai/coursechat/internal/model"
)

const (
	maxContentBytes = 100000
	maxTitleBytes   = 256
	maxIDBytes      = 64
)

// ValidateMessageContent validates message content. A message may be empty
// only when it carries attachments.
func ValidateMessageContent(content string, attachments int) error {
	if strings.TrimSpace(content) == "" && attachments == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > maxContentBytes {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateID validates a course, conversation or message ID.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("id cannot be empty")
	}
	if len(id) > maxIDBytes {
		return errors.New("id exceeds maximum length")
	}
	return nil
}

// ValidateTitle validates a conversation title.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title cannot be empty")
	}
	if len(title) > maxTitleBytes {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}

// ValidateTags canonicalizes tag names, rejecting unknown tags.
func ValidateTags(in []model.Tag) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(in))
	for _, n := range in {
		t, err := model.ParseTag(string(n))
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

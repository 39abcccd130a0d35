package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/coursechat/internal/model"
)

type recordingConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (c *recordingConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

func TestEventSubject(t *testing.T) {
	assert.Equal(t, "coursechat.student-1.message.added", EventSubject("student-1", model.EventMessageAdded))
	assert.Equal(t, "coursechat._.course.changed", EventSubject("", model.EventCourseChanged))
}

func TestPublish(t *testing.T) {
	rc := &recordingConn{}
	p := &Publisher{conn: rc}

	event := model.ChatEvent{
		ID:             "e1",
		Type:           model.EventConversationCreated,
		UserID:         "student-1",
		CourseID:       "csci-1100",
		ConversationID: "c1",
		CreatedAt:      time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, rc.subjects, 1)
	assert.Equal(t, "coursechat.student-1.conversation.created", rc.subjects[0])

	var got model.ChatEvent
	require.NoError(t, json.Unmarshal(rc.payloads[0], &got))
	assert.Equal(t, event, got)
}

func TestPublishErrors(t *testing.T) {
	boom := errors.New("boom")
	p := &Publisher{conn: &recordingConn{err: boom}}
	assert.ErrorIs(t, p.Publish(context.Background(), model.ChatEvent{Type: model.EventMessageAdded}), boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, model.ChatEvent{}), context.Canceled)
}

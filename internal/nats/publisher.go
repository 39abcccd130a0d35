package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/capitalize-ai/coursechat/internal/model"
)

// SubjectPrefix is the prefix for all chat event subjects.
const SubjectPrefix = "coursechat"

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher publishes chat events as JSON.
type Publisher struct {
	conn conn
}

// NewPublisher creates a publisher on an open client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{conn: client.conn}
}

// EventSubject returns the subject for an event.
func EventSubject(userID string, eventType model.EventType) string {
	if userID == "" {
		userID = "_"
	}
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, userID, eventType)
}

// Publish sends event on its subject.
func (p *Publisher) Publish(ctx context.Context, event model.ChatEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(EventSubject(event.UserID, event.Type), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

package assistant

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/capitalize-ai/coursechat/internal/model"
)

const tracerName = "github.com/capitalize-ai/coursechat/internal/assistant"

// Delays are the artificial latencies of the mock assistant.
type Delays struct {
	Reply      time.Duration
	StreamWait time.Duration
	Token      time.Duration
	Regenerate time.Duration
	Improve    time.Duration
	Summarize  time.Duration
	StudyNotes time.Duration
	StepByStep time.Duration
}

// DefaultDelays returns latencies that feel like a real model.
func DefaultDelays() Delays {
	return Delays{
		Reply:      1500 * time.Millisecond,
		StreamWait: 800 * time.Millisecond,
		Token:      50 * time.Millisecond,
		Regenerate: 1200 * time.Millisecond,
		Improve:    1500 * time.Millisecond,
		Summarize:  2000 * time.Millisecond,
		StudyNotes: 2200 * time.Millisecond,
		StepByStep: 1800 * time.Millisecond,
	}
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithDelays overrides the artificial latencies.
func WithDelays(d Delays) MockOption {
	return func(m *Mock) { m.delays = d }
}

// WithTracerProvider records spans on tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) MockOption {
	return func(m *Mock) { m.tracer = tp.Tracer(tracerName) }
}

// WithFailureRate makes each call fail with probability rate.
func WithFailureRate(rate float64) MockOption {
	return func(m *Mock) { m.failureRate = rate }
}

// WithSeed makes response selection and failures deterministic.
func WithSeed(seed int64) MockOption {
	return func(m *Mock) { m.rng = rand.New(rand.NewSource(seed)) }
}

// WithResponses replaces the canned replies.
func WithResponses(responses ...string) MockOption {
	return func(m *Mock) {
		if len(responses) > 0 {
			m.responses = responses
		}
	}
}

// Mock is an in-process assistant that answers with canned replies after a delay.
type Mock struct {
	delays      Delays
	failureRate float64
	responses   []string
	tracer      trace.Tracer

	mu  sync.Mutex
	rng *rand.Rand
}

var _ Assistant = (*Mock)(nil)

// NewMock creates a mock assistant.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{
		delays:    DefaultDelays(),
		responses: cannedResponses,
		tracer:    otel.Tracer(tracerName),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SendMessage answers a user message.
func (m *Mock) SendMessage(ctx context.Context, courseID, text string) (model.Message, error) {
	ctx, span := m.start(ctx, "SendMessage", courseID)
	defer span.End()

	if err := m.wait(ctx, m.delays.Reply); err != nil {
		return model.Message{}, fail(span, err)
	}
	return reply(m.pick()), nil
}

// StreamMessage answers a user message one word at a time.
func (m *Mock) StreamMessage(ctx context.Context, courseID, text string, onToken TokenCallback) (model.Message, error) {
	ctx, span := m.start(ctx, "StreamMessage", courseID)
	defer span.End()

	if err := m.wait(ctx, m.delays.StreamWait); err != nil {
		return model.Message{}, fail(span, err)
	}

	response := m.pick()
	var content strings.Builder
	for i, word := range strings.Split(response, " ") {
		if err := sleep(ctx, m.delays.Token); err != nil {
			return model.Message{}, fail(span, err)
		}
		token := word + " "
		content.WriteString(token)
		if err := onToken(token, i); err != nil {
			return model.Message{}, fail(span, err)
		}
	}
	span.SetAttributes(attribute.Int("assistant.reply_length", content.Len()))
	return reply(strings.TrimSuffix(content.String(), " ")), nil
}

// RegenerateMessage produces a fresh answer.
func (m *Mock) RegenerateMessage(ctx context.Context, courseID, messageID string) (model.Message, error) {
	ctx, span := m.start(ctx, "RegenerateMessage", courseID)
	defer span.End()
	span.SetAttributes(attribute.String("message.id", messageID))

	if err := m.wait(ctx, m.delays.Regenerate); err != nil {
		return model.Message{}, fail(span, err)
	}
	return reply(m.pick()), nil
}

// ImproveMessage wraps the original answer in a more detailed explanation.
func (m *Mock) ImproveMessage(ctx context.Context, courseID, messageID, original string) (model.Message, error) {
	ctx, span := m.start(ctx, "ImproveMessage", courseID)
	defer span.End()
	span.SetAttributes(attribute.String("message.id", messageID))

	if err := m.wait(ctx, m.delays.Improve); err != nil {
		return model.Message{}, fail(span, err)
	}
	return reply(fmt.Sprintf(improveTemplate, original)), nil
}

// SummarizeChat condenses a conversation.
func (m *Mock) SummarizeChat(ctx context.Context, courseID string, messages []model.Message) (string, error) {
	ctx, span := m.start(ctx, "SummarizeChat", courseID)
	defer span.End()
	span.SetAttributes(attribute.Int("chat.message_count", len(messages)))

	if err := m.wait(ctx, m.delays.Summarize); err != nil {
		return "", fail(span, err)
	}
	return summaryText, nil
}

// ConvertToStudyNotes turns a conversation into study notes.
func (m *Mock) ConvertToStudyNotes(ctx context.Context, courseID string, messages []model.Message) (string, error) {
	ctx, span := m.start(ctx, "ConvertToStudyNotes", courseID)
	defer span.End()
	span.SetAttributes(attribute.Int("chat.message_count", len(messages)))

	if err := m.wait(ctx, m.delays.StudyNotes); err != nil {
		return "", fail(span, err)
	}
	return studyNotesText, nil
}

// ConvertToStepByStep rewrites an answer as numbered steps.
func (m *Mock) ConvertToStepByStep(ctx context.Context, courseID, text string) (string, error) {
	ctx, span := m.start(ctx, "ConvertToStepByStep", courseID)
	defer span.End()

	if err := m.wait(ctx, m.delays.StepByStep); err != nil {
		return "", fail(span, err)
	}
	return stepByStepText, nil
}

func (m *Mock) start(ctx context.Context, op, courseID string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "assistant."+op, trace.WithAttributes(
		attribute.String("course.id", courseID),
	))
}

// wait sleeps for d and then rolls for an injected failure.
func (m *Mock) wait(ctx context.Context, d time.Duration) error {
	if err := sleep(ctx, d); err != nil {
		return err
	}
	if m.failureRate > 0 && m.float() < m.failureRate {
		return ErrUnavailable
	}
	return nil
}

func (m *Mock) pick() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.responses[m.rng.Intn(len(m.responses))]
}

func (m *Mock) float() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func reply(content string) model.Message {
	return model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      model.RoleAssistant,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

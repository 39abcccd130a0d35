package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	m := instant(WithTracerProvider(tp))
	_, err := m.SendMessage(context.Background(), "csci-1100", "hi")
	require.NoError(t, err)

	failing := instant(WithTracerProvider(tp), WithFailureRate(1))
	_, err = failing.SummarizeChat(context.Background(), "math-1010", nil)
	require.ErrorIs(t, err, ErrUnavailable)

	spans := rec.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "assistant.SendMessage", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("course.id", "csci-1100"))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "assistant.SummarizeChat", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

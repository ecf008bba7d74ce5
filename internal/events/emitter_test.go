package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventHandler records the events it handles and optionally fails.
type MockEventHandler struct {
	HandledCount int
	LastEvent    *TaskRequestEvent
	HandlerError error
}

func (h *MockEventHandler) HandleEvent(ctx context.Context, event *TaskRequestEvent) error {
	h.HandledCount++
	h.LastEvent = event
	return h.HandlerError
}

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		event, err := NewTaskRequestEvent(EventTypeDeckGeneration, map[string]string{"topic": "biology"})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.NoError(t, err)
	})

	t.Run("emit event reaches every handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event, err := NewTaskRequestEvent(EventTypeDeckGeneration, map[string]string{"topic": "biology"})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.NoError(t, err)
		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Equal(t, event, handler1.LastEvent)
		assert.Equal(t, event, handler2.LastEvent)
	})

	t.Run("failing handler does not block the others", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		handlerErr := errors.New("handler error")
		failing := &MockEventHandler{HandlerError: handlerErr}
		ok := &MockEventHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(ok)

		event, err := NewTaskRequestEvent(EventTypeDeckGeneration, map[string]string{"topic": "biology"})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.ErrorIs(t, err, handlerErr)
		assert.Equal(t, 1, ok.HandledCount, "later handlers still receive the event")
	})
}

func TestTaskRequestEventPayloadRoundTrip(t *testing.T) {
	type payload struct {
		Topic string `json:"topic"`
		Count int    `json:"count"`
	}

	event, err := NewTaskRequestEvent(EventTypeDeckGeneration, payload{Topic: "astronomy", Count: 12})
	require.NoError(t, err)
	assert.NotEqual(t, event.ID.String(), "00000000-0000-0000-0000-000000000000")

	var decoded payload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, "astronomy", decoded.Topic)
	assert.Equal(t, 12, decoded.Count)
}

func TestNewTaskRequestEventRejectsUnmarshalablePayload(t *testing.T) {
	_, err := NewTaskRequestEvent(EventTypeDeckGeneration, func() {})
	assert.Error(t, err)
}

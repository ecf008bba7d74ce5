package task

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Beastie7/FlashLearn/internal/events"
)

func newHandlerUnderTest(queue TaskQueueWriter) *DeckGenerationEventHandler {
	return NewDeckGenerationEventHandler(
		&mockGenerator{},
		&mockDeckCreator{},
		queue,
		testLogger(),
	)
}

func TestHandleEventEnqueuesTask(t *testing.T) {
	q := NewTaskQueue(1, testLogger())
	h := newHandlerUnderTest(q)

	event, err := events.NewTaskRequestEvent(events.EventTypeDeckGeneration, map[string]interface{}{
		"user_id": uuid.New().String(),
		"topic":   "history",
		"count":   10,
	})
	require.NoError(t, err)

	require.NoError(t, h.HandleEvent(context.Background(), event))

	select {
	case queued := <-q.GetChannel():
		assert.Equal(t, TaskTypeDeckGeneration, queued.Type())
	default:
		t.Fatal("expected a task in the queue")
	}
}

func TestHandleEventIgnoresOtherEventTypes(t *testing.T) {
	q := NewTaskQueue(1, testLogger())
	h := newHandlerUnderTest(q)

	event, err := events.NewTaskRequestEvent("unrelated", map[string]string{})
	require.NoError(t, err)

	require.NoError(t, h.HandleEvent(context.Background(), event))
	assert.Empty(t, q.GetChannel())
}

func TestHandleEventRejectsBadPayload(t *testing.T) {
	q := NewTaskQueue(1, testLogger())
	h := newHandlerUnderTest(q)

	event, err := events.NewTaskRequestEvent(events.EventTypeDeckGeneration, map[string]string{
		"user_id": "not-a-uuid",
		"topic":   "history",
	})
	require.NoError(t, err)

	assert.Error(t, h.HandleEvent(context.Background(), event))
}

func TestHandleEventPropagatesQueueFull(t *testing.T) {
	q := NewTaskQueue(1, testLogger())
	require.NoError(t, q.Enqueue(newStubTask()))
	h := newHandlerUnderTest(q)

	event, err := events.NewTaskRequestEvent(events.EventTypeDeckGeneration, map[string]interface{}{
		"user_id": uuid.New().String(),
		"topic":   "history",
		"count":   5,
	})
	require.NoError(t, err)

	err = h.HandleEvent(context.Background(), event)
	assert.ErrorIs(t, err, ErrQueueFull)
}

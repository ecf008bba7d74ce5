package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Beastie7/FlashLearn/internal/events"
	"github.com/Beastie7/FlashLearn/internal/generation"
)

// DeckGenerationEventHandler implements the events.EventHandler interface.
// It turns deck generation request events into queued DeckGenerationTasks.
type DeckGenerationEventHandler struct {
	generator   generation.Generator
	deckCreator DeckCreator
	queue       TaskQueueWriter
	logger      *slog.Logger
}

// NewDeckGenerationEventHandler creates an event handler that builds deck
// generation tasks and enqueues them for the worker pool.
func NewDeckGenerationEventHandler(
	generator generation.Generator,
	deckCreator DeckCreator,
	queue TaskQueueWriter,
	logger *slog.Logger,
) *DeckGenerationEventHandler {
	return &DeckGenerationEventHandler{
		generator:   generator,
		deckCreator: deckCreator,
		queue:       queue,
		logger:      logger.With(slog.String("component", "deck_generation_event_handler")),
	}
}

// Ensure DeckGenerationEventHandler implements events.EventHandler
var _ events.EventHandler = (*DeckGenerationEventHandler)(nil)

// HandleEvent processes deck generation events by creating and enqueuing
// tasks. Events of other types are ignored so multiple handlers can share
// one emitter.
func (h *DeckGenerationEventHandler) HandleEvent(
	ctx context.Context,
	event *events.TaskRequestEvent,
) error {
	if event.Type != events.EventTypeDeckGeneration {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload struct {
		UserID string `json:"user_id"`
		Topic  string `json:"topic"`
		Count  int    `json:"count"`
	}
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		h.logger.Error("invalid user ID in event payload",
			"error", err,
			"event_id", event.ID)
		return fmt.Errorf("invalid user ID: %w", err)
	}

	t, err := NewDeckGenerationTask(
		userID,
		payload.Topic,
		payload.Count,
		h.generator,
		h.deckCreator,
		h.logger,
	)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.queue.Enqueue(t); err != nil {
		h.logger.Error("failed to enqueue task",
			"error", err,
			"task_id", t.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	h.logger.Info("deck generation task enqueued",
		"task_id", t.ID(),
		"event_id", event.ID,
		"topic", payload.Topic)
	return nil
}

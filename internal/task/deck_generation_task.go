package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Beastie7/FlashLearn/internal/domain"
	"github.com/Beastie7/FlashLearn/internal/generation"
)

// Common errors
var (
	ErrNilDeckCreator = errors.New("deck creator cannot be nil")
	ErrNilGenerator   = errors.New("generator cannot be nil")
	ErrNilLogger      = errors.New("logger cannot be nil")
	ErrEmptyUserID    = errors.New("user ID cannot be empty")
	ErrEmptyTopic     = errors.New("topic cannot be empty")
)

// DeckCreator defines the service operation the task needs to persist the
// generated deck. The service creates the deck, its cards, and the deck
// counters in a single transaction.
type DeckCreator interface {
	CreateGeneratedDeck(
		ctx context.Context,
		userID uuid.UUID,
		topic string,
		drafts []generation.CardDraft,
	) (*domain.Deck, error)
}

// deckGenerationPayload represents the serialized data stored in the task
type deckGenerationPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Topic  string    `json:"topic"`
	Count  int       `json:"count"`
}

// DeckGenerationTask implements the Task interface for generating a
// flashcard deck from a topic via the AI generator.
type DeckGenerationTask struct {
	id          uuid.UUID
	userID      uuid.UUID
	topic       string
	count       int
	generator   generation.Generator
	deckCreator DeckCreator
	logger      *slog.Logger
	status      TaskStatus
}

// NewDeckGenerationTask creates a new deck generation task
func NewDeckGenerationTask(
	userID uuid.UUID,
	topic string,
	count int,
	generator generation.Generator,
	deckCreator DeckCreator,
	logger *slog.Logger,
) (*DeckGenerationTask, error) {
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if deckCreator == nil {
		return nil, ErrNilDeckCreator
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	return &DeckGenerationTask{
		id:          uuid.New(),
		userID:      userID,
		topic:       topic,
		count:       count,
		generator:   generator,
		deckCreator: deckCreator,
		logger:      logger.With("task_type", TaskTypeDeckGeneration, "user_id", userID),
		status:      TaskStatusPending,
	}, nil
}

// Ensure DeckGenerationTask implements the Task interface
var _ Task = (*DeckGenerationTask)(nil)

// ID returns the task's unique identifier
func (t *DeckGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *DeckGenerationTask) Type() string {
	return TaskTypeDeckGeneration
}

// Payload returns the serialized task data
func (t *DeckGenerationTask) Payload() []byte {
	payload := deckGenerationPayload{
		UserID: t.userID,
		Topic:  t.topic,
		Count:  t.count,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		// Marshal of a plain struct cannot fail at runtime.
		t.logger.Error("failed to marshal task payload", "error", err)
		return nil
	}
	return data
}

// Status returns the current task status
func (t *DeckGenerationTask) Status() TaskStatus {
	return t.status
}

// Execute generates the cards and persists the deck. A permanent
// generation error fails the task; the caller decides whether to re-emit.
func (t *DeckGenerationTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.InfoContext(ctx, "starting deck generation",
		"task_id", t.id,
		"topic", t.topic,
		"card_count", t.count)

	drafts, err := t.generator.GenerateCards(ctx, t.topic, t.count)
	if err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("card generation failed: %w", err)
	}

	deck, err := t.deckCreator.CreateGeneratedDeck(ctx, t.userID, t.topic, drafts)
	if err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("failed to persist generated deck: %w", err)
	}

	t.status = TaskStatusCompleted
	t.logger.InfoContext(ctx, "deck generation completed",
		"task_id", t.id,
		"deck_id", deck.ID,
		"card_count", deck.CardCount)
	return nil
}

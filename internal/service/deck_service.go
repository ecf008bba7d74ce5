package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Beastie7/FlashLearn/internal/domain"
	"github.com/Beastie7/FlashLearn/internal/events"
	"github.com/Beastie7/FlashLearn/internal/generation"
	"github.com/Beastie7/FlashLearn/internal/store"
)

// CardInput is the front/back pair supplied when creating or replacing
// deck cards through the API.
type CardInput struct {
	Front string
	Back  string
}

// DeckService provides deck CRUD and AI generation requests. All
// operations verify ownership; a deck belonging to another user yields
// ErrNotOwned.
type DeckService interface {
	// CreateDeck creates a deck with its initial cards and refreshes the
	// owner's aggregate statistics, all in one transaction.
	CreateDeck(
		ctx context.Context,
		userID uuid.UUID,
		title, description string,
		cards []CardInput,
	) (*domain.Deck, []*domain.Flashcard, error)

	// GetDeck retrieves a deck with its full card list.
	GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, []*domain.Flashcard, error)

	// UpdateDeck changes a deck's title and description.
	UpdateDeck(
		ctx context.Context,
		userID, deckID uuid.UUID,
		title, description string,
	) (*domain.Deck, error)

	// DeleteDeck removes a deck and its cards, then refreshes the owner's
	// aggregate statistics.
	DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error

	// ListDecks returns summaries of the user's decks in creation order.
	ListDecks(ctx context.Context, userID uuid.UUID) ([]*domain.DeckSummary, error)

	// RequestGeneration emits a deck generation event for background
	// processing. Returns ErrGenerationUnavailable when no generator is
	// configured.
	RequestGeneration(ctx context.Context, userID uuid.UUID, topic string, count int) error

	// CreateGeneratedDeck persists a deck built from AI card drafts. It is
	// called by the background deck generation task.
	CreateGeneratedDeck(
		ctx context.Context,
		userID uuid.UUID,
		topic string,
		drafts []generation.CardDraft,
	) (*domain.Deck, error)
}

// DeckServiceImpl implements the DeckService interface
type DeckServiceImpl struct {
	deckStore     store.DeckStore
	progressStore store.ProgressStore
	emitter       events.EventEmitter
	db            *sql.DB
	logger        *slog.Logger

	// generationEnabled is false when the deployment has no Gemini key.
	generationEnabled bool
}

// NewDeckService creates a new DeckService. Pass a nil emitter or
// generationEnabled=false to disable the generate endpoint.
func NewDeckService(
	deckStore store.DeckStore,
	progressStore store.ProgressStore,
	emitter events.EventEmitter,
	db *sql.DB,
	generationEnabled bool,
	logger *slog.Logger,
) *DeckServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeckServiceImpl{
		deckStore:         deckStore,
		progressStore:     progressStore,
		emitter:           emitter,
		db:                db,
		generationEnabled: generationEnabled && emitter != nil,
		logger:            logger.With("component", "deck_service"),
	}
}

// Ensure DeckServiceImpl implements DeckService
var _ DeckService = (*DeckServiceImpl)(nil)

// CreateDeck creates a deck with its initial cards in one transaction.
func (s *DeckServiceImpl) CreateDeck(
	ctx context.Context,
	userID uuid.UUID,
	title, description string,
	cards []CardInput,
) (*domain.Deck, []*domain.Flashcard, error) {
	deck, err := domain.NewDeck(userID, title, description)
	if err != nil {
		return nil, nil, err
	}

	flashcards := make([]*domain.Flashcard, 0, len(cards))
	for _, input := range cards {
		card, err := domain.NewFlashcard(deck.ID, input.Front, input.Back)
		if err != nil {
			return nil, nil, err
		}
		flashcards = append(flashcards, card)
	}
	deck.CardCount = len(flashcards)

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txDecks := s.deckStore.WithTx(tx)
		if err := txDecks.Create(ctx, deck, flashcards); err != nil {
			return err
		}
		_, err := RecomputeProgress(ctx, txDecks, s.progressStore.WithTx(tx), userID, time.Now().UTC())
		return err
	})
	if err != nil {
		s.logger.Error("failed to create deck", "error", err, "user_id", userID)
		return nil, nil, NewServiceError("create_deck", "failed to create deck", err)
	}

	s.logger.Info("deck created",
		"deck_id", deck.ID,
		"user_id", userID,
		"card_count", len(flashcards))
	return deck, flashcards, nil
}

// GetDeck retrieves a deck with its cards, enforcing ownership.
func (s *DeckServiceImpl) GetDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (*domain.Deck, []*domain.Flashcard, error) {
	deck, cards, err := s.deckStore.GetByID(ctx, deckID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			return nil, nil, ErrDeckNotFound
		}
		s.logger.Error("failed to load deck", "error", err, "deck_id", deckID)
		return nil, nil, NewServiceError("get_deck", "failed to load deck", err)
	}

	if deck.UserID != userID {
		return nil, nil, ErrNotOwned
	}
	return deck, cards, nil
}

// UpdateDeck changes the deck's title and description.
func (s *DeckServiceImpl) UpdateDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
	title, description string,
) (*domain.Deck, error) {
	deck, _, err := s.GetDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}

	deck.Title = title
	deck.Description = description
	deck.UpdatedAt = time.Now().UTC()
	if err := deck.Validate(); err != nil {
		return nil, err
	}

	if err := s.deckStore.Update(ctx, deck); err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			return nil, ErrDeckNotFound
		}
		s.logger.Error("failed to update deck", "error", err, "deck_id", deckID)
		return nil, NewServiceError("update_deck", "failed to update deck", err)
	}

	return deck, nil
}

// DeleteDeck removes the deck and refreshes the owner's aggregates in one
// transaction.
func (s *DeckServiceImpl) DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error {
	if _, _, err := s.GetDeck(ctx, userID, deckID); err != nil {
		return err
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txDecks := s.deckStore.WithTx(tx)
		if err := txDecks.Delete(ctx, deckID); err != nil {
			return err
		}
		_, err := RecomputeProgress(ctx, txDecks, s.progressStore.WithTx(tx), userID, time.Now().UTC())
		return err
	})
	if err != nil {
		s.logger.Error("failed to delete deck", "error", err, "deck_id", deckID)
		return NewServiceError("delete_deck", "failed to delete deck", err)
	}

	s.logger.Info("deck deleted", "deck_id", deckID, "user_id", userID)
	return nil
}

// ListDecks returns summaries of the user's decks.
func (s *DeckServiceImpl) ListDecks(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.DeckSummary, error) {
	summaries, err := s.deckStore.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list decks", "error", err, "user_id", userID)
		return nil, NewServiceError("list_decks", "failed to list decks", err)
	}
	return summaries, nil
}

// RequestGeneration emits a deck generation event for the task layer.
func (s *DeckServiceImpl) RequestGeneration(
	ctx context.Context,
	userID uuid.UUID,
	topic string,
	count int,
) error {
	if !s.generationEnabled {
		return ErrGenerationUnavailable
	}

	payload := struct {
		UserID string `json:"user_id"`
		Topic  string `json:"topic"`
		Count  int    `json:"count"`
	}{
		UserID: userID.String(),
		Topic:  topic,
		Count:  count,
	}

	event, err := events.NewTaskRequestEvent(events.EventTypeDeckGeneration, payload)
	if err != nil {
		return NewServiceError("request_generation", "failed to create event", err)
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit deck generation event",
			"error", err,
			"user_id", userID,
			"event_id", event.ID)
		return NewServiceError("request_generation", "failed to emit event", err)
	}

	s.logger.Info("deck generation requested",
		"user_id", userID,
		"event_id", event.ID,
		"topic", topic)
	return nil
}

// CreateGeneratedDeck persists a deck built from AI drafts. The topic
// becomes the deck title.
func (s *DeckServiceImpl) CreateGeneratedDeck(
	ctx context.Context,
	userID uuid.UUID,
	topic string,
	drafts []generation.CardDraft,
) (*domain.Deck, error) {
	cards := make([]CardInput, 0, len(drafts))
	for _, draft := range drafts {
		cards = append(cards, CardInput{Front: draft.Front, Back: draft.Back})
	}

	deck, _, err := s.CreateDeck(ctx, userID, topic, "Generated deck", cards)
	if err != nil {
		return nil, err
	}
	return deck, nil
}

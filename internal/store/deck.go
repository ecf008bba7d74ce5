package store

import (
	"context"
	"database/sql"

	"github.com/Beastie7/FlashLearn/internal/domain"
	"github.com/google/uuid"
)

// DeckStore defines the interface for deck and card persistence. Decks
// carry the authoritative per-deck counters; card mutations and counter
// updates that must stay consistent are executed through WithTx inside
// RunInTransaction.
type DeckStore interface {
	// Create saves a new deck together with its initial cards.
	// Returns validation errors if the deck or any card is invalid.
	Create(ctx context.Context, deck *domain.Deck, cards []*domain.Flashcard) error

	// GetByID retrieves a deck with its full card list, cards in their
	// stored order. Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, []*domain.Flashcard, error)

	// Update modifies a deck's title and description.
	// Returns ErrDeckNotFound if the deck does not exist.
	Update(ctx context.Context, deck *domain.Deck) error

	// UpdateStats overwrites the deck's authoritative counters. Called by
	// the deck-update path whenever the card set or mastery flags change.
	// Returns ErrDeckNotFound if the deck does not exist.
	UpdateStats(ctx context.Context, id uuid.UUID, cardCount, masteredCount int) error

	// ReplaceCards overwrites the mastered flags of the given cards.
	// Used to persist a study-session snapshot. Cards not in the deck are
	// an ErrInvalidEntity.
	ReplaceCards(ctx context.Context, deckID uuid.UUID, cards []*domain.Flashcard) error

	// ListByUser returns summaries of all decks owned by the user, with
	// their authoritative counters. The order is stable (creation time).
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.DeckSummary, error)

	// Delete removes a deck and, through cascade, its cards.
	// Returns ErrDeckNotFound if the deck does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a DeckStore bound to the given transaction so
	// multiple operations commit or roll back together.
	WithTx(tx *sql.Tx) DeckStore
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Beastie7/FlashLearn/internal/domain"
	"github.com/Beastie7/FlashLearn/internal/platform/logger"
	"github.com/Beastie7/FlashLearn/internal/store"
)

// PostgresDeckStore implements the store.DeckStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeckStore creates a new PostgreSQL implementation of the
// DeckStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDeckStore(db store.DBTX, logger *slog.Logger) *PostgresDeckStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

// Ensure PostgresDeckStore implements store.DeckStore interface
var _ store.DeckStore = (*PostgresDeckStore)(nil)

// WithTx returns a new DeckStore instance bound to the given transaction.
func (s *PostgresDeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &PostgresDeckStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.DeckStore.Create
// It saves a new deck together with its initial cards.
// Returns validation errors from the domain types if data is invalid.
// Returns store.ErrInvalidEntity if the owner doesn't exist.
func (s *PostgresDeckStore) Create(
	ctx context.Context,
	deck *domain.Deck,
	cards []*domain.Flashcard,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		log.Warn("deck validation failed during create",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}
	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("card validation failed during deck create",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return err
		}
	}

	deckQuery := `
		INSERT INTO decks (id, user_id, title, description, card_count, mastered_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		deckQuery,
		deck.ID,
		deck.UserID,
		deck.Title,
		deck.Description,
		deck.CardCount,
		deck.MasteredCount,
		deck.CreatedAt,
		deck.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during deck creation",
				slog.String("error", err.Error()),
				slog.String("deck_id", deck.ID.String()),
				slog.String("user_id", deck.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, deck.UserID)
		}
		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return MapError(err)
	}

	cardQuery := `
		INSERT INTO flashcards (id, deck_id, front, back, mastered, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, card := range cards {
		_, err := s.db.ExecContext(
			ctx,
			cardQuery,
			card.ID,
			card.DeckID,
			card.Front,
			card.Back,
			card.Mastered,
			card.CreatedAt,
			card.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to create card",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()),
				slog.String("deck_id", deck.ID.String()))
			return MapError(err)
		}
	}

	log.Info("deck created successfully",
		slog.String("deck_id", deck.ID.String()),
		slog.String("user_id", deck.UserID.String()),
		slog.Int("card_count", len(cards)))
	return nil
}

// GetByID implements store.DeckStore.GetByID
// It retrieves a deck with its full card list, cards in stored order.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Deck, []*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving deck by ID", slog.String("deck_id", id.String()))

	deckQuery := `
		SELECT id, user_id, title, description, card_count, mastered_count, created_at, updated_at
		FROM decks
		WHERE id = $1
	`

	var deck domain.Deck
	err := s.db.QueryRowContext(ctx, deckQuery, id).Scan(
		&deck.ID,
		&deck.UserID,
		&deck.Title,
		&deck.Description,
		&deck.CardCount,
		&deck.MasteredCount,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("deck not found", slog.String("deck_id", id.String()))
			return nil, nil, store.ErrDeckNotFound
		}
		log.Error("failed to get deck by ID",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return nil, nil, MapError(err)
	}

	cards, err := s.listCards(ctx, id)
	if err != nil {
		log.Error("failed to list deck cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return nil, nil, MapError(err)
	}

	log.Debug("deck retrieved successfully",
		slog.String("deck_id", id.String()),
		slog.Int("card_count", len(cards)))
	return &deck, cards, nil
}

func (s *PostgresDeckStore) listCards(
	ctx context.Context,
	deckID uuid.UUID,
) ([]*domain.Flashcard, error) {
	query := `
		SELECT id, deck_id, front, back, mastered, created_at, updated_at
		FROM flashcards
		WHERE deck_id = $1
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, deckID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Error("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	var cards []*domain.Flashcard
	for rows.Next() {
		var card domain.Flashcard
		err := rows.Scan(
			&card.ID,
			&card.DeckID,
			&card.Front,
			&card.Back,
			&card.Mastered,
			&card.CreatedAt,
			&card.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		cards = append(cards, &card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if cards == nil {
		cards = []*domain.Flashcard{}
	}
	return cards, nil
}

// Update implements store.DeckStore.Update
// It modifies a deck's title and description.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) Update(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		log.Warn("deck validation failed during update",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}

	query := `
		UPDATE decks
		SET title = $1, description = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		deck.Title,
		deck.Description,
		deck.UpdatedAt,
		deck.ID,
	)
	if err != nil {
		log.Error("failed to update deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "deck"); err != nil {
		log.Debug("deck not found for update", slog.String("deck_id", deck.ID.String()))
		return store.ErrDeckNotFound
	}

	log.Info("deck updated successfully", slog.String("deck_id", deck.ID.String()))
	return nil
}

// UpdateStats implements store.DeckStore.UpdateStats
// It overwrites the deck's authoritative counters.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) UpdateStats(
	ctx context.Context,
	id uuid.UUID,
	cardCount, masteredCount int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("updating deck stats",
		slog.String("deck_id", id.String()),
		slog.Int("card_count", cardCount),
		slog.Int("mastered_count", masteredCount))

	if cardCount < 0 || masteredCount < 0 || masteredCount > cardCount {
		return domain.ErrDeckCountsInvalid
	}

	query := `
		UPDATE decks
		SET card_count = $1, mastered_count = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, cardCount, masteredCount, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update deck stats",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "deck"); err != nil {
		log.Debug("deck not found for stats update", slog.String("deck_id", id.String()))
		return store.ErrDeckNotFound
	}

	log.Info("deck stats updated successfully",
		slog.String("deck_id", id.String()),
		slog.Int("card_count", cardCount),
		slog.Int("mastered_count", masteredCount))
	return nil
}

// ReplaceCards implements store.DeckStore.ReplaceCards
// It overwrites the mastered flags of the given cards, which is how a
// study-session snapshot is persisted.
// Returns store.ErrInvalidEntity if a card does not belong to the deck.
func (s *PostgresDeckStore) ReplaceCards(
	ctx context.Context,
	deckID uuid.UUID,
	cards []*domain.Flashcard,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE flashcards
		SET mastered = $1, updated_at = $2
		WHERE id = $3 AND deck_id = $4
	`

	for _, card := range cards {
		result, err := s.db.ExecContext(
			ctx,
			query,
			card.Mastered,
			card.UpdatedAt,
			card.ID,
			deckID,
		)
		if err != nil {
			log.Error("failed to persist card snapshot",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()),
				slog.String("deck_id", deckID.String()))
			return MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			log.Warn("snapshot card does not belong to deck",
				slog.String("card_id", card.ID.String()),
				slog.String("deck_id", deckID.String()))
			return fmt.Errorf("%w: card %s not in deck %s",
				store.ErrInvalidEntity, card.ID, deckID)
		}
	}

	log.Info("card snapshot persisted",
		slog.String("deck_id", deckID.String()),
		slog.Int("card_count", len(cards)))
	return nil
}

// ListByUser implements store.DeckStore.ListByUser
// It returns summaries of all decks owned by the user in creation order.
// Returns an empty slice when the user has no decks.
func (s *PostgresDeckStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.DeckSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing decks by user", slog.String("user_id", userID.String()))

	query := `
		SELECT id, title, card_count, mastered_count
		FROM decks
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query decks by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Error("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	var summaries []*domain.DeckSummary
	for rows.Next() {
		var summary domain.DeckSummary
		err := rows.Scan(
			&summary.ID,
			&summary.Title,
			&summary.CardCount,
			&summary.MasteredCount,
		)
		if err != nil {
			log.Error("failed to scan deck summary row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if summaries == nil {
		summaries = []*domain.DeckSummary{}
	}

	log.Debug("found decks by user",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(summaries)))
	return summaries, nil
}

// Delete implements store.DeckStore.Delete
// It removes a deck; the flashcards follow through ON DELETE CASCADE.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM decks WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "deck"); err != nil {
		log.Debug("deck not found for delete", slog.String("deck_id", id.String()))
		return store.ErrDeckNotFound
	}

	log.Info("deck deleted successfully", slog.String("deck_id", id.String()))
	return nil
}

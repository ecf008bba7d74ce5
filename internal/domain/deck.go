package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Deck-specific validation errors
var (
	// ErrDeckIDEmpty is returned when a deck ID is empty or nil.
	ErrDeckIDEmpty = errors.New("deck ID cannot be empty")

	// ErrDeckUserIDEmpty is returned when a deck's user ID is empty or nil.
	ErrDeckUserIDEmpty = errors.New("deck user ID cannot be empty")

	// ErrDeckTitleEmpty is returned when a deck's title is empty.
	ErrDeckTitleEmpty = errors.New("deck title cannot be empty")

	// ErrDeckCountsInvalid is returned when deck counters are negative or
	// the mastered count exceeds the card count.
	ErrDeckCountsInvalid = errors.New("deck counters out of range")
)

// Deck is a titled collection of flashcards owned by a single user.
// CardCount and MasteredCount are the authoritative per-deck counters;
// aggregate user stats are always recomputed from these, never from raw
// card rows.
type Deck struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CardCount     int       `json:"card_count"`
	MasteredCount int       `json:"mastered_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DeckSummary is the listing projection of a deck: identity plus the
// authoritative counters. It is what the stats aggregator consumes.
type DeckSummary struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	CardCount     int       `json:"card_count"`
	MasteredCount int       `json:"mastered_count"`
}

// NewDeck creates a new Deck with the given owner, title, and description.
// It generates a new UUID for the deck ID and sets the creation/update
// timestamps. Returns an error if validation fails.
func NewDeck(userID uuid.UUID, title, description string) (*Deck, error) {
	now := time.Now().UTC()
	deck := &Deck{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
// Returns an error if any field fails validation.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if d.UserID == uuid.Nil {
		return ErrDeckUserIDEmpty
	}

	if strings.TrimSpace(d.Title) == "" {
		return ErrDeckTitleEmpty
	}

	if d.CardCount < 0 || d.MasteredCount < 0 || d.MasteredCount > d.CardCount {
		return ErrDeckCountsInvalid
	}

	return nil
}

// CountCards returns the card count and mastered count for the given card
// set. Used when refreshing deck counters after a session snapshot is
// persisted.
func CountCards(cards []*Flashcard) (total, mastered int) {
	for _, c := range cards {
		total++
		if c.Mastered {
			mastered++
		}
	}
	return total, mastered
}

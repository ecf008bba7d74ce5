package session

import (
	"github.com/Beastie7/FlashLearn/internal/domain"
)

// CardQueue is an ordered sequence of cards for one pass of a study
// session. It preserves insertion order: the primary queue keeps the deck's
// card order, and the review queue keeps the order in which cards were
// deferred.
type CardQueue struct {
	cards []*domain.Flashcard
}

// NewCardQueue creates a queue holding the given cards in order.
// The slice is copied; the caller's backing array is not shared.
func NewCardQueue(cards []*domain.Flashcard) *CardQueue {
	q := &CardQueue{cards: make([]*domain.Flashcard, len(cards))}
	copy(q.cards, cards)
	return q
}

// Len returns the number of cards in the queue.
func (q *CardQueue) Len() int {
	return len(q.cards)
}

// At returns the card at position i, or nil when i is out of range.
func (q *CardQueue) At(i int) *domain.Flashcard {
	if i < 0 || i >= len(q.cards) {
		return nil
	}
	return q.cards[i]
}

// Append adds a card to the end of the queue.
func (q *CardQueue) Append(card *domain.Flashcard) {
	q.cards = append(q.cards, card)
}

// Cards returns the queued cards in order. The returned slice is a copy.
func (q *CardQueue) Cards() []*domain.Flashcard {
	out := make([]*domain.Flashcard, len(q.cards))
	copy(out, q.cards)
	return out
}

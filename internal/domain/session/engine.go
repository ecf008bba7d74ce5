package session

import (
	"github.com/Beastie7/FlashLearn/internal/domain"
	"github.com/google/uuid"
)

// Phase identifies where a session is in its lifecycle. The only legal
// moves are PhasePrimary -> PhaseReview (when the primary pass is exhausted
// and cards were deferred), either phase -> PhaseComplete, and
// PhaseReview -> PhaseReview for repeated review passes.
type Phase string

const (
	// PhasePrimary is the first traversal over the deck's not-yet-mastered cards.
	PhasePrimary Phase = "primary"

	// PhaseReview is a traversal over cards deferred with MarkReview.
	PhaseReview Phase = "review"

	// PhaseComplete means the primary queue is exhausted and no cards are
	// waiting for review.
	PhaseComplete Phase = "complete"
)

// Engine drives a single study session over one deck's cards. It owns the
// active queue, the pending review queue, and the cursor, and enforces the
// pass-advance rule: finish the current pass, then replay deferred cards as
// a new pass, until no cards remain.
//
// The engine never performs I/O. Mastery changes are applied to private
// copies; Snapshot exposes the updated card list for the caller to persist.
type Engine struct {
	// original holds the card list passed to Start, untouched, so Restart
	// can discard in-session progress.
	original []*domain.Flashcard

	primary   *CardQueue
	review    *CardQueue
	completed []*domain.Flashcard
	cursor    int
	flipped   bool
	phase     Phase

	// onCardChanged fires whenever a different card becomes current
	// (including the first card on Start) and on completion with nil.
	// The reveal timer is driven off this transition.
	onCardChanged func(current *domain.Flashcard)
}

// NewEngine creates an engine with no active session. Start must be called
// before any other method.
func NewEngine() *Engine {
	return &Engine{}
}

// SetOnCardChanged registers the callback invoked when the current card
// changes. Pass-advance and Start invoke it with the new current card;
// completion invokes it with nil. Must be set before Start.
func (e *Engine) SetOnCardChanged(fn func(current *domain.Flashcard)) {
	e.onCardChanged = fn
}

// Start begins a session over the given cards. Cards already mastered are
// resolved into the completed set immediately; the rest form the primary
// queue in their given order. A deck with zero non-mastered cards yields an
// immediately complete session.
func (e *Engine) Start(cards []*domain.Flashcard) {
	e.original = make([]*domain.Flashcard, len(cards))
	copy(e.original, cards)

	pending := make([]*domain.Flashcard, 0, len(cards))
	e.completed = e.completed[:0]
	for _, c := range cards {
		// Work on copies so in-session mutations never leak into the
		// caller's cards before Snapshot is persisted.
		clone := *c
		if clone.Mastered {
			e.completed = append(e.completed, &clone)
		} else {
			pending = append(pending, &clone)
		}
	}

	e.primary = NewCardQueue(pending)
	e.review = NewCardQueue(nil)
	e.cursor = 0
	e.flipped = false

	if e.primary.Len() == 0 {
		e.phase = PhaseComplete
		e.notify(nil)
		return
	}

	e.phase = PhasePrimary
	e.notify(e.primary.At(e.cursor))
}

// Restart re-runs Start with the original card list, discarding all
// in-session progress. Each card keeps the mastered flag it had when the
// session began.
func (e *Engine) Restart() error {
	if e.original == nil {
		return ErrNotStarted
	}
	e.Start(e.original)
	return nil
}

// CurrentCard returns the card at the cursor of the primary queue.
// Returns ErrEmptyQueue when no card is active; callers must check
// IsComplete first.
func (e *Engine) CurrentCard() (*domain.Flashcard, error) {
	if e.primary == nil {
		return nil, ErrNotStarted
	}
	card := e.primary.At(e.cursor)
	if card == nil {
		return nil, ErrEmptyQueue
	}
	return card, nil
}

// IsFlipped reports whether the current card is showing its back.
func (e *Engine) IsFlipped() bool {
	return e.flipped
}

// Phase returns the session's current phase.
func (e *Engine) Phase() Phase {
	if e.primary == nil {
		return PhaseComplete
	}
	return e.phase
}

// Flip toggles the current card between front and back. The caller is
// responsible for cancelling any armed reveal timer; the service layer
// wires this through RevealTimer.Cancel.
func (e *Engine) Flip() error {
	if _, err := e.CurrentCard(); err != nil {
		return err
	}
	e.flipped = !e.flipped
	return nil
}

// MarkKnown resolves the current card as mastered, moves it into the
// completed set, and advances the pass. Returns ErrNoCurrentCard when the
// queue is empty.
func (e *Engine) MarkKnown() error {
	card, err := e.CurrentCard()
	if err != nil {
		return ErrNoCurrentCard
	}

	card.Mastered = true
	e.completed = append(e.completed, card)
	e.advance()
	return nil
}

// MarkReview defers the current card to the review queue, leaving its
// mastered flag unchanged, and advances the pass. A card may be deferred
// multiple times across passes; it is never dropped.
func (e *Engine) MarkReview() error {
	card, err := e.CurrentCard()
	if err != nil {
		return ErrNoCurrentCard
	}

	e.review.Append(card)
	e.advance()
	return nil
}

// IsComplete reports whether the primary queue is exhausted and no cards
// are waiting for review.
func (e *Engine) IsComplete() bool {
	return e.primary == nil || e.phase == PhaseComplete
}

// Snapshot returns the full deck's cards with updated mastered flags, in
// the deck's original order, for the caller to persist. Cards resolved
// during the session carry Mastered=true; cards still queued keep their
// pre-session flag.
func (e *Engine) Snapshot() []*domain.Flashcard {
	if e.original == nil {
		return []*domain.Flashcard{}
	}

	resolved := make(map[uuid.UUID]*domain.Flashcard, len(e.completed))
	for _, c := range e.completed {
		resolved[c.ID] = c
	}

	out := make([]*domain.Flashcard, 0, len(e.original))
	for _, orig := range e.original {
		if done, ok := resolved[orig.ID]; ok {
			out = append(out, done)
			continue
		}
		clone := *orig
		out = append(out, &clone)
	}
	return out
}

// advance applies the pass-advance rule after a card is resolved:
//  1. more cards in this pass: move the cursor forward;
//  2. deferred cards pending: promote the review queue to a new pass;
//  3. otherwise the session is complete.
func (e *Engine) advance() {
	e.flipped = false

	if e.cursor+1 < e.primary.Len() {
		e.cursor++
		e.notify(e.primary.At(e.cursor))
		return
	}

	if e.review.Len() > 0 {
		e.primary = e.review
		e.review = NewCardQueue(nil)
		e.cursor = 0
		e.phase = PhaseReview
		e.notify(e.primary.At(e.cursor))
		return
	}

	// Mark the queue exhausted so CurrentCard fails cleanly.
	e.cursor = e.primary.Len()
	e.phase = PhaseComplete
	e.notify(nil)
}

func (e *Engine) notify(card *domain.Flashcard) {
	if e.onCardChanged != nil {
		e.onCardChanged(card)
	}
}

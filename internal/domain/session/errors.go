package session

import "errors"

// Common errors returned by the session engine. These indicate caller
// errors, not transient failures: the UI must check IsComplete before
// requesting or resolving the current card.
var (
	// ErrEmptyQueue is returned by CurrentCard when the primary queue is
	// empty. Callers must check IsComplete first.
	ErrEmptyQueue = errors.New("primary queue is empty")

	// ErrNoCurrentCard is returned by MarkKnown and MarkReview when there
	// is no card to resolve.
	ErrNoCurrentCard = errors.New("no current card")

	// ErrNotStarted is returned when the engine is used before Start.
	ErrNotStarted = errors.New("session not started")
)

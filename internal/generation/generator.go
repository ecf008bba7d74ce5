package generation

import "context"

// CardDraft is a generated front/back pair before it becomes a persisted
// flashcard. The service layer attaches deck identity and timestamps.
type CardDraft struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Generator defines the interface for generating flashcards from a topic.
// It is the boundary between the application core and external AI/LLM
// services.
type Generator interface {
	// GenerateCards produces up to count card drafts covering the given
	// topic. Returns an error from errors.go when generation fails; the
	// caller decides whether to retry based on the error class.
	GenerateCards(ctx context.Context, topic string, count int) ([]CardDraft, error)
}

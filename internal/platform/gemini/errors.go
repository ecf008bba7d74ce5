package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptyTopic is returned when the generation topic is empty.
	ErrEmptyTopic = errors.New("topic cannot be empty")
)

// Package gemini provides an implementation of the generation.Generator
// interface that uses Google's Gemini API to generate flashcard decks
// from a topic.
//
// It is an infrastructure adapter: it translates between the application's
// card drafts and the Gemini API, handles prompt templating, parses the
// structured JSON responses, and classifies API failures into the
// generation package's error categories with retry and exponential
// backoff for transient errors.
package gemini

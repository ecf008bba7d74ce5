// Package session implements the study-session queue engine: the ordered
// card queues for a single study pass, the state machine that advances a
// session through primary and review passes to completion, and the
// single-shot reveal timer that auto-flips the current card.
//
// The engine is a pure in-memory state machine with no I/O. Callers own
// serialization: all mutating methods must be invoked from a single
// goroutine (or under an external lock), matching the cooperative,
// event-driven execution model of the study UI.
package session

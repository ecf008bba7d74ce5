// Package task provides the background work machinery: a buffered task
// queue, a worker pool consuming it, and the deck generation task that
// turns AI card drafts into persisted decks.
//
// Tasks enter the system through the events package. The API layer emits
// a TaskRequestEvent, the event handler here builds the concrete task and
// enqueues it, and the worker pool executes it off the request path.
package task

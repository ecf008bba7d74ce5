// Package events provides types and interfaces for decoupling services
// from background task creation.
//
// Services emit TaskRequestEvents without knowing which handlers consume
// them; the task package registers a handler that turns the events into
// queued work. This keeps the API layer free of a direct dependency on
// the worker machinery.
package events

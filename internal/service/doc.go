// Package service provides application-level services for managing users,
// decks, study sessions, and progress. Services own transactions and
// cross-entity consistency; the HTTP layer translates their sentinel
// errors into status codes.
package service

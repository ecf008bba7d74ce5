// Package store defines the persistence interfaces the application core
// depends on, together with the shared error vocabulary and transaction
// helpers. Concrete implementations live under internal/platform.
package store

package store

import "errors"

// Common store errors. Platform implementations map their driver errors
// onto these sentinels so services can branch with errors.Is without
// knowing the backend.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDeckNotFound is returned when a requested deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrUserNotFound is returned when a requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrProgressNotFound is returned when no progress record exists for a
	// user. Services treat this as "create lazily", not as a failure.
	ErrProgressNotFound = errors.New("user progress not found")

	// ErrDuplicate is returned when a unique constraint is violated, such
	// as registering an email twice.
	ErrDuplicate = errors.New("duplicate entity")

	// ErrEmailExists is returned when registering an email that is taken.
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidEntity is returned when an entity fails a database-level
	// constraint (foreign key, check, not-null).
	ErrInvalidEntity = errors.New("invalid entity")
)

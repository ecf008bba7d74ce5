package store

import (
	"context"
	"database/sql"

	"github.com/Beastie7/FlashLearn/internal/domain"
	"github.com/google/uuid"
)

// ProgressStore defines the interface for user progress persistence.
// There is at most one record per user.
type ProgressStore interface {
	// Get retrieves the progress record for a user.
	// Returns ErrProgressNotFound when none exists yet; the service layer
	// creates records lazily with zero counters.
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error)

	// Upsert writes the full progress record, inserting it when absent.
	// Returns validation errors from the domain UserProgress.
	Upsert(ctx context.Context, progress *domain.UserProgress) error

	// WithTx returns a ProgressStore bound to the given transaction.
	WithTx(tx *sql.Tx) ProgressStore
}

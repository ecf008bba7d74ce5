package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Beastie7/FlashLearn/internal/domain"
	"github.com/Beastie7/FlashLearn/internal/store"
)

// ProgressService provides the user's aggregate study statistics.
type ProgressService interface {
	// GetProgress returns the user's progress record, creating a zeroed
	// one lazily when none exists yet.
	GetProgress(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error)

	// Recompute rebuilds the aggregate card counters from the per-deck
	// counters and persists the result. Streak fields are preserved
	// untouched. Safe to run any number of times; recomputing twice in a
	// row yields the same record.
	Recompute(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error)
}

// ProgressServiceImpl implements the ProgressService interface
type ProgressServiceImpl struct {
	deckStore     store.DeckStore
	progressStore store.ProgressStore
	db            *sql.DB
	logger        *slog.Logger

	// timeFunc returns the current time; tests override it.
	timeFunc func() time.Time
}

// NewProgressService creates a new ProgressService
func NewProgressService(
	deckStore store.DeckStore,
	progressStore store.ProgressStore,
	db *sql.DB,
	logger *slog.Logger,
) *ProgressServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressServiceImpl{
		deckStore:     deckStore,
		progressStore: progressStore,
		db:            db,
		logger:        logger.With("component", "progress_service"),
		timeFunc:      time.Now,
	}
}

// Ensure ProgressServiceImpl implements ProgressService
var _ ProgressService = (*ProgressServiceImpl)(nil)

// GetProgress returns the user's progress record, creating a zeroed one
// lazily when none exists.
func (s *ProgressServiceImpl) GetProgress(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.UserProgress, error) {
	progress, err := s.progressStore.Get(ctx, userID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, store.ErrProgressNotFound) {
		s.logger.Error("failed to load user progress", "error", err, "user_id", userID)
		return nil, NewServiceError("get_progress", "failed to load progress", err)
	}

	fresh, err := domain.NewUserProgress(userID)
	if err != nil {
		return nil, NewServiceError("get_progress", "failed to create progress record", err)
	}
	if err := s.progressStore.Upsert(ctx, fresh); err != nil {
		s.logger.Error("failed to persist lazy progress record",
			"error", err, "user_id", userID)
		return nil, NewServiceError("get_progress", "failed to persist progress record", err)
	}

	s.logger.Info("created progress record lazily", "user_id", userID)
	return fresh, nil
}

// Recompute rebuilds the aggregate counters inside a transaction.
func (s *ProgressServiceImpl) Recompute(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.UserProgress, error) {
	var result *domain.UserProgress

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		recomputed, err := RecomputeProgress(
			ctx,
			s.deckStore.WithTx(tx),
			s.progressStore.WithTx(tx),
			userID,
			s.timeFunc().UTC(),
		)
		if err != nil {
			return err
		}
		result = recomputed
		return nil
	})
	if err != nil {
		s.logger.Error("failed to recompute progress", "error", err, "user_id", userID)
		return nil, NewServiceError("recompute_progress", "failed to recompute progress", err)
	}

	s.logger.Info("progress recomputed",
		"user_id", userID,
		"total_cards", result.TotalCards,
		"mastered_cards", result.MasteredCards)
	return result, nil
}

// RecomputeProgress sums every deck's authoritative counters into the
// user's progress record and persists it through the given stores. The
// stores may be transaction-bound; the study service calls this inside
// the session completion transaction. Streak fields and the last study
// date carry over unchanged, which is what makes the recompute
// idempotent.
func RecomputeProgress(
	ctx context.Context,
	deckStore store.DeckStore,
	progressStore store.ProgressStore,
	userID uuid.UUID,
	now time.Time,
) (*domain.UserProgress, error) {
	progress, err := progressStore.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrProgressNotFound) {
			return nil, err
		}
		progress, err = domain.NewUserProgress(userID)
		if err != nil {
			return nil, err
		}
	}

	summaries, err := deckStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	total, mastered := 0, 0
	for _, summary := range summaries {
		total += summary.CardCount
		mastered += summary.MasteredCount
	}

	progress.TotalCards = total
	progress.MasteredCards = mastered
	progress.UpdatedAt = now

	if err := progressStore.Upsert(ctx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

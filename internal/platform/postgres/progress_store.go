package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Beastie7/FlashLearn/internal/domain"
	"github.com/Beastie7/FlashLearn/internal/platform/logger"
	"github.com/Beastie7/FlashLearn/internal/store"
)

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the
// ProgressStore interface. If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// WithTx returns a new ProgressStore instance bound to the given transaction.
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{
		db:     tx,
		logger: s.logger,
	}
}

// Get implements store.ProgressStore.Get
// It retrieves the progress record for a user.
// Returns store.ErrProgressNotFound when no record exists yet.
func (s *PostgresProgressStore) Get(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.UserProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving user progress", slog.String("user_id", userID.String()))

	query := `
		SELECT user_id, total_cards, mastered_cards, current_streak, longest_streak,
		       last_study_date, created_at, updated_at
		FROM user_progress
		WHERE user_id = $1
	`

	var progress domain.UserProgress
	var lastStudyDate sql.NullTime

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&progress.UserID,
		&progress.TotalCards,
		&progress.MasteredCards,
		&progress.CurrentStreak,
		&progress.LongestStreak,
		&lastStudyDate,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user progress not found", slog.String("user_id", userID.String()))
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to get user progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	if lastStudyDate.Valid {
		t := lastStudyDate.Time
		progress.LastStudyDate = &t
	}

	log.Debug("user progress retrieved successfully",
		slog.String("user_id", userID.String()),
		slog.Int("current_streak", progress.CurrentStreak))
	return &progress, nil
}

// Upsert implements store.ProgressStore.Upsert
// It writes the full progress record, inserting it when absent. The write
// is idempotent: re-running it with the same record leaves the row
// unchanged.
// Returns validation errors from the domain UserProgress.
func (s *PostgresProgressStore) Upsert(
	ctx context.Context,
	progress *domain.UserProgress,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("progress validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()))
		return err
	}

	query := `
		INSERT INTO user_progress
			(user_id, total_cards, mastered_cards, current_streak, longest_streak,
			 last_study_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			total_cards = EXCLUDED.total_cards,
			mastered_cards = EXCLUDED.mastered_cards,
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_study_date = EXCLUDED.last_study_date,
			updated_at = EXCLUDED.updated_at
	`

	var lastStudyDate sql.NullTime
	if progress.LastStudyDate != nil {
		lastStudyDate = sql.NullTime{Time: *progress.LastStudyDate, Valid: true}
	}

	_, err := s.db.ExecContext(
		ctx,
		query,
		progress.UserID,
		progress.TotalCards,
		progress.MasteredCards,
		progress.CurrentStreak,
		progress.LongestStreak,
		lastStudyDate,
		progress.CreatedAt,
		progress.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during progress upsert",
				slog.String("error", err.Error()),
				slog.String("user_id", progress.UserID.String()))
			return MapError(err)
		}
		log.Error("failed to upsert user progress",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()))
		return MapError(err)
	}

	log.Info("user progress upserted successfully",
		slog.String("user_id", progress.UserID.String()),
		slog.Int("total_cards", progress.TotalCards),
		slog.Int("mastered_cards", progress.MasteredCards),
		slog.Int("current_streak", progress.CurrentStreak))
	return nil
}

package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for UserProgress
var (
	ErrEmptyProgressUserID = errors.New("user progress user ID cannot be empty")
	ErrInvalidCardTotals   = errors.New("mastered cards cannot exceed total cards")
	ErrInvalidStreak       = errors.New("current streak cannot exceed longest streak")
)

// UserProgress tracks a user's aggregate study statistics: total and
// mastered card counts summed over all decks, and the daily study streak.
// One record exists per user, created lazily with zero counters on first
// access.
type UserProgress struct {
	UserID        uuid.UUID  `json:"user_id"`
	TotalCards    int        `json:"total_cards"`
	MasteredCards int        `json:"mastered_cards"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	LastStudyDate *time.Time `json:"last_study_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewUserProgress creates a zeroed progress record for the given user.
func NewUserProgress(userID uuid.UUID) (*UserProgress, error) {
	now := time.Now().UTC()
	progress := &UserProgress{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := progress.Validate(); err != nil {
		return nil, err
	}

	return progress, nil
}

// Validate checks if the UserProgress has valid data.
// Returns an error if any field fails validation.
func (p *UserProgress) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyProgressUserID
	}

	if p.TotalCards < 0 || p.MasteredCards < 0 || p.MasteredCards > p.TotalCards {
		return ErrInvalidCardTotals
	}

	if p.CurrentStreak < 0 || p.LongestStreak < 0 || p.CurrentStreak > p.LongestStreak {
		return ErrInvalidStreak
	}

	return nil
}

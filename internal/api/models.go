package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/Beastie7/FlashLearn/internal/domain"
)

// Request/response payloads shared by the handlers.

// RegisterRequest is the payload for user registration.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest is the payload for user login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse is the successful response for authentication endpoints.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    string    `json:"expires_at,omitempty"`
}

// RefreshTokenRequest is the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse is the successful response for the token refresh
// endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// CardPayload is a front/back pair in deck create requests.
type CardPayload struct {
	Front string `json:"front" validate:"required"`
	Back  string `json:"back"  validate:"required"`
}

// CreateDeckRequest is the payload for deck creation.
type CreateDeckRequest struct {
	Title       string        `json:"title"       validate:"required,max=200"`
	Description string        `json:"description" validate:"max=2000"`
	Cards       []CardPayload `json:"cards"       validate:"dive"`
}

// UpdateDeckRequest is the payload for deck updates.
type UpdateDeckRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// GenerateDeckRequest is the payload for AI deck generation.
type GenerateDeckRequest struct {
	Topic string `json:"topic" validate:"required,max=500"`
	Count int    `json:"count" validate:"omitempty,gte=1,lte=50"`
}

// CardResponse is the API projection of a flashcard.
type CardResponse struct {
	ID       uuid.UUID `json:"id"`
	Front    string    `json:"front"`
	Back     string    `json:"back"`
	Mastered bool      `json:"mastered"`
}

// DeckResponse is the API projection of a deck with its cards.
type DeckResponse struct {
	ID            uuid.UUID      `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	CardCount     int            `json:"card_count"`
	MasteredCount int            `json:"mastered_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Cards         []CardResponse `json:"cards,omitempty"`
}

// DeckSummaryResponse is the API projection of a deck listing entry.
type DeckSummaryResponse struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	CardCount     int       `json:"card_count"`
	MasteredCount int       `json:"mastered_count"`
}

// ProgressResponse is the API projection of user progress.
type ProgressResponse struct {
	TotalCards    int        `json:"total_cards"`
	MasteredCards int        `json:"mastered_cards"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	LastStudyDate *time.Time `json:"last_study_date,omitempty"`
}

// newDeckResponse maps a deck and its cards into the response shape.
func newDeckResponse(deck *domain.Deck, cards []*domain.Flashcard) DeckResponse {
	resp := DeckResponse{
		ID:            deck.ID,
		Title:         deck.Title,
		Description:   deck.Description,
		CardCount:     deck.CardCount,
		MasteredCount: deck.MasteredCount,
		CreatedAt:     deck.CreatedAt,
		UpdatedAt:     deck.UpdatedAt,
	}
	for _, card := range cards {
		resp.Cards = append(resp.Cards, CardResponse{
			ID:       card.ID,
			Front:    card.Front,
			Back:     card.Back,
			Mastered: card.Mastered,
		})
	}
	return resp
}

// newProgressResponse maps a progress record into the response shape.
func newProgressResponse(progress *domain.UserProgress) ProgressResponse {
	return ProgressResponse{
		TotalCards:    progress.TotalCards,
		MasteredCards: progress.MasteredCards,
		CurrentStreak: progress.CurrentStreak,
		LongestStreak: progress.LongestStreak,
		LastStudyDate: progress.LastStudyDate,
	}
}

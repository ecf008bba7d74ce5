package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Beastie7/FlashLearn/internal/domain"
	"github.com/Beastie7/FlashLearn/internal/generation"
	"github.com/Beastie7/FlashLearn/internal/service"
	"github.com/Beastie7/FlashLearn/internal/service/auth"
)

// mockUserService returns canned results for the auth handler tests.
type mockUserService struct {
	user        *domain.User
	registerErr error
	authErr     error
	getErr      error
}

func (m *mockUserService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return m.user, nil
}

func (m *mockUserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	if m.authErr != nil {
		return nil, m.authErr
	}
	return m.user, nil
}

func (m *mockUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

// mockJWTService signs nothing; it hands back fixed token strings.
type mockJWTService struct {
	token        string
	refreshToken string
	claims       *auth.Claims
	err          error
	validateErr  error
}

func (m *mockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return m.token, m.err
}

func (m *mockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.validateErr != nil {
		return nil, m.validateErr
	}
	return m.claims, nil
}

func (m *mockJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return m.refreshToken, m.err
}

func (m *mockJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.validateErr != nil {
		return nil, m.validateErr
	}
	return m.claims, nil
}

// mockDeckService records calls and returns canned decks.
type mockDeckService struct {
	deck          *domain.Deck
	cards         []*domain.Flashcard
	summaries     []*domain.DeckSummary
	err           error
	generationErr error

	generatedTopic string
	generatedCount int
}

func (m *mockDeckService) CreateDeck(
	ctx context.Context,
	userID uuid.UUID,
	title, description string,
	cards []service.CardInput,
) (*domain.Deck, []*domain.Flashcard, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.deck, m.cards, nil
}

func (m *mockDeckService) GetDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (*domain.Deck, []*domain.Flashcard, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.deck, m.cards, nil
}

func (m *mockDeckService) UpdateDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
	title, description string,
) (*domain.Deck, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.deck, nil
}

func (m *mockDeckService) DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error {
	return m.err
}

func (m *mockDeckService) ListDecks(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.DeckSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summaries, nil
}

func (m *mockDeckService) RequestGeneration(
	ctx context.Context,
	userID uuid.UUID,
	topic string,
	count int,
) error {
	if m.generationErr != nil {
		return m.generationErr
	}
	m.generatedTopic = topic
	m.generatedCount = count
	return nil
}

func (m *mockDeckService) CreateGeneratedDeck(
	ctx context.Context,
	userID uuid.UUID,
	topic string,
	drafts []generation.CardDraft,
) (*domain.Deck, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.deck, nil
}

// mockStudyService returns a fixed state for every operation.
type mockStudyService struct {
	state    *service.SessionState
	progress *domain.UserProgress
	err      error
}

func (m *mockStudyService) Begin(ctx context.Context, userID, deckID uuid.UUID) (*service.SessionState, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockStudyService) Current(ctx context.Context, userID, sessionID uuid.UUID) (*service.SessionState, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockStudyService) Flip(ctx context.Context, userID, sessionID uuid.UUID) (*service.SessionState, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockStudyService) MarkKnown(ctx context.Context, userID, sessionID uuid.UUID) (*service.SessionState, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockStudyService) MarkReview(ctx context.Context, userID, sessionID uuid.UUID) (*service.SessionState, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockStudyService) Restart(ctx context.Context, userID, sessionID uuid.UUID) (*service.SessionState, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockStudyService) Complete(ctx context.Context, userID, sessionID uuid.UUID) (*domain.UserProgress, error) {
	if m.err != nil {
		return m.progress, m.err
	}
	return m.progress, nil
}

func (m *mockStudyService) EvictStale(olderThan time.Duration) int { return 0 }

// mockProgressService returns a fixed progress record.
type mockProgressService struct {
	progress *domain.UserProgress
	err      error
}

func (m *mockProgressService) GetProgress(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.progress, nil
}

func (m *mockProgressService) Recompute(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.progress, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Beastie7/FlashLearn/internal/domain"
	"github.com/Beastie7/FlashLearn/internal/domain/progress"
	"github.com/Beastie7/FlashLearn/internal/domain/session"
	"github.com/Beastie7/FlashLearn/internal/store"
)

// CardView is the API-facing projection of the current card. Back is
// populated only once the card has been flipped, so an unflipped card
// never leaks its answer in a response.
type CardView struct {
	ID    uuid.UUID `json:"id"`
	Front string    `json:"front"`
	Back  string    `json:"back,omitempty"`
}

// SessionState is a read-only snapshot of a study session returned by
// every study operation.
type SessionState struct {
	SessionID uuid.UUID     `json:"session_id"`
	DeckID    uuid.UUID     `json:"deck_id"`
	Phase     session.Phase `json:"phase"`
	Card      *CardView     `json:"card,omitempty"`
	Flipped   bool          `json:"flipped"`
	Complete  bool          `json:"complete"`
}

// StudyService runs in-memory study sessions over a user's decks. A
// session holds a queue engine and a reveal timer; nothing touches the
// database until Complete persists the results in one transaction.
type StudyService interface {
	// Begin starts a session over the deck's cards and returns its initial
	// state. Already-mastered cards are skipped; a fully mastered deck
	// yields an immediately complete session.
	Begin(ctx context.Context, userID, deckID uuid.UUID) (*SessionState, error)

	// Current returns the session's current state without changing it.
	Current(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error)

	// Flip toggles the current card between front and back and cancels any
	// pending auto-reveal.
	Flip(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error)

	// MarkKnown resolves the current card as mastered and advances.
	MarkKnown(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error)

	// MarkReview defers the current card to the review pass and advances.
	MarkReview(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error)

	// Restart discards in-session progress and begins the deck again.
	Restart(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error)

	// Complete persists the session's mastery results, refreshes deck and
	// user aggregates, advances the study streak, and removes the session.
	// Returns ErrSessionNotComplete while cards are still queued, and
	// ErrStaleStudyRecord when the aggregates were saved but the streak
	// could not be advanced.
	Complete(ctx context.Context, userID, sessionID uuid.UUID) (*domain.UserProgress, error)

	// EvictStale removes sessions idle longer than olderThan and returns
	// how many were removed. Run periodically by the background scheduler.
	EvictStale(olderThan time.Duration) int
}

// studySession is one live session. Its mutex serializes API calls with
// the reveal timer's auto-flip callback.
type studySession struct {
	mu sync.Mutex

	userID uuid.UUID
	deckID uuid.UUID
	engine *session.Engine
	timer  *session.RevealTimer

	// armGen increments on every card change. The auto-flip callback
	// carries the generation it was armed with and runs only while it is
	// still current, so a fire dispatched just before the card advanced
	// cannot reveal the next card.
	armGen uint64

	lastActivity time.Time
}

// StudyServiceImpl implements the StudyService interface
type StudyServiceImpl struct {
	deckStore     store.DeckStore
	progressStore store.ProgressStore
	db            *sql.DB
	calculator    *progress.Calculator
	scheduler     session.Scheduler
	revealDelay   time.Duration
	logger        *slog.Logger

	// timeFunc returns the current time; tests override it.
	timeFunc func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*studySession
}

// NewStudyService creates a new StudyService. A zero revealDelay falls
// back to the engine's default; a nil scheduler uses the process clock.
func NewStudyService(
	deckStore store.DeckStore,
	progressStore store.ProgressStore,
	db *sql.DB,
	calculator *progress.Calculator,
	scheduler session.Scheduler,
	revealDelay time.Duration,
	logger *slog.Logger,
) *StudyServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	if scheduler == nil {
		scheduler = session.NewScheduler()
	}
	if calculator == nil {
		calculator = progress.NewCalculator(nil)
	}
	return &StudyServiceImpl{
		deckStore:     deckStore,
		progressStore: progressStore,
		db:            db,
		calculator:    calculator,
		scheduler:     scheduler,
		revealDelay:   revealDelay,
		logger:        logger.With("component", "study_service"),
		timeFunc:      time.Now,
		sessions:      make(map[uuid.UUID]*studySession),
	}
}

// Ensure StudyServiceImpl implements StudyService
var _ StudyService = (*StudyServiceImpl)(nil)

// Begin starts a session over the deck's cards.
func (s *StudyServiceImpl) Begin(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (*SessionState, error) {
	deck, cards, err := s.deckStore.GetByID(ctx, deckID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			return nil, ErrDeckNotFound
		}
		return nil, NewServiceError("begin_study", "failed to load deck", err)
	}
	if deck.UserID != userID {
		return nil, ErrNotOwned
	}

	sessionID := uuid.New()
	sess := &studySession{
		userID:       userID,
		deckID:       deckID,
		engine:       session.NewEngine(),
		timer:        session.NewRevealTimer(s.scheduler, s.revealDelay),
		lastActivity: s.timeFunc(),
	}
	s.wireRevealTimer(sess)

	sess.mu.Lock()
	sess.engine.Start(cards)
	state := s.stateLocked(sessionID, sess)
	sess.mu.Unlock()

	s.mu.Lock()
	s.sessions[sessionID] = sess
	s.mu.Unlock()

	s.logger.Info("study session started",
		"session_id", sessionID,
		"deck_id", deckID,
		"user_id", userID,
		"card_count", len(cards))
	return state, nil
}

// Current returns the session state without side effects. The reveal
// timer is left as it is.
func (s *StudyServiceImpl) Current(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*SessionState, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.stateLocked(sessionID, sess), nil
}

// Flip toggles the current card and cancels the pending auto-reveal.
func (s *StudyServiceImpl) Flip(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*SessionState, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.timer.Cancel()
	if err := sess.engine.Flip(); err != nil {
		return nil, mapEngineError(err)
	}
	sess.lastActivity = s.timeFunc()
	return s.stateLocked(sessionID, sess), nil
}

// MarkKnown resolves the current card as mastered and advances.
func (s *StudyServiceImpl) MarkKnown(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*SessionState, error) {
	return s.resolve(userID, sessionID, func(e *session.Engine) error {
		return e.MarkKnown()
	})
}

// MarkReview defers the current card and advances.
func (s *StudyServiceImpl) MarkReview(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*SessionState, error) {
	return s.resolve(userID, sessionID, func(e *session.Engine) error {
		return e.MarkReview()
	})
}

// Restart begins the deck again from the cards the session started with.
func (s *StudyServiceImpl) Restart(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*SessionState, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.timer.Cancel()
	if err := sess.engine.Restart(); err != nil {
		return nil, mapEngineError(err)
	}
	sess.lastActivity = s.timeFunc()
	return s.stateLocked(sessionID, sess), nil
}

// Complete persists the session results in one transaction: the updated
// mastery flags, the deck's counters, the user's recomputed aggregates,
// and the advanced streak. When the stored study record is ahead of now,
// the aggregates still commit and ErrStaleStudyRecord is returned so the
// client can surface the conflict.
func (s *StudyServiceImpl) Complete(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.UserProgress, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.engine.IsComplete() {
		return nil, ErrSessionNotComplete
	}

	snapshot := sess.engine.Snapshot()
	now := s.timeFunc()
	staleStreak := false
	var result *domain.UserProgress

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txDecks := s.deckStore.WithTx(tx)
		txProgress := s.progressStore.WithTx(tx)

		if err := txDecks.ReplaceCards(ctx, sess.deckID, snapshot); err != nil {
			return err
		}

		total, mastered := domain.CountCards(snapshot)
		if err := txDecks.UpdateStats(ctx, sess.deckID, total, mastered); err != nil {
			return err
		}

		prog, err := RecomputeProgress(ctx, txDecks, txProgress, userID, now)
		if err != nil {
			return err
		}

		next, err := s.calculator.NextProgress(*prog, now)
		if err != nil {
			if errors.Is(err, progress.ErrAmbiguousStreakInput) {
				// Keep the committed aggregates; only the streak is skipped.
				staleStreak = true
				result = prog
				return nil
			}
			return err
		}

		if err := txProgress.Upsert(ctx, &next); err != nil {
			return err
		}
		result = &next
		return nil
	})
	if err != nil {
		s.logger.Error("failed to complete study session",
			"error", err,
			"session_id", sessionID,
			"deck_id", sess.deckID)
		return nil, NewServiceError("complete_study", "failed to persist session results", err)
	}

	sess.timer.Cancel()
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	s.logger.Info("study session completed",
		"session_id", sessionID,
		"deck_id", sess.deckID,
		"user_id", userID,
		"stale_streak", staleStreak)

	if staleStreak {
		return result, ErrStaleStudyRecord
	}
	return result, nil
}

// EvictStale removes sessions whose last activity is older than
// olderThan. It never holds the registry lock and a session lock at the
// same time: Complete takes them in the opposite order, so nesting them
// here would deadlock.
func (s *StudyServiceImpl) EvictStale(olderThan time.Duration) int {
	cutoff := s.timeFunc().Add(-olderThan)

	s.mu.Lock()
	candidates := make(map[uuid.UUID]*studySession, len(s.sessions))
	for id, sess := range s.sessions {
		candidates[id] = sess
	}
	s.mu.Unlock()

	evicted := 0
	for id, sess := range candidates {
		sess.mu.Lock()
		idle := sess.lastActivity.Before(cutoff)
		sess.mu.Unlock()
		if !idle {
			continue
		}

		s.mu.Lock()
		_, present := s.sessions[id]
		delete(s.sessions, id)
		s.mu.Unlock()
		if !present {
			// Completed while we were checking it.
			continue
		}

		sess.timer.Cancel()
		s.logger.Info("evicted stale study session",
			"session_id", id,
			"deck_id", sess.deckID)
		evicted++
	}
	return evicted
}

// resolve runs a card-resolving engine operation under the session lock.
// The engine's card-change callback re-arms or cancels the reveal timer.
func (s *StudyServiceImpl) resolve(
	userID, sessionID uuid.UUID,
	op func(*session.Engine) error,
) (*SessionState, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := op(sess.engine); err != nil {
		return nil, mapEngineError(err)
	}
	sess.lastActivity = s.timeFunc()
	return s.stateLocked(sessionID, sess), nil
}

// wireRevealTimer connects the engine's card transitions to the reveal
// timer: every new card arms an auto-flip, completion cancels it. The
// auto-flip takes the session lock itself because the timer fires on a
// scheduler goroutine.
func (s *StudyServiceImpl) wireRevealTimer(sess *studySession) {
	sess.engine.SetOnCardChanged(func(current *domain.Flashcard) {
		sess.timer.Cancel()
		sess.armGen++
		if current == nil {
			return
		}
		gen := sess.armGen
		sess.timer.Arm(func() {
			s.autoFlip(sess, gen)
		})
	})
}

// autoFlip runs on the scheduler goroutine. The timer's cancellation
// cannot stop a callback it has already dispatched, so the arm
// generation is checked again under the session lock before flipping.
func (s *StudyServiceImpl) autoFlip(sess *studySession, gen uint64) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.armGen != gen || sess.engine.IsFlipped() || sess.engine.IsComplete() {
		return
	}
	if err := sess.engine.Flip(); err != nil {
		s.logger.Warn("auto reveal skipped", "error", err)
	}
}

// lookup finds the session and enforces ownership.
func (s *StudyServiceImpl) lookup(userID, sessionID uuid.UUID) (*studySession, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.userID != userID {
		return nil, ErrNotOwned
	}
	return sess, nil
}

// stateLocked builds the response snapshot. Callers hold sess.mu.
func (s *StudyServiceImpl) stateLocked(sessionID uuid.UUID, sess *studySession) *SessionState {
	state := &SessionState{
		SessionID: sessionID,
		DeckID:    sess.deckID,
		Phase:     sess.engine.Phase(),
		Flipped:   sess.engine.IsFlipped(),
		Complete:  sess.engine.IsComplete(),
	}

	if card, err := sess.engine.CurrentCard(); err == nil {
		view := &CardView{ID: card.ID, Front: card.Front}
		if state.Flipped {
			view.Back = card.Back
		}
		state.Card = view
	}
	return state
}

// mapEngineError translates engine sentinels into service sentinels.
func mapEngineError(err error) error {
	switch {
	case errors.Is(err, session.ErrNotStarted),
		errors.Is(err, session.ErrEmptyQueue),
		errors.Is(err, session.ErrNoCurrentCard):
		return ErrNoActiveCard
	default:
		return err
	}
}

package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Beastie7/FlashLearn/internal/domain"
	"github.com/Beastie7/FlashLearn/internal/domain/progress"
	"github.com/Beastie7/FlashLearn/internal/domain/session"
	"github.com/Beastie7/FlashLearn/internal/service"
)

// studyFixture bundles a study service with its fakes.
type studyFixture struct {
	svc      *service.StudyServiceImpl
	decks    *fakeDeckStore
	progress *fakeProgressStore
	sched    *fakeScheduler
	mock     sqlmock.Sqlmock
	userID   uuid.UUID
	deckID   uuid.UUID
}

// newStudyFixture seeds one deck with the given card fronts, none
// mastered.
func newStudyFixture(t *testing.T, fronts ...string) *studyFixture {
	t.Helper()

	db, mock := newMockDB(t)
	decks := newFakeDeckStore()
	progressStore := newFakeProgressStore()
	sched := newFakeScheduler()

	userID := uuid.New()
	deck, err := domain.NewDeck(userID, "fixture deck", "")
	require.NoError(t, err)

	cards := make([]*domain.Flashcard, 0, len(fronts))
	for _, front := range fronts {
		card, err := domain.NewFlashcard(deck.ID, front, "back of "+front)
		require.NoError(t, err)
		cards = append(cards, card)
	}
	deck.CardCount = len(cards)
	require.NoError(t, decks.Create(context.Background(), deck, cards))

	svc := service.NewStudyService(
		decks,
		progressStore,
		db,
		progress.NewCalculator(time.UTC),
		sched,
		session.DefaultRevealDelay,
		testLogger(),
	)

	return &studyFixture{
		svc:      svc,
		decks:    decks,
		progress: progressStore,
		sched:    sched,
		mock:     mock,
		userID:   userID,
		deckID:   deck.ID,
	}
}

func TestStudyService_Begin(t *testing.T) {
	t.Parallel()

	t.Run("presents the first card front side up", func(t *testing.T) {
		t.Parallel()
		fx := newStudyFixture(t, "alpha", "beta")

		state, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
		require.NoError(t, err)

		assert.Equal(t, fx.deckID, state.DeckID)
		assert.Equal(t, session.PhasePrimary, state.Phase)
		assert.False(t, state.Flipped)
		assert.False(t, state.Complete)
		require.NotNil(t, state.Card)
		assert.Equal(t, "alpha", state.Card.Front)
		assert.Empty(t, state.Card.Back)

		// The auto-reveal is armed for the first card.
		assert.Equal(t, 1, fx.sched.Pending())
	})

	t.Run("fully mastered deck is complete immediately", func(t *testing.T) {
		t.Parallel()
		fx := newStudyFixture(t)

		state, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
		require.NoError(t, err)
		assert.True(t, state.Complete)
		assert.Nil(t, state.Card)
		assert.Zero(t, fx.sched.Pending())
	})

	t.Run("rejects another user's deck", func(t *testing.T) {
		t.Parallel()
		fx := newStudyFixture(t, "alpha")

		_, err := fx.svc.Begin(context.Background(), uuid.New(), fx.deckID)
		assert.ErrorIs(t, err, service.ErrNotOwned)
	})

	t.Run("missing deck", func(t *testing.T) {
		t.Parallel()
		fx := newStudyFixture(t, "alpha")

		_, err := fx.svc.Begin(context.Background(), fx.userID, uuid.New())
		assert.ErrorIs(t, err, service.ErrDeckNotFound)
	})
}

func TestStudyService_Flip(t *testing.T) {
	t.Parallel()

	t.Run("reveals the back and cancels the auto reveal", func(t *testing.T) {
		t.Parallel()
		fx := newStudyFixture(t, "alpha")
		begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
		require.NoError(t, err)

		state, err := fx.svc.Flip(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)
		assert.True(t, state.Flipped)
		assert.Equal(t, "back of alpha", state.Card.Back)
		assert.Zero(t, fx.sched.Pending())

		// A fire after the cancel must not flip the card back.
		fx.sched.Fire()
		state, err = fx.svc.Current(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)
		assert.True(t, state.Flipped)
	})

	t.Run("second flip hides the back again", func(t *testing.T) {
		t.Parallel()
		fx := newStudyFixture(t, "alpha")
		begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
		require.NoError(t, err)

		_, err = fx.svc.Flip(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)
		state, err := fx.svc.Flip(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)
		assert.False(t, state.Flipped)
		assert.Empty(t, state.Card.Back)
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()
		fx := newStudyFixture(t, "alpha")

		_, err := fx.svc.Flip(context.Background(), fx.userID, uuid.New())
		assert.ErrorIs(t, err, service.ErrSessionNotFound)
	})
}

func TestStudyService_AutoReveal(t *testing.T) {
	t.Parallel()

	fx := newStudyFixture(t, "alpha")
	begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
	require.NoError(t, err)

	fx.sched.Fire()

	state, err := fx.svc.Current(context.Background(), fx.userID, begun.SessionID)
	require.NoError(t, err)
	assert.True(t, state.Flipped)
	assert.Equal(t, "back of alpha", state.Card.Back)
}

func TestStudyService_MarkKnown(t *testing.T) {
	t.Parallel()

	fx := newStudyFixture(t, "alpha", "beta")
	begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
	require.NoError(t, err)

	// Flip first so the advance can be seen to reset the flip state.
	_, err = fx.svc.Flip(context.Background(), fx.userID, begun.SessionID)
	require.NoError(t, err)

	state, err := fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "beta", state.Card.Front)
	assert.False(t, state.Flipped)
	assert.Equal(t, session.PhasePrimary, state.Phase)
	assert.Equal(t, 1, fx.sched.Pending())

	state, err = fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
	require.NoError(t, err)
	assert.True(t, state.Complete)
	assert.Nil(t, state.Card)
	assert.Zero(t, fx.sched.Pending())
}

func TestStudyService_MarkReview(t *testing.T) {
	t.Parallel()

	fx := newStudyFixture(t, "alpha", "beta")
	begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
	require.NoError(t, err)

	// Defer both cards; exhausting the primary pass promotes them into a
	// review pass in the order they were deferred.
	_, err = fx.svc.MarkReview(context.Background(), fx.userID, begun.SessionID)
	require.NoError(t, err)
	state, err := fx.svc.MarkReview(context.Background(), fx.userID, begun.SessionID)
	require.NoError(t, err)

	assert.Equal(t, session.PhaseReview, state.Phase)
	require.NotNil(t, state.Card)
	assert.Equal(t, "alpha", state.Card.Front)
	assert.False(t, state.Complete)

	// Resolving the review pass completes the session.
	_, err = fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
	require.NoError(t, err)
	state, err = fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
	require.NoError(t, err)
	assert.True(t, state.Complete)
}

func TestStudyService_Restart(t *testing.T) {
	t.Parallel()

	fx := newStudyFixture(t, "alpha", "beta")
	begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
	require.NoError(t, err)

	_, err = fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
	require.NoError(t, err)

	state, err := fx.svc.Restart(context.Background(), fx.userID, begun.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.PhasePrimary, state.Phase)
	assert.Equal(t, "alpha", state.Card.Front)
	assert.False(t, state.Flipped)
	assert.False(t, state.Complete)
}

func TestStudyService_CardOpsAfterCompletion(t *testing.T) {
	t.Parallel()

	fx := newStudyFixture(t, "alpha")
	begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
	require.NoError(t, err)

	_, err = fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
	require.NoError(t, err)

	_, err = fx.svc.Flip(context.Background(), fx.userID, begun.SessionID)
	assert.ErrorIs(t, err, service.ErrNoActiveCard)

	_, err = fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
	assert.ErrorIs(t, err, service.ErrNoActiveCard)
}

func TestStudyService_Complete(t *testing.T) {
	t.Parallel()

	t.Run("persists mastery, counters, and the streak", func(t *testing.T) {
		t.Parallel()
		fx := newStudyFixture(t, "alpha", "beta")
		expectCommit(fx.mock)

		begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
		require.NoError(t, err)
		_, err = fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)
		_, err = fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)

		result, err := fx.svc.Complete(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalCards)
		assert.Equal(t, 2, result.MasteredCards)
		assert.Equal(t, 1, result.CurrentStreak)
		assert.Equal(t, 1, result.LongestStreak)
		assert.NotNil(t, result.LastStudyDate)

		// Mastery flags and deck counters were written through.
		deck, cards, err := fx.decks.GetByID(context.Background(), fx.deckID)
		require.NoError(t, err)
		assert.Equal(t, 2, deck.MasteredCount)
		for _, card := range cards {
			assert.True(t, card.Mastered)
		}
		assert.Equal(t, 1, fx.decks.replaceCalls)

		// The session is gone once persisted.
		_, err = fx.svc.Current(context.Background(), fx.userID, begun.SessionID)
		assert.ErrorIs(t, err, service.ErrSessionNotFound)
		assert.NoError(t, fx.mock.ExpectationsWereMet())
	})

	t.Run("cards deferred through review passes still resolve", func(t *testing.T) {
		t.Parallel()
		fx := newStudyFixture(t, "alpha", "beta")
		expectCommit(fx.mock)

		begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
		require.NoError(t, err)
		_, err = fx.svc.MarkReview(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)
		_, err = fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)
		// Review pass: the deferred card comes back and is mastered too,
		// except we defer it once more and then master it.
		_, err = fx.svc.MarkReview(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)
		state, err := fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)
		require.True(t, state.Complete)

		result, err := fx.svc.Complete(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)
		assert.Equal(t, 2, result.MasteredCards)
	})

	t.Run("refuses while cards remain", func(t *testing.T) {
		t.Parallel()
		fx := newStudyFixture(t, "alpha", "beta")

		begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
		require.NoError(t, err)

		_, err = fx.svc.Complete(context.Background(), fx.userID, begun.SessionID)
		assert.ErrorIs(t, err, service.ErrSessionNotComplete)

		// The session survives the refusal.
		_, err = fx.svc.Current(context.Background(), fx.userID, begun.SessionID)
		assert.NoError(t, err)
	})

	t.Run("stale study record keeps aggregates and reports the conflict", func(t *testing.T) {
		t.Parallel()
		fx := newStudyFixture(t, "alpha")
		expectCommit(fx.mock)

		future := time.Now().UTC().Add(48 * time.Hour)
		existing, err := domain.NewUserProgress(fx.userID)
		require.NoError(t, err)
		existing.CurrentStreak = 5
		existing.LongestStreak = 5
		existing.LastStudyDate = &future
		require.NoError(t, fx.progress.Upsert(context.Background(), existing))

		begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
		require.NoError(t, err)
		_, err = fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)

		result, err := fx.svc.Complete(context.Background(), fx.userID, begun.SessionID)
		assert.ErrorIs(t, err, service.ErrStaleStudyRecord)
		require.NotNil(t, result)

		// Card totals committed; the streak stayed as it was.
		assert.Equal(t, 1, result.TotalCards)
		assert.Equal(t, 1, result.MasteredCards)
		assert.Equal(t, 5, result.CurrentStreak)

		stored, err := fx.progress.Get(context.Background(), fx.userID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.TotalCards)
		assert.Equal(t, 5, stored.CurrentStreak)
	})

	t.Run("second session on the same day does not extend the streak", func(t *testing.T) {
		t.Parallel()
		fx := newStudyFixture(t, "alpha")
		expectCommit(fx.mock)

		earlier := time.Now().UTC().Add(-time.Hour)
		existing, err := domain.NewUserProgress(fx.userID)
		require.NoError(t, err)
		existing.CurrentStreak = 3
		existing.LongestStreak = 6
		existing.LastStudyDate = &earlier
		require.NoError(t, fx.progress.Upsert(context.Background(), existing))

		begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
		require.NoError(t, err)
		_, err = fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)

		result, err := fx.svc.Complete(context.Background(), fx.userID, begun.SessionID)
		require.NoError(t, err)
		assert.Equal(t, 3, result.CurrentStreak)
		assert.Equal(t, 6, result.LongestStreak)
	})
}

func TestStudyService_EvictStale(t *testing.T) {
	t.Parallel()

	fx := newStudyFixture(t, "alpha")
	begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
	require.NoError(t, err)

	// Nothing is older than an hour yet.
	assert.Zero(t, fx.svc.EvictStale(time.Hour))

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, fx.svc.EvictStale(time.Millisecond))

	_, err = fx.svc.Current(context.Background(), fx.userID, begun.SessionID)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	// Evicting again finds nothing.
	assert.Zero(t, fx.svc.EvictStale(time.Millisecond))
}

func TestStudyService_EvictStaleDuringComplete(t *testing.T) {
	t.Parallel()

	fx := newStudyFixture(t, "alpha")
	expectCommit(fx.mock)

	begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
	require.NoError(t, err)
	_, err = fx.svc.MarkKnown(context.Background(), fx.userID, begun.SessionID)
	require.NoError(t, err)

	// Hold Complete open inside its transaction while an eviction sweep
	// runs over the same session.
	entered := make(chan struct{})
	release := make(chan struct{})
	fx.decks.replaceHook = func() {
		close(entered)
		<-release
	}

	completed := make(chan error, 1)
	go func() {
		_, err := fx.svc.Complete(context.Background(), fx.userID, begun.SessionID)
		completed <- err
	}()
	<-entered

	evicted := make(chan int, 1)
	go func() {
		evicted <- fx.svc.EvictStale(time.Nanosecond)
	}()

	// Let the sweep reach the session Complete is holding, then release
	// the store. Both calls must finish.
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case err := <-completed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Complete did not return while eviction was running")
	}
	select {
	case n := <-evicted:
		assert.Zero(t, n, "completed session must not count as evicted")
	case <-time.After(2 * time.Second):
		t.Fatal("EvictStale did not return while Complete was running")
	}

	_, err = fx.svc.Current(context.Background(), fx.userID, begun.SessionID)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestStudyService_SessionOwnership(t *testing.T) {
	t.Parallel()

	fx := newStudyFixture(t, "alpha")
	begun, err := fx.svc.Begin(context.Background(), fx.userID, fx.deckID)
	require.NoError(t, err)

	intruder := uuid.New()
	_, err = fx.svc.Current(context.Background(), intruder, begun.SessionID)
	assert.ErrorIs(t, err, service.ErrNotOwned)
	_, err = fx.svc.MarkKnown(context.Background(), intruder, begun.SessionID)
	assert.ErrorIs(t, err, service.ErrNotOwned)
	_, err = fx.svc.Complete(context.Background(), intruder, begun.SessionID)
	assert.ErrorIs(t, err, service.ErrNotOwned)
}

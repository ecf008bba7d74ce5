package service_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Beastie7/FlashLearn/internal/domain"
	"github.com/Beastie7/FlashLearn/internal/store"
)

// testLogger returns a logger that discards output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMockDB returns a sqlmock-backed database for exercising the real
// transaction wrapper. Callers declare the expected Begin/Commit or
// Begin/Rollback pairs with expectCommit/expectRollback.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func expectCommit(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

// fakeDeckStore is an in-memory DeckStore. WithTx returns the same
// store; the tests assert transaction usage through sqlmock instead.
type fakeDeckStore struct {
	mu    sync.Mutex
	decks map[uuid.UUID]*domain.Deck
	cards map[uuid.UUID][]*domain.Flashcard

	createErr    error
	updateErr    error
	replaceErr   error
	statsErr     error
	listErr      error
	replaceCalls int

	// replaceHook, when set, runs at the start of ReplaceCards. Tests use
	// it to hold the call open while driving concurrent operations.
	replaceHook func()
}

func newFakeDeckStore() *fakeDeckStore {
	return &fakeDeckStore{
		decks: make(map[uuid.UUID]*domain.Deck),
		cards: make(map[uuid.UUID][]*domain.Flashcard),
	}
}

var _ store.DeckStore = (*fakeDeckStore)(nil)

func (f *fakeDeckStore) Create(
	ctx context.Context,
	deck *domain.Deck,
	cards []*domain.Flashcard,
) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	d := *deck
	f.decks[deck.ID] = &d
	stored := make([]*domain.Flashcard, 0, len(cards))
	for _, c := range cards {
		clone := *c
		stored = append(stored, &clone)
	}
	f.cards[deck.ID] = stored
	return nil
}

func (f *fakeDeckStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Deck, []*domain.Flashcard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	deck, ok := f.decks[id]
	if !ok {
		return nil, nil, store.ErrDeckNotFound
	}
	d := *deck
	cards := make([]*domain.Flashcard, 0, len(f.cards[id]))
	for _, c := range f.cards[id] {
		clone := *c
		cards = append(cards, &clone)
	}
	return &d, cards, nil
}

func (f *fakeDeckStore) Update(ctx context.Context, deck *domain.Deck) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.decks[deck.ID]; !ok {
		return store.ErrDeckNotFound
	}
	d := *deck
	f.decks[deck.ID] = &d
	return nil
}

func (f *fakeDeckStore) UpdateStats(
	ctx context.Context,
	id uuid.UUID,
	cardCount, masteredCount int,
) error {
	if f.statsErr != nil {
		return f.statsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	deck, ok := f.decks[id]
	if !ok {
		return store.ErrDeckNotFound
	}
	deck.CardCount = cardCount
	deck.MasteredCount = masteredCount
	return nil
}

func (f *fakeDeckStore) ReplaceCards(
	ctx context.Context,
	deckID uuid.UUID,
	cards []*domain.Flashcard,
) error {
	if f.replaceHook != nil {
		f.replaceHook()
	}
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.replaceCalls++
	stored := f.cards[deckID]
	for _, c := range cards {
		for _, existing := range stored {
			if existing.ID == c.ID {
				existing.Mastered = c.Mastered
			}
		}
	}
	return nil
}

func (f *fakeDeckStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.DeckSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*domain.DeckSummary
	for _, d := range f.decks {
		if d.UserID != userID {
			continue
		}
		out = append(out, &domain.DeckSummary{
			ID:            d.ID,
			Title:         d.Title,
			CardCount:     d.CardCount,
			MasteredCount: d.MasteredCount,
		})
	}
	return out, nil
}

func (f *fakeDeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.decks[id]; !ok {
		return store.ErrDeckNotFound
	}
	delete(f.decks, id)
	delete(f.cards, id)
	return nil
}

func (f *fakeDeckStore) WithTx(tx *sql.Tx) store.DeckStore { return f }

// fakeProgressStore is an in-memory ProgressStore.
type fakeProgressStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.UserProgress

	getErr    error
	upsertErr error
	upserts   int
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{records: make(map[uuid.UUID]*domain.UserProgress)}
}

var _ store.ProgressStore = (*fakeProgressStore)(nil)

func (f *fakeProgressStore) Get(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.UserProgress, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.records[userID]
	if !ok {
		return nil, store.ErrProgressNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakeProgressStore) Upsert(ctx context.Context, progress *domain.UserProgress) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if err := progress.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.upserts++
	clone := *progress
	f.records[progress.UserID] = &clone
	return nil
}

func (f *fakeProgressStore) WithTx(tx *sql.Tx) store.ProgressStore { return f }

// fakeUserStore is an in-memory UserStore that hashes passwords the same
// way the postgres store does, so Authenticate round-trips work.
type fakeUserStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]*domain.User

	createErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

var _ store.UserStore = (*fakeUserStore)(nil)

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byEmail[user.Email]; ok {
		return store.ErrEmailExists
	}
	if user.HashedPassword == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.MinCost)
		if err != nil {
			return err
		}
		user.HashedPassword = string(hash)
		user.Password = ""
	}

	clone := *user
	f.byID[user.ID] = &clone
	f.byEmail[user.Email] = &clone
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byEmail[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return f }

// fakeScheduler records scheduled callbacks and fires them on demand.
type fakeScheduler struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{fns: make(map[int]func())}
}

func (s *fakeScheduler) Schedule(delay time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

// Fire runs all pending callbacks, oldest first.
func (s *fakeScheduler) Fire() {
	s.mu.Lock()
	pending := make([]func(), 0, len(s.fns))
	for i := 0; i < s.next; i++ {
		if fn, ok := s.fns[i]; ok {
			pending = append(pending, fn)
			delete(s.fns, i)
		}
	}
	s.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// Pending reports how many callbacks are scheduled and not cancelled.
func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

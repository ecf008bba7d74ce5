package session

import (
	"testing"
	"time"

	"github.com/Beastie7/FlashLearn/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScheduler records scheduled callbacks and fires them only when the
// test says so, making timer/cancellation ordering deterministic.
type fakeScheduler struct {
	pending []*fakeTimer
}

type fakeTimer struct {
	delay     time.Duration
	fn        func()
	cancelled bool
}

func (s *fakeScheduler) Schedule(delay time.Duration, fn func()) func() {
	ft := &fakeTimer{delay: delay, fn: fn}
	s.pending = append(s.pending, ft)
	return func() { ft.cancelled = true }
}

// fireAll runs every pending callback that has not been cancelled,
// mimicking the clock reaching each deadline.
func (s *fakeScheduler) fireAll() {
	for _, ft := range s.pending {
		if !ft.cancelled {
			ft.fn()
		}
	}
	s.pending = nil
}

func TestRevealTimerFiresOnce(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{}
	timer := NewRevealTimer(sched, DefaultRevealDelay)

	fired := 0
	timer.Arm(func() { fired++ })

	require.True(t, timer.Armed())
	require.Len(t, sched.pending, 1)
	assert.Equal(t, DefaultRevealDelay, sched.pending[0].delay)

	sched.fireAll()
	assert.Equal(t, 1, fired)
	assert.False(t, timer.Armed(), "a fired timer must not stay armed")

	// Firing never re-arms.
	sched.fireAll()
	assert.Equal(t, 1, fired)
}

func TestCancelBeforeDeadlineSuppressesFlip(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{}
	timer := NewRevealTimer(sched, 5000*time.Millisecond)

	fired := 0
	timer.Arm(func() { fired++ })

	// Manual flip at t=1000ms cancels the pending auto-flip.
	timer.Cancel()
	assert.False(t, timer.Armed())

	sched.fireAll()
	assert.Equal(t, 0, fired, "no auto-flip may fire after a manual flip")
}

func TestCancelRacesDispatchedCallback(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{}
	timer := NewRevealTimer(sched, time.Second)

	fired := 0
	timer.Arm(func() { fired++ })

	// Simulate the scheduler having dispatched the callback but Cancel
	// winning the engine lock first: the fake cancel func only marks the
	// timer, so the callback still runs, and the generation check must
	// discard it.
	ft := sched.pending[0]
	timer.Cancel()
	ft.fn()

	assert.Equal(t, 0, fired)
}

func TestArmReplacesPreviousTimer(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{}
	timer := NewRevealTimer(sched, time.Second)

	var order []string
	timer.Arm(func() { order = append(order, "first") })
	timer.Arm(func() { order = append(order, "second") })

	sched.fireAll()
	assert.Equal(t, []string{"second"}, order)
	assert.Equal(t, 1, timer.ArmWhileArmedCount(),
		"replacing an armed timer without cancelling must be counted")
}

func TestCancelWithoutArmIsSafe(t *testing.T) {
	t.Parallel()

	timer := NewRevealTimer(&fakeScheduler{}, time.Second)
	timer.Cancel()
	assert.False(t, timer.Armed())
	assert.Equal(t, 0, timer.ArmWhileArmedCount())
}

func TestZeroDelayFallsBackToDefault(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{}
	timer := NewRevealTimer(sched, 0)
	timer.Arm(func() {})

	require.Len(t, sched.pending, 1)
	assert.Equal(t, DefaultRevealDelay, sched.pending[0].delay)
}

// TestEngineDrivenTimerNeverDoubleArms exercises the wiring the service
// layer uses: cancel and re-arm on every card-became-current transition,
// cancel on completion. Driven correctly, Arm never finds a stale timer.
func TestEngineDrivenTimerNeverDoubleArms(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{}
	timer := NewRevealTimer(sched, time.Second)

	e := NewEngine()
	e.SetOnCardChanged(func(card *domain.Flashcard) {
		timer.Cancel()
		if card != nil {
			timer.Arm(func() { _ = e.Flip() })
		}
	})

	e.Start(testCards(t, 3))
	require.NoError(t, e.MarkReview())
	require.NoError(t, e.MarkKnown())
	require.NoError(t, e.MarkKnown())
	require.NoError(t, e.MarkKnown())

	assert.True(t, e.IsComplete())
	assert.False(t, timer.Armed(), "completion must leave no armed timer")
	assert.Equal(t, 0, timer.ArmWhileArmedCount())
}

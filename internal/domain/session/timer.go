package session

import (
	"sync"
	"time"
)

// DefaultRevealDelay is how long a card stays on its front before the
// reveal timer auto-flips it.
const DefaultRevealDelay = 5 * time.Second

// Scheduler schedules a function to run once after a delay. The returned
// cancel function stops the callback from running if it has not fired yet.
// Tests inject a fake scheduler so timer behavior is verified without a
// real clock.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) (cancel func())
}

// realScheduler runs callbacks on the process clock via time.AfterFunc.
type realScheduler struct{}

// NewScheduler returns the production Scheduler backed by time.AfterFunc.
func NewScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) Schedule(delay time.Duration, fn func()) func() {
	t := time.AfterFunc(delay, fn)
	return func() { t.Stop() }
}

// RevealTimer arms a single-shot auto-flip for the current card. At most
// one timer is armed at a time: arming cancels any previous arm, and the
// callback never re-arms itself. Once Cancel (or a newer Arm) has run, a
// scheduled callback that has not yet reached its generation check will
// not invoke onFire.
type RevealTimer struct {
	sched Scheduler
	delay time.Duration

	mu         sync.Mutex
	generation uint64
	cancel     func()
	armed      bool

	// armWhileArmed counts Arm calls that found a timer already armed.
	// The engine always cancels on card change, so under correct driving
	// this stays zero; tests assert on it.
	armWhileArmed int
}

// NewRevealTimer creates a reveal timer using the given scheduler and
// delay. A zero or negative delay falls back to DefaultRevealDelay.
func NewRevealTimer(sched Scheduler, delay time.Duration) *RevealTimer {
	if delay <= 0 {
		delay = DefaultRevealDelay
	}
	return &RevealTimer{
		sched: sched,
		delay: delay,
	}
}

// Arm schedules onFire to run once after the configured delay. Any
// previously armed timer is cancelled first.
func (t *RevealTimer) Arm(onFire func()) {
	t.mu.Lock()
	if t.armed {
		t.armWhileArmed++
		t.cancelLocked()
	}

	t.generation++
	gen := t.generation
	t.armed = true
	t.cancel = t.sched.Schedule(t.delay, func() {
		t.fire(gen, onFire)
	})
	t.mu.Unlock()
}

// Cancel stops the armed timer, if any. Safe to call when nothing is
// armed. A callback the scheduler has not dispatched yet will not invoke
// onFire; a callback that already passed the generation check may still
// be running, so onFire must tolerate state that moved on after Cancel.
func (t *RevealTimer) Cancel() {
	t.mu.Lock()
	t.cancelLocked()
	t.mu.Unlock()
}

// Armed reports whether a timer is currently armed.
func (t *RevealTimer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// ArmWhileArmedCount returns how many times Arm found a timer already
// armed. Non-zero means a caller skipped a cancellation.
func (t *RevealTimer) ArmWhileArmedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armWhileArmed
}

func (t *RevealTimer) cancelLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.armed = false
	t.generation++
}

// fire runs the scheduled callback if this arm is still current. The
// generation check closes the race where the scheduler dispatched the
// callback just before Cancel ran.
func (t *RevealTimer) fire(gen uint64, onFire func()) {
	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		return
	}
	t.armed = false
	t.cancel = nil
	t.mu.Unlock()

	onFire()
}

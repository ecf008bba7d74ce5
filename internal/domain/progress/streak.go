package progress

import (
	"errors"
	"time"

	"github.com/Beastie7/FlashLearn/internal/domain"
)

// ErrAmbiguousStreakInput is returned when the previous study date is
// later than the study instant being applied (clock skew or a backdated
// record from another device). The calculator refuses to guess; callers
// decide whether to ignore the session or reconcile the record.
var ErrAmbiguousStreakInput = errors.New("last study date is after the study instant")

// Calculator computes streak updates with day granularity in a fixed
// location. The location is the timezone policy: the default is the
// server's local calendar day, and a deployment that wants UTC boundaries
// passes time.UTC. Mixing locations across calls for the same user changes
// streak outcomes at day boundaries, so the calculator is constructed once
// and shared.
type Calculator struct {
	loc *time.Location
}

// NewCalculator creates a Calculator using the given location for calendar
// day boundaries. A nil location falls back to time.Local.
func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.Local
	}
	return &Calculator{loc: loc}
}

// NextProgress returns a copy of prev with streak counters advanced for a
// session completed at studyInstant. It is a pure function: prev is not
// modified, and the same inputs always produce the same output.
//
// Rules, with today = calendar_day(studyInstant):
//   - no previous study date: streak starts at 1;
//   - last study was today: unchanged (two sessions on one day count once);
//   - last study was yesterday: streak extends by 1;
//   - a gap of more than one day: streak resets to 1;
//   - last study is after today: ErrAmbiguousStreakInput.
//
// LongestStreak is raised to the new current streak when exceeded, so
// current <= longest always holds on success. Called once per completed
// session, not per card.
func (c *Calculator) NextProgress(
	prev domain.UserProgress,
	studyInstant time.Time,
) (domain.UserProgress, error) {
	next := prev
	today := DayOf(studyInstant, c.loc)

	switch {
	case prev.LastStudyDate == nil:
		next.CurrentStreak = 1
	default:
		last := DayOf(*prev.LastStudyDate, c.loc)
		switch gap := today.Sub(last); {
		case gap == 0:
			// Same day: streak unchanged.
		case gap == 1:
			next.CurrentStreak = prev.CurrentStreak + 1
		case gap > 1:
			next.CurrentStreak = 1
		default:
			return domain.UserProgress{}, ErrAmbiguousStreakInput
		}
	}

	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}

	studied := studyInstant
	next.LastStudyDate = &studied
	next.UpdatedAt = studyInstant.UTC()

	return next, nil
}

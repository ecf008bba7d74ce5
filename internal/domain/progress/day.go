package progress

import "time"

// CalendarDay is a date with day granularity in a fixed location. Two
// instants on the same wall-clock date map to the same CalendarDay, so
// streak comparisons are immune to time-of-day and DST offsets within the
// chosen location.
type CalendarDay struct {
	year  int
	month time.Month
	day   int
}

// DayOf truncates an instant to its calendar day in the given location.
// A nil location falls back to time.Local.
func DayOf(t time.Time, loc *time.Location) CalendarDay {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return CalendarDay{year: y, month: m, day: d}
}

// Sub returns the number of whole days from other to d. Positive means d
// is later; computing through time.Time keeps month and year boundaries
// correct.
func (d CalendarDay) Sub(other CalendarDay) int {
	a := time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
	b := time.Date(other.year, other.month, other.day, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b) / (24 * time.Hour))
}

// Equal reports whether two calendar days are the same date.
func (d CalendarDay) Equal(other CalendarDay) bool {
	return d == other
}

// String formats the day as YYYY-MM-DD.
func (d CalendarDay) String() string {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// Package progress implements the streak arithmetic applied after a
// completed study session. Streaks count consecutive calendar days with at
// least one completed session, so all comparisons go through an explicit
// CalendarDay value type with a declared timezone policy rather than ad-hoc
// date-string comparison.
package progress

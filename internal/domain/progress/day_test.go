package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayOfTruncatesToDate(t *testing.T) {
	t.Parallel()

	morning := time.Date(2024, 3, 15, 0, 0, 1, 0, time.UTC)
	night := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)

	assert.True(t, DayOf(morning, time.UTC).Equal(DayOf(night, time.UTC)))
	assert.Equal(t, "2024-03-15", DayOf(morning, time.UTC).String())
}

func TestDayOfRespectsLocation(t *testing.T) {
	t.Parallel()

	// 23:30 UTC on the 15th is already the 16th in UTC+1.
	instant := time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)
	plusOne := time.FixedZone("UTC+1", 60*60)

	assert.Equal(t, "2024-03-15", DayOf(instant, time.UTC).String())
	assert.Equal(t, "2024-03-16", DayOf(instant, plusOne).String())
}

func TestSubCrossesMonthAndYearBoundaries(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		a        time.Time
		b        time.Time
		expected int
	}{
		{
			name:     "same day",
			a:        time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
			b:        time.Date(2024, 1, 10, 22, 0, 0, 0, time.UTC),
			expected: 0,
		},
		{
			name:     "next day",
			a:        time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
			b:        time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC),
			expected: 1,
		},
		{
			name:     "leap february",
			a:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			b:        time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
			expected: 2,
		},
		{
			name:     "year boundary",
			a:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			b:        time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			expected: 1,
		},
		{
			name:     "negative when reversed",
			a:        time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			b:        time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
			expected: -4,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := DayOf(tc.a, time.UTC)
			b := DayOf(tc.b, time.UTC)
			assert.Equal(t, tc.expected, a.Sub(b))
		})
	}
}

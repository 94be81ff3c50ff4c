package workday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", Format(d))

	d, err = ParseDate("2024-01-15T23:30:00+07:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", Format(d))

	_, err = ParseDate("")
	assert.ErrorIs(t, err, ErrEmptyDate)

	_, err = ParseDate("15/01/2024")
	assert.Error(t, err)
}

func TestWorkingDaysBetween_SingleDay(t *testing.T) {
	assert.Equal(t, 1, WorkingDaysBetween(day(t, "2024-01-01"), day(t, "2024-01-01"))) // Monday
	assert.Equal(t, 0, WorkingDaysBetween(day(t, "2024-01-06"), day(t, "2024-01-06"))) // Saturday
	assert.Equal(t, 0, WorkingDaysBetween(day(t, "2024-01-07"), day(t, "2024-01-07"))) // Sunday
}

func TestWorkingDaysBetween_Ranges(t *testing.T) {
	assert.Equal(t, 5, WorkingDaysBetween(day(t, "2024-01-01"), day(t, "2024-01-07")))
	assert.Equal(t, 10, WorkingDaysBetween(day(t, "2024-01-01"), day(t, "2024-01-14")))
	assert.Equal(t, 0, WorkingDaysBetween(day(t, "2024-01-10"), day(t, "2024-01-01")))
}

func TestAddWorkingDays(t *testing.T) {
	fri := day(t, "2024-01-05")

	assert.Equal(t, fri, AddWorkingDays(fri, 0))
	assert.Equal(t, "2024-01-08", Format(AddWorkingDays(fri, 1)))
	assert.Equal(t, "2024-01-12", Format(AddWorkingDays(fri, 5)))
	assert.Equal(t, "2024-01-08", Format(AddWorkingDays(day(t, "2024-01-06"), 1)))
	assert.Equal(t, fri, AddWorkingDays(fri, -3))
}

func TestAddWorkingDays_StrictlyIncreasing(t *testing.T) {
	start := day(t, "2024-02-28")
	prev := AddWorkingDays(start, 0)
	for n := 1; n <= 40; n++ {
		next := AddWorkingDays(start, n)
		assert.True(t, next.After(prev), "n=%d", n)
		assert.True(t, IsWorkingDay(next))
		prev = next
	}
}

func TestPercentElapsed(t *testing.T) {
	start, end := day(t, "2024-01-01"), day(t, "2024-01-11")

	assert.Equal(t, 0, PercentElapsed(start, end, start))
	assert.Equal(t, 100, PercentElapsed(start, end, end))
	assert.Equal(t, 50, PercentElapsed(start, end, day(t, "2024-01-06")))
	assert.Equal(t, 0, PercentElapsed(start, end, day(t, "2023-12-01")))
	assert.Equal(t, 100, PercentElapsed(start, end, day(t, "2024-03-01")))
}

func TestPercentElapsed_RoundsHalfUp(t *testing.T) {
	start := day(t, "2024-01-01")
	tests := []struct {
		elapsed, total int
		want           int
	}{
		{1, 8, 13},    // 12.5
		{23, 40, 58},  // 57.5
		{29, 200, 15}, // 14.5
		{1, 3, 33},
		{2, 3, 67},
	}
	for _, tt := range tests {
		end := start.AddDate(0, 0, tt.total)
		asOf := start.AddDate(0, 0, tt.elapsed)
		assert.Equal(t, tt.want, PercentElapsed(start, end, asOf), "%d/%d", tt.elapsed, tt.total)
	}
}

func TestPercentElapsed_HalfwayTiesAcrossRanges(t *testing.T) {
	start := day(t, "2024-01-01")
	for d := 2; d <= 400; d += 2 {
		end := start.AddDate(0, 0, d)
		for n := 0; n <= d; n++ {
			if (200*n)%(2*d) != d {
				continue
			}
			// exact .5 value: must round up
			want := (100*n)/d + 1
			assert.Equal(t, want, PercentElapsed(start, end, start.AddDate(0, 0, n)), "%d/%d", n, d)
		}
	}
}

func TestPercentElapsed_DegenerateRange(t *testing.T) {
	d := day(t, "2024-01-05")
	assert.Equal(t, 100, PercentElapsed(d, d, d))
	assert.Equal(t, 100, PercentElapsed(d, day(t, "2024-01-01"), d))
}

func TestDaysUntil(t *testing.T) {
	today := day(t, "2024-01-10")
	assert.Equal(t, 0, DaysUntil(today, today))
	assert.Equal(t, 3, DaysUntil(today, day(t, "2024-01-13")))
	assert.Equal(t, -2, DaysUntil(today, day(t, "2024-01-08")))
}

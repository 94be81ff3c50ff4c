// Package workday holds the date-only arithmetic shared by the dashboards:
// working-day counting, working-day offsets and time-elapsed percentages.
// Every date is normalised to midnight UTC of its calendar day.
package workday

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const Layout = "2006-01-02"

var ErrEmptyDate = errors.New("empty date")

// ParseDate accepts "2006-01-02" or an RFC3339 timestamp; the time of day is dropped.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyDate
	}
	if d, err := time.Parse(Layout, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date(ts), nil
}

// Date truncates t to its calendar day, keeping the day as seen in t's location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Format(t time.Time) string {
	return Date(t).Format(Layout)
}

func IsWorkingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WorkingDaysBetween counts the weekdays in [start, end]. An inverted range is empty.
func WorkingDaysBetween(start, end time.Time) int {
	start, end = Date(start), Date(end)
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsWorkingDay(d) {
			count++
		}
	}
	return count
}

// AddWorkingDays returns the n-th weekday strictly after start. n <= 0 returns start.
func AddWorkingDays(start time.Time, n int) time.Time {
	d := Date(start)
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if IsWorkingDay(d) {
			added++
		}
	}
	return d
}

// DaysUntil is the number of whole days from one date to another, rounded up.
func DaysUntil(from, to time.Time) int {
	return int(math.Ceil(Date(to).Sub(Date(from)).Hours() / 24))
}

// PercentElapsed is how much of [start, end] has passed at asOf, in [0,100].
// A degenerate range counts as fully elapsed.
func PercentElapsed(start, end, asOf time.Time) int {
	start, end, asOf = Date(start), Date(end), Date(asOf)
	if !end.After(start) {
		return 100
	}
	d := days(start, end)
	n := min(max(days(start, asOf), 0), d)
	// round half up on integers
	return (200*n + d) / (2 * d)
}

// days is the whole number of days from a to b; both are midnight UTC.
func days(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

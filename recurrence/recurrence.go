// Package recurrence decides when a recurring template spawns child tasks and
// computes the template's next deadline.
package recurrence

import (
	"fmt"
	"slices"
	"time"

	"cicstask/model"
	"cicstask/workday"
)

// CalculateNextDeadline steps the template's last scheduled deadline forward by
// one recurrence. It reports false for custom patterns, which are scheduled by
// hand, and for templates whose pattern or deadline cannot be read.
//
// biweekly multiplies its 14-day step by the interval, and monthly uses plain
// calendar arithmetic, so Jan 31 + 1 month lands in early March.
func CalculateNextDeadline(t model.Task) (time.Time, bool) {
	last, err := workday.ParseDate(t.Deadline)
	if err != nil {
		return time.Time{}, false
	}
	n := t.RecurrenceInterval
	if n < 1 {
		n = 1
	}
	switch t.RecurrencePattern {
	case model.PatternDaily:
		return last.AddDate(0, 0, n), true
	case model.PatternWeekly:
		return last.AddDate(0, 0, 7*n), true
	case model.PatternBiweekly:
		return last.AddDate(0, 0, 14*n), true
	case model.PatternMonthly:
		return last.AddDate(0, n, 0), true
	case model.PatternCustom:
		return time.Time{}, false
	}
	return time.Time{}, false
}

// EndReached reports whether scheduling candidate would go past the template's
// end condition. Pending deadlines count towards an "after" limit because each
// of them becomes a child.
func EndReached(t model.Task, candidate time.Time) (bool, error) {
	switch t.RecurrenceEndType {
	case model.EndAfter:
		return len(t.ChildTaskIDs)+len(t.NextDeadlines) >= t.RecurrenceCount, nil
	case model.EndOn:
		end, err := workday.ParseDate(t.RecurrenceEndDate)
		if err != nil {
			return true, fmt.Errorf("recurrenceEndDate: %w", err)
		}
		return workday.Date(candidate).After(end), nil
	case model.EndNever, "":
		return false, nil
	}
	return true, fmt.Errorf("unknown recurrence end type %q", t.RecurrenceEndType)
}

// Exhausted reports whether the template will never spawn another child.
func Exhausted(t model.Task) bool {
	if len(t.NextDeadlines) > 0 {
		return false
	}
	next, ok := CalculateNextDeadline(t)
	if !ok {
		return true
	}
	reached, _ := EndReached(t, next)
	return reached
}

// Upcoming plans up to n further deadlines after the template's current one,
// stopping at the end condition.
func Upcoming(t model.Task, n int) []string {
	cur := t.Clone()
	var out []string
	for len(out) < n {
		next, ok := CalculateNextDeadline(cur)
		if !ok {
			break
		}
		if reached, err := EndReached(cur, next); err != nil || reached {
			break
		}
		d := workday.Format(next)
		out = append(out, d)
		cur.Deadline = d
		cur.NextDeadlines = append(cur.NextDeadlines, d)
	}
	return out
}

// Partition splits pending deadlines into those due by today and those still
// in the future, both ascending. Unreadable entries are returned separately.
func Partition(next []string, today time.Time) (due, remaining, bad []string) {
	today = workday.Date(today)
	sorted := slices.Clone(next)
	slices.Sort(sorted)
	for _, s := range sorted {
		d, err := workday.ParseDate(s)
		switch {
		case err != nil:
			bad = append(bad, s)
		case d.After(today):
			remaining = append(remaining, s)
		default:
			due = append(due, s)
		}
	}
	return due, remaining, bad
}

// NewChild builds the child task for one occurrence of the template. The id is
// left for the store to assign.
func NewChild(tpl model.Task, deadline string, today time.Time) model.Task {
	return model.Task{
		Name:            tpl.Name,
		AssignedBy:      tpl.AssignedBy,
		AssignedTo:      tpl.AssignedTo,
		AssignedToEmail: tpl.AssignedToEmail,
		AssignedToID:    tpl.AssignedToID,
		Priority:        tpl.Priority,
		Description:     tpl.Description,
		Files:           slices.Clone(tpl.Files),
		AssignedOn:      workday.Format(today),
		Deadline:        deadline,
		Status:          model.StatusPending,
		IsRecurring:     false,
		ParentTaskID:    tpl.TaskID,
	}
}

// NormalizeDeadlines sorts and deduplicates manually supplied deadlines.
func NormalizeDeadlines(dates []string) ([]string, error) {
	out := make([]string, 0, len(dates))
	for _, s := range dates {
		d, err := workday.ParseDate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, workday.Format(d))
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

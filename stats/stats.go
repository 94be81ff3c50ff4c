// Package stats derives the dashboard tiles and report figures from a task snapshot.
package stats

import (
	"sort"
	"time"

	"cicstask/model"
	"cicstask/workday"
)

type Stats struct {
	TotalTasks            int `json:"totalTasks"`
	PendingCount          int `json:"pendingCount"`
	VerifyingCount        int `json:"verifyingCount"`
	ReopenedCount         int `json:"reopenedCount"`
	CompletedOnTimeCount  int `json:"completedOnTimeCount"`
	CompletedOverdueCount int `json:"completedOverdueCount"`
	ActiveOverdueCount    int `json:"activeOverdueCount"`
	// Percentages are over completed tasks only.
	CompletedPercent int `json:"completedPercent"`
	OverduePercent   int `json:"overduePercent"`
}

type AssigneeStats struct {
	AssignedToID    string `json:"assignedToId"`
	AssignedTo      string `json:"assignedTo"`
	AssignedToEmail string `json:"assignedToEmail"`
	Stats
}

// Aggregate counts the snapshot as of today. Recurring templates are not
// tracked work and are left out; malformed tasks are skipped and reported.
func Aggregate(tasks []model.Task, today time.Time) (Stats, []model.Warning) {
	today = workday.Date(today)

	var (
		s        Stats
		warnings []model.Warning
	)
	for i := range tasks {
		t := &tasks[i]
		if t.IsTemplate() {
			continue
		}
		if err := s.add(t, today); err != nil {
			warnings = append(warnings, model.NewWarning(t.TaskID, err))
		}
	}
	s.finish()
	return s, warnings
}

// ByAssignee returns one row per assignee, ordered by email then id.
func ByAssignee(tasks []model.Task, today time.Time) ([]AssigneeStats, []model.Warning) {
	today = workday.Date(today)

	rows := map[string]*AssigneeStats{}
	var warnings []model.Warning
	for i := range tasks {
		t := &tasks[i]
		if t.IsTemplate() {
			continue
		}
		key := t.AssignedToID
		if key == "" {
			key = t.AssignedToEmail
		}
		row, ok := rows[key]
		if !ok {
			row = &AssigneeStats{AssignedToID: t.AssignedToID, AssignedTo: t.AssignedTo, AssignedToEmail: t.AssignedToEmail}
		}
		if err := row.add(t, today); err != nil {
			warnings = append(warnings, model.NewWarning(t.TaskID, err))
			continue
		}
		rows[key] = row
	}

	out := make([]AssigneeStats, 0, len(rows))
	for _, row := range rows {
		row.finish()
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AssignedToEmail != out[j].AssignedToEmail {
			return out[i].AssignedToEmail < out[j].AssignedToEmail
		}
		return out[i].AssignedToID < out[j].AssignedToID
	})
	return out, warnings
}

func (s *Stats) add(t *model.Task, today time.Time) error {
	_, deadline, err := t.Dates()
	if err != nil {
		return err
	}

	s.TotalTasks++
	switch t.Status {
	case model.StatusPending:
		s.PendingCount++
	case model.StatusVerifying:
		s.VerifyingCount++
	case model.StatusReopened:
		s.ReopenedCount++
	case model.StatusCompletedOnTime:
		s.CompletedOnTimeCount++
	case model.StatusCompletedOverdue:
		s.CompletedOverdueCount++
	}
	if !t.Status.IsCompleted() && deadline.Before(today) {
		s.ActiveOverdueCount++
	}
	return nil
}

func (s *Stats) finish() {
	completed := s.CompletedOnTimeCount + s.CompletedOverdueCount
	s.CompletedPercent = ratio(s.CompletedOnTimeCount, completed)
	s.OverduePercent = ratio(s.CompletedOverdueCount, completed)
}

// ratio is round-half-up of 100*n/d on integers; 0/0 is 0.
func ratio(n, d int) int {
	if d == 0 {
		return 0
	}
	return (200*n + d) / (2 * d)
}

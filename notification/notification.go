// Package notification turns a task snapshot into the dashboard notification list.
package notification

import (
	"fmt"
	"sort"
	"time"

	"cicstask/model"
	"cicstask/workday"
)

type Type string

const (
	TypeHigh   Type = "High Priority"
	TypeMedium Type = "Medium Priority"
	TypeLow    Type = "Low Priority"
)

// approachingWindow is how many days ahead of a deadline warnings start.
const approachingWindow = 3

type Notification struct {
	ID                 string `json:"id"`
	Type               Type   `json:"type"`
	Message            string `json:"message"`
	RelatedDate        string `json:"relatedDate"`
	TaskID             string `json:"taskId"`
	Recipient          string `json:"recipient,omitempty"`
	PercentageComplete *int   `json:"percentageComplete,omitempty"`
}

// Schedule produces at most one notification per task as of today, sorted with
// High Priority first and then by deadline. Completed tasks and recurring
// templates are ignored; tasks with malformed fields are skipped and reported.
func Schedule(tasks []model.Task, today time.Time) ([]Notification, []model.Warning) {
	today = workday.Date(today)

	var (
		out      []Notification
		warnings []model.Warning
	)
	for i := range tasks {
		t := &tasks[i]
		if t.IsTemplate() || t.Status.IsCompleted() {
			continue
		}
		assignedOn, deadline, err := t.Dates()
		if err != nil {
			warnings = append(warnings, model.NewWarning(t.TaskID, err))
			continue
		}
		if n, ok := forTask(t, assignedOn, deadline, today); ok {
			out = append(out, n)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		hi, hj := out[i].Type == TypeHigh, out[j].Type == TypeHigh
		if hi != hj {
			return hi
		}
		return out[i].RelatedDate < out[j].RelatedDate
	})
	return out, warnings
}

func forTask(t *model.Task, assignedOn, deadline, today time.Time) (Notification, bool) {
	related := workday.Format(deadline)

	if deadline.Before(today) {
		return Notification{
			ID:                 "overdue-" + t.TaskID,
			Type:               TypeHigh,
			Message:            fmt.Sprintf("Task %q is overdue", t.Name),
			RelatedDate:        related,
			TaskID:             t.TaskID,
			Recipient:          t.AssignedToEmail,
			PercentageComplete: percent(100),
		}, true
	}

	elapsed := workday.PercentElapsed(assignedOn, deadline, today)

	if t.Status == model.StatusVerifying {
		return Notification{
			ID:                 "verify-" + t.TaskID,
			Type:               TypeHigh,
			Message:            fmt.Sprintf("Task %q from %s is waiting for verification", t.Name, assignee(t)),
			RelatedDate:        related,
			TaskID:             t.TaskID,
			Recipient:          t.AssignedToEmail,
			PercentageComplete: percent(elapsed),
		}, true
	}

	days := workday.DaysUntil(today, deadline)
	if days > approachingWindow {
		return Notification{}, false
	}

	var typ Type
	switch {
	case days <= 1:
		typ = TypeHigh
	case days <= 2 || t.Priority == model.PriorityHigh:
		typ = TypeMedium
	default:
		typ = TypeLow
	}

	var msg string
	switch days {
	case 0:
		msg = fmt.Sprintf("Task %q is due today", t.Name)
	case 1:
		msg = fmt.Sprintf("Task %q is due tomorrow", t.Name)
	default:
		msg = fmt.Sprintf("Task %q is due in %d days", t.Name, days)
	}

	return Notification{
		ID:                 "deadline-" + t.TaskID,
		Type:               typ,
		Message:            msg,
		RelatedDate:        related,
		TaskID:             t.TaskID,
		Recipient:          t.AssignedToEmail,
		PercentageComplete: percent(elapsed),
	}, true
}

func assignee(t *model.Task) string {
	if t.AssignedTo != "" {
		return t.AssignedTo
	}
	return t.AssignedToEmail
}

func percent(v int) *int {
	return &v
}

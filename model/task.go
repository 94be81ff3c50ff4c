package model

import (
	"fmt"
	"slices"
	"time"

	"cicstask/workday"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPriority, s)
}

type RecurrencePattern string

const (
	PatternDaily    RecurrencePattern = "daily"
	PatternWeekly   RecurrencePattern = "weekly"
	PatternBiweekly RecurrencePattern = "biweekly"
	PatternMonthly  RecurrencePattern = "monthly"
	PatternCustom   RecurrencePattern = "custom"
)

func ParseRecurrencePattern(s string) (RecurrencePattern, error) {
	switch p := RecurrencePattern(s); p {
	case PatternDaily, PatternWeekly, PatternBiweekly, PatternMonthly, PatternCustom:
		return p, nil
	}
	return "", fmt.Errorf("unknown recurrence pattern %q", s)
}

type RecurrenceEndType string

const (
	EndNever RecurrenceEndType = "never"
	EndAfter RecurrenceEndType = "after"
	EndOn    RecurrenceEndType = "on"
)

type FileRef struct {
	Name string `firestore:"name" json:"name"`
	URL  string `firestore:"url" json:"url"`
}

// Task is stored one document per task in the Tasks collection. Dates are kept
// as "2006-01-02" strings so a malformed value can be reported instead of
// failing the whole snapshot decode.
type Task struct {
	TaskID          string    `firestore:"taskid,omitempty" json:"id"`
	Name            string    `firestore:"name" json:"name"`
	AssignedBy      string    `firestore:"assignedBy,omitempty" json:"assignedBy,omitempty"`
	AssignedTo      string    `firestore:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AssignedToEmail string    `firestore:"assignedToEmail,omitempty" json:"assignedToEmail,omitempty"`
	AssignedToID    string    `firestore:"assignedToId,omitempty" json:"assignedToId,omitempty"`
	AssignedOn      string    `firestore:"assignedOn" json:"assignedOn"`
	Deadline        string    `firestore:"deadline" json:"deadline"`
	Status          Status    `firestore:"status" json:"status"`
	Priority        Priority  `firestore:"priority" json:"priority"`
	Description     string    `firestore:"description,omitempty" json:"description,omitempty"`
	Completed       *string   `firestore:"completed" json:"completed"`
	Files           []FileRef `firestore:"files,omitempty" json:"files,omitempty"`

	IsRecurring        bool              `firestore:"isRecurring,omitempty" json:"isRecurring,omitempty"`
	RecurrencePattern  RecurrencePattern `firestore:"recurrencePattern,omitempty" json:"recurrencePattern,omitempty"`
	RecurrenceInterval int               `firestore:"recurrenceInterval,omitempty" json:"recurrenceInterval,omitempty"`
	RecurrenceEndType  RecurrenceEndType `firestore:"recurrenceEndType,omitempty" json:"recurrenceEndType,omitempty"`
	RecurrenceCount    int               `firestore:"recurrenceCount,omitempty" json:"recurrenceCount,omitempty"`
	RecurrenceEndDate  string            `firestore:"recurrenceEndDate,omitempty" json:"recurrenceEndDate,omitempty"`
	NextDeadlines      []string          `firestore:"nextDeadlines,omitempty" json:"nextDeadlines,omitempty"`
	ParentTaskID       string            `firestore:"parentTaskId,omitempty" json:"parentTaskId,omitempty"`
	ChildTaskIDs       []string          `firestore:"childTaskIds,omitempty" json:"childTaskIds,omitempty"`
}

// IsTemplate reports whether the task only exists to spawn recurring children.
func (t *Task) IsTemplate() bool {
	return t.IsRecurring && t.ParentTaskID == ""
}

func (t *Task) HasChild(id string) bool {
	return slices.Contains(t.ChildTaskIDs, id)
}

// Clone returns a deep copy so callers can mutate slices without touching the snapshot.
func (t Task) Clone() Task {
	out := t
	if t.Completed != nil {
		c := *t.Completed
		out.Completed = &c
	}
	out.Files = slices.Clone(t.Files)
	out.NextDeadlines = slices.Clone(t.NextDeadlines)
	out.ChildTaskIDs = slices.Clone(t.ChildTaskIDs)
	return out
}

// Dates validates the enumerated fields and the completion date, then parses
// the assignment and due dates.
func (t *Task) Dates() (assignedOn, deadline time.Time, err error) {
	if _, err = ParseStatus(string(t.Status)); err != nil {
		return
	}
	if _, err = ParsePriority(string(t.Priority)); err != nil {
		return
	}
	if t.Completed != nil && !t.Status.IsCompleted() {
		err = fmt.Errorf("%w: %s with completed %q", ErrStrayCompleted, t.Status, *t.Completed)
		return
	}
	if assignedOn, err = workday.ParseDate(t.AssignedOn); err != nil {
		err = fmt.Errorf("assignedOn: %w", err)
		return
	}
	if deadline, err = workday.ParseDate(t.Deadline); err != nil {
		err = fmt.Errorf("deadline: %w", err)
	}
	return
}

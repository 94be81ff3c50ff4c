package model

import (
	"errors"
	"fmt"
	"time"

	"cicstask/workday"
)

var (
	ErrUnknownStatus     = errors.New("unknown status")
	ErrUnknownPriority   = errors.New("unknown priority")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStrayCompleted marks an unfinished task that still carries a completion date.
	ErrStrayCompleted = errors.New("completed date set on unfinished task")
)

// Status is the lifecycle state of a task. Exactly one holds at a time.
type Status string

const (
	StatusPending          Status = "Pending"
	StatusVerifying        Status = "Verifying"
	StatusCompletedOnTime  Status = "Completed On Time"
	StatusCompletedOverdue Status = "Completed Overdue"
	StatusReopened         Status = "Reopened"
)

func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusVerifying,
		StatusCompletedOnTime,
		StatusCompletedOverdue,
		StatusReopened,
	}
}

func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// IsCompleted reports whether the status is one of the two completed variants.
func (s Status) IsCompleted() bool {
	switch s {
	case StatusCompletedOnTime, StatusCompletedOverdue:
		return true
	case StatusPending, StatusVerifying, StatusReopened:
		return false
	}
	return false
}

// Flow: Pending/Reopened -> Verifying -> Completed*; Verifying -> Pending on reject;
// Verifying/Completed* -> Reopened.
var transitions = map[Status][]Status{
	StatusPending:          {StatusVerifying},
	StatusReopened:         {StatusVerifying},
	StatusVerifying:        {StatusCompletedOnTime, StatusCompletedOverdue, StatusPending, StatusReopened},
	StatusCompletedOnTime:  {StatusReopened},
	StatusCompletedOverdue: {StatusReopened},
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (t *Task) transition(target Status) error {
	if t.IsTemplate() {
		return fmt.Errorf("%w: recurring template %s has no tracked status", ErrInvalidTransition, t.TaskID)
	}
	if !t.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, target)
	}
	t.Status = target
	return nil
}

// Submit hands the task to the assigner for verification.
func (t *Task) Submit() error {
	return t.transition(StatusVerifying)
}

// Verify completes the task, on time when today is not after the deadline.
func (t *Task) Verify(today time.Time) error {
	deadline, err := workday.ParseDate(t.Deadline)
	if err != nil {
		return fmt.Errorf("task %s deadline: %w", t.TaskID, err)
	}
	target := StatusCompletedOnTime
	if workday.Date(today).After(deadline) {
		target = StatusCompletedOverdue
	}
	if err := t.transition(target); err != nil {
		return err
	}
	completed := workday.Format(today)
	t.Completed = &completed
	return nil
}

// Reject sends a submitted task back to Pending.
func (t *Task) Reject() error {
	return t.transition(StatusPending)
}

func (t *Task) Reopen() error {
	if err := t.transition(StatusReopened); err != nil {
		return err
	}
	t.Completed = nil
	return nil
}

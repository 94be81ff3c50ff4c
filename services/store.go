package services

import (
	"context"
	"errors"
	"fmt"

	"cicstask/model"
	"cicstask/recurrence"
	"cicstask/workday"
)

var (
	ErrNotFound = errors.New("task not found")
	ErrConflict = errors.New("task already exists")
)

// TaskFilter scopes a snapshot read. Empty fields do not filter.
type TaskFilter struct {
	AssignedToID  string
	AssignedBy    string
	TemplatesOnly bool
}

// ScopeFilter returns the query scope for a signed-in user: users see what is
// assigned to them, admins what they assigned, super admins everything.
func ScopeFilter(role model.Role, userID string) TaskFilter {
	switch role {
	case model.RoleSuperAdmin:
		return TaskFilter{}
	case model.RoleAdmin:
		return TaskFilter{AssignedBy: userID}
	default:
		return TaskFilter{AssignedToID: userID}
	}
}

func (f TaskFilter) Match(t *model.Task) bool {
	if f.AssignedToID != "" && t.AssignedToID != f.AssignedToID {
		return false
	}
	if f.AssignedBy != "" && t.AssignedBy != f.AssignedBy {
		return false
	}
	if f.TemplatesOnly && !t.IsRecurring {
		return false
	}
	return true
}

// Store is the task collection. UpdateTask is a read-modify-write run
// atomically against the stored document.
type Store interface {
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	GetTask(ctx context.Context, id string) (model.Task, error)
	CreateTask(ctx context.Context, t model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, id string, fn func(*model.Task) error) (model.Task, error)
	recurrence.Store
}

// checkEnd re-evaluates the end condition against the stored template so a pass
// working from a stale copy cannot schedule past it.
func checkEnd(tpl model.Task, next string) error {
	d, err := workday.ParseDate(next)
	if err != nil {
		return fmt.Errorf("next deadline: %w", err)
	}
	if reached, _ := recurrence.EndReached(tpl, d); reached {
		return recurrence.ErrEndReached
	}
	return nil
}

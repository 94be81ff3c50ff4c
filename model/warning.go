package model

import "fmt"

// Warning is a per-task data-quality problem. The offending task is left out of
// the computation that produced the warning.
type Warning struct {
	TaskID string `json:"taskId"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("task %s: %s", w.TaskID, w.Reason)
}

func NewWarning(taskID string, err error) Warning {
	return Warning{TaskID: taskID, Reason: err.Error()}
}

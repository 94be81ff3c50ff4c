package dto

import (
	"cicstask/model"
	"cicstask/notification"
	"cicstask/recurrence"
	"cicstask/stats"
)

type CreateTaskRequest struct {
	Name         string             `json:"name" binding:"required"`
	AssignedToID string             `json:"assignedToId" binding:"required"`
	Deadline     string             `json:"deadline" binding:"required"`
	Priority     string             `json:"priority" binding:"required"`
	Status       string             `json:"status"`
	Description  string             `json:"description"`
	Files        []model.FileRef    `json:"files"`
	Recurrence   *RecurrenceRequest `json:"recurrence"`
}

type RecurrenceRequest struct {
	Pattern  string `json:"pattern" binding:"required"`
	Interval int    `json:"interval"`
	EndType  string `json:"endType"`
	Count    int    `json:"count"`
	EndDate  string `json:"endDate"`
	// Deadlines are the explicit occurrences of a custom pattern.
	Deadlines []string `json:"deadlines"`
	// PlanAhead schedules this many occurrences beyond the first one up front.
	PlanAhead int `json:"planAhead"`
}

type TaskListResponse struct {
	Tasks []model.Task `json:"tasks"`
}

type NotificationsResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	Warnings      []model.Warning             `json:"warnings"`
}

type StatsResponse struct {
	Stats    stats.Stats     `json:"stats"`
	Warnings []model.Warning `json:"warnings"`
}

type AssigneeStatsResponse struct {
	Assignees []stats.AssigneeStats `json:"assignees"`
	Warnings  []model.Warning       `json:"warnings"`
}

type RecurrenceRunResponse struct {
	Spawned  []recurrence.Spawn `json:"spawned"`
	Warnings []model.Warning    `json:"warnings"`
	Errors   []string           `json:"errors"`
}

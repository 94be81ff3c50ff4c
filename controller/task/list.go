package task

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cicstask/dto"
	"cicstask/notification"
	"cicstask/stats"
)

func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.snapshot(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TaskListResponse{Tasks: tasks})
}

func (h *Handler) Notifications(c *gin.Context) {
	tasks, err := h.snapshot(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	list, warnings := notification.Schedule(tasks, h.today())
	h.logWarnings("skipped task while scheduling notifications", warnings)
	c.JSON(http.StatusOK, dto.NotificationsResponse{Notifications: list, Warnings: warnings})
}

func (h *Handler) Statistics(c *gin.Context) {
	tasks, err := h.snapshot(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	res := h.Stats.Aggregate(c.Request.Context(), tasks, h.today())
	h.logWarnings("skipped task while aggregating stats", res.Warnings)
	c.JSON(http.StatusOK, dto.StatsResponse{Stats: res.Stats, Warnings: res.Warnings})
}

func (h *Handler) AssigneeStatistics(c *gin.Context) {
	tasks, err := h.snapshot(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	per, warnings := stats.ByAssignee(tasks, h.today())
	h.logWarnings("skipped task while aggregating stats", warnings)
	c.JSON(http.StatusOK, dto.AssigneeStatsResponse{Assignees: per, Warnings: warnings})
}

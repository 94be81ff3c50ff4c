package task

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cicstask/middleware"
	"cicstask/model"
	"cicstask/recurrence"
	"cicstask/services"
	"cicstask/stats"
	"cicstask/workday"
)

var errForbidden = errors.New("forbidden")

// Handler carries the dependencies of the /tasks routes.
type Handler struct {
	Store    services.Store
	Users    services.UserDirectory
	Stats    *stats.Aggregator
	Engine   *recurrence.Engine
	Log      *zap.Logger
	Location *time.Location
	Now      func() time.Time
}

func TaskController(router *gin.Engine, h *Handler, secret string) {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	if h.Location == nil {
		h.Location = time.UTC
	}
	if h.Now == nil {
		h.Now = time.Now
	}
	if h.Stats == nil {
		h.Stats = stats.NewAggregator(nil, h.Log)
	}
	if h.Engine == nil {
		h.Engine = recurrence.NewEngine(h.Store, h.Log)
	}

	routes := router.Group("/tasks", middleware.AccessTokenMiddleware(secret))
	{
		routes.GET("", h.ListTasks)
		routes.POST("", middleware.RequireAssigner(), h.CreateTask)
		routes.GET("/notifications", h.Notifications)
		routes.GET("/stats", h.Statistics)
		routes.GET("/stats/assignees", h.AssigneeStatistics)
		routes.POST("/:id/submit", h.Submit)
		routes.POST("/:id/verify", middleware.RequireAssigner(), h.Verify)
		routes.POST("/:id/reopen", middleware.RequireAssigner(), h.Reopen)
		routes.POST("/:id/reject", middleware.RequireAssigner(), h.Reject)
	}

	router.POST("/recurrence/run", middleware.AccessTokenMiddleware(secret), middleware.RequireAssigner(), h.RunRecurrence)
}

// today is the current calendar day in the configured time zone.
func (h *Handler) today() time.Time {
	return workday.Date(h.Now().In(h.Location))
}

// snapshot reads every task visible to the caller.
func (h *Handler) snapshot(c *gin.Context) ([]model.Task, error) {
	return h.Store.ListTasks(c.Request.Context(), services.ScopeFilter(middleware.Role(c), middleware.UserID(c)))
}

// canSubmit reports whether the caller may hand t in: its assignee, the admin
// who assigned it, or a super admin.
func canSubmit(c *gin.Context, t *model.Task) bool {
	uid := middleware.UserID(c)
	switch middleware.Role(c) {
	case model.RoleSuperAdmin:
		return true
	case model.RoleAdmin:
		return t.AssignedBy == uid || t.AssignedToID == uid
	default:
		return t.AssignedToID == uid
	}
}

// canReview reports whether the caller may verify, reject or reopen t. Admins
// only review work they assigned, never their own.
func canReview(c *gin.Context, t *model.Task) bool {
	uid := middleware.UserID(c)
	switch middleware.Role(c) {
	case model.RoleSuperAdmin:
		return true
	case model.RoleAdmin:
		return t.AssignedBy == uid && t.AssignedToID != uid
	default:
		return false
	}
}

func (h *Handler) abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, errForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, model.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.Log.Error("task request failed",
			zap.String("path", c.FullPath()),
			zap.String("task_id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func (h *Handler) logWarnings(msg string, warnings []model.Warning) {
	for _, w := range warnings {
		h.Log.Warn(msg, zap.String("task_id", w.TaskID), zap.String("reason", w.Reason))
	}
}

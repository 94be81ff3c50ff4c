package task

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cicstask/model"
)

func (h *Handler) Submit(c *gin.Context) {
	h.transition(c, "submit", canSubmit, func(t *model.Task) error { return t.Submit() })
}

func (h *Handler) Verify(c *gin.Context) {
	today := h.today()
	h.transition(c, "verify", canReview, func(t *model.Task) error { return t.Verify(today) })
}

func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, "reject", canReview, func(t *model.Task) error { return t.Reject() })
}

func (h *Handler) Reopen(c *gin.Context) {
	h.transition(c, "reopen", canReview, func(t *model.Task) error { return t.Reopen() })
}

// transition applies a status change inside the store's read-modify-write so
// two reviewers cannot both act on the same stale status.
func (h *Handler) transition(c *gin.Context, action string, allowed func(*gin.Context, *model.Task) bool, apply func(*model.Task) error) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var from model.Status
	updated, err := h.Store.UpdateTask(ctx, id, func(t *model.Task) error {
		if !allowed(c, t) {
			return errForbidden
		}
		from = t.Status
		return apply(t)
	})
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	h.Stats.Invalidate(ctx)

	h.Log.Info("task status changed",
		zap.String("task_id", id),
		zap.String("action", action),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)),
	)
	c.JSON(http.StatusOK, gin.H{"task": updated})
}

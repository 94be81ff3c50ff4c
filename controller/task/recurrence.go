package task

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cicstask/dto"
)

// RunRecurrence performs one engine pass over every template. Partial failures
// still report what was spawned; the failed deadlines stay pending.
func (h *Handler) RunRecurrence(c *gin.Context) {
	ctx := c.Request.Context()
	res, err := h.Engine.Run(ctx, h.today())
	if len(res.Spawned) > 0 {
		h.Stats.Invalidate(ctx)
	}
	if err != nil && len(res.Failures) == 0 {
		h.abortWithError(c, err)
		return
	}

	resp := dto.RecurrenceRunResponse{Spawned: res.Spawned, Warnings: res.Warnings, Errors: []string{}}
	for _, f := range res.Failures {
		resp.Errors = append(resp.Errors, f.Error())
	}
	status := http.StatusOK
	if len(resp.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, resp)
}

package task

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cicstask/dto"
	"cicstask/middleware"
	"cicstask/model"
	"cicstask/recurrence"
	"cicstask/services"
	"cicstask/workday"
)

// maxPlanAhead caps how many occurrences a template may schedule at creation.
const maxPlanAhead = 52

func (h *Handler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	ctx := c.Request.Context()
	today := h.today()

	newtask, err := buildTask(req, today)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignee, err := h.Users.GetUser(ctx, req.AssignedToID)
	if errors.Is(err, services.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Assignee not found"})
		return
	}
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	newtask.AssignedBy = middleware.UserID(c)
	newtask.AssignedTo = assignee.Name
	newtask.AssignedToEmail = assignee.Email
	newtask.AssignedToID = assignee.UserID

	created, err := h.Store.CreateTask(ctx, newtask)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	h.Log.Info("task created",
		zap.String("task_id", created.TaskID),
		zap.String("assigned_by", created.AssignedBy),
		zap.Bool("recurring", created.IsRecurring),
	)

	resp := gin.H{"task": created}
	if created.IsTemplate() && h.Engine != nil {
		res := h.Engine.Evaluate(ctx, created, today)
		if err := res.Err(); err != nil {
			h.Log.Error("initial recurrence pass failed", zap.String("task_id", created.TaskID), zap.Error(err))
		}
		resp["spawned"] = res.Spawned
	}
	h.Stats.Invalidate(ctx)

	c.JSON(http.StatusCreated, resp)
}

// buildTask validates the request and fills everything except the assignee.
func buildTask(req dto.CreateTaskRequest, today time.Time) (model.Task, error) {
	priority, err := model.ParsePriority(req.Priority)
	if err != nil {
		return model.Task{}, err
	}
	deadline, err := workday.ParseDate(req.Deadline)
	if err != nil {
		return model.Task{}, fmt.Errorf("deadline: %w", err)
	}

	status := model.StatusPending
	if req.Status != "" {
		if status, err = model.ParseStatus(req.Status); err != nil {
			return model.Task{}, err
		}
		if status != model.StatusPending && status != model.StatusVerifying {
			return model.Task{}, fmt.Errorf("a new task cannot start as %s", status)
		}
	}

	t := model.Task{
		Name:        req.Name,
		AssignedOn:  workday.Format(today),
		Deadline:    workday.Format(deadline),
		Status:      status,
		Priority:    priority,
		Description: req.Description,
		Files:       req.Files,
	}
	if req.Recurrence == nil {
		return t, nil
	}
	if err := applyRecurrence(&t, *req.Recurrence); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// applyRecurrence turns t into a template. The first deadline and any planned
// occurrences are queued in NextDeadlines; Deadline tracks the latest one.
func applyRecurrence(t *model.Task, r dto.RecurrenceRequest) error {
	pattern, err := model.ParseRecurrencePattern(r.Pattern)
	if err != nil {
		return err
	}
	t.IsRecurring = true
	t.Status = model.StatusPending
	t.RecurrencePattern = pattern
	t.RecurrenceInterval = max(r.Interval, 1)

	switch end := model.RecurrenceEndType(r.EndType); end {
	case "", model.EndNever:
		t.RecurrenceEndType = model.EndNever
	case model.EndAfter:
		if r.Count < 1 {
			return errors.New("recurrence count must be at least 1")
		}
		t.RecurrenceEndType = end
		t.RecurrenceCount = r.Count
	case model.EndOn:
		endDate, err := workday.ParseDate(r.EndDate)
		if err != nil {
			return fmt.Errorf("recurrence end date: %w", err)
		}
		if t.Deadline > workday.Format(endDate) {
			return errors.New("recurrence end date is before the first deadline")
		}
		t.RecurrenceEndType = end
		t.RecurrenceEndDate = workday.Format(endDate)
	default:
		return fmt.Errorf("unknown recurrence end type %q", r.EndType)
	}

	if pattern == model.PatternCustom {
		dates, err := recurrence.NormalizeDeadlines(append([]string{t.Deadline}, r.Deadlines...))
		if err != nil {
			return fmt.Errorf("custom deadlines: %w", err)
		}
		if t.RecurrenceEndType == model.EndAfter && len(dates) > t.RecurrenceCount {
			dates = dates[:t.RecurrenceCount]
		}
		t.NextDeadlines = dates
		t.Deadline = dates[len(dates)-1]
		return nil
	}

	t.NextDeadlines = []string{t.Deadline}
	planned := recurrence.Upcoming(*t, min(max(r.PlanAhead, 0), maxPlanAhead))
	if len(planned) > 0 {
		t.NextDeadlines = append(t.NextDeadlines, planned...)
		t.Deadline = planned[len(planned)-1]
	}
	return nil
}

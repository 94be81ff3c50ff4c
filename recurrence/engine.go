package recurrence

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"cicstask/model"
	"cicstask/workday"
)

var (
	// ErrAlreadyMaterialized means another pass already spawned the child for a deadline.
	ErrAlreadyMaterialized = errors.New("deadline already materialized")
	// ErrDeadlineChanged means the template moved on since it was read.
	ErrDeadlineChanged = errors.New("template deadline changed")
	// ErrEndReached means the stored template already has all the occurrences its
	// end condition allows.
	ErrEndReached = errors.New("recurrence end condition reached")
)

// maxCatchUp bounds how many occurrences one template may spawn in a single pass.
const maxCatchUp = 370

// Store is the write boundary of the engine. Both mutations must be atomic
// against the template document: MaterializeChild creates the child and
// removes deadline from nextDeadlines only if it is still pending there;
// ScheduleNext appends next and moves the template deadline only if the
// deadline still equals prev and the stored template has not reached its end
// condition.
type Store interface {
	ListTemplates(ctx context.Context) ([]model.Task, error)
	MaterializeChild(ctx context.Context, templateID, deadline string, child model.Task) (model.Task, error)
	ScheduleNext(ctx context.Context, templateID, prev, next string) error
}

type Spawn struct {
	TemplateID string `json:"templateId"`
	ChildID    string `json:"childId"`
	Deadline   string `json:"deadline"`
}

type Failure struct {
	TemplateID string `json:"templateId"`
	Deadline   string `json:"deadline,omitempty"`
	Err        error  `json:"-"`
}

func (f Failure) Error() string {
	if f.Deadline == "" {
		return fmt.Sprintf("template %s: %v", f.TemplateID, f.Err)
	}
	return fmt.Sprintf("template %s deadline %s: %v", f.TemplateID, f.Deadline, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

type Result struct {
	Spawned  []Spawn         `json:"spawned"`
	Warnings []model.Warning `json:"warnings,omitempty"`
	Failures []Failure       `json:"-"`
}

// Err joins the store failures of the pass, nil when there were none.
func (r *Result) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

func (r *Result) merge(o Result) {
	r.Spawned = append(r.Spawned, o.Spawned...)
	r.Warnings = append(r.Warnings, o.Warnings...)
	r.Failures = append(r.Failures, o.Failures...)
}

type Engine struct {
	store Store
	log   *zap.Logger
}

func NewEngine(store Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, log: log}
}

// Run performs one evaluation pass over every template. A failed child write
// leaves that deadline pending for the next pass; other templates still run.
func (e *Engine) Run(ctx context.Context, today time.Time) (Result, error) {
	templates, err := e.store.ListTemplates(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list recurring templates: %w", err)
	}

	var res Result
	for _, tpl := range templates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.merge(e.Evaluate(ctx, tpl, today))
	}

	e.log.Info("recurrence pass finished",
		zap.String("today", workday.Format(today)),
		zap.Int("templates", len(templates)),
		zap.Int("spawned", len(res.Spawned)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Int("failures", len(res.Failures)),
	)
	return res, res.Err()
}

// Evaluate drains the due deadlines of one template and, once nothing is
// pending, schedules its next occurrence.
func (e *Engine) Evaluate(ctx context.Context, tpl model.Task, today time.Time) Result {
	var res Result
	log := e.log.With(zap.String("template_id", tpl.TaskID))
	if !tpl.IsTemplate() {
		return res
	}

	cur := tpl.Clone()
	warned := false
	for range maxCatchUp {
		due, remaining, bad := Partition(cur.NextDeadlines, today)
		if len(bad) > 0 && !warned {
			warned = true
			w := model.Warning{TaskID: cur.TaskID, Reason: fmt.Sprintf("unreadable pending deadlines %v", bad)}
			log.Warn("recurrence data quality", zap.String("reason", w.Reason))
			res.Warnings = append(res.Warnings, w)
		}

		stale := false
		for _, d := range due {
			child, err := e.store.MaterializeChild(ctx, cur.TaskID, d, NewChild(cur, d, today))
			switch {
			case errors.Is(err, ErrAlreadyMaterialized):
				log.Info("deadline already materialized", zap.String("deadline", d))
				stale = true
			case err != nil:
				log.Error("materialize child failed", zap.String("deadline", d), zap.Error(err))
				res.Failures = append(res.Failures, Failure{TemplateID: cur.TaskID, Deadline: d, Err: err})
				return res
			default:
				cur.ChildTaskIDs = append(cur.ChildTaskIDs, child.TaskID)
				res.Spawned = append(res.Spawned, Spawn{TemplateID: cur.TaskID, ChildID: child.TaskID, Deadline: d})
			}
			cur.NextDeadlines = slices.DeleteFunc(cur.NextDeadlines, func(s string) bool { return s == d })
		}

		// Another pass drained part of this snapshot and owns scheduling from here.
		if stale || len(remaining) > 0 || len(bad) > 0 {
			return res
		}

		next, ok := CalculateNextDeadline(cur)
		if !ok {
			return res
		}
		reached, err := EndReached(cur, next)
		if err != nil {
			w := model.NewWarning(cur.TaskID, err)
			log.Warn("recurrence data quality", zap.String("reason", w.Reason))
			res.Warnings = append(res.Warnings, w)
			return res
		}
		if reached {
			return res
		}

		nextStr := workday.Format(next)
		err = e.store.ScheduleNext(ctx, cur.TaskID, cur.Deadline, nextStr)
		switch {
		case errors.Is(err, ErrDeadlineChanged):
			log.Info("template moved on concurrently", zap.String("deadline", cur.Deadline))
			return res
		case errors.Is(err, ErrEndReached):
			log.Info("template already complete", zap.String("next", nextStr))
			return res
		case err != nil:
			log.Error("schedule next deadline failed", zap.String("next", nextStr), zap.Error(err))
			res.Failures = append(res.Failures, Failure{TemplateID: cur.TaskID, Err: err})
			return res
		}
		cur.Deadline = nextStr
		cur.NextDeadlines = append(cur.NextDeadlines, nextStr)

		if next.After(workday.Date(today)) {
			return res
		}
	}
	log.Warn("recurrence catch-up limit reached", zap.Int("limit", maxCatchUp))
	return res
}

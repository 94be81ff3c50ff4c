// Package scheduler runs the recurrence engine once a day.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cicstask/recurrence"
	"cicstask/stats"
)

// Runner is the part of the recurrence engine the scheduler drives.
type Runner interface {
	Run(ctx context.Context, today time.Time) (recurrence.Result, error)
}

type Scheduler struct {
	runner   Runner
	stats    *stats.Aggregator
	hour     int
	location *time.Location
	log      *zap.Logger
	now      func() time.Time
}

func New(runner Runner, agg *stats.Aggregator, hour int, loc *time.Location, log *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{runner: runner, stats: agg, hour: hour, location: loc, log: log, now: time.Now}
}

// Start runs one pass immediately, then every day at the configured hour until
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("recurrence scheduler started", zap.Int("hour", s.hour), zap.String("timezone", s.location.String()))
	s.RunOnce(ctx)

	for {
		now := s.now().In(s.location)
		next := nextRunTime(now, s.hour, 0)
		wait := next.Sub(now)
		s.log.Info("next recurrence pass scheduled", zap.Time("next_run", next), zap.Duration("sleep_for", wait))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("recurrence scheduler stopped")
			return
		}
	}
}

// RunOnce evaluates every template as of the current day.
func (s *Scheduler) RunOnce(ctx context.Context) {
	start := s.now()
	today := start.In(s.location)

	res, err := s.runner.Run(ctx, today)
	if len(res.Spawned) > 0 && s.stats != nil {
		s.stats.Invalidate(ctx)
	}
	if err != nil {
		s.log.Error("recurrence pass failed", zap.Int("spawned", len(res.Spawned)), zap.Error(err))
		return
	}
	s.log.Info("recurrence pass done",
		zap.Int("spawned", len(res.Spawned)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("duration", time.Since(start)),
	)
}

// nextRunTime is the next time of day at hour:minute in now's location, which
// is today if it has not passed yet.
func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

package stats

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"cicstask/model"
)

// Aggregator memoises Aggregate per snapshot. Cache failures are logged and
// fall back to computing.
type Aggregator struct {
	cache Cache
	group singleflight.Group
	log   *zap.Logger
}

func NewAggregator(cache Cache, log *zap.Logger) *Aggregator {
	if cache == nil {
		cache = NopCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{cache: cache, log: log}
}

func (a *Aggregator) Aggregate(ctx context.Context, tasks []model.Task, today time.Time) Result {
	key := SnapshotKey(tasks, today)

	if r, ok, err := a.cache.Get(ctx, key); err != nil {
		a.log.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return r
	}

	v, _, _ := a.group.Do(key, func() (interface{}, error) {
		s, warnings := Aggregate(tasks, today)
		r := Result{Stats: s, Warnings: warnings}
		if err := a.cache.Set(ctx, key, r); err != nil {
			a.log.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
		}
		return r, nil
	})
	return v.(Result)
}

func (a *Aggregator) Invalidate(ctx context.Context) {
	if err := a.cache.Invalidate(ctx); err != nil {
		a.log.Error("stats cache invalidation failed", zap.Error(err))
	}
}

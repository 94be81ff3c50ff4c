package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"cicstask/model"
	"cicstask/workday"
)

// Result is what gets cached for one snapshot.
type Result struct {
	Stats    Stats           `json:"stats"`
	Warnings []model.Warning `json:"warnings,omitempty"`
}

type Cache interface {
	Get(ctx context.Context, key string) (Result, bool, error)
	Set(ctx context.Context, key string, r Result) error
	// Invalidate drops every entry; called after any write the session performs.
	Invalidate(ctx context.Context) error
}

// SnapshotKey identifies a task snapshot as seen on a given day. It does not
// depend on the order the store returned the tasks in.
func SnapshotKey(tasks []model.Task, today time.Time) string {
	parts := make([]uint64, 0, len(tasks))
	var b strings.Builder
	for i := range tasks {
		t := &tasks[i]
		b.Reset()
		completed := ""
		if t.Completed != nil {
			completed = *t.Completed
		}
		for _, f := range []string{
			t.TaskID, string(t.Status), string(t.Priority), t.AssignedOn, t.Deadline, completed,
			strconv.FormatBool(t.IsRecurring), t.ParentTaskID, t.AssignedToID, t.AssignedToEmail,
		} {
			b.WriteString(f)
			b.WriteByte(0)
		}
		parts = append(parts, xxhash.Sum64String(b.String()))
	}
	slices.Sort(parts)

	d := xxhash.New()
	_, _ = d.WriteString(workday.Format(today))
	for _, p := range parts {
		_, _ = d.WriteString(strconv.FormatUint(p, 16))
		_, _ = d.WriteString(",")
	}
	return fmt.Sprintf("%s:%016x", workday.Format(today), d.Sum64())
}

type memoryEntry struct {
	result   Result
	storedAt time.Time
}

// MemoryCache is a per-process TTL cache.
type MemoryCache struct {
	mu         sync.RWMutex
	items      map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		items:      make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: 256,
		now:        time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Result, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || (c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl) {
		return Result{}, false, nil
	}
	return e.result, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, r Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) >= c.maxEntries {
		clear(c.items)
	}
	c.items[key] = memoryEntry{result: r, storedAt: c.now()}
	return nil
}

func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
	return nil
}

const (
	redisPrefix        = "stats"
	redisGenerationKey = "stats:generation"
)

// RedisCache shares results between API instances. Invalidation bumps a
// generation counter that is part of every key, so old entries just expire.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, redisGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisCache) key(ctx context.Context, key string) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", fmt.Errorf("read stats generation: %w", err)
	}
	return fmt.Sprintf("%s:%d:%s", redisPrefix, gen, key), nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (Result, bool, error) {
	k, err := c.key(ctx, key)
	if err != nil {
		return Result{}, false, err
	}
	raw, err := c.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return Result{}, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return r, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, r Result) error {
	k, err := c.key(ctx, key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, k, raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, redisGenerationKey).Err()
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (Result, bool, error) { return Result{}, false, nil }
func (NopCache) Set(context.Context, string, Result) error         { return nil }
func (NopCache) Invalidate(context.Context) error                  { return nil }

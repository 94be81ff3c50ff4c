package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cicstask/config"
)

const (
	redisPingAttempts = 5
	redisRetryDelay   = 3 * time.Second
)

// RedisConnection returns a client once the server answers PING.
func RedisConnection(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	log = log.With(zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	var err error
	for i := range redisPingAttempts {
		if err = rdb.Ping(ctx).Err(); err == nil {
			log.Info("connected to redis")
			return rdb, nil
		}
		log.Warn("redis not ready, retrying", zap.Int("retry", i+1), zap.Error(err))

		select {
		case <-time.After(redisRetryDelay):
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, ctx.Err()
		}
	}
	_ = rdb.Close()
	return nil, fmt.Errorf("redis %s unreachable: %w", cfg.RedisAddr, err)
}

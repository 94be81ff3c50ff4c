package connection

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"cicstask/config"
	"cicstask/recurrence"
	"cicstask/services"
	"cicstask/stats"
)

// App holds the backends shared by the HTTP server, the scheduler and the CLI.
type App struct {
	Config *config.Config
	Log    *zap.Logger
	Store  services.Store
	Users  services.UserDirectory
	Stats  *stats.Aggregator
	Engine *recurrence.Engine

	closers []func() error
}

// Open connects the configured task store and stats cache.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Log: log}

	switch cfg.Store {
	case "firestore":
		fb, err := FBConnection(ctx, cfg.CredentialsFile, log)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, fb.Close)
		app.Store = services.NewTaskStore(fb, cfg.FirestoreCollection, log)
		app.Users = services.NewFirestoreUsers(fb, cfg.UsersCollection)
	case "memory":
		log.Warn("using in-memory task store, data is lost on exit")
		app.Store = services.NewMemoryStore()
		app.Users = services.NewMemoryUsers()
	default:
		return nil, fmt.Errorf("unknown STORE %q", cfg.Store)
	}

	var cache stats.Cache
	switch cfg.StatsCache {
	case "redis":
		rdb, err := RedisConnection(ctx, cfg, log)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.closers = append(app.closers, rdb.Close)
		cache = stats.NewRedisCache(rdb, cfg.StatsCacheTTL)
	case "memory":
		cache = stats.NewMemoryCache(cfg.StatsCacheTTL)
	default:
		cache = stats.NopCache{}
	}

	app.Stats = stats.NewAggregator(cache, log.Named("stats"))
	app.Engine = recurrence.NewEngine(app.Store, log.Named("recurrence"))
	return app, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

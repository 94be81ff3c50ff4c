package connection

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cicstask/controller/task"
	"cicstask/middleware"
)

const shutdownTimeout = 10 * time.Second

func NewRouter(app *App) *gin.Engine {
	if app.Config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(app.Log), cors.Default())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Api is running!"})
	})

	task.TaskController(router, &task.Handler{
		Store:    app.Store,
		Users:    app.Users,
		Stats:    app.Stats,
		Engine:   app.Engine,
		Log:      app.Log.Named("task"),
		Location: app.Config.Location(),
	}, app.Config.JWTSecret)

	return router
}

// StartServer serves until ctx is cancelled, then drains in-flight requests.
func StartServer(ctx context.Context, app *App) error {
	srv := &http.Server{
		Addr:              ":" + app.Config.Port,
		Handler:           NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.Log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

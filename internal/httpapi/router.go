package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/daily-riddle/internal/config"
	"github.com/oggyb/daily-riddle/internal/service/challenge"
)

// NewRouter mounts every route under /api/v1.
func NewRouter(svc challenge.ChallengeServer, cfg *config.Config, log *slog.Logger) *gin.Engine {
	if cfg.App.ENV != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	h := NewHandler(svc, NewUserLimiter(cfg.HTTP.RatePerMinute), log)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/riddles/today", h.HandleTodayRiddle)
		api.POST("/answers", h.HandleSubmitAnswer)

		api.GET("/leaderboard", h.HandleLeaderboard)
		api.GET("/leaderboard/following", h.HandleFollowingLeaderboard)

		api.GET("/users/:id/achievements", h.HandleAchievements)
		api.GET("/users/:id/stats", h.HandleStats)
		api.GET("/users/:id/following", h.HandleFollowing)
		api.GET("/users/:id/followers", h.HandleFollowers)
		api.GET("/users/:id/suggestions", h.HandleSuggestions)

		api.POST("/follows", h.HandleFollow)
		api.DELETE("/follows", h.HandleUnfollow)
	}
	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start),
		)
	}
}

// StartHTTPServer serves handler until ctx is done, then shuts down gracefully.
func StartHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

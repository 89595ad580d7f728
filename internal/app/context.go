package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/daily-riddle/internal/cache"
	"github.com/oggyb/daily-riddle/internal/calendar"
	"github.com/oggyb/daily-riddle/internal/config"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Config     *config.Config
	// Clock fixes the day boundary every request is judged against.
	Clock *calendar.Clock
}

// New creates a new AppContext. A nil clock means the configured time zone.
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, cfg *config.Config, clock *calendar.Clock) *AppContext {
	if clock == nil {
		clock = calendar.NewClock(cfg.Location())
	}
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Config:     cfg,
		Clock:      clock,
	}
}

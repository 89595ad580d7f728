package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("STREAK_ON_WRONG", "")
	t.Setenv("STRICT_DAILY_RIDDLE", "")
	t.Setenv("CAS_MAX_RETRIES", "")
	t.Setenv("LEADERBOARD_CACHE_TTL", "")

	cfg := New()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/riddles")
	assert.Equal(t, "reset", cfg.Game.StreakOnWrong)
	assert.True(t, cfg.Game.StrictDailyRiddle)
	assert.Equal(t, 3, cfg.Game.CASMaxRetries)
	assert.Equal(t, time.Minute, cfg.Leaderboard.CacheTTL)
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "")
	t.Setenv("STREAK_ON_WRONG", "HOLD")
	t.Setenv("STRICT_DAILY_RIDDLE", "off")
	t.Setenv("LEADERBOARD_CACHE_TTL", "5s")
	t.Setenv("CAS_MAX_RETRIES", "7")

	cfg := New()

	assert.Contains(t, cfg.DB.DSN, "host=pg port=5432")
	assert.Equal(t, "hold", cfg.Game.StreakOnWrong)
	assert.False(t, cfg.Game.StrictDailyRiddle)
	assert.Equal(t, 5*time.Second, cfg.Leaderboard.CacheTTL)
	assert.Equal(t, 7, cfg.Game.CASMaxRetries)
}

func TestLocation(t *testing.T) {
	cfg := &Config{}
	cfg.App.TimeZone = "Asia/Kolkata"
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())

	cfg.App.TimeZone = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())
}

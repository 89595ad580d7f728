package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LogConfig controls the global slog logger.
type LogConfig struct {
	Level      string
	Format     string
	Component  string
	Source     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// GameConfig holds the rules of the daily challenge.
type GameConfig struct {
	// StreakOnWrong is "reset" (wrong answer sets the streak to 0) or "hold".
	StreakOnWrong string
	// ScheduleMode is "personalized" or "global".
	ScheduleMode      string
	StrictDailyRiddle bool
	MaxAnswerLength   int
	CASMaxRetries     int
}

type Config struct {
	App struct {
		ENV      string
		TimeZone string
	}

	Log LogConfig

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Host          string
		Port          string
		RatePerMinute int
	}

	Game GameConfig

	Leaderboard struct {
		StreakBonus bool
		Limit       int
		CacheTTL    time.Duration
	}

	Achievements struct {
		RetryInterval time.Duration
	}
}

func New() *Config {
	// a missing .env is fine, the process env is authoritative
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "production")
	cfg.App.TimeZone = getEnvDefault("APP_TIMEZONE", "UTC")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "riddle_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))
	cfg.Log.File = getEnvDefault("LOG_FILE", "")
	cfg.Log.MaxSizeMB = getEnvInt("LOG_MAX_SIZE_MB", 50)
	cfg.Log.MaxBackups = getEnvInt("LOG_MAX_BACKUPS", 3)

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = buildDSN(cfg)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "127.0.0.1")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")
	cfg.HTTP.RatePerMinute = getEnvInt("HTTP_RATE_PER_MINUTE", 30)

	// Game rules
	cfg.Game.StreakOnWrong = strings.ToLower(getEnvDefault("STREAK_ON_WRONG", "reset"))
	cfg.Game.ScheduleMode = strings.ToLower(getEnvDefault("SCHEDULE_MODE", "personalized"))
	cfg.Game.StrictDailyRiddle = getEnvBool("STRICT_DAILY_RIDDLE", true)
	cfg.Game.MaxAnswerLength = getEnvInt("MAX_ANSWER_LENGTH", 200)
	cfg.Game.CASMaxRetries = getEnvInt("CAS_MAX_RETRIES", 3)

	// Leaderboard
	cfg.Leaderboard.StreakBonus = getEnvBool("LEADERBOARD_STREAK_BONUS", false)
	cfg.Leaderboard.Limit = getEnvInt("LEADERBOARD_LIMIT", 20)
	cfg.Leaderboard.CacheTTL = getEnvDuration("LEADERBOARD_CACHE_TTL", time.Minute)

	cfg.Achievements.RetryInterval = getEnvDuration("ACHIEVEMENT_RETRY_INTERVAL", 30*time.Second)

	return cfg
}

// Location resolves App.TimeZone, falling back to UTC for unknown zones.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func buildDSN(cfg *Config) string {
	cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.DB.User = getEnvDefault("DB_USER", "root")
	cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
	cfg.DB.Name = getEnvDefault("DB_NAME", "riddles")

	switch cfg.DB.Driver {
	case "postgres":
		cfg.DB.Port = getEnvDefault("DB_PORT", "5432")
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name,
		)
	case "sqlite":
		return cfg.DB.Name + ".db"
	default:
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return v
	}
	return def
}

func getEnvBool(k string, def bool) bool {
	v := getEnvDefault(k, "")
	if v == "" {
		return def
	}
	return isTruthy(v)
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil {
		return d
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

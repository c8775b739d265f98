// internal/config/config.go
//
// Server configuration loaded from the environment.
// A `.env` file in the working directory is read first (development only);
// variables already set in the environment win.
//
// Environment variables:
//   PORT, LOG_LEVEL, LOG_FORMAT, CLIENT_ORIGIN, JWT_SECRET, TOKEN_TTL_HOURS, ALLOW_FIXED_SECRET,
//   THINK_DELAY_MS, MIN_NUMBER, MAX_NUMBER, MAX_ATTEMPTS, MATCH_IDLE_MINUTES,
//   REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, GUESS_RATE_LIMIT, GUESS_RATE_WINDOW_SECONDS
//
// Numeric values that fail to parse (or are not positive) fall back to defaults.

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/robalobadob/numberduel/apps/go-server/internal/game"
)

type Config struct {
	Port         string
	LogLevel     string
	LogFormat    string // "json" | "console"
	ClientOrigin string

	JWTSecret string
	TokenTTL  time.Duration

	// AllowFixedSecret lets new-round requests pin the secret (testing/debugging).
	AllowFixedSecret bool

	ThinkDelay    time.Duration
	DefaultRound  game.Config
	MatchIdleTime time.Duration

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	GuessRateLimit  int
	GuessRateWindow time.Duration
}

// Load reads .env (if present) and the environment.
// Returns an error when the default round configuration is invalid.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	c := &Config{
		Port:         getEnv("PORT", "5175"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		JWTSecret:    getEnv("JWT_SECRET", "dev_secret_change_me"),
		TokenTTL:     time.Duration(envPositive("TOKEN_TTL_HOURS", 24)) * time.Hour,

		AllowFixedSecret: os.Getenv("ALLOW_FIXED_SECRET") == "true",

		ThinkDelay: time.Duration(envNonNegative("THINK_DELAY_MS", 1000)) * time.Millisecond,
		DefaultRound: game.Config{
			Min:         envInt("MIN_NUMBER", 1),
			Max:         envInt("MAX_NUMBER", 100),
			MaxAttempts: envPositive("MAX_ATTEMPTS", 12),
		},
		MatchIdleTime: time.Duration(envPositive("MATCH_IDLE_MINUTES", 30)) * time.Minute,

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         envNonNegative("REDIS_DB", 0),
		GuessRateLimit:  envPositive("GUESS_RATE_LIMIT", 60),
		GuessRateWindow: time.Duration(envPositive("GUESS_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}
	if err := c.DefaultRound.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envPositive(k string, def int) int {
	if n := envInt(k, def); n > 0 {
		return n
	}
	return def
}

func envNonNegative(k string, def int) int {
	if n := envInt(k, def); n >= 0 {
		return n
	}
	return def
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"mineduel/internal/game"
	"mineduel/internal/logger"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	RunMigrate  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret     string
	AllowedOrigin string

	LogLevel  string
	LogFormat string

	MatchDuration time.Duration
	SessionGrace  time.Duration

	// inbound websocket messages per second and burst, per connection
	WSMessageRate  float64
	WSMessageBurst int

	APIRateLimit  int
	APIRateWindow time.Duration
}

// Load reads .env (when present) and the environment. Every key has a
// default, so a bare process starts with in-memory state only.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to read .env", "error", err)
	}

	return &Config{
		AppPort:     getString("APP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RunMigrate:  getBool("RUN_MIGRATIONS", true),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),

		LogLevel:  getString("LOG_LEVEL", "info"),
		LogFormat: getString("LOG_FORMAT", "text"),

		MatchDuration: getSeconds("MATCH_DURATION_SECONDS", 120*time.Second),
		SessionGrace:  getSeconds("SESSION_GRACE_SECONDS", 5*time.Second),

		WSMessageRate:  getFloat("WS_MESSAGE_RATE", 20),
		WSMessageBurst: getInt("WS_MESSAGE_BURST", 40),

		APIRateLimit:  getInt("API_RATE_LIMIT", 60),
		APIRateWindow: getSeconds("API_RATE_WINDOW_SECONDS", time.Minute),
	}
}

// Rules returns the default match rules with the configured timings.
func (c *Config) Rules() game.Rules {
	rules := game.DefaultRules()
	rules.Duration = c.MatchDuration
	rules.TeardownGrace = c.SessionGrace
	return rules
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn("invalid config value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		logger.Warn("invalid config value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid config value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func getSeconds(key string, def time.Duration) time.Duration {
	n := getInt(key, -1)
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

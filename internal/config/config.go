// internal/config/config.go
package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Config is the process-level configuration, read once at startup.
// Environment variables (typically via a .env file):
//   - PORT           listen port (default 8080)
//   - LOG_LEVEL      logrus level name (default "info")
//   - RULE_SET_PATH  optional JSON rule set for computer seats
//   - SKIP_DB        "true" disables Postgres persistence
//   - SKIP_REDIS     "true" disables the historian action queue
type Config struct {
	Port        string
	LogLevel    logrus.Level
	RuleSetPath string
	SkipDB      bool
	SkipRedis   bool
}

func Load() Config {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		RuleSetPath: os.Getenv("RULE_SET_PATH"),
		SkipDB:      os.Getenv("SKIP_DB") == "true",
		SkipRedis:   os.Getenv("SKIP_REDIS") == "true",
	}
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	cfg.LogLevel = level
	return cfg
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

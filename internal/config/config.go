/*
Package config loads server configuration from the environment.

A .env file in the working directory is loaded first when present, so
local development does not require exporting variables. Real environment
variables win over .env entries.

VARIABLES:
  PORT            HTTP server port (default: 8080)
  DB_DRIVER       "sqlite" or "postgres" (default: sqlite)
  DB_PATH         SQLite database path (default: payments.db, ":memory:" ok)
  DB_CONN         PostgreSQL connection string (required for postgres)
  LOG_LEVEL       logrus level: debug, info, warn, error (default: info)
  SWEEP_SCHEDULE  cron expression for automated sweeps (empty = disabled)
*/
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port          int
	DBDriver      string
	DBPath        string
	DBConn        string
	LogLevel      string
	SweepSchedule string
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	// Ignore a missing .env; environment variables alone are fine.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	cfg := &Config{
		Port:          port,
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DBPath:        getEnv("DB_PATH", "payments.db"),
		DBConn:        getEnv("DB_CONN", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", ""),
	}

	switch cfg.DBDriver {
	case "sqlite":
	case "postgres":
		if cfg.DBConn == "" {
			return nil, fmt.Errorf("DB_CONN is required when DB_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q (want sqlite or postgres)", cfg.DBDriver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

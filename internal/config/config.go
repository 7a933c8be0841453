// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server binary needs.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// DatabaseURL selects the Postgres backend when set; otherwise the
	// sqlite file at DBPath is used.
	DatabaseURL string

	// DBPath is the sqlite database file.
	DBPath string

	// VoidWindow is how long a participant may void their own expense.
	VoidWindow time.Duration
}

// Load reads configuration, loading a .env file first if present.
func Load() *Config {
	godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/ledger.db"),
		VoidWindow:  getDuration("VOID_WINDOW", 15*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Bind is the host:port the HTTP server listens on.
	Bind string

	// DBPath is the SQLite database file path.
	DBPath string

	// JWTSecret signs session tokens.
	JWTSecret string

	// TokenTTL is how long issued session tokens stay valid.
	TokenTTL time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present (missing file is not an error).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Bind:      getEnvDefault("BIND", "0.0.0.0:8080"),
		DBPath:    getEnvDefault("DB_PATH", "./data/splitkaro.db"),
		JWTSecret: getEnvDefault("JWT_SECRET", "dev-only-change-me"),
		TokenTTL:  24 * time.Hour,
	}

	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", ttl, err)
		}
		cfg.TokenTTL = d
	}

	return cfg, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

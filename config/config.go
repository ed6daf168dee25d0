// Package config loads server configuration from the environment.
//
// A .env file in the working directory is loaded first if present; real
// environment variables win. The batch CLI takes flags instead - only the
// long-running server reads the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	// Port the HTTP server listens on.
	Port int

	// HistoryDB is the SQLite path for the transaction history.
	// ":memory:" (the default) keeps the history in RAM for the
	// lifetime of the process.
	HistoryDB string

	// LogLevel controls zap verbosity: debug, info, warn, error.
	LogLevel string
}

// Load reads the server configuration from the environment, falling back to
// defaults for anything unset.
func Load() ServerConfig {
	// Missing .env is fine; the environment alone is a valid source.
	_ = godotenv.Load()

	return ServerConfig{
		Port:      envInt("PORT", 8080),
		HistoryDB: envString("HISTORY_DB", ":memory:"),
		LogLevel:  envString("LOG_LEVEL", "info"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

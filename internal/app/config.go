package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Endpoints      []string      // Required: backend base URLs, tried in order
	AttemptTimeout time.Duration // Optional: per-endpoint attempt timeout (default: 10s)

	DatabaseFile string // Optional: path to the SQLite session file (default: ./medrec.db)
	SealKey      string // Optional: secret sealing the stored credential (default: dev key)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	// A .env next to the binary is a convenience for local use; absence is
	// not an error.
	_ = godotenv.Load()

	return Config{
		Endpoints:      splitList(getEnvOrDefault("MEDREC_API_URLS", "http://localhost:8000")),
		AttemptTimeout: getEnvDurationOrDefault("MEDREC_ATTEMPT_TIMEOUT", 10*time.Second),
		DatabaseFile:   getEnvOrDefault("MEDREC_DATABASE_FILE", "medrec.db"),
		SealKey:        getEnvOrDefault("MEDREC_SEAL_KEY", "medrec-dev-seal-key"),
		Env:            getEnvOrDefault("ENV", "dev"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}

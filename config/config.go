package config

import (
	"os"
	"time"
)

// Config holds the application configuration
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort string

	// Training backend
	BackendURL   string
	BackendWSURL string
	PollInterval time.Duration

	// Development
	SimulateTraining bool
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		DatabaseURL:      getEnv("DATABASE_URL", "postgres://localhost/ml_dashboard?sslmode=disable"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		BackendURL:       getEnv("BACKEND_URL", "http://localhost:8000"),
		BackendWSURL:     getEnv("BACKEND_WS_URL", "ws://localhost:8000"),
		PollInterval:     getDuration("POLL_INTERVAL", 3*time.Second),
		SimulateTraining: getEnv("SIMULATE_TRAINING", "") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the server and sweeper binaries.
type Config struct {
	// Google Cloud
	ProjectID       string
	CredentialsFile string

	// HTTP server
	Port string

	// Inactivity sweep
	InactivityWindow time.Duration
	SweepInterval    time.Duration
	SweepConcurrency int
}

// Load reads configuration from the environment. A .env file is loaded
// first when present (local development); real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ProjectID:       getEnv("GOOGLE_CLOUD_PROJECT", ""),
		CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		Port: getEnv("PORT", "8080"),

		InactivityWindow: getEnvDuration("INACTIVITY_WINDOW", 24*time.Hour),
		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", 24*time.Hour),
		SweepConcurrency: getEnvInt("SWEEP_CONCURRENCY", 8),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.ProjectID == "" {
		errors = append(errors, "GOOGLE_CLOUD_PROJECT is required")
	}

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.InactivityWindow <= 0 {
		errors = append(errors, "INACTIVITY_WINDOW must be positive")
	}

	if c.SweepInterval <= 0 {
		errors = append(errors, "SWEEP_INTERVAL must be positive")
	}

	if c.SweepConcurrency < 1 {
		errors = append(errors, "SWEEP_CONCURRENCY must be at least 1")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

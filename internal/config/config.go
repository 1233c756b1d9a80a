// Package config loads process configuration from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the CLI needs to wire the processing pipeline and the
// Drive session.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string

	ProjectID           string
	VertexAIRegion      string
	FirestoreCollection string

	GoogleClientSecret string
	ConfigDir          string
	DriveEndpoint      string
	DriveHTTPTimeout   time.Duration

	LogLevel slog.Level
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Load reads .env files (when present) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	configDir := GetEnv("DOCFORGE_CONFIG_DIR", "")
	if configDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("DOCFORGE_CONFIG_DIR is not set and no user config dir is available: %w", err)
		}
		configDir = filepath.Join(base, "docforge")
	}

	timeout, err := parseDuration(GetEnv("DRIVE_HTTP_TIMEOUT", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid DRIVE_HTTP_TIMEOUT: %w", err)
	}

	level, err := parseLevel(GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	return &Config{
		GeminiAPIKey:        GetEnv("GEMINI_API_KEY", GetEnv("API_KEY", "")),
		GeminiModel:         GetEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ProjectID:           GetEnv("PROJECT_ID", ""),
		VertexAIRegion:      GetEnv("VERTEX_AI_REGION", "us-central1"),
		FirestoreCollection: GetEnv("FIRESTORE_COLLECTION", "jobs"),
		GoogleClientSecret:  GetEnv("GOOGLE_CLIENT_SECRET", ""),
		ConfigDir:           configDir,
		DriveEndpoint:       GetEnv("DRIVE_ENDPOINT", ""),
		DriveHTTPTimeout:    timeout,
		LogLevel:            level,
	}, nil
}

func parseDuration(v string) (time.Duration, error) {
	if strings.TrimSpace(v) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative, got %s", v)
	}
	return d, nil
}

func parseLevel(v string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
	}
	return level, nil
}

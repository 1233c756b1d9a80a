package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCFORGE_CONFIG_DIR", dir)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "fallback-key")
	t.Setenv("DRIVE_HTTP_TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("GEMINI_MODEL", "")
	os.Unsetenv("GEMINI_API_KEY")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("GEMINI_MODEL")

	cfg, err := Load(filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "fallback-key", cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, dir, cfg.ConfigDir)
	assert.Equal(t, time.Duration(0), cfg.DriveHTTPTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_DotEnvAndOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GEMINI_MODEL=gemini-test\n"), 0o600))
	t.Setenv("DOCFORGE_CONFIG_DIR", dir)
	t.Setenv("DRIVE_HTTP_TIMEOUT", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GEMINI_MODEL", "")
	os.Unsetenv("GEMINI_MODEL")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "gemini-test", cfg.GeminiModel)
	assert.Equal(t, 30*time.Second, cfg.DriveHTTPTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("DOCFORGE_CONFIG_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "info")

	t.Setenv("DRIVE_HTTP_TIMEOUT", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "none.env"))
	assert.Error(t, err)

	t.Setenv("DRIVE_HTTP_TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "chatty")
	_, err = Load(filepath.Join(t.TempDir(), "none.env"))
	assert.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("DOCFORGE_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("DOCFORGE_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("DOCFORGE_TEST_UNSET_VALUE", "fallback"))
}

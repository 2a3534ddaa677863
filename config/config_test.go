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

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DB_DRIVER", "SESSION_TTL_SECONDS", "ADMIN_USERNAMES", "LOGIN_RATE_PER_MINUTE", "LOG_LEVEL", "PORT"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.LoginRatePerMinute)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "3001", cfg.Port)
	assert.Empty(t, cfg.AdminUsernames)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SESSION_TTL_SECONDS", "60")
	t.Setenv("ADMIN_USERNAMES", " Admin , ops,,")
	t.Setenv("LOGIN_RATE_PER_MINUTE", "-3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WEB_ORIGIN", "https://library.example")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"admin", "ops"}, cfg.AdminUsernames)
	assert.Equal(t, 10, cfg.LoginRatePerMinute)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.SecureCookies())
	assert.True(t, cfg.IsAdminName("ADMIN"))
	assert.False(t, cfg.IsAdminName("alice"))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LIBRARY_TEST_KEY=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LIBRARY_TEST_KEY") })

	LoadEnv(path)
	assert.Equal(t, "from-file", os.Getenv("LIBRARY_TEST_KEY"))

	// missing file is ignored
	LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
}

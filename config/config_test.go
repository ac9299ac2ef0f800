package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PLATFORM_BASE_URL", "https://oj.example.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CONTEST_TIMEZONE", "UTC")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("SAVE_NOTICE_SECONDS", "oops")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "https://oj.example.com", cfg.Platform.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Platform.Timeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, time.UTC, cfg.Workbench.ContestLocation)
	assert.Equal(t, 3*time.Second, cfg.Workbench.SaveNotice)
	assert.Equal(t, "optimistic", cfg.Workbench.SolvePolicy)
	assert.Equal(t, "problem-solved", cfg.Workbench.SolvedChannel)
	assert.True(t, cfg.Minio.UseSSL)
	assert.Equal(t, "none", cfg.MQBackend)
}

func TestSaveNoticeMustBePositive(t *testing.T) {
	for _, raw := range []string{"0", "-2"} {
		t.Setenv("SAVE_NOTICE_SECONDS", raw)
		assert.Equal(t, 3*time.Second, LoadConfig().Workbench.SaveNotice, raw)
	}

	t.Setenv("SAVE_NOTICE_SECONDS", "5")
	assert.Equal(t, 5*time.Second, LoadConfig().Workbench.SaveNotice)
}

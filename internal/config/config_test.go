package config

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "b3_data", cfg.DataDir)
	assert.Equal(t, "config.json", cfg.ConfigPath)
	assert.Equal(t, "https://bvmf.bmfbovespa.com.br/InstDados/SerHist", cfg.BaseURL)
	assert.Equal(t, 10, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryBackoff)
	assert.Equal(t, 1.0, cfg.RateLimit)
	assert.Equal(t, time.Duration(0), cfg.HTTPTimeout)
	assert.Equal(t, filepath.Join("b3_data", "downloads.db"), cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("COTAHIST_DATA_DIR", "/var/lib/cotahist")
	t.Setenv("COTAHIST_MAX_ATTEMPTS", "3")
	t.Setenv("COTAHIST_RETRY_BACKOFF", "250ms")
	t.Setenv("COTAHIST_DB_PATH", "")
	t.Setenv("COTAHIST_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/cotahist", cfg.DataDir)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, "", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_DBPathFollowsDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("COTAHIST_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "downloads.db"), cfg.DBPath)
}

func TestLoad_ExplicitDBPath(t *testing.T) {
	t.Setenv("COTAHIST_DATA_DIR", "/var/lib/cotahist")
	t.Setenv("COTAHIST_DB_PATH", "/tmp/ledger.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ledger.db", cfg.DBPath)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{name: "zero attempts", key: "COTAHIST_MAX_ATTEMPTS", value: "0"},
		{name: "not a number", key: "COTAHIST_MAX_ATTEMPTS", value: "many"},
		{name: "bad url", key: "COTAHIST_BASE_URL", value: "not a url"},
		{name: "bad level", key: "COTAHIST_LOG_LEVEL", value: "verbose"},
		{name: "zero rate", key: "COTAHIST_RATE_LIMIT", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := Config{LogLevel: "warn"}.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "year", 2020)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "year=2020")
}

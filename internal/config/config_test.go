package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFiles(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:5000/api", cfg.API.BaseURL)
	assert.Equal(t, 400*time.Millisecond, cfg.Sync.Debounce)
	assert.Equal(t, 900*time.Millisecond, cfg.Sync.NotesDebounce)
	assert.Equal(t, 3*time.Second, cfg.Sync.ToastTTL)
	assert.Equal(t, filepath.Join(dir, "focusflow.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "focusflow.log"), cfg.Log.Path)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yml := "api:\n  base_url: https://focus.example/api\n  timeout: 3s\nsync:\n  debounce: 250ms\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://focus.example/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.Debounce)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep their defaults
	assert.Equal(t, 10, cfg.API.Burst)
}

func TestEnvBeatsYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api:\n  base_url: https://yaml.example/api\n"), 0o644))
	t.Setenv("FOCUSFLOW_API_URL", "https://env.example/api")
	t.Setenv("FOCUSFLOW_DEBOUNCE", "1s")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example/api", cfg.API.BaseURL)
	assert.Equal(t, time.Second, cfg.Sync.Debounce)
}

func TestDotEnvFileIsApplied(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FOCUSFLOW_METRICS_ADDR=127.0.0.1:9464\n"), 0o600))
	// godotenv does not overwrite variables that are already set, so make
	// sure the key is absent and restored afterwards.
	t.Setenv("FOCUSFLOW_METRICS_ADDR", "")
	os.Unsetenv("FOCUSFLOW_METRICS_ADDR")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("FOCUSFLOW_API_TIMEOUT", "soon")
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.API.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Sync.Debounce = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.API.Burst = 0
	assert.Error(t, cfg.Validate())
}

func TestGetEnv(t *testing.T) {
	t.Setenv("FOCUSFLOW_TEST_KEY", "value")
	assert.Equal(t, "value", GetEnv("FOCUSFLOW_TEST_KEY", "def"))
	assert.Equal(t, "def", GetEnv("FOCUSFLOW_TEST_MISSING", "def"))
}

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "")
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("SERVICE_NAME")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "stock-transfer", cfg.Service)
	assert.Equal(t, "info", cfg.Level)
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "stockctl-test")
	t.Setenv("ENV", "ci")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FILE", "/tmp/x.log")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{Service: "stockctl-test", Env: "ci", Level: "debug", File: "/tmp/x.log"}, cfg)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Service: "s", Env: "e", Level: "loud"})
	assert.Error(t, err)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "stock.log")

	logger, err := New(Config{Service: "stock-transfer", Env: "test", Level: "info", File: path})
	require.NoError(t, err)

	logger.Info("command_done")
	logger.Debug("hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "command_done", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "stock-transfer", entry["service"])
	assert.Equal(t, "test", entry["env"])
	assert.Contains(t, entry, "ts")
}

func TestMustNew_Panics(t *testing.T) {
	assert.Panics(t, func() { MustNew(Config{Level: "nope"}) })
}

package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meditrack/backend/internal/infrastructure/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LogConfig
	}{
		{name: "console to stdout", cfg: config.LogConfig{Level: "info", Format: "console", Output: "stdout"}},
		{name: "json to stderr", cfg: config.LogConfig{Level: "debug", Format: "json", Output: "stderr"}},
		{name: "empty output defaults to stdout", cfg: config.LogConfig{Level: "warn", Format: "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncd.log")

	log, err := New(config.LogConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info("daemon started", zap.String("backend", "embedded"))
	require.NoError(t, Sync(log))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &entry))
	assert.Equal(t, "daemon started", entry["msg"])
	assert.Equal(t, "embedded", entry["backend"])
}

func TestNewUnopenableFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "nested", "syncd.log")

	_, err := New(config.LogConfig{Level: "info", Format: "json", Output: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open log output")
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"development", "production", "staging", ""} {
		t.Run(env, func(t *testing.T) {
			log, err := NewForEnvironment(env)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(newEncoder("json"), zapcore.AddSync(&buf), parseLevel("info"))
	log := zap.New(core)

	log.Debug("debug message")
	assert.False(t, strings.Contains(buf.String(), "debug message"))

	log.Info("info message", zap.Int("pending", 3))
	require.True(t, strings.Contains(buf.String(), "info message"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, float64(3), entry["pending"])
}

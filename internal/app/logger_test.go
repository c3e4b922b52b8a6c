package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/corebus/internal/app"
	"github.com/lllypuk/corebus/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, app.ParseLogLevel(in), in)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger := app.NewLogger(cfg, &buf)

	logger.Info("dropped")
	logger.Warn("kept", slog.String("key", "value"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "corebus", entry["app"])
	assert.Equal(t, "value", entry["key"])
}

func TestNewLogger_Text(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Log.Format = "text"

	var buf bytes.Buffer
	app.NewLogger(cfg, &buf).InfoContext(context.Background(), "hello")

	assert.Contains(t, buf.String(), "msg=hello")
}

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", "json")

	require.True(t, l.Enabled(context.Background(), slog.LevelDebug))
	l.Info("channel created", "name", "general")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "channel created", line["msg"])
	require.Equal(t, "general", line["name"])
}

func TestFromContext(t *testing.T) {
	Init("info", "text")
	require.Same(t, L, FromContext(context.Background()))

	scoped := L.With("request_id", "12345")
	ctx := WithContext(context.Background(), scoped)
	require.Same(t, scoped, FromContext(ctx))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		require.Equal(t, tt.expected, parseLevel(tt.input), tt.input)
	}
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(wrap(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestMaskingHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf)

	logger.Info("user created", "email", "alice@example.com", "name", "Alice",
		slog.Group("database", "dsn", "postgres://u:p@host/db", "driver", "postgres"))

	out := decode(t, &buf)
	assert.Equal(t, "***", out["email"])
	assert.Equal(t, "Alice", out["name"])
	db := out["database"].(map[string]any)
	assert.Equal(t, "***", db["dsn"])
	assert.Equal(t, "postgres", db["driver"])
}

func TestMaskingHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf).With("token", "abc123")

	logger.Info("hello")
	assert.Equal(t, "***", decode(t, &buf)["token"])
}

func TestRequestIDAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf)

	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))

	logger.InfoContext(ctx, "handled")
	assert.Equal(t, "req-1", decode(t, &buf)["request_id"])

	buf.Reset()
	logger.Info("no context")
	_, ok := decode(t, &buf)["request_id"]
	assert.False(t, ok)
}

func TestFanout(t *testing.T) {
	var debug, errs bytes.Buffer
	h := newFanout(
		slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h).With("component", "test")

	logger.Info("info only")
	assert.NotEmpty(t, debug.String())
	assert.Empty(t, errs.String())

	logger.Error("both")
	assert.Contains(t, errs.String(), `"component":"test"`)
}

func TestSetupWithOptionsWritesFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "server.log")
	closer := SetupWithOptions(Options{Level: "warn", File: path, MaxSizeMB: 1})

	assert.Equal(t, slog.LevelWarn, Level())
	slog.Info("dropped")
	slog.Warn("kept", "password", "hunter2")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
	assert.NotContains(t, string(data), "hunter2")

	SetLevel(slog.LevelDebug)
	assert.Equal(t, slog.LevelDebug, Level())
	SetLevel(slog.LevelInfo)
}

func TestSetupReadsLogLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		SetLevel(slog.LevelInfo)
	})

	t.Setenv("LOG_LEVEL", "debug")
	Setup()
	assert.Equal(t, slog.LevelDebug, Level())
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	t.Setenv("LOG_LEVEL", "")
	Setup()
	assert.Equal(t, slog.LevelInfo, Level())
}

package log

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv(EnvLevel, "")
		t.Setenv(EnvFormat, "")
		t.Setenv(EnvMode, "")

		cfg := NewConfigFromEnv()
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "console", cfg.Format)
		assert.Equal(t, "stdout", cfg.Output)
		assert.False(t, cfg.AddSource)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv(EnvLevel, "warn")
		t.Setenv(EnvFormat, "json")
		t.Setenv(EnvAddSource, "true")
		t.Setenv(EnvMode, "")

		cfg := NewConfigFromEnv()
		assert.Equal(t, "warn", cfg.Level)
		assert.Equal(t, "json", cfg.Format)
		assert.True(t, cfg.AddSource)
	})

	t.Run("development forces debug console", func(t *testing.T) {
		t.Setenv(EnvLevel, "error")
		t.Setenv(EnvFormat, "json")
		t.Setenv(EnvMode, "Development")

		cfg := NewConfigFromEnv()
		assert.Equal(t, "debug", cfg.Level)
		assert.Equal(t, "console", cfg.Format)
		assert.True(t, cfg.AddSource)
	})
}

func TestApplyEnv_KeepsFileValues(t *testing.T) {
	t.Setenv(EnvLevel, "")
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvOutput, "")
	t.Setenv(EnvAddSource, "not-a-bool")
	t.Setenv(EnvMode, "")

	cfg := Config{Level: "debug", Format: "json", Output: "stderr", AddSource: true}
	cfg.ApplyEnv()

	assert.Equal(t, Config{Level: "debug", Format: "json", Output: "stderr", AddSource: true}, cfg)
}

func TestInit(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv(EnvLevel, "")
		t.Setenv(EnvMode, "")
		Init(nil)

		assert.NotNil(t, GetLogger())
		assert.False(t, IsDebugMode())
	})

	t.Run("debug json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "formabot.log")
		Init(&Config{Level: "debug", Format: "json", Output: "file:" + path})
		t.Cleanup(func() { Init(&Config{Level: "info", Format: "console"}) })

		assert.True(t, IsDebugMode())
		GetLogger().Debug("written")
	})
}

func TestOpenOutput(t *testing.T) {
	_, isFile := openOutput("stderr")
	assert.False(t, isFile)

	_, isFile = openOutput("file:" + filepath.Join(t.TempDir(), "out.log"))
	assert.True(t, isFile)

	// 目录不存在时回退到标准输出
	_, isFile = openOutput("file:" + filepath.Join(t.TempDir(), "missing", "out.log"))
	assert.False(t, isFile)
}

func TestLogCtxFromContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithSessionID(ctx, "s1")

	attrs := LogCtxFromContext(ctx)
	require.Len(t, attrs, 2)
	assert.Equal(t, "request_id", attrs[0].Key)
	assert.Equal(t, "req-1", attrs[0].Value.String())
	assert.Equal(t, "session_id", attrs[1].Key)
	assert.Equal(t, "s1", attrs[1].Value.String())
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := WithConversationID(context.Background(), "conv-9")
	FromContext(ctx, base).Info("hello")
	assert.Contains(t, buf.String(), "conversation_id=conv-9")

	buf.Reset()
	FromContext(context.Background(), base).Info("plain")
	assert.NotContains(t, buf.String(), "conversation_id")
}

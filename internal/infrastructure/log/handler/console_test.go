package handler

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleHandler_SingleLineWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	h := NewConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, false)
	logger := slog.New(h).With("module", "chat", "component", "orchestrator")

	logger.Info("turn completed", "session_id", "s1", "request_id", "0123456789abcdef", "question", "bonjour à tous")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.True(t, strings.HasPrefix(out, "INFO "))
	assert.Contains(t, out, "[chat/orchestrator] #01234567 turn completed")
	assert.Contains(t, out, "session_id=s1")
	assert.Contains(t, out, `question="bonjour à tous"`)
	assert.NotContains(t, out, "module=chat")
	assert.NotContains(t, out, "request_id=")
	assert.NotContains(t, out, "\033[")
}

func TestConsoleHandler_Color(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewConsoleHandler(&buf, nil, true)).Error("boom")

	assert.Contains(t, buf.String(), colorRed+"ERROR"+colorReset)
}

func TestConsoleHandler_Group(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, nil, false)).WithGroup("http")

	logger.Info("request", "status", 200)

	assert.Contains(t, buf.String(), "http.status=200")
}

func TestConsoleHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}, false))

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

package logx

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetDebug(false)
		SetDebugDomains(nil)
	})
	return &buf
}

func TestLogFormat(t *testing.T) {
	buf := captureOutput(t)

	logger := NewLogger("orchestrator")
	logger.Info("Test message with %s", "formatting")

	output := buf.String()
	assert.Contains(t, output, "[orchestrator]")
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "Test message with formatting")
}

func TestLevels(t *testing.T) {
	buf := captureOutput(t)

	logger := NewLogger("routing")
	logger.Warn("careful")
	logger.Error("broken: %d", 42)

	output := buf.String()
	assert.Contains(t, output, "WARN [routing] careful")
	assert.Contains(t, output, "ERROR [routing] broken: 42")
}

func TestDebugDisabledByDefault(t *testing.T) {
	buf := captureOutput(t)
	SetDebug(false)

	NewLogger("orchestrator").Debug("hidden")
	assert.NotContains(t, buf.String(), "hidden")

	SetDebug(true)
	NewLogger("orchestrator").Debug("visible")
	assert.Contains(t, buf.String(), "DEBUG [orchestrator] visible")
}

func TestDomainFiltering(t *testing.T) {
	buf := captureOutput(t)
	SetDebug(true)
	SetDebugDomains([]string{"routing"})

	ctx := WithAgentID(context.Background(), "session-1")
	Debug(ctx, "routing", "probe %s eligible", "why_now")
	Debug(ctx, "toolloop", "should not appear")

	output := buf.String()
	assert.Contains(t, output, "[session-1] [routing] probe why_now eligible")
	assert.NotContains(t, output, "should not appear")
	assert.True(t, IsDebugEnabledForDomain("routing"))
	assert.False(t, IsDebugEnabledForDomain("toolloop"))
}

func TestRecentEntriesBuffer(t *testing.T) {
	captureOutput(t)

	NewLogger("buffer-test").Info("first")
	NewLogger("other").Info("second")

	entries := GetRecentLogEntries("buffer-test")
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, "first", last.Message)
	assert.Equal(t, string(LevelInfo), last.Level)
	for _, e := range entries {
		assert.True(t, strings.EqualFold(e.AgentID, "buffer-test"))
	}
}

func TestBufferBounded(t *testing.T) {
	b := &InMemoryLogBuffer{maxSize: 3}
	for i := 0; i < 5; i++ {
		b.AddLogEntry(&LogEntry{AgentID: "x", Message: string(rune('a' + i))})
	}
	entries := b.GetLogEntries("")
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[0].Message)
	assert.Equal(t, "e", entries[2].Message)
}

func TestWrap(t *testing.T) {
	captureOutput(t)

	assert.NoError(t, Wrap(nil, "noop"))

	base := errors.New("boom")
	err := Wrap(base, "db connect")
	require.Error(t, err)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "db connect: boom", err.Error())
}

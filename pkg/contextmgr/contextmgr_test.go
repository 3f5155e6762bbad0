package contextmgr

import (
	"strings"
	"testing"

	"github.com/gupta362/pm-agent-v2/pkg/utils"
)

func TestNewContextManager(t *testing.T) {
	cm := NewContextManager()

	if cm.GetMessageCount() != 0 {
		t.Errorf("Expected new context manager to have 0 messages, got %d", cm.GetMessageCount())
	}
	if cm.CountTokens() != 0 {
		t.Errorf("Expected new context manager to have 0 tokens, got %d", cm.CountTokens())
	}
}

func TestAddMessageBuffersUserContent(t *testing.T) {
	cm := NewContextManager()

	cm.AddMessage(RoleUser, "Hello world")
	if cm.GetMessageCount() != 0 {
		t.Fatalf("user content should stay buffered until flush, got %d messages", cm.GetMessageCount())
	}
	if err := cm.FlushUserBuffer(); err != nil {
		t.Fatalf("FlushUserBuffer failed: %v", err)
	}

	messages := cm.GetMessages()
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
	if messages[0].Role != RoleUser || messages[0].Content != "Hello world" {
		t.Errorf("Unexpected message %+v", messages[0])
	}

	cm.AddAssistantMessage("Hi there!")
	if cm.GetMessageCount() != 2 {
		t.Errorf("Expected 2 messages after assistant reply, got %d", cm.GetMessageCount())
	}
}

func TestFlushMergesFragments(t *testing.T) {
	cm := NewContextManager()
	cm.AddMessage(RoleUser, "first")
	cm.AddMessage(RoleUser, "  ")
	cm.AddMessage(RoleUser, "second")
	if err := cm.FlushUserBuffer(); err != nil {
		t.Fatalf("FlushUserBuffer failed: %v", err)
	}
	if got := cm.GetMessages()[0].Content; got != "first\n\nsecond" {
		t.Errorf("merged content = %q", got)
	}

	// Flushing an empty buffer is a no-op.
	if err := cm.FlushUserBuffer(); err != nil {
		t.Fatalf("FlushUserBuffer failed: %v", err)
	}
	if cm.GetMessageCount() != 1 {
		t.Errorf("empty flush added a message")
	}
}

func TestToolResultsFollowToolCalls(t *testing.T) {
	cm := NewContextManager()
	cm.AddMessage(RoleUser, "We need digital twins")
	if err := cm.FlushUserBuffer(); err != nil {
		t.Fatal(err)
	}

	cm.AddAssistantMessageWithTools("", []ToolCall{
		{ID: "t1", Name: "record_probe_fired", Parameters: map[string]any{"probe_id": "solution_problem_separation"}},
		{ID: "t2", Name: "enter_mode", Parameters: map[string]any{"mode_id": "size_value"}},
	})
	cm.AddToolResult("t1", "Recorded.", false)
	cm.AddToolResult("t2", "invalid transition", true)
	if err := cm.FlushUserBuffer(); err != nil {
		t.Fatalf("FlushUserBuffer failed: %v", err)
	}

	messages := cm.GetMessages()
	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}
	results := messages[2].ToolResults
	if messages[2].Role != RoleUser || len(results) != 2 {
		t.Fatalf("Expected user message with 2 tool results, got %+v", messages[2])
	}
	if !results[1].IsError || results[0].IsError {
		t.Errorf("error flags not preserved: %+v", results)
	}

	summary := cm.GetContextSummary()
	if !strings.Contains(summary, "3 messages, 2 tool calls, 2 tool results") {
		t.Errorf("unexpected summary %q", summary)
	}
}

func TestOrphanToolResultRejected(t *testing.T) {
	cm := NewContextManager()
	cm.AddToolResult("t1", "x", false)
	if err := cm.FlushUserBuffer(); err == nil {
		t.Error("Expected error for tool result without a tool call")
	}
}

func TestCountTokensWithCounter(t *testing.T) {
	counter, err := utils.NewTokenCounter("claude-sonnet-4-5")
	if err != nil {
		t.Fatal(err)
	}
	cm := NewContextManagerWithCounter(counter)
	cm.AddAssistantMessage("This is a longer sentence with more words.")
	if got := cm.CountTokens(); got < 8 || got > 12 {
		t.Errorf("CountTokens = %d, want 8..12", got)
	}
}

func TestClear(t *testing.T) {
	cm := NewContextManager()
	cm.AddAssistantMessage("a")
	cm.AddMessage(RoleUser, "b")
	cm.Clear()
	if err := cm.FlushUserBuffer(); err != nil {
		t.Fatal(err)
	}
	if cm.GetMessageCount() != 0 {
		t.Errorf("Expected 0 messages after Clear, got %d", cm.GetMessageCount())
	}
}

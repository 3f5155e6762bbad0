package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gupta362/pm-agent-v2/pkg/agent/llm"
	"github.com/gupta362/pm-agent-v2/pkg/agent/llmerrors"
	"github.com/gupta362/pm-agent-v2/pkg/tools"
)

// TestEnsureAlternation tests the message alternation logic.
func TestEnsureAlternation(t *testing.T) {
	tests := []struct {
		name         string
		input        []llm.CompletionMessage
		expectSystem string
		expectMsgLen int
		expectErr    bool
		errContains  string
	}{
		{
			name:        "empty messages",
			input:       []llm.CompletionMessage{},
			expectErr:   true,
			errContains: "message list cannot be empty",
		},
		{
			name: "system message extracted",
			input: []llm.CompletionMessage{
				{Role: llm.RoleSystem, Content: "You are helpful"},
				{Role: llm.RoleUser, Content: "Hello"},
			},
			expectSystem: "You are helpful",
			expectMsgLen: 1,
		},
		{
			name: "proper alternation maintained",
			input: []llm.CompletionMessage{
				{Role: llm.RoleUser, Content: "Hello"},
				{Role: llm.RoleAssistant, Content: "Hi"},
				{Role: llm.RoleUser, Content: "How are you?"},
			},
			expectMsgLen: 3,
		},
		{
			name: "consecutive user messages merged",
			input: []llm.CompletionMessage{
				{Role: llm.RoleUser, Content: "Hello"},
				{Role: llm.RoleUser, Content: "Anyone there?"},
			},
			expectMsgLen: 1,
		},
		{
			name: "consecutive assistant messages rejected",
			input: []llm.CompletionMessage{
				{Role: llm.RoleUser, Content: "Hello"},
				{Role: llm.RoleAssistant, Content: "Hi"},
				{Role: llm.RoleAssistant, Content: "There"},
				{Role: llm.RoleUser, Content: "Ok"},
			},
			expectErr:   true,
			errContains: "alternation violation",
		},
		{
			name: "starts with assistant",
			input: []llm.CompletionMessage{
				{Role: llm.RoleAssistant, Content: "Hi"},
				{Role: llm.RoleUser, Content: "Hello"},
			},
			expectErr:   true,
			errContains: "first message must be user",
		},
		{
			name: "ends with assistant returns error",
			input: []llm.CompletionMessage{
				{Role: llm.RoleUser, Content: "Hello"},
				{Role: llm.RoleAssistant, Content: "Hi"},
			},
			expectErr:   true,
			errContains: "last message must be user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			system, msgs, err := ensureAlternation(tt.input)

			if tt.expectErr {
				if err == nil {
					t.Error("expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if system != tt.expectSystem {
				t.Errorf("expected system %q, got %q", tt.expectSystem, system)
			}
			if len(msgs) != tt.expectMsgLen {
				t.Errorf("expected %d messages, got %d", tt.expectMsgLen, len(msgs))
			}
		})
	}
}

func TestEnsureAlternationMergesToolResults(t *testing.T) {
	_, msgs, err := ensureAlternation([]llm.CompletionMessage{
		{Role: llm.RoleUser, Content: "Hello"},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "t1", Name: "record_probe"}}},
		{Role: llm.RoleUser, ToolResults: []llm.ToolResult{{ToolCallID: "t1", Content: "ok"}}},
		{Role: llm.RoleUser, Content: "more"},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "more", msgs[2].Content)
	assert.Equal(t, []llm.ToolResult{{ToolCallID: "t1", Content: "ok"}}, msgs[2].ToolResults)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) llm.LLMClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClaudeClientWithModel("test-key", "claude-sonnet-4-5", option.WithBaseURL(srv.URL+"/"))
}

func TestCompleteRoundTripsToolBlocks(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4-5",
			"content": [
				{"type": "text", "text": "Let me note that."},
				{"type": "tool_use", "id": "toolu_2", "name": "record_assumption", "input": {"claim": "stores opt in"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 120, "output_tokens": 30}
		}`)
	})

	req := llm.CompletionRequest{
		System:      "You are a PM co-pilot.",
		MaxTokens:   1024,
		Temperature: 0.3,
		Messages: []llm.CompletionMessage{
			{Role: llm.RoleUser, Content: "We want digital twins."},
			{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "toolu_1", Name: "record_probe", Parameters: map[string]any{"probe_id": "solution_first"}}}},
			{Role: llm.RoleUser, ToolResults: []llm.ToolResult{{ToolCallID: "toolu_1", Content: "recorded"}}},
		},
		Tools: []tools.ToolDefinition{{
			Name:        "record_probe",
			Description: "Record a fired probe",
			InputSchema: tools.InputSchema{
				Type:       "object",
				Properties: map[string]tools.Property{"probe_id": {Type: "string"}},
				Required:   []string{"probe_id"},
			},
		}},
	}

	resp, err := client.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Let me note that.", resp.Content)
	assert.Equal(t, "tool_use", resp.StopReason)
	assert.Equal(t, llm.Usage{InputTokens: 120, OutputTokens: 30}, resp.Usage)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_2", resp.ToolCalls[0].ID)
	assert.Equal(t, map[string]any{"claim": "stores opt in"}, resp.ToolCalls[0].Parameters)

	messages := body["messages"].([]any)
	require.Len(t, messages, 3)
	assistant := messages[1].(map[string]any)["content"].([]any)
	assert.Equal(t, "tool_use", assistant[0].(map[string]any)["type"])
	assert.Equal(t, "toolu_1", assistant[0].(map[string]any)["id"])
	result := messages[2].(map[string]any)["content"].([]any)
	assert.Equal(t, "tool_result", result[0].(map[string]any)["type"])
	assert.Equal(t, "toolu_1", result[0].(map[string]any)["tool_use_id"])

	system := body["system"].([]any)
	assert.Equal(t, "You are a PM co-pilot.", system[0].(map[string]any)["text"])
	toolsSent := body["tools"].([]any)
	assert.Equal(t, "record_probe", toolsSent[0].(map[string]any)["name"])
}

func TestCompleteClassifiesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   llmerrors.ErrorType
	}{
		{"rate limit", http.StatusTooManyRequests, llmerrors.ErrorTypeRateLimit},
		{"auth", http.StatusUnauthorized, llmerrors.ErrorTypeAuth},
		{"overloaded", http.StatusServiceUnavailable, llmerrors.ErrorTypeTransient},
		{"bad request", http.StatusBadRequest, llmerrors.ErrorTypeBadPrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"nope"}}`)
			})

			_, err := client.Complete(context.Background(), llm.CompletionRequest{
				MaxTokens: 64,
				Messages:  []llm.CompletionMessage{llm.NewUserMessage("hi")},
			})
			require.Error(t, err)
			assert.Equal(t, tt.want, llmerrors.TypeOf(err))
			assert.Equal(t, 1, calls, "no retries")
		})
	}
}

func TestCompleteRejectsBadSequence(t *testing.T) {
	client := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("request should not be sent")
	})
	_, err := client.Complete(context.Background(), llm.CompletionRequest{
		MaxTokens: 64,
		Messages:  []llm.CompletionMessage{llm.NewAssistantMessage("hi")},
	})
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeBadPrompt))
}

package google

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/gupta362/pm-agent-v2/pkg/agent/llm"
	"github.com/gupta362/pm-agent-v2/pkg/agent/llmerrors"
	"github.com/gupta362/pm-agent-v2/pkg/tools"
)

// TestConvertMessagesToGemini tests message conversion logic.
func TestConvertMessagesToGemini(t *testing.T) {
	tests := []struct {
		name             string
		messages         []llm.CompletionMessage
		expectSystem     string
		expectContentLen int
		expectErr        bool
		errContains      string
	}{
		{
			name:        "empty messages",
			messages:    []llm.CompletionMessage{},
			expectErr:   true,
			errContains: "message list cannot be empty",
		},
		{
			name: "multiple system messages concatenated",
			messages: []llm.CompletionMessage{
				{Role: llm.RoleSystem, Content: "You are a PM co-pilot"},
				{Role: llm.RoleSystem, Content: "Ask one question at a time"},
				{Role: llm.RoleUser, Content: "Hello"},
			},
			expectSystem:     "You are a PM co-pilot\n\nAsk one question at a time",
			expectContentLen: 1,
		},
		{
			name: "only system messages",
			messages: []llm.CompletionMessage{
				{Role: llm.RoleSystem, Content: "You are a PM co-pilot"},
			},
			expectErr:   true,
			errContains: "at least one non-system message",
		},
		{
			name: "tool exchange",
			messages: []llm.CompletionMessage{
				{Role: llm.RoleUser, Content: "We need digital twins"},
				{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "record_probe", Parameters: map[string]any{"probe_id": "solution_first"}}}},
				{Role: llm.RoleUser, ToolResults: []llm.ToolResult{{ToolCallID: "call_1", Content: "recorded"}}},
			},
			expectContentLen: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents, system, err := convertMessagesToGemini(tt.messages)

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
			if len(contents) != tt.expectContentLen {
				t.Errorf("expected %d contents, got %d", tt.expectContentLen, len(contents))
			}
		})
	}
}

func TestFunctionResponseCarriesName(t *testing.T) {
	contents, _, err := convertMessagesToGemini([]llm.CompletionMessage{
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "noting", ToolCalls: []llm.ToolCall{{ID: "call_9", Name: "enter_mode"}}},
		{Role: llm.RoleUser, Content: "ok", ToolResults: []llm.ToolResult{{ToolCallID: "call_9", Content: "invalid transition", IsError: true}}},
	})
	require.NoError(t, err)
	require.Len(t, contents, 3)

	assert.Equal(t, genai.RoleModel, contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, "noting", contents[1].Parts[0].Text)

	reply := contents[2]
	require.Len(t, reply.Parts, 2)
	resp := reply.Parts[0].FunctionResponse
	require.NotNil(t, resp, "function responses lead the user turn")
	assert.Equal(t, "enter_mode", resp.Name)
	assert.Equal(t, "call_9", resp.ID)
	assert.Equal(t, true, resp.Response["is_error"])
	assert.Equal(t, "ok", reply.Parts[1].Text)
}

// TestConvertToolsToGemini tests tool definition conversion.
func TestConvertToolsToGemini(t *testing.T) {
	tool := tools.ToolDefinition{
		Name:        "record_assumption",
		Description: "Register an assumption",
		InputSchema: tools.InputSchema{
			Type: "object",
			Properties: map[string]tools.Property{
				"type":       {Type: "string", Enum: []string{"value", "usability"}},
				"confidence": {Type: "number"},
				"depends_on": {Type: "array", Items: &tools.Property{Type: "string"}},
			},
			Required: []string{"type"},
		},
	}

	result := convertToolsToGemini([]tools.ToolDefinition{tool})
	require.Len(t, result, 1)

	params := result[0].Parameters
	require.NotNil(t, params)
	assert.Equal(t, genai.TypeObject, params.Type)
	assert.Equal(t, []string{"type"}, params.Required)
	assert.Equal(t, genai.TypeString, params.Properties["type"].Type)
	assert.Equal(t, []string{"value", "usability"}, params.Properties["type"].Enum)
	assert.Equal(t, genai.TypeNumber, params.Properties["confidence"].Type)
	assert.Equal(t, genai.TypeArray, params.Properties["depends_on"].Type)
	assert.Equal(t, genai.TypeString, params.Properties["depends_on"].Items.Type)
}

// TestConvertFunctionCallsFromGemini tests function call conversion.
func TestConvertFunctionCallsFromGemini(t *testing.T) {
	result := convertFunctionCallsFromGemini([]*genai.FunctionCall{
		{ID: "call_123", Name: "record_probe"},
		{Name: "record_pattern"},
		{Name: "record_pattern"},
	})
	require.Len(t, result, 3)
	assert.Equal(t, "call_123", result[0].ID)
	assert.Equal(t, "record_pattern", result[1].ID)
	assert.Equal(t, "record_pattern_1", result[2].ID)

	assert.Nil(t, convertFunctionCallsFromGemini(nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) llm.LLMClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewGeminiClientWithModel("test-key", "gemini-2.5-flash", srv.URL)
	require.NoError(t, err)
	return client
}

func TestComplete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent"), r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(raw), "systemInstruction")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{
				"content": {"role": "model", "parts": [
					{"text": "Who is asking for this?"},
					{"functionCall": {"name": "record_probe", "args": {"probe_id": "solution_first"}}}
				]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 42, "candidatesTokenCount": 9}
		}`)
	})

	resp, err := client.Complete(context.Background(), llm.CompletionRequest{
		System:    "You are a PM co-pilot",
		MaxTokens: 512,
		Messages:  []llm.CompletionMessage{llm.NewUserMessage("We want digital twins")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Who is asking for this?", resp.Content)
	assert.Equal(t, "STOP", resp.StopReason)
	assert.Equal(t, llm.Usage{InputTokens: 42, OutputTokens: 9}, resp.Usage)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "record_probe", resp.ToolCalls[0].ID)
	assert.Equal(t, map[string]any{"probe_id": "solution_first"}, resp.ToolCalls[0].Parameters)
}

func TestCompleteClassifiesErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`)
	})

	_, err := client.Complete(context.Background(), llm.CompletionRequest{
		MaxTokens: 64,
		Messages:  []llm.CompletionMessage{llm.NewUserMessage("hi")},
	})
	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeRateLimit))
}

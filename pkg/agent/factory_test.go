package agent

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gupta362/pm-agent-v2/pkg/agent/llm"
	"github.com/gupta362/pm-agent-v2/pkg/agent/llmerrors"
	"github.com/gupta362/pm-agent-v2/pkg/agent/middleware/metrics"
	"github.com/gupta362/pm-agent-v2/pkg/config"
)

func TestCreateClientSelectsProvider(t *testing.T) {
	config.SetDecryptedSecrets(nil)
	t.Setenv(config.EnvAnthropicAPIKey, "sk-ant-test")
	t.Setenv(config.EnvOpenAIAPIKey, "sk-test")
	t.Setenv(config.EnvGoogleAPIKey, "g-test")
	t.Setenv(config.EnvOllamaHost, "")

	tests := []struct {
		name      string
		model     string
		wantModel string
		wantErr   bool
	}{
		{name: "anthropic", model: "claude-sonnet-4-5", wantModel: "claude-sonnet-4-5"},
		{name: "openai", model: "gpt-4.1", wantModel: "gpt-4.1"},
		{name: "google", model: "gemini-2.5-flash", wantModel: "gemini-2.5-flash"},
		{name: "ollama needs no key", model: "ollama:qwen3", wantModel: "qwen3"},
		{name: "unknown model", model: "mystery-model", wantErr: true},
		{name: "empty model", model: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewLLMClient(config.OrchestratorConfig{Model: tt.model})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, client.GetModelName())
		})
	}
}

func TestCreateClientMissingKey(t *testing.T) {
	config.SetDecryptedSecrets(nil)
	t.Setenv(config.EnvOpenAIAPIKey, "")

	_, err := NewLLMClient(config.OrchestratorConfig{Model: "gpt-4o"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestCreateClientChainRecordsUsage(t *testing.T) {
	config.SetDecryptedSecrets(map[string]string{config.EnvAnthropicAPIKey: "sk-ant-test"})
	t.Cleanup(func() { config.SetDecryptedSecrets(nil) })

	replies := []string{
		`{"id":"m1","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[{"type":"text","text":"Who is asking for this?"}],"stop_reason":"end_turn","usage":{"input_tokens":100,"output_tokens":20}}`,
		`{"id":"m2","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"stop_reason":"end_turn","usage":{"input_tokens":90,"output_tokens":0}}`,
	}
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, replies[calls])
		calls++
	}))
	defer srv.Close()

	usage := metrics.NewUsageRecorder()
	client, err := NewLLMClient(
		config.OrchestratorConfig{Model: "claude-sonnet-4-5"},
		WithRecorder(usage),
		WithBaseURL(srv.URL+"/"),
	)
	require.NoError(t, err)

	req := llm.CompletionRequest{MaxTokens: 256, Messages: []llm.CompletionMessage{llm.NewUserMessage("We want digital twins")}}

	resp, err := client.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Who is asking for this?", resp.Content)

	_, err = client.Complete(context.Background(), req)
	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeEmptyResponse), "empty replies surface as errors")
	assert.Equal(t, 2, calls, "no retry on empty response")

	got := usage.Model("claude-sonnet-4-5")
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.RequestCount)
	assert.Equal(t, int64(1), got.FailedCount)
	assert.Equal(t, int64(100), got.PromptTokens)
}

// Package agent provides the LLM client factory with middleware chain construction.
package agent

import (
	"fmt"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/option"

	"github.com/gupta362/pm-agent-v2/pkg/agent/internal/llmimpl/anthropic"
	"github.com/gupta362/pm-agent-v2/pkg/agent/internal/llmimpl/google"
	"github.com/gupta362/pm-agent-v2/pkg/agent/internal/llmimpl/ollama"
	"github.com/gupta362/pm-agent-v2/pkg/agent/internal/llmimpl/openaiofficial"
	"github.com/gupta362/pm-agent-v2/pkg/agent/llm"
	"github.com/gupta362/pm-agent-v2/pkg/agent/middleware/logging"
	"github.com/gupta362/pm-agent-v2/pkg/agent/middleware/metrics"
	"github.com/gupta362/pm-agent-v2/pkg/agent/middleware/validation"
	"github.com/gupta362/pm-agent-v2/pkg/config"
	"github.com/gupta362/pm-agent-v2/pkg/logx"
)

// LLMClientFactory creates LLM clients with configured middleware chains.
// There is no retry or circuit breaker: a failed call must reach the
// orchestrator as a single failed round.
type LLMClientFactory struct {
	recorder metrics.Recorder
	logger   *logx.Logger
	baseURL  string
}

// Option configures an LLMClientFactory.
type Option func(*LLMClientFactory)

// WithRecorder sets the metrics recorder. Defaults to metrics.Nop.
func WithRecorder(r metrics.Recorder) Option {
	return func(f *LLMClientFactory) {
		if r != nil {
			f.recorder = r
		}
	}
}

// WithLogger sets the logger used by the logging and metrics middleware.
func WithLogger(l *logx.Logger) Option {
	return func(f *LLMClientFactory) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithBaseURL points the provider SDK at another endpoint (proxies, tests).
// Ollama takes its host from OLLAMA_HOST instead.
func WithBaseURL(url string) Option {
	return func(f *LLMClientFactory) { f.baseURL = url }
}

// NewLLMClientFactory creates a new factory.
func NewLLMClientFactory(opts ...Option) *LLMClientFactory {
	f := &LLMClientFactory{
		recorder: metrics.Nop{},
		logger:   logx.NewLogger("llm"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewLLMClient is shorthand for NewLLMClientFactory(opts...).CreateClient(cfg).
func NewLLMClient(cfg config.OrchestratorConfig, opts ...Option) (llm.LLMClient, error) {
	return NewLLMClientFactory(opts...).CreateClient(cfg)
}

// CreateClient builds the raw provider client for cfg.Model and wraps it:
// Logging -> Metrics -> EmptyResponse -> RawClient.
//
//nolint:gocritic // config passed by value
func (f *LLMClientFactory) CreateClient(cfg config.OrchestratorConfig) (llm.LLMClient, error) {
	rawClient, err := f.createRawClient(cfg.Model)
	if err != nil {
		return nil, err
	}

	client := llm.Chain(rawClient,
		logging.Middleware(f.logger),
		metrics.Middleware(f.recorder, nil, f.logger),
		validation.EmptyResponseMiddleware(),
	)
	return client, nil
}

func (f *LLMClientFactory) createRawClient(modelName string) (llm.LLMClient, error) {
	if modelName == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}
	provider, err := config.GetModelProvider(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to determine provider for model %s: %w", modelName, err)
	}

	// For Ollama this is the host URL.
	apiKey, err := config.GetAPIKey(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get API key for provider %s: %w", provider, err)
	}

	switch provider {
	case config.ProviderAnthropic:
		var opts []anthropicoption.RequestOption
		if f.baseURL != "" {
			opts = append(opts, anthropicoption.WithBaseURL(f.baseURL))
		}
		return anthropic.NewClaudeClientWithModel(apiKey, modelName, opts...), nil
	case config.ProviderOpenAI:
		var opts []openaioption.RequestOption
		if f.baseURL != "" {
			opts = append(opts, openaioption.WithBaseURL(f.baseURL))
		}
		return openaiofficial.NewOfficialClientWithModel(apiKey, modelName, opts...), nil
	case config.ProviderGoogle:
		client, err := google.NewGeminiClientWithModel(apiKey, modelName, f.baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return client, nil
	case config.ProviderOllama:
		return ollama.NewOllamaClientWithModel(apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

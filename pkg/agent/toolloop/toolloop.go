// Package toolloop runs the LLM tool-calling exchange for one turn.
package toolloop

import (
	"context"
	"fmt"
	"time"

	"github.com/gupta362/pm-agent-v2/pkg/agent/llm"
	"github.com/gupta362/pm-agent-v2/pkg/contextmgr"
	"github.com/gupta362/pm-agent-v2/pkg/logx"
	"github.com/gupta362/pm-agent-v2/pkg/tools"
)

// ToolProvider is what the loop needs from a tool registry.
type ToolProvider interface {
	Get(name string) (tools.Tool, error)
	Definitions() []tools.ToolDefinition
}

// ToolEvent describes one executed tool call. Result is nil when Err is set.
type ToolEvent struct {
	Call      llm.ToolCall
	Result    *tools.ExecResult
	Err       error
	Iteration int
	Seq       int
	Duration  time.Duration
}

// ToolLoop manages LLM interactions with tool calling.
type ToolLoop struct {
	llmClient llm.LLMClient
	logger    *logx.Logger
}

// New creates a new ToolLoop instance.
func New(llmClient llm.LLMClient, logger *logx.Logger) *ToolLoop {
	if logger == nil {
		logger = logx.NewLogger("toolloop")
	}
	return &ToolLoop{llmClient: llmClient, logger: logger}
}

// Config defines how the tool loop behaves.
//
//nolint:govet // fieldalignment: struct fields ordered for clarity over memory alignment
type Config struct {
	// ContextManager holds prior messages; the loop appends the exchange to it.
	ContextManager *contextmgr.ContextManager

	ToolProvider ToolProvider

	// SystemPrompt is sent with every request.
	SystemPrompt string

	// InitialPrompt is added as a user message before the first round (optional).
	InitialPrompt string

	// OnToolResult is called after every tool execution, in call order.
	OnToolResult func(ev ToolEvent)

	MaxIterations int
	MaxTokens     int
	Temperature   float32

	// DebugLogging logs every message sent to the LLM.
	DebugLogging bool
}

// Run executes rounds until the model answers with text, MaxIterations rounds
// have ended in tool calls, or the LLM client fails. Every tool call in a
// round is executed in order and answered before the next request; a failing
// tool is reported to the model as an error result and never stops the loop.
func (tl *ToolLoop) Run(ctx context.Context, cfg *Config) Outcome {
	if cfg == nil || cfg.ContextManager == nil || cfg.ToolProvider == nil {
		return Outcome{Kind: OutcomeConfigError, Err: fmt.Errorf("%w: ContextManager and ToolProvider are required", ErrInvalidConfig)}
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 8
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	if cfg.InitialPrompt != "" {
		cfg.ContextManager.AddMessage(contextmgr.RoleUser, cfg.InitialPrompt)
	}

	toolDefs := cfg.ToolProvider.Definitions()
	var out Outcome
	seq := 0

	for iteration := 1; iteration <= maxIterations; iteration++ {
		out.Iteration = iteration

		if err := cfg.ContextManager.FlushUserBuffer(); err != nil {
			out.Kind, out.Err = OutcomeConfigError, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
			return out
		}

		messages := buildMessages(cfg.ContextManager)
		req := llm.CompletionRequest{
			System:      cfg.SystemPrompt,
			Messages:    messages,
			Tools:       toolDefs,
			MaxTokens:   maxTokens,
			Temperature: cfg.Temperature,
		}

		tl.logger.Info("🔄 Starting LLM call to model '%s' with %d messages, %d max tokens, %d tools (iteration %d)",
			tl.llmClient.GetModelName(), len(messages), req.MaxTokens, len(toolDefs), iteration)
		if cfg.DebugLogging {
			tl.logMessages(messages)
		}

		start := time.Now()
		resp, err := tl.llmClient.Complete(ctx, req)
		duration := time.Since(start)
		if err != nil {
			tl.logger.Error("❌ LLM call failed after %.3gs: %v", duration.Seconds(), err)
			out.Kind, out.Err = OutcomeLLMError, fmt.Errorf("LLM completion failed: %w", err)
			return out
		}
		out.Usage.InputTokens += resp.Usage.InputTokens
		out.Usage.OutputTokens += resp.Usage.OutputTokens

		tl.logger.Info("✅ LLM call completed in %.3gs, response length: %d chars, tool calls: %d",
			duration.Seconds(), len(resp.Content), len(resp.ToolCalls))

		if len(resp.ToolCalls) == 0 {
			cfg.ContextManager.AddAssistantMessage(resp.Content)
			out.Kind, out.Content = OutcomeSuccess, resp.Content
			return out
		}

		calls := make([]contextmgr.ToolCall, len(resp.ToolCalls))
		for i := range resp.ToolCalls {
			calls[i] = contextmgr.ToolCall{
				ID:         resp.ToolCalls[i].ID,
				Name:       resp.ToolCalls[i].Name,
				Parameters: resp.ToolCalls[i].Parameters,
			}
		}
		cfg.ContextManager.AddAssistantMessageWithTools(resp.Content, calls)

		// Every tool_use must get a tool_result, so all calls run even after a failure.
		for i := range resp.ToolCalls {
			call := resp.ToolCalls[i]
			seq++
			ev := tl.execTool(ctx, cfg.ToolProvider, call)
			ev.Iteration, ev.Seq = iteration, seq
			out.ToolCalls++

			content, isError := formatToolResult(ev.Result, ev.Err)
			cfg.ContextManager.AddToolResult(call.ID, content, isError)
			if cfg.OnToolResult != nil {
				cfg.OnToolResult(ev)
			}
		}
		tl.logger.Info("🔄 Tools executed, continuing iteration")
	}

	tl.logger.Warn("⚠️  Maximum tool iterations (%d) reached", maxIterations)
	out.Kind = OutcomeIterationLimit
	out.Err = fmt.Errorf("%w (%d)", ErrIterationLimit, maxIterations)
	return out
}

func (tl *ToolLoop) execTool(ctx context.Context, provider ToolProvider, call llm.ToolCall) ToolEvent {
	ev := ToolEvent{Call: call}
	tool, err := provider.Get(call.Name)
	if err != nil {
		tl.logger.Error("Failed to get tool %s: %v", call.Name, err)
		ev.Err = err
		return ev
	}

	start := time.Now()
	ev.Result, ev.Err = tool.Exec(ctx, call.Parameters)
	ev.Duration = time.Since(start)
	if ev.Err != nil {
		tl.logger.Warn("Tool %s failed after %.3fs: %v", call.Name, ev.Duration.Seconds(), ev.Err)
	} else {
		tl.logger.Debug("Tool %s completed in %.3fs", call.Name, ev.Duration.Seconds())
	}
	return ev
}

// buildMessages converts context manager messages to llm.CompletionMessage format.
func buildMessages(cm *contextmgr.ContextManager) []llm.CompletionMessage {
	contextMessages := cm.GetMessages()

	messages := make([]llm.CompletionMessage, 0, len(contextMessages))
	for i := range contextMessages {
		msg := &contextMessages[i]

		var toolCalls []llm.ToolCall
		if len(msg.ToolCalls) > 0 {
			toolCalls = make([]llm.ToolCall, len(msg.ToolCalls))
			for j := range msg.ToolCalls {
				toolCalls[j] = llm.ToolCall{
					ID:         msg.ToolCalls[j].ID,
					Name:       msg.ToolCalls[j].Name,
					Parameters: msg.ToolCalls[j].Parameters,
				}
			}
		}

		var toolResults []llm.ToolResult
		if len(msg.ToolResults) > 0 {
			toolResults = make([]llm.ToolResult, len(msg.ToolResults))
			for j := range msg.ToolResults {
				toolResults[j] = llm.ToolResult{
					ToolCallID: msg.ToolResults[j].ToolCallID,
					Content:    msg.ToolResults[j].Content,
					IsError:    msg.ToolResults[j].IsError,
				}
			}
		}

		messages = append(messages, llm.CompletionMessage{
			Role:        llm.CompletionRole(msg.Role),
			Content:     msg.Content,
			ToolCalls:   toolCalls,
			ToolResults: toolResults,
		})
	}
	return messages
}

// formatToolResult converts a tool execution result to the text fed back to the model.
func formatToolResult(result *tools.ExecResult, err error) (string, bool) {
	if err != nil {
		return fmt.Sprintf("Error: %v", err), true
	}
	if result == nil || result.Content == "" {
		return "ok", false
	}
	return result.Content, false
}

// logMessages logs detailed message information for debugging.
func (tl *ToolLoop) logMessages(messages []llm.CompletionMessage) {
	tl.logger.Info("📝 DEBUG - Messages sent to LLM:")
	for i := range messages {
		msg := &messages[i]
		contentPreview := msg.Content
		if len(contentPreview) > 100 {
			contentPreview = contentPreview[:100] + "..."
		}

		toolInfo := ""
		if len(msg.ToolCalls) > 0 {
			toolInfo = fmt.Sprintf(", ToolCalls: %d", len(msg.ToolCalls))
		}
		if len(msg.ToolResults) > 0 {
			toolInfo += fmt.Sprintf(", ToolResults: %d", len(msg.ToolResults))
		}
		tl.logger.Info("  [%d] Role: %s, Content: %q%s", i, msg.Role, contentPreview, toolInfo)

		for j := range msg.ToolCalls {
			tc := &msg.ToolCalls[j]
			tl.logger.Info("    ToolCall[%d] ID=%s Name=%s Params=%v", j, tc.ID, tc.Name, tc.Parameters)
		}
		for j := range msg.ToolResults {
			tr := &msg.ToolResults[j]
			resultPreview := tr.Content
			if len(resultPreview) > 200 {
				resultPreview = resultPreview[:200] + "..."
			}
			tl.logger.Info("    ToolResult[%d] ID=%s IsError=%v Content=%q", j, tr.ToolCallID, tr.IsError, resultPreview)
		}
	}
}

// Package logging provides logging middleware for LLM clients.
package logging

import (
	"context"
	"strings"
	"time"

	"github.com/gupta362/pm-agent-v2/pkg/agent/llm"
	"github.com/gupta362/pm-agent-v2/pkg/agent/llmerrors"
	"github.com/gupta362/pm-agent-v2/pkg/logx"
	"github.com/gupta362/pm-agent-v2/pkg/tools"
	"github.com/gupta362/pm-agent-v2/pkg/utils"
)

// maxLoggedMessage bounds message bodies in empty-response dumps.
const maxLoggedMessage = 10000

// Middleware logs each call's size on the way in and its result on the way out.
// Empty-response failures additionally dump the full request.
func Middleware(logger *logx.Logger) llm.Middleware {
	if logger == nil {
		logger = logx.NewLogger("llm")
	}
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				model := next.GetModelName()
				logger.Debug("📤 %s request: %d messages, %d tools, ~%d prompt tokens",
					model, len(req.Messages), len(req.Tools), estimatePrompt(req))

				start := time.Now()
				resp, err := next.Complete(ctx, req)
				elapsed := time.Since(start)

				if err != nil {
					logger.Warn("❌ %s failed after %dms (%s): %v",
						model, elapsed.Milliseconds(), llmerrors.TypeOf(err), err)
					if llmerrors.Is(err, llmerrors.ErrorTypeEmptyResponse) {
						logEmptyResponseDebugInfo(logger, req)
					}
					return resp, err //nolint:wrapcheck // Middleware intentionally passes through errors unchanged
				}

				logger.Debug("📥 %s response in %dms: %d chars, %d tool calls, stop=%s",
					model, elapsed.Milliseconds(), len(resp.Content), len(resp.ToolCalls), resp.StopReason)
				return resp, nil
			},
			next.GetModelName,
		)
	}
}

func estimatePrompt(req llm.CompletionRequest) int {
	total := utils.CountTokensSimple(req.System)
	for i := range req.Messages {
		total += utils.CountTokensSimple(req.Messages[i].Content)
		for _, tr := range req.Messages[i].ToolResults {
			total += utils.CountTokensSimple(tr.Content)
		}
	}
	return total
}

// logEmptyResponseDebugInfo logs the request that produced an empty response.
//
//nolint:gocritic // request is logged by value
func logEmptyResponseDebugInfo(logger *logx.Logger, req llm.CompletionRequest) {
	logger.Error("🚨 EMPTY RESPONSE FROM LLM - DEBUGGING INFO:")
	logger.Error("================================================================================")

	for i := range req.Messages {
		msg := &req.Messages[i]
		content := msg.Content
		if len(content) > maxLoggedMessage {
			content = content[:maxLoggedMessage] + "\n\n[... message truncated for log readability ...]"
		}
		logger.Error("Message [%d] Role: %s, Content: %s", i, msg.Role, content)
	}

	logger.Error("================================================================================")
	logger.Error("🔍 Request Details:")
	logger.Error("  - Temperature: %v", req.Temperature)
	logger.Error("  - Max Tokens: %d", req.MaxTokens)
	logger.Error("  - Tools Count: %d", len(req.Tools))
	if len(req.Tools) > 0 {
		logger.Error("  - Available Tools: %s", strings.Join(getToolNames(req.Tools), ", "))
	}
	logger.Error("🚨 END EMPTY RESPONSE DEBUG")
}

// getToolNames extracts tool names from tool definitions for logging.
func getToolNames(toolDefs []tools.ToolDefinition) []string {
	names := make([]string, len(toolDefs))
	for i := range toolDefs {
		names[i] = toolDefs[i].Name
	}
	return names
}

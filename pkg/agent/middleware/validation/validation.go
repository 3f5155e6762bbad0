// Package validation rejects unusable LLM responses before they reach the tool loop.
package validation

import (
	"context"
	"strings"

	"github.com/gupta362/pm-agent-v2/pkg/agent/llm"
	"github.com/gupta362/pm-agent-v2/pkg/agent/llmerrors"
)

// EmptyResponseMiddleware turns a response with neither text nor tool calls into an
// ErrorTypeEmptyResponse error. It does not retry: the failed round surfaces to the caller.
func EmptyResponseMiddleware() llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				resp, err := next.Complete(ctx, req)
				if err != nil {
					return resp, err //nolint:wrapcheck // pass through
				}
				if IsEmpty(resp) {
					return resp, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse,
						"model returned neither text nor tool calls (stop reason: "+resp.StopReason+")")
				}
				return resp, nil
			},
			next.GetModelName,
		)
	}
}

// IsEmpty reports whether resp carries nothing the tool loop can act on.
//
//nolint:gocritic // value receiver matches the response type used throughout
func IsEmpty(resp llm.CompletionResponse) bool {
	return strings.TrimSpace(resp.Content) == "" && len(resp.ToolCalls) == 0
}

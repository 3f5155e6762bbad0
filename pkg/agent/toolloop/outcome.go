package toolloop

import (
	"fmt"

	"github.com/gupta362/pm-agent-v2/pkg/agent/llm"
)

// OutcomeKind categorizes the result of a toolloop execution.
type OutcomeKind int

const (
	// OutcomeSuccess indicates the model answered with text. Content holds the reply.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeIterationLimit indicates MaxIterations rounds all ended in tool calls.
	// Effects of the executed tools are kept.
	OutcomeIterationLimit

	// OutcomeLLMError indicates the LLM client failed. Err wraps the client error.
	OutcomeLLMError

	// OutcomeConfigError indicates Run was called with an unusable Config.
	OutcomeConfigError
)

// String returns human-readable name for OutcomeKind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "Success"
	case OutcomeIterationLimit:
		return "IterationLimit"
	case OutcomeLLMError:
		return "LLMError"
	case OutcomeConfigError:
		return "ConfigError"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", k)
	}
}

// Outcome is the result of one Run.
//
//nolint:govet // Field order optimized for readability over memory alignment
type Outcome struct {
	Kind OutcomeKind

	// Content is the final text reply for OutcomeSuccess.
	Content string

	// Err is non-nil for every kind except OutcomeSuccess.
	Err error

	// Iteration is the 1-indexed round at which the outcome occurred.
	Iteration int

	// ToolCalls counts tool executions across all rounds.
	ToolCalls int

	// Usage sums token usage over all successful LLM calls.
	Usage llm.Usage
}

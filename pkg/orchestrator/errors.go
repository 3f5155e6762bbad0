package orchestrator

import "errors"

var (
	// ErrRoutingExhausted means the model kept requesting operations past the round limit.
	// The apology reply is still appended to history and the turn is counted.
	ErrRoutingExhausted = errors.New("routing exhausted")

	// ErrServiceUnavailable wraps a reasoning-service failure. The turn is not counted
	// and the same message can be resubmitted.
	ErrServiceUnavailable = errors.New("reasoning service unavailable")

	// ErrEmptyMessage rejects a blank user message before any state changes.
	ErrEmptyMessage = errors.New("empty user message")
)

// ApologyReply is returned to the user when a turn hits the round limit.
const ApologyReply = "I'm sorry, I got stuck working through that. " +
	"Could you rephrase or tell me which part you'd like to focus on?"

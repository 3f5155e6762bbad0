package toolloop

import "errors"

var (
	// ErrIterationLimit is set on OutcomeIterationLimit: the model kept calling
	// tools for MaxIterations rounds without producing a text reply.
	ErrIterationLimit = errors.New("tool iteration limit reached")

	// ErrInvalidConfig reports a Config missing required fields.
	ErrInvalidConfig = errors.New("invalid toolloop config")
)

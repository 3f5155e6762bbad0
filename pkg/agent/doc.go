// Package agent builds provider-backed LLM clients for the orchestrator.
//
// The provider is inferred from the model name (see config.GetModelProvider);
// concrete SDK clients live under internal/llmimpl and are always returned
// wrapped in the logging, metrics and empty-response middleware.
package agent

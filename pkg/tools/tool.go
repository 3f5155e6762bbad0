// Package tools defines the tool vocabulary offered to the LLM: definitions with
// JSON-schema style argument schemas, the Tool interface, and a per-context registry.
package tools

import "context"

// Property describes one argument in an InputSchema.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []string             `json:"enum,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	// AdditionalProperties describes map values for free-form objects.
	AdditionalProperties *Property `json:"additionalProperties,omitempty"`
}

// InputSchema is the argument schema of a tool.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition is what the LLM sees of a tool.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// ExecResult is returned by a successful tool execution.
type ExecResult struct {
	// Content is fed back to the LLM as the tool result.
	Content string
	// Data carries structured detail for the caller (metrics, transcript log).
	Data map[string]any
}

// Tool is a single callable operation.
type Tool interface {
	Name() string
	Definition() ToolDefinition
	Exec(ctx context.Context, args map[string]any) (*ExecResult, error)
	PromptDocumentation() string
}

package tools

import (
	"fmt"
	"sort"
	"strings"
)

// Registry holds the tools available to one exchange. It is not safe for
// concurrent registration; build it, then hand it to the tool loop.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry returns a registry containing the given tools.
func NewRegistry(toolList ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(toolList))}
	for _, t := range toolList {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Names must be unique and non-empty.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("tool '%s' not found; available: %s", name, strings.Join(r.Names(), ", "))
	}
	return tool, nil
}

// Names returns tool names sorted alphabetically.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Definitions returns tool definitions in registration order.
func (r *Registry) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// GenerateToolDocumentation renders prompt documentation for every tool in registration order.
func (r *Registry) GenerateToolDocumentation() string {
	if len(r.order) == 0 {
		return "No tools available"
	}

	var doc strings.Builder
	doc.WriteString("## Available Tools\n\n")
	for _, name := range r.order {
		doc.WriteString(r.tools[name].PromptDocumentation())
		doc.WriteString("\n")
	}
	return doc.String()
}

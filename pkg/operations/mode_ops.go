package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/gupta362/pm-agent-v2/pkg/mode"
	"github.com/gupta362/pm-agent-v2/pkg/session"
	"github.com/gupta362/pm-agent-v2/pkg/tools"
)

// EnterModeTool starts a mode from the gathering phase.
type EnterModeTool struct {
	state *session.State
}

// NewEnterModeTool returns the enter_mode operation.
func NewEnterModeTool(st *session.State) *EnterModeTool {
	return &EnterModeTool{state: st}
}

// Name returns the tool identifier.
func (e *EnterModeTool) Name() string { return EnterMode }

// Definition returns the tool schema.
func (e *EnterModeTool) Definition() tools.ToolDefinition {
	ids := make([]string, 0, len(mode.Catalog()))
	var desc strings.Builder
	for _, info := range mode.Catalog() {
		ids = append(ids, string(info.ID))
		fmt.Fprintf(&desc, "%s = %s. ", info.ID, mode.Label(info.ID))
	}
	return tools.ToolDefinition{
		Name:        EnterMode,
		Description: "Leave context gathering and start a mode. Only valid while gathering.",
		InputSchema: tools.InputSchema{
			Type: "object",
			Properties: map[string]tools.Property{
				"mode_id": {Type: "string", Description: strings.TrimSpace(desc.String()), Enum: ids},
			},
			Required: []string{"mode_id"},
		},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (e *EnterModeTool) PromptDocumentation() string {
	return `- **enter_mode** - Start a mode
  - Parameters: mode_id (required)
  - Fails if a mode is already active; complete it first`
}

// Exec performs the transition.
func (e *EnterModeTool) Exec(_ context.Context, args map[string]any) (*tools.ExecResult, error) {
	ref, err := tools.RequiredString(args, "mode_id")
	if err != nil {
		return nil, err
	}
	info, err := e.state.Mode.Enter(ref)
	if err != nil {
		return nil, err
	}
	return &tools.ExecResult{
		Content: fmt.Sprintf("Entered %s. Purpose: %s", mode.Label(info.ID), info.Purpose),
		Data:    map[string]any{DataID: string(info.ID), DataChanged: true},
	}, nil
}

// CompleteModeTool finishes the active mode and returns to gathering.
type CompleteModeTool struct {
	state *session.State
}

// NewCompleteModeTool returns the complete_mode operation.
func NewCompleteModeTool(st *session.State) *CompleteModeTool {
	return &CompleteModeTool{state: st}
}

// Name returns the tool identifier.
func (c *CompleteModeTool) Name() string { return CompleteMode }

// Definition returns the tool schema.
func (c *CompleteModeTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        CompleteMode,
		Description: "Finish the active mode and return to context gathering. Only valid while a mode is active.",
		InputSchema: tools.InputSchema{Type: "object", Properties: map[string]tools.Property{}},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (c *CompleteModeTool) PromptDocumentation() string {
	return `- **complete_mode** - Finish the active mode
  - No parameters
  - The only way to leave a mode`
}

// Exec performs the transition.
func (c *CompleteModeTool) Exec(_ context.Context, _ map[string]any) (*tools.ExecResult, error) {
	done, err := c.state.Mode.Complete()
	if err != nil {
		return nil, err
	}
	return &tools.ExecResult{
		Content: fmt.Sprintf("Completed %s. Back to context gathering.", mode.Label(done)),
		Data:    map[string]any{DataID: string(done), DataChanged: true},
	}, nil
}

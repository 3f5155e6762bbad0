package operations

import (
	"context"
	"fmt"

	"github.com/gupta362/pm-agent-v2/pkg/artifact"
	"github.com/gupta362/pm-agent-v2/pkg/session"
	"github.com/gupta362/pm-agent-v2/pkg/tools"
)

// GenerateArtifactTool renders the problem brief from the current state.
type GenerateArtifactTool struct {
	state *session.State
}

// NewGenerateArtifactTool returns the generate_artifact operation.
func NewGenerateArtifactTool(st *session.State) *GenerateArtifactTool {
	return &GenerateArtifactTool{state: st}
}

// Name returns the tool identifier.
func (g *GenerateArtifactTool) Name() string { return GenerateArtifact }

// Definition returns the tool schema.
func (g *GenerateArtifactTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        GenerateArtifact,
		Description: "Render the problem brief from the skeleton, assumptions and diagnostic coverage. Valid in any phase.",
		InputSchema: tools.InputSchema{Type: "object", Properties: map[string]tools.Property{}},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (g *GenerateArtifactTool) PromptDocumentation() string {
	return `- **generate_artifact** - Render the problem brief
  - No parameters
  - Fill the skeleton first; missing sections render as placeholders`
}

// Exec renders and stores the brief. Phase and mode are left untouched.
func (g *GenerateArtifactTool) Exec(_ context.Context, _ map[string]any) (*tools.ExecResult, error) {
	a, err := artifact.Generate(g.state.ArtifactInput())
	if err != nil {
		return nil, err
	}
	g.state.LatestArtifact = a
	return &tools.ExecResult{
		Content: fmt.Sprintf("Problem brief generated at turn %d. The user can download it. Content:\n\n%s", a.Turn, a.Content),
		Data:    map[string]any{DataChanged: true, "turn": a.Turn, "bytes": len(a.Content)},
	}, nil
}

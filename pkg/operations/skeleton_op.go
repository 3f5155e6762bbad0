package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/gupta362/pm-agent-v2/pkg/session"
	"github.com/gupta362/pm-agent-v2/pkg/skeleton"
	"github.com/gupta362/pm-agent-v2/pkg/tools"
)

// SkeletonTool merges content into the brief skeleton.
type SkeletonTool struct {
	state *session.State
}

// NewUpdateSkeletonTool returns the update_skeleton operation.
func NewUpdateSkeletonTool(st *session.State) *SkeletonTool {
	return &SkeletonTool{state: st}
}

// Name returns the tool identifier.
func (s *SkeletonTool) Name() string { return UpdateSkeleton }

// Definition returns the tool schema.
func (s *SkeletonTool) Definition() tools.ToolDefinition {
	list := func(desc string) tools.Property {
		return tools.Property{Type: "array", Description: desc, Items: &tools.Property{Type: "string"}}
	}
	return tools.ToolDefinition{
		Name:        UpdateSkeleton,
		Description: "Add to the problem brief skeleton. Omitted fields are left unchanged; lists are appended to.",
		InputSchema: tools.InputSchema{
			Type: "object",
			Properties: map[string]tools.Property{
				"problem_statement": {Type: "string", Description: "Full problem statement; replaces the previous one"},
				"stakeholders":      list("Stakeholder names or roles to add"),
				"success_metrics": {
					Type:                 "object",
					Description:          "Metric descriptions by category (leading, lagging, guardrail, or another category)",
					AdditionalProperties: &tools.Property{Type: "string"},
				},
				"proceed_if":        list("Conditions under which to go ahead"),
				"do_not_proceed_if": list("Conditions under which to stop"),
			},
		},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (s *SkeletonTool) PromptDocumentation() string {
	return `- **update_skeleton** - Grow the problem brief skeleton
  - Parameters (all optional): problem_statement, stakeholders[], success_metrics{category: description}, proceed_if[], do_not_proceed_if[]
  - Populated fields are never cleared by omission`
}

// Exec merges the update.
func (s *SkeletonTool) Exec(_ context.Context, args map[string]any) (*tools.ExecResult, error) {
	var u skeleton.Update
	var err error
	if u.ProblemStatement, _, err = tools.OptionalString(args, "problem_statement"); err != nil {
		return nil, err
	}
	if u.Stakeholders, err = tools.StringSlice(args, "stakeholders"); err != nil {
		return nil, err
	}
	if u.SuccessMetrics, err = tools.StringMap(args, "success_metrics"); err != nil {
		return nil, err
	}
	if u.ProceedIf, err = tools.StringSlice(args, "proceed_if"); err != nil {
		return nil, err
	}
	if u.DoNotProceedIf, err = tools.StringSlice(args, "do_not_proceed_if"); err != nil {
		return nil, err
	}

	res := s.state.Skeleton.Merge(u)
	filled, total := s.state.Skeleton.Completeness()

	var parts []string
	if res.ProblemStatementReplaced {
		parts = append(parts, "problem statement replaced")
	}
	if n := len(res.StakeholdersAdded); n > 0 {
		parts = append(parts, fmt.Sprintf("%d stakeholder(s) added", n))
	}
	if len(res.MetricsSet) > 0 {
		parts = append(parts, "metrics set: "+strings.Join(res.MetricsSet, ", "))
	}
	if n := res.ProceedIfAdded + res.DoNotProceedIfAdded; n > 0 {
		parts = append(parts, fmt.Sprintf("%d decision criteria added", n))
	}
	msg := "Skeleton unchanged"
	if len(parts) > 0 {
		msg = "Skeleton updated: " + strings.Join(parts, "; ")
	}
	return &tools.ExecResult{
		Content: fmt.Sprintf("%s. Sections filled: %d/%d.", msg, filled, total),
		Data:    map[string]any{DataChanged: res.Changed()},
	}, nil
}

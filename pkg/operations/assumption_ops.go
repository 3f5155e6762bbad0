package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/gupta362/pm-agent-v2/pkg/assumption"
	"github.com/gupta362/pm-agent-v2/pkg/session"
	"github.com/gupta362/pm-agent-v2/pkg/tools"
)

func describeAssumption(a assumption.Assumption) string {
	s := fmt.Sprintf("%s [%s, impact %s, confidence %s, %s]: %s", a.ID, a.Type, a.Impact, a.Confidence, a.Status, a.Claim)
	if a.LoadBearing() {
		s += " (load-bearing)"
	}
	return s
}

// RegisterAssumptionTool adds an unvalidated claim to the register.
type RegisterAssumptionTool struct {
	state *session.State
}

// NewRegisterAssumptionTool returns the register_assumption operation.
func NewRegisterAssumptionTool(st *session.State) *RegisterAssumptionTool {
	return &RegisterAssumptionTool{state: st}
}

// Name returns the tool identifier.
func (r *RegisterAssumptionTool) Name() string { return RegisterAssumption }

// Definition returns the tool schema.
func (r *RegisterAssumptionTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        RegisterAssumption,
		Description: "Register a claim the brief depends on that has not been validated. Returns the new assumption id.",
		InputSchema: tools.InputSchema{
			Type: "object",
			Properties: map[string]tools.Property{
				"claim":              {Type: "string", Description: "The claim, stated so it can be tested"},
				"type":               {Type: "string", Description: "What the claim is about", Enum: assumption.Types()},
				"impact":             {Type: "string", Description: "How much the brief depends on it", Enum: assumption.Impacts()},
				"confidence":         {Type: "string", Description: "How well it is supported", Enum: assumption.Confidences()},
				"basis":              {Type: "string", Description: "Where the claim comes from"},
				"recommended_action": {Type: "string", Description: "How to validate it"},
			},
			Required: []string{"claim", "type", "impact", "confidence"},
		},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (r *RegisterAssumptionTool) PromptDocumentation() string {
	return `- **register_assumption** - Track an unvalidated claim
  - Parameters: claim, type, impact, confidence (required); basis, recommended_action (optional)
  - High impact + guessed confidence marks the assumption load-bearing`
}

// Exec validates and stores the assumption.
func (r *RegisterAssumptionTool) Exec(_ context.Context, args map[string]any) (*tools.ExecResult, error) {
	in := assumption.Input{Turn: r.state.CurrentTurn()}
	var err error
	if in.Claim, err = tools.RequiredString(args, "claim"); err != nil {
		return nil, err
	}
	required := []struct {
		key string
		dst *string
	}{{"type", &in.Type}, {"impact", &in.Impact}, {"confidence", &in.Confidence}}
	for _, f := range required {
		if *f.dst, err = tools.RequiredString(args, f.key); err != nil {
			return nil, err
		}
	}
	if in.Basis, _, err = tools.OptionalString(args, "basis"); err != nil {
		return nil, err
	}
	if in.RecommendedAction, _, err = tools.OptionalString(args, "recommended_action"); err != nil {
		return nil, err
	}

	a, err := r.state.Assumptions.Register(in)
	if err != nil {
		return nil, err
	}
	return &tools.ExecResult{
		Content: "Registered " + describeAssumption(a),
		Data:    map[string]any{DataID: a.ID, DataChanged: true, "load_bearing": a.LoadBearing()},
	}, nil
}

// UpdateAssumptionTool changes fields of a registered assumption.
type UpdateAssumptionTool struct {
	state *session.State
}

// NewUpdateAssumptionTool returns the update_assumption operation.
func NewUpdateAssumptionTool(st *session.State) *UpdateAssumptionTool {
	return &UpdateAssumptionTool{state: st}
}

// Name returns the tool identifier.
func (u *UpdateAssumptionTool) Name() string { return UpdateAssumption }

// Definition returns the tool schema.
func (u *UpdateAssumptionTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        UpdateAssumption,
		Description: "Update a registered assumption when new evidence arrives. Only supplied fields change.",
		InputSchema: tools.InputSchema{
			Type: "object",
			Properties: map[string]tools.Property{
				"id":                 {Type: "string", Description: "Assumption id, e.g. A1"},
				"claim":              {Type: "string", Description: "Restated claim"},
				"impact":             {Type: "string", Enum: assumption.Impacts()},
				"confidence":         {Type: "string", Enum: assumption.Confidences()},
				"status":             {Type: "string", Enum: assumption.Statuses()},
				"basis":              {Type: "string"},
				"recommended_action": {Type: "string"},
			},
			Required: []string{"id"},
		},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (u *UpdateAssumptionTool) PromptDocumentation() string {
	return `- **update_assumption** - Update an assumption by id
  - Parameters: id (required); claim, impact, confidence, status, basis, recommended_action (optional)
  - Assumptions are never deleted; resolve them with status=resolved`
}

// Exec applies the patch.
func (u *UpdateAssumptionTool) Exec(_ context.Context, args map[string]any) (*tools.ExecResult, error) {
	id, err := tools.RequiredString(args, "id")
	if err != nil {
		return nil, err
	}
	patch := assumption.Patch{Turn: u.state.CurrentTurn()}
	fields := []struct {
		key string
		dst **string
	}{
		{"claim", &patch.Claim},
		{"impact", &patch.Impact},
		{"confidence", &patch.Confidence},
		{"status", &patch.Status},
		{"basis", &patch.Basis},
		{"recommended_action", &patch.RecommendedAction},
	}
	var changed []string
	for _, f := range fields {
		v, ok, err := tools.OptionalString(args, f.key)
		if err != nil {
			return nil, err
		}
		if ok {
			*f.dst = &v
			changed = append(changed, f.key)
		}
	}
	if patch.Empty() {
		return nil, fmt.Errorf("%w: no fields to update for %s", assumption.ErrInvalidField, id)
	}

	a, err := u.state.Assumptions.Update(id, patch)
	if err != nil {
		return nil, err
	}
	return &tools.ExecResult{
		Content: fmt.Sprintf("Updated %s (%s): %s", a.ID, strings.Join(changed, ", "), describeAssumption(a)),
		Data:    map[string]any{DataID: a.ID, DataChanged: true, "load_bearing": a.LoadBearing()},
	}, nil
}

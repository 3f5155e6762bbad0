// Package operations implements the state-changing tools the reasoning service
// calls during a turn. Every tool is bound to one *session.State; errors are
// returned to the caller and reported back to the model as error tool results.
package operations

import (
	"github.com/gupta362/pm-agent-v2/pkg/routing"
	"github.com/gupta362/pm-agent-v2/pkg/session"
	"github.com/gupta362/pm-agent-v2/pkg/tools"
)

// Operation names.
const (
	RecordProbeFired          = "record_probe_fired"
	RecordPatternFired        = "record_pattern_fired"
	UpdateConversationSummary = "update_conversation_summary"
	RegisterAssumption        = "register_assumption"
	UpdateAssumption          = "update_assumption"
	UpdateSkeleton            = "update_skeleton"
	EnterMode                 = "enter_mode"
	CompleteMode              = "complete_mode"
	GenerateArtifact          = "generate_artifact"
)

// Keys used in tools.ExecResult.Data.
const (
	DataID      = "id"
	DataChanged = "changed"
)

// All returns the nine operations bound to st, in prompt order.
func All(st *session.State, cat *routing.Catalog) []tools.Tool {
	return []tools.Tool{
		NewRecordProbeFiredTool(st, cat),
		NewRecordPatternFiredTool(st, cat),
		NewUpdateConversationSummaryTool(st),
		NewRegisterAssumptionTool(st),
		NewUpdateAssumptionTool(st),
		NewUpdateSkeletonTool(st),
		NewEnterModeTool(st),
		NewCompleteModeTool(st),
		NewGenerateArtifactTool(st),
	}
}

// NewRegistry builds a tool registry over All(st, cat).
func NewRegistry(st *session.State, cat *routing.Catalog) (*tools.Registry, error) {
	return tools.NewRegistry(All(st, cat)...)
}

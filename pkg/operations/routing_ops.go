package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/gupta362/pm-agent-v2/pkg/routing"
	"github.com/gupta362/pm-agent-v2/pkg/session"
	"github.com/gupta362/pm-agent-v2/pkg/tools"
)

// FiredTool records that a probe or a pattern was explored. Recording is a set insert.
type FiredTool struct {
	state   *session.State
	catalog *routing.Catalog
	kind    routing.Kind
}

// NewRecordProbeFiredTool returns the record_probe_fired operation.
func NewRecordProbeFiredTool(st *session.State, cat *routing.Catalog) *FiredTool {
	return &FiredTool{state: st, catalog: cat, kind: routing.KindProbe}
}

// NewRecordPatternFiredTool returns the record_pattern_fired operation.
func NewRecordPatternFiredTool(st *session.State, cat *routing.Catalog) *FiredTool {
	return &FiredTool{state: st, catalog: cat, kind: routing.KindPattern}
}

func (f *FiredTool) idKey() string {
	return string(f.kind) + "_id"
}

func (f *FiredTool) set() *session.FiredSet {
	if f.kind == routing.KindPattern {
		return &f.state.Routing.PatternsFired
	}
	return &f.state.Routing.ProbesFired
}

// Name returns the tool identifier.
func (f *FiredTool) Name() string {
	if f.kind == routing.KindPattern {
		return RecordPatternFired
	}
	return RecordProbeFired
}

// Definition returns the tool schema.
func (f *FiredTool) Definition() tools.ToolDefinition {
	known := ""
	if f.catalog != nil {
		known = " Known ids: " + strings.Join(f.catalog.IDs(f.kind), ", ") + "."
	}
	return tools.ToolDefinition{
		Name:        f.Name(),
		Description: fmt.Sprintf("Record that a diagnostic %s was explored in this conversation.%s", f.kind, known),
		InputSchema: tools.InputSchema{
			Type: "object",
			Properties: map[string]tools.Property{
				f.idKey(): {
					Type:        "string",
					Description: fmt.Sprintf("Catalog id of the %s", f.kind),
				},
				"rationale": {
					Type:        "string",
					Description: "What in the conversation triggered it",
				},
			},
			Required: []string{f.idKey()},
		},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (f *FiredTool) PromptDocumentation() string {
	return fmt.Sprintf(`- **%s** - Record that a %s was explored
  - Parameters: %s (required), rationale (optional)
  - Call it in the same turn you ask the %s's questions; repeats are harmless`, f.Name(), f.kind, f.idKey(), f.kind)
}

// Exec records the id.
func (f *FiredTool) Exec(_ context.Context, args map[string]any) (*tools.ExecResult, error) {
	id, err := tools.RequiredString(args, f.idKey())
	if err != nil {
		return nil, err
	}
	rationale, _, err := tools.OptionalString(args, "rationale")
	if err != nil {
		return nil, err
	}

	name, known := id, false
	if f.catalog != nil {
		if entry, ok := f.catalog.Lookup(id); ok && entry.Kind == f.kind {
			name, known = entry.Name, true
		}
	}

	added := f.set().Add(session.FiredRecord{ID: id, Name: name, Turn: f.state.CurrentTurn(), Rationale: rationale})
	var msg string
	switch {
	case !added:
		msg = fmt.Sprintf("%s %s already recorded.", f.kind, id)
	case !known:
		msg = fmt.Sprintf("Recorded %s %s (not in the catalog; stored under its id).", f.kind, id)
	default:
		msg = fmt.Sprintf("Recorded %s.", name)
	}
	return &tools.ExecResult{
		Content: msg,
		Data:    map[string]any{DataID: id, DataChanged: added, "kind": string(f.kind), "known": known},
	}, nil
}

// SummaryTool overwrites the running conversation summary.
type SummaryTool struct {
	state *session.State
}

// NewUpdateConversationSummaryTool returns the update_conversation_summary operation.
func NewUpdateConversationSummaryTool(st *session.State) *SummaryTool {
	return &SummaryTool{state: st}
}

// Name returns the tool identifier.
func (s *SummaryTool) Name() string { return UpdateConversationSummary }

// Definition returns the tool schema.
func (s *SummaryTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        UpdateConversationSummary,
		Description: "Replace the running summary of what has been learned so far. Call once per turn.",
		InputSchema: tools.InputSchema{
			Type: "object",
			Properties: map[string]tools.Property{
				"summary": {Type: "string", Description: "Concise summary of the conversation so far"},
			},
			Required: []string{"summary"},
		},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (s *SummaryTool) PromptDocumentation() string {
	return `- **update_conversation_summary** - Replace the running summary
  - Parameters: summary (required)
  - Call every turn so the next turn starts from current context`
}

// Exec stores the summary stamped with the turn in progress.
func (s *SummaryTool) Exec(_ context.Context, args map[string]any) (*tools.ExecResult, error) {
	summary, err := tools.RequiredString(args, "summary")
	if err != nil {
		return nil, err
	}
	s.state.Routing.ConversationSummary = summary
	s.state.Routing.SummaryTurn = s.state.CurrentTurn()
	return &tools.ExecResult{
		Content: fmt.Sprintf("Summary updated (turn %d).", s.state.Routing.SummaryTurn),
		Data:    map[string]any{DataChanged: true},
	}, nil
}

package operations

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gupta362/pm-agent-v2/pkg/artifact"
	"github.com/gupta362/pm-agent-v2/pkg/assumption"
	"github.com/gupta362/pm-agent-v2/pkg/mode"
	"github.com/gupta362/pm-agent-v2/pkg/routing"
	"github.com/gupta362/pm-agent-v2/pkg/session"
	"github.com/gupta362/pm-agent-v2/pkg/tools"
)

type fixture struct {
	st  *session.State
	reg *tools.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := routing.DefaultCatalog()
	require.NoError(t, err)
	st := session.New()
	reg, err := NewRegistry(st, cat)
	require.NoError(t, err)
	return &fixture{st: st, reg: reg}
}

func (f *fixture) exec(t *testing.T, name string, args map[string]any) (*tools.ExecResult, error) {
	t.Helper()
	tool, err := f.reg.Get(name)
	require.NoError(t, err)
	return tool.Exec(context.Background(), args)
}

func TestRegistryHasNineOperations(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []string{
		CompleteMode, EnterMode, GenerateArtifact, RecordPatternFired, RecordProbeFired,
		RegisterAssumption, UpdateAssumption, UpdateConversationSummary, UpdateSkeleton,
	}, f.reg.Names())

	for _, def := range f.reg.Definitions() {
		assert.Equal(t, "object", def.InputSchema.Type, def.Name)
		assert.NotEmpty(t, def.Description, def.Name)
		for _, req := range def.InputSchema.Required {
			_, ok := def.InputSchema.Properties[req]
			assert.True(t, ok, "%s requires undeclared %s", def.Name, req)
		}
	}
	assert.Contains(t, f.reg.GenerateToolDocumentation(), "**generate_artifact**")
}

func TestRecordProbeFiredIdempotent(t *testing.T) {
	f := newFixture(t)

	res, err := f.exec(t, RecordProbeFired, map[string]any{"probe_id": "solution_problem_separation", "rationale": "digital twins named up front"})
	require.NoError(t, err)
	assert.Equal(t, "Recorded Probe 1: Solution-Problem Separation.", res.Content)
	assert.Equal(t, true, res.Data[DataChanged])

	res, err = f.exec(t, RecordProbeFired, map[string]any{"probe_id": "solution_problem_separation"})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "already recorded")
	assert.Equal(t, false, res.Data[DataChanged])

	assert.Equal(t, 1, f.st.Routing.ProbesFired.Len())
	rec, _ := f.st.Routing.ProbesFired.Get("solution_problem_separation")
	assert.Equal(t, 1, rec.Turn)
	assert.Equal(t, "digital twins named up front", rec.Rationale)
}

func TestRecordUnknownIDStillRecorded(t *testing.T) {
	f := newFixture(t)

	res, err := f.exec(t, RecordPatternFired, map[string]any{"pattern_id": "vanity_metric"})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "not in the catalog")
	rec, ok := f.st.Routing.PatternsFired.Get("vanity_metric")
	require.True(t, ok)
	assert.Equal(t, "vanity_metric", rec.Name)

	// A probe id passed as a pattern is stored under its id, not the probe name.
	_, err = f.exec(t, RecordPatternFired, map[string]any{"pattern_id": "why_now"})
	require.NoError(t, err)
	rec, _ = f.st.Routing.PatternsFired.Get("why_now")
	assert.Equal(t, "why_now", rec.Name)
	assert.Equal(t, 0, f.st.Routing.ProbesFired.Len())
}

func TestRecordRequiresID(t *testing.T) {
	f := newFixture(t)
	_, err := f.exec(t, RecordProbeFired, map[string]any{"rationale": "x"})
	require.Error(t, err)
	_, err = f.exec(t, RecordProbeFired, map[string]any{"probe_id": 42})
	require.Error(t, err)
	assert.Equal(t, 0, f.st.Routing.ProbesFired.Len())
}

func TestUpdateConversationSummary(t *testing.T) {
	f := newFixture(t)
	f.st.TurnCount = 2

	_, err := f.exec(t, UpdateConversationSummary, map[string]any{"summary": "User wants digital twins; real need is campaign prediction."})
	require.NoError(t, err)
	assert.Equal(t, "User wants digital twins; real need is campaign prediction.", f.st.Routing.ConversationSummary)
	assert.Equal(t, 3, f.st.Routing.SummaryTurn)

	_, err = f.exec(t, UpdateConversationSummary, map[string]any{"summary": "  "})
	require.Error(t, err)
	assert.NotEmpty(t, f.st.Routing.ConversationSummary)
}

func TestRegisterAndUpdateAssumption(t *testing.T) {
	f := newFixture(t)

	res, err := f.exec(t, RegisterAssumption, map[string]any{
		"claim":              "Stores will execute recommended displays",
		"type":               "organizational",
		"impact":             "High",
		"confidence":         "guessed",
		"basis":              "team observation",
		"recommended_action": "interview 5 store managers",
	})
	require.NoError(t, err)
	assert.Equal(t, "A1", res.Data[DataID])
	assert.Equal(t, true, res.Data["load_bearing"])
	assert.Contains(t, res.Content, "(load-bearing)")

	res, err = f.exec(t, UpdateAssumption, map[string]any{"id": "a1", "confidence": "partial"})
	require.NoError(t, err)
	assert.Equal(t, false, res.Data["load_bearing"])
	assert.Contains(t, res.Content, "Updated A1 (confidence)")

	got, ok := f.st.Assumptions.Get("A1")
	require.True(t, ok)
	assert.Equal(t, assumption.ConfidencePartial, got.Confidence)
	assert.Equal(t, "team observation", got.Basis)
}

func TestAssumptionErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.exec(t, RegisterAssumption, map[string]any{"claim": "c", "type": "spiritual", "impact": "high", "confidence": "guessed"})
	assert.True(t, errors.Is(err, assumption.ErrInvalidField))

	_, err = f.exec(t, RegisterAssumption, map[string]any{"claim": "c", "impact": "high", "confidence": "guessed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type is required")
	assert.Equal(t, 0, f.st.Assumptions.Len())

	_, err = f.exec(t, UpdateAssumption, map[string]any{"id": "A9", "status": "resolved"})
	assert.True(t, errors.Is(err, assumption.ErrUnknownAssumption))

	_, err = f.exec(t, RegisterAssumption, map[string]any{"claim": "c", "type": "value", "impact": "low", "confidence": "guessed"})
	require.NoError(t, err)
	_, err = f.exec(t, UpdateAssumption, map[string]any{"id": "A1"})
	assert.True(t, errors.Is(err, assumption.ErrInvalidField))
}

func TestUpdateSkeletonMerges(t *testing.T) {
	f := newFixture(t)

	res, err := f.exec(t, UpdateSkeleton, map[string]any{
		"problem_statement": "Out-of-stocks rose from 3% to 7% after the WMS changeover",
		"stakeholders":      []any{"SVP Retail Operations", "Logistics team"},
		"success_metrics":   map[string]any{"lagging": "out-of-stock rate back under 4%"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "problem statement replaced")
	assert.Contains(t, res.Content, "2 stakeholder(s) added")

	res, err = f.exec(t, UpdateSkeleton, map[string]any{"stakeholders": "logistics team", "proceed_if": []any{"WMS is ruled out"}})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "1 decision criteria added")
	assert.Len(t, f.st.Skeleton.Stakeholders, 2)

	res, err = f.exec(t, UpdateSkeleton, map[string]any{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Content, "Skeleton unchanged"))
	assert.Equal(t, "Out-of-stocks rose from 3% to 7% after the WMS changeover", f.st.Skeleton.ProblemStatement)

	_, err = f.exec(t, UpdateSkeleton, map[string]any{"stakeholders": 3})
	require.Error(t, err)
}

func TestModeTransitions(t *testing.T) {
	f := newFixture(t)

	_, err := f.exec(t, CompleteMode, nil)
	assert.True(t, errors.Is(err, mode.ErrInvalidTransition))

	_, err = f.exec(t, EnterMode, map[string]any{"mode_id": "mode_9"})
	assert.True(t, errors.Is(err, mode.ErrUnknownMode))
	assert.Equal(t, mode.PhaseGathering, f.st.Phase())

	res, err := f.exec(t, EnterMode, map[string]any{"mode_id": "discover_frame"})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "Entered Mode 1: Discover & Frame")
	assert.Equal(t, mode.PhaseInMode, f.st.Phase())

	_, err = f.exec(t, EnterMode, map[string]any{"mode_id": "size_value"})
	assert.True(t, errors.Is(err, mode.ErrInvalidTransition))
	assert.Equal(t, mode.DiscoverFrame, f.st.ActiveMode())

	_, err = f.exec(t, CompleteMode, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, mode.PhaseGathering, f.st.Phase())
	assert.Empty(t, f.st.ActiveMode())
}

func TestGenerateArtifactAnyPhase(t *testing.T) {
	f := newFixture(t)
	f.st.TurnCount = 4

	res, err := f.exec(t, GenerateArtifact, nil)
	require.NoError(t, err)
	require.NotNil(t, f.st.LatestArtifact)
	assert.Equal(t, 5, f.st.LatestArtifact.Turn)
	assert.True(t, strings.HasPrefix(f.st.LatestArtifact.Content, artifact.Header))
	assert.Contains(t, res.Content, artifact.Header)

	_, err = f.exec(t, EnterMode, map[string]any{"mode_id": "1"})
	require.NoError(t, err)
	_, err = f.exec(t, GenerateArtifact, nil)
	require.NoError(t, err)
	assert.Equal(t, mode.DiscoverFrame, f.st.ActiveMode(), "generating does not leave the mode")
}

func TestGenerateArtifactStableAcrossTurnsAndModes(t *testing.T) {
	f := newFixture(t)
	_, err := f.exec(t, UpdateSkeleton, map[string]any{"problem_statement": "Campaign estimates miss actuals by 30-40%."})
	require.NoError(t, err)

	_, err = f.exec(t, GenerateArtifact, nil)
	require.NoError(t, err)
	first := f.st.LatestArtifact
	require.NotNil(t, first)

	f.st.TurnCount++
	_, err = f.exec(t, EnterMode, map[string]any{"mode_id": "discover_frame"})
	require.NoError(t, err)
	_, err = f.exec(t, GenerateArtifact, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Content, f.st.LatestArtifact.Content)
	assert.Equal(t, first.Turn+1, f.st.LatestArtifact.Turn)

	f.st.TurnCount++
	_, err = f.exec(t, CompleteMode, nil)
	require.NoError(t, err)
	_, err = f.exec(t, GenerateArtifact, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Content, f.st.LatestArtifact.Content)
	assert.Equal(t, first.Turn+2, f.st.LatestArtifact.Turn)
}

func TestCompleteAndGenerateOrderInsensitive(t *testing.T) {
	run := func(order []string) *session.State {
		f := newFixture(t)
		_, err := f.exec(t, EnterMode, map[string]any{"mode_id": "discover_frame"})
		require.NoError(t, err)
		for _, name := range order {
			_, err := f.exec(t, name, nil)
			require.NoError(t, err)
		}
		return f.st
	}
	a := run([]string{CompleteMode, GenerateArtifact})
	b := run([]string{GenerateArtifact, CompleteMode})

	for _, st := range []*session.State{a, b} {
		assert.Equal(t, mode.PhaseGathering, st.Phase())
		assert.Equal(t, []mode.ID{mode.DiscoverFrame}, st.Mode.Completed())
		require.NotNil(t, st.LatestArtifact)
	}
	assert.Equal(t, a.LatestArtifact.Content, b.LatestArtifact.Content)
}

package artifact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gupta362/pm-agent-v2/pkg/assumption"
	"github.com/gupta362/pm-agent-v2/pkg/skeleton"
)

func sampleInput() Input {
	sk := skeleton.New()
	sk.Merge(skeleton.Update{
		ProblemStatement: "Campaign performance estimates miss actuals by 30-40%, so KPMs over-commit CPG budgets.",
		Stakeholders:     []string{"KPMs", "VP of Campaign Strategy"},
		SuccessMetrics:   map[string]string{"leading": "estimate error under 15%"},
		ProceedIf:        []string{"KPMs confirm estimate error drives renewals"},
		DoNotProceedIf:   []string{"store execution variance explains most of the gap"},
	})
	return Input{
		Skeleton: sk.Snapshot(),
		Assumptions: []assumption.Assumption{
			{ID: "A10", Claim: "Stores execute displays as planned", Type: assumption.TypeOrganizational, Impact: assumption.ImpactHigh, Confidence: assumption.ConfidenceGuessed, Status: assumption.StatusOpen},
			{ID: "A2", Claim: "CPGs care about accuracy more than reach", Type: assumption.TypeValue, Impact: assumption.ImpactMedium, Confidence: assumption.ConfidencePartial, Status: assumption.StatusOpen, Basis: "two CPG interviews"},
			{ID: "A1", Claim: "Historical campaign data is usable", Type: assumption.TypeTechnical, Impact: assumption.ImpactHigh, Confidence: assumption.ConfidenceGuessed, Status: assumption.StatusResolved, RecommendedAction: "audit the last 4 quarters"},
		},
		Probes:   []string{"Probe 4: Store Reality / Organizational Constraint Check", "Probe 1: Solution-Problem Separation"},
		Patterns: []string{"Pattern 3: Conference-Driven Solution Anchoring"},
		Turn:     6,
	}
}

func TestRenderStartsWithHeader(t *testing.T) {
	out, err := Render(sampleInput())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, Header+"\n\n## Problem Statement\n"))
	assert.NotContains(t, out, "turn 6")
}

func TestRenderSections(t *testing.T) {
	out, err := Render(sampleInput())
	require.NoError(t, err)

	for _, want := range []string{
		"## Problem Statement\n\nCampaign performance estimates miss actuals",
		"- KPMs\n- VP of Campaign Strategy\n",
		"| guardrail | _Not yet defined._ |\n| lagging | _Not yet defined._ |\n| leading | estimate error under 15% |\n",
		"### Proceed if\n\n- KPMs confirm estimate error drives renewals\n",
		"### Do not proceed if\n\n- store execution variance explains most of the gap\n",
		"### Probes fired\n\n- Probe 1: Solution-Problem Separation\n- Probe 4: Store Reality / Organizational Constraint Check\n",
		"  - Recommended action: audit the last 4 quarters\n",
		"  - Basis: two CPG interviews\n",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderLoadBearingFirst(t *testing.T) {
	out, err := Render(sampleInput())
	require.NoError(t, err)

	a1 := strings.Index(out, "**A1**")
	a10 := strings.Index(out, "**A10**")
	a2 := strings.Index(out, "**A2**")
	other := strings.Index(out, "### Other assumptions")
	require.True(t, a1 > 0 && a10 > 0 && a2 > 0 && other > 0)

	assert.Less(t, a1, a10, "numeric id order within the load-bearing group")
	assert.Less(t, a10, other)
	assert.Greater(t, a2, other)
}

func TestRenderPlaceholders(t *testing.T) {
	out, err := Render(Input{Skeleton: skeleton.New().Snapshot(), Turn: 1})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, Header))
	assert.Contains(t, out, "## Problem Statement\n\n_Not yet defined._\n")
	assert.Contains(t, out, "## Stakeholders\n\n_Not yet defined._\n")
	assert.Contains(t, out, "### Probes fired\n\n_None recorded._\n")
	assert.Contains(t, out, "### Load-bearing (high impact, guessed)\n\n_None._\n")
}

func TestRenderDeterministic(t *testing.T) {
	in := sampleInput()
	first, err := Render(in)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Render(in)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestRenderIgnoresTurn(t *testing.T) {
	in := sampleInput()
	first, err := Render(in)
	require.NoError(t, err)

	in.Turn = 42
	later, err := Render(in)
	require.NoError(t, err)
	assert.Equal(t, first, later)
}

func TestRenderSectionSpacing(t *testing.T) {
	inputs := map[string]Input{
		"empty":  {Skeleton: skeleton.New().Snapshot()},
		"filled": sampleInput(),
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			out, err := Render(in)
			require.NoError(t, err)
			assert.NotContains(t, out, "\n\n\n")
			assert.True(t, strings.HasSuffix(out, "\n"))
			assert.False(t, strings.HasSuffix(out, "\n\n"))
		})
	}

	out, err := Render(Input{Skeleton: skeleton.New().Snapshot()})
	require.NoError(t, err)
	assert.Contains(t, out, "## Stakeholders\n\n_Not yet defined._\n\n## Success Metrics\n\n_Not yet defined._\n\n## Decision Criteria\n")
	assert.Contains(t, out, "### Other assumptions\n\n_None._\n")
}

func TestRenderDoesNotMutateInput(t *testing.T) {
	in := sampleInput()
	_, err := Render(in)
	require.NoError(t, err)
	assert.Equal(t, "A10", in.Assumptions[0].ID)
	assert.Equal(t, "Probe 4: Store Reality / Organizational Constraint Check", in.Probes[0])
}

func TestGenerateStampsTurn(t *testing.T) {
	a, err := Generate(sampleInput())
	require.NoError(t, err)
	assert.Equal(t, 6, a.Turn)
	assert.True(t, strings.HasPrefix(a.Content, Header))
}

package routing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gupta362/pm-agent-v2/pkg/mode"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	cat, err := DefaultCatalog()
	require.NoError(t, err)
	return NewDetector(cat)
}

func ids(recs []Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestDefaultCatalogLoads(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)
	assert.Len(t, cat.Probes, 6)
	assert.Len(t, cat.Patterns, 6)
	assert.Equal(t, "Probe 1: Solution-Problem Separation", cat.Name("solution_problem_separation"))
	assert.Equal(t, "Pattern 3: Conference-Driven Solution Anchoring", cat.Name("conference_solution_anchoring"))
	assert.Equal(t, "made_up", cat.Name("made_up"))

	for _, p := range cat.Patterns {
		root, ok := cat.Lookup(p.RootProbe)
		require.True(t, ok, p.ID)
		assert.Equal(t, KindProbe, root.Kind)
	}
}

func TestParseCatalogRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed yaml", "probes: [\n"},
		{"missing name", "probes:\n  - id: p1\n"},
		{"duplicate id", "probes:\n  - {id: p1, name: A}\n  - {id: p1, name: B}\n"},
		{"unknown category", "probes:\n  - {id: p1, name: A, category: vibes}\n"},
		{"dangling root probe", "probes:\n  - {id: p1, name: A}\npatterns:\n  - {id: x1, name: X, root_probe: nope}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog))
		})
	}
}

func TestTriggersMatchOnWordBoundaries(t *testing.T) {
	cat, err := ParseCatalog([]byte("probes:\n  - {id: p1, name: A, triggers: [ai, digital twin]}\n"))
	require.NoError(t, err)
	e, _ := cat.Lookup("p1")

	assert.Empty(t, e.Match("we said this to the maintainers"))
	assert.Equal(t, []string{"ai"}, e.Match("Add AI to it"))
	assert.Equal(t, []string{"digital twin"}, e.Match("a Digital Twin of each store"))
}

func TestRecommendSolutionFirstOpening(t *testing.T) {
	d := newTestDetector(t)
	dec := d.Recommend(Signals{
		UserMessages: []string{"Build a GenAI tool for campaign optimization. Go."},
		Phase:        mode.PhaseGathering,
	})

	assert.Equal(t, []string{"solution_problem_separation", "why_now"}, ids(dec.Probes))
	assert.Empty(t, dec.Patterns)
	require.Len(t, dec.Deferred, 1)
	assert.Equal(t, Deferral{PatternID: "conference_solution_anchoring", BlockedBy: "solution_problem_separation", Triggers: []string{"genai"}}, dec.Deferred[0])
	assert.Equal(t, "solution_problem_separation", dec.Primary)
	assert.Empty(t, dec.SuggestedMode)
}

func TestRecommendPatternUnlockedByRootProbe(t *testing.T) {
	d := newTestDetector(t)
	dec := d.Recommend(Signals{
		UserMessages: []string{"Build a GenAI tool for campaign optimization. Go."},
		ProbesFired:  []string{"solution_problem_separation"},
		Phase:        mode.PhaseGathering,
	})

	assert.Equal(t, []string{"why_now"}, ids(dec.Probes))
	assert.Equal(t, []string{"conference_solution_anchoring"}, ids(dec.Patterns))
	assert.Empty(t, dec.Deferred)
	assert.Equal(t, "why_now", dec.Primary)
}

func TestRecommendStructuralBeforeDomain(t *testing.T) {
	d := newTestDetector(t)
	dec := d.Recommend(Signals{
		UserMessages: []string{"We need to improve our store delivery scheduling to reduce out-of-stocks."},
		Phase:        mode.PhaseGathering,
	})

	assert.Equal(t, []string{"solution_problem_separation", "pain_quantification", "store_reality"}, ids(dec.Probes))
	assert.Equal(t, "solution_problem_separation", dec.Primary)
}

func TestRecommendSkipsFired(t *testing.T) {
	d := newTestDetector(t)
	dec := d.Recommend(Signals{
		UserMessages:  []string{"Build a GenAI tool for campaign optimization. Go."},
		ProbesFired:   []string{"solution_problem_separation", "why_now"},
		PatternsFired: []string{"conference_solution_anchoring"},
		Phase:         mode.PhaseGathering,
	})

	assert.Empty(t, dec.Probes)
	assert.Empty(t, dec.Patterns)
	assert.Empty(t, dec.Primary)
}

func TestRecommendSuggestedMode(t *testing.T) {
	d := newTestDetector(t)
	tests := []struct {
		name  string
		sig   Signals
		wants mode.ID
	}{
		{"ready and separated", Signals{Phase: mode.PhaseGathering, ProblemReady: true, ProbesFired: []string{"solution_problem_separation"}}, mode.DiscoverFrame},
		{"problem not ready", Signals{Phase: mode.PhaseGathering, ProbesFired: []string{"solution_problem_separation"}}, ""},
		{"probe not fired", Signals{Phase: mode.PhaseGathering, ProblemReady: true}, ""},
		{"already in mode", Signals{Phase: mode.PhaseInMode, ProblemReady: true, ProbesFired: []string{"solution_problem_separation"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wants, d.Recommend(tt.sig).SuggestedMode)
		})
	}
}

func TestRecommendIsDeterministic(t *testing.T) {
	d := newTestDetector(t)
	sig := Signals{
		UserMessages: []string{
			"We want digital twins of our stores. Our CPG partners saw it at NRF.",
			"The KPMs are stretched and our data is fragmented across systems.",
		},
		ProbesFired: []string{"solution_problem_separation", "stakeholder_mapping"},
		Phase:       mode.PhaseGathering,
	}
	first := d.Recommend(sig)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, d.Recommend(sig))
	}
	assert.Contains(t, ids(first.Patterns), "dual_customer_ambiguity")
	assert.Contains(t, ids(first.Patterns), "talent_staffing_dependency")
	assert.Contains(t, ids(first.Patterns), "conference_solution_anchoring")
}

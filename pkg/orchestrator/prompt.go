package orchestrator

import (
	"sort"

	"github.com/gupta362/pm-agent-v2/pkg/mode"
	"github.com/gupta362/pm-agent-v2/pkg/routing"
	"github.com/gupta362/pm-agent-v2/pkg/session"
	"github.com/gupta362/pm-agent-v2/pkg/templates"
)

// promptData snapshots st and the detector decision for the system prompt.
func promptData(st *session.State, cat *routing.Catalog, decision routing.Decision, toolDocs string) *templates.TemplateData {
	data := &templates.TemplateData{
		Turn:              st.CurrentTurn(),
		Phase:             string(st.Phase()),
		Summary:           st.Routing.ConversationSummary,
		SummaryTurn:       st.Routing.SummaryTurn,
		ProbesFired:       st.Routing.ProbesFired.Names(),
		PatternsFired:     st.Routing.PatternsFired.Names(),
		Primary:           decision.Primary,
		SuggestedMode:     string(decision.SuggestedMode),
		ToolDocumentation: toolDocs,
	}

	if active := st.ActiveMode(); active != "" {
		data.ActiveMode = mode.Label(active)
		if info, err := mode.Lookup(string(active)); err == nil {
			data.ModePurpose = info.Purpose
		}
	}
	for _, id := range st.Mode.Completed() {
		data.CompletedModes = append(data.CompletedModes, mode.Label(id))
	}
	if st.LatestArtifact != nil {
		data.ArtifactTurn = st.LatestArtifact.Turn
	}

	for _, info := range mode.Catalog() {
		data.Modes = append(data.Modes, templates.ModeLine{
			ID:      string(info.ID),
			Label:   mode.Label(info.ID),
			Purpose: info.Purpose,
		})
	}
	data.ProbeCatalog = catalogLines(cat.Probes)
	data.PatternCatalog = catalogLines(cat.Patterns)

	sk := st.Skeleton.Snapshot()
	data.Skeleton = templates.SkeletonView{
		ProblemStatement: sk.ProblemStatement,
		Stakeholders:     sk.Stakeholders,
		ProceedIf:        sk.DecisionCriteria.ProceedIf,
		DoNotProceedIf:   sk.DecisionCriteria.DoNotProceedIf,
	}
	categories := make([]string, 0, len(sk.SuccessMetrics))
	for category := range sk.SuccessMetrics {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		data.Skeleton.Metrics = append(data.Skeleton.Metrics, templates.MetricLine{
			Category:    category,
			Description: sk.SuccessMetrics[category],
		})
	}

	for _, a := range st.Assumptions.List() {
		data.Assumptions = append(data.Assumptions, templates.AssumptionLine{
			ID:          a.ID,
			Claim:       a.Claim,
			Type:        string(a.Type),
			Impact:      string(a.Impact),
			Confidence:  string(a.Confidence),
			Status:      string(a.Status),
			LoadBearing: a.LoadBearing(),
		})
	}

	for _, group := range [][]routing.Recommendation{decision.Probes, decision.Patterns} {
		for _, rec := range group {
			data.Recommended = append(data.Recommended, templates.Recommendation{
				ID:       rec.ID,
				Name:     rec.Name,
				Triggers: rec.Triggers,
			})
		}
	}
	for _, d := range decision.Deferred {
		data.Deferred = append(data.Deferred, templates.DeferredLine{PatternID: d.PatternID, BlockedBy: d.BlockedBy})
	}
	return data
}

func catalogLines(entries []routing.Entry) []templates.CatalogLine {
	lines := make([]templates.CatalogLine, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		lines = append(lines, templates.CatalogLine{
			ID:          e.ID,
			Name:        e.Name,
			Category:    string(e.Category),
			RootProbe:   e.RootProbe,
			Description: e.Description,
		})
	}
	return lines
}

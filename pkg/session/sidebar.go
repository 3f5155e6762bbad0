package session

import (
	"github.com/gupta362/pm-agent-v2/pkg/assumption"
	"github.com/gupta362/pm-agent-v2/pkg/mode"
)

// Marker groups assumptions for display.
type Marker string

const (
	MarkerLoadBearing  Marker = "load-bearing" // high impact, guessed
	MarkerHighEvidence Marker = "high-evidence"
	MarkerLowerImpact  Marker = "lower-impact"
)

// MarkerFor classifies a.
func MarkerFor(a assumption.Assumption) Marker {
	switch {
	case a.LoadBearing():
		return MarkerLoadBearing
	case a.Impact == assumption.ImpactHigh:
		return MarkerHighEvidence
	default:
		return MarkerLowerImpact
	}
}

// SidebarAssumption is an assumption line in the sidebar.
type SidebarAssumption struct {
	assumption.Assumption
	Marker Marker `json:"marker"`
}

// Sidebar is a read model of the state for presentation layers.
type Sidebar struct {
	SessionID        string              `json:"session_id"`
	Phase            mode.Phase          `json:"phase"`
	ModeTitle        string              `json:"mode_title,omitempty"`
	Turn             int                 `json:"turn"`
	Assumptions      []SidebarAssumption `json:"assumptions"`
	ProblemStatement string              `json:"problem_statement,omitempty"`
	Stakeholders     int                 `json:"stakeholders"`
	MetricsDefined   bool                `json:"metrics_defined"`
	SkeletonFilled   int                 `json:"skeleton_filled"`
	SkeletonTotal    int                 `json:"skeleton_total"`
	ProbesFired      []string            `json:"probes_fired"`
	PatternsFired    []string            `json:"patterns_fired"`
	Summary          string              `json:"summary,omitempty"`
	PendingQuestions []Question          `json:"pending_questions,omitempty"`
	ArtifactReady    bool                `json:"artifact_ready"`
	ArtifactTurn     int                 `json:"artifact_turn,omitempty"`
}

// Sidebar builds the read model.
func (s *State) Sidebar() Sidebar {
	filled, total := s.Skeleton.Completeness()
	sb := Sidebar{
		SessionID:        s.ID,
		Phase:            s.Phase(),
		Turn:             s.TurnCount,
		ProblemStatement: s.Skeleton.ProblemStatement,
		Stakeholders:     len(s.Skeleton.Stakeholders),
		MetricsDefined:   s.Skeleton.HasMetrics(),
		SkeletonFilled:   filled,
		SkeletonTotal:    total,
		ProbesFired:      s.Routing.ProbesFired.Names(),
		PatternsFired:    s.Routing.PatternsFired.Names(),
		Summary:          s.Routing.ConversationSummary,
		PendingQuestions: append([]Question(nil), s.PendingQuestions...),
	}
	if active := s.ActiveMode(); active != "" {
		sb.ModeTitle = mode.Label(active)
	}
	for _, a := range s.Assumptions.List() {
		sb.Assumptions = append(sb.Assumptions, SidebarAssumption{Assumption: a, Marker: MarkerFor(a)})
	}
	if s.LatestArtifact != nil {
		sb.ArtifactReady = true
		sb.ArtifactTurn = s.LatestArtifact.Turn
	}
	return sb
}

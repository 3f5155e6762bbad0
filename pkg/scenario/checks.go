package scenario

import (
	"fmt"
	"strings"

	"github.com/gupta362/pm-agent-v2/pkg/assumption"
	"github.com/gupta362/pm-agent-v2/pkg/mode"
	"github.com/gupta362/pm-agent-v2/pkg/session"
)

// Outcome is the verdict of one check.
type Outcome struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Verify evaluates every check of sc against res.
func Verify(sc *Scenario, res *Result) []Outcome {
	outcomes := make([]Outcome, 0, len(sc.Checks))
	for i := range sc.Checks {
		c := &sc.Checks[i]
		passed, detail := evaluate(c, res)
		outcomes = append(outcomes, Outcome{Name: c.Name, Kind: c.Kind, Passed: passed, Detail: detail})
	}
	return outcomes
}

// Passed counts passing outcomes.
func Passed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Passed {
			n++
		}
	}
	return n
}

//nolint:gocyclo // one case per check kind
func evaluate(c *Check, res *Result) (bool, string) {
	switch c.Kind {
	case KindProbeFiredAny:
		return firedAny(res.ProbesFired, c.Any), "Probes fired: " + firedNames(res.ProbesFired)
	case KindPatternFiredAny:
		return firedAny(res.PatternsFired, c.Any), "Patterns fired: " + firedNames(res.PatternsFired)
	case KindMinProbes:
		return len(res.ProbesFired) >= c.Min, fmt.Sprintf("%d probes recorded: %s", len(res.ProbesFired), firedNames(res.ProbesFired))
	case KindMinPatterns:
		return len(res.PatternsFired) >= c.Min, fmt.Sprintf("%d patterns recorded: %s", len(res.PatternsFired), firedNames(res.PatternsFired))
	case KindMinAssumptions:
		return len(res.Assumptions) >= c.Min, fmt.Sprintf("%d assumptions: %s", len(res.Assumptions), assumptionList(res.Assumptions, 5))
	case KindLoadBearingAssumption:
		var ids []string
		for _, a := range res.Assumptions {
			if a.LoadBearing() {
				ids = append(ids, a.ID)
			}
		}
		return len(ids) > 0, fmt.Sprintf("High/guessed: [%s]", strings.Join(ids, ", "))
	case KindAssumptionTypeAny:
		seen := map[string]bool{}
		var types []string
		found := false
		for _, a := range res.Assumptions {
			t := string(a.Type)
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
			if containsFold(c.Types, t) {
				found = true
			}
		}
		return found, fmt.Sprintf("Types: [%s]", strings.Join(types, ", "))
	case KindArtifactGenerated:
		ok := res.ArtifactGenerated && res.ArtifactContent != ""
		return ok, fmt.Sprintf("Artifact: %s, length: %d", yesNo(res.ArtifactGenerated), len(res.ArtifactContent))
	case KindArtifactHeader:
		if strings.Contains(res.ArtifactContent, c.Header) {
			return true, fmt.Sprintf("Has %q header", c.Header)
		}
		return false, fmt.Sprintf("Missing %q header", c.Header)
	case KindModeCompleted:
		ok := res.ModeCompleted && res.FinalPhase == mode.PhaseGathering && res.FinalActiveMode == ""
		active := string(res.FinalActiveMode)
		if active == "" {
			active = "none"
		}
		return ok, fmt.Sprintf("completed=%t, phase=%s, mode=%s", res.ModeCompleted, res.FinalPhase, active)
	case KindSummaryEveryTurn:
		updates := res.SummaryUpdates()
		return updates >= len(res.Turns)-1, fmt.Sprintf("%d summaries across %d turns", updates, len(res.Turns))
	case KindProblemStatementMinLen:
		ps := strings.TrimSpace(res.Skeleton.ProblemStatement)
		return len(ps) > c.Min, "Problem: " + truncate(ps, 80)
	case KindMinStakeholders:
		n := len(res.Skeleton.Stakeholders)
		return n >= c.Min, fmt.Sprintf("%d stakeholders identified", n)
	case KindFirstReplyProbing:
		return firstReplyProbing(c, res)
	default:
		return false, "unknown check kind " + c.Kind
	}
}

// firstReplyProbing passes when the first reply is long enough, asks a question
// and contains none of the forbidden action phrases.
func firstReplyProbing(c *Check, res *Result) (bool, string) {
	if len(res.Turns) == 0 || res.Turns[0].Reply == "" {
		return false, "no first reply"
	}
	reply := res.Turns[0].Reply
	lower := strings.ToLower(reply)
	for _, p := range c.Phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return false, fmt.Sprintf("contains action phrase %q", p)
		}
	}
	if len(reply) <= c.Min {
		return false, fmt.Sprintf("reply too short (%d chars)", len(reply))
	}
	if !strings.Contains(reply, "?") {
		return false, "reply asks no question"
	}
	return true, "First response: " + truncate(reply, 120)
}

// firedAny matches a record by exact id or by a case-insensitive substring of its name.
func firedAny(records []session.FiredRecord, refs []string) bool {
	for _, rec := range records {
		name := strings.ToLower(rec.Name)
		for _, ref := range refs {
			ref = strings.ToLower(strings.TrimSpace(ref))
			if ref == "" {
				continue
			}
			if rec.ID == ref || strings.Contains(name, ref) {
				return true
			}
		}
	}
	return false
}

func firedNames(records []session.FiredRecord) string {
	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.Name
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func assumptionList(list []assumption.Assumption, limit int) string {
	parts := make([]string, 0, limit)
	for i, a := range list {
		if i == limit {
			break
		}
		parts = append(parts, fmt.Sprintf("%s=[%s/%s] %s", a.ID, a.Type, a.Confidence, truncate(a.Claim, 50)))
	}
	return strings.Join(parts, "; ")
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

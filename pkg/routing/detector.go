package routing

import (
	"sort"
	"strings"

	"github.com/gupta362/pm-agent-v2/pkg/mode"
)

// Signals is the read-only view of a conversation the detector works from.
type Signals struct {
	UserMessages  []string
	ProbesFired   []string
	PatternsFired []string
	Phase         mode.Phase
	ProblemReady  bool
}

// Recommendation is a probe or pattern the detector suggests exploring next.
type Recommendation struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Kind     Kind     `json:"kind"`
	Triggers []string `json:"triggers,omitempty"`
	Always   bool     `json:"always,omitempty"`
}

// Deferral is a triggered pattern waiting on its root probe.
type Deferral struct {
	PatternID string   `json:"pattern_id"`
	BlockedBy string   `json:"blocked_by"`
	Triggers  []string `json:"triggers,omitempty"`
}

// Decision is the detector output for one turn.
type Decision struct {
	Probes        []Recommendation `json:"probes,omitempty"`
	Patterns      []Recommendation `json:"patterns,omitempty"`
	Deferred      []Deferral       `json:"deferred,omitempty"`
	Primary       string           `json:"primary,omitempty"`
	SuggestedMode mode.ID          `json:"suggested_mode,omitempty"`
}

// Empty reports whether the decision recommends nothing.
func (d Decision) Empty() bool {
	return len(d.Probes) == 0 && len(d.Patterns) == 0 && len(d.Deferred) == 0 && d.SuggestedMode == ""
}

// Detector scores catalog entries against conversation signals. It holds no
// per-conversation state and is safe for concurrent use.
type Detector struct {
	catalog *Catalog
}

// NewDetector returns a detector over cat.
func NewDetector(cat *Catalog) *Detector {
	return &Detector{catalog: cat}
}

// Catalog returns the detector's catalog.
func (d *Detector) Catalog() *Catalog {
	return d.catalog
}

// Recommend computes newly eligible probes and patterns.
func (d *Detector) Recommend(sig Signals) Decision {
	text := strings.Join(sig.UserMessages, "\n")
	probesFired := toSet(sig.ProbesFired)
	patternsFired := toSet(sig.PatternsFired)

	var dec Decision

	for i := range d.catalog.Probes {
		e := d.catalog.Probes[i]
		if probesFired[e.ID] {
			continue
		}
		hits := e.Match(text)
		if len(hits) == 0 && !e.Always {
			continue
		}
		dec.Probes = append(dec.Probes, Recommendation{ID: e.ID, Name: e.Name, Kind: KindProbe, Triggers: hits, Always: e.Always})
	}
	sort.SliceStable(dec.Probes, func(i, j int) bool {
		a, _ := d.catalog.Lookup(dec.Probes[i].ID)
		b, _ := d.catalog.Lookup(dec.Probes[j].ID)
		return probeLess(a, b)
	})

	for i := range d.catalog.Patterns {
		e := d.catalog.Patterns[i]
		if patternsFired[e.ID] {
			continue
		}
		hits := e.Match(text)
		if len(hits) == 0 {
			continue
		}
		if !probesFired[e.RootProbe] {
			dec.Deferred = append(dec.Deferred, Deferral{PatternID: e.ID, BlockedBy: e.RootProbe, Triggers: hits})
			continue
		}
		dec.Patterns = append(dec.Patterns, Recommendation{ID: e.ID, Name: e.Name, Kind: KindPattern, Triggers: hits})
	}
	sort.SliceStable(dec.Patterns, func(i, j int) bool {
		a, _ := d.catalog.Lookup(dec.Patterns[i].ID)
		b, _ := d.catalog.Lookup(dec.Patterns[j].ID)
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ID < b.ID
	})

	switch {
	case len(dec.Probes) > 0:
		dec.Primary = dec.Probes[0].ID
	case len(dec.Patterns) > 0:
		dec.Primary = dec.Patterns[0].ID
	}

	if sig.Phase == mode.PhaseGathering && sig.ProblemReady && probesFired[ProbeSolutionProblemSeparation] {
		dec.SuggestedMode = mode.DiscoverFrame
	}
	return dec
}

// ProbeSolutionProblemSeparation gates the first mode suggestion.
const ProbeSolutionProblemSeparation = "solution_problem_separation"

func probeLess(a, b Entry) bool {
	if a.Category != b.Category {
		return a.Category == CategoryStructural
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.ID < b.ID
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

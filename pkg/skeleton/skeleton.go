// Package skeleton accumulates the structured content of the problem brief.
package skeleton

import (
	"sort"
	"strings"
)

// MinProblemStatementLen is the trimmed length above which a problem statement counts as ready.
const MinProblemStatementLen = 20

// Default success metric categories, present from the start with empty descriptions.
const (
	MetricLeading   = "leading"
	MetricLagging   = "lagging"
	MetricGuardrail = "guardrail"
)

// DecisionCriteria lists the conditions for going ahead or stopping.
type DecisionCriteria struct {
	ProceedIf      []string `json:"proceed_if"`
	DoNotProceedIf []string `json:"do_not_proceed_if"`
}

// Skeleton is the incrementally built brief outline.
type Skeleton struct {
	ProblemStatement string            `json:"problem_statement"`
	Stakeholders     []string          `json:"stakeholders"`
	SuccessMetrics   map[string]string `json:"success_metrics"`
	DecisionCriteria DecisionCriteria  `json:"decision_criteria"`
}

// New returns an empty skeleton with the default metric categories.
func New() *Skeleton {
	return &Skeleton{
		Stakeholders: []string{},
		SuccessMetrics: map[string]string{
			MetricLeading:   "",
			MetricLagging:   "",
			MetricGuardrail: "",
		},
		DecisionCriteria: DecisionCriteria{ProceedIf: []string{}, DoNotProceedIf: []string{}},
	}
}

// Update carries the fields of one update_skeleton call. Zero values mean "not supplied".
type Update struct {
	ProblemStatement string
	Stakeholders     []string
	SuccessMetrics   map[string]string
	ProceedIf        []string
	DoNotProceedIf   []string
}

// MergeResult reports what a merge changed.
type MergeResult struct {
	ProblemStatementReplaced bool
	StakeholdersAdded        []string
	MetricsSet               []string
	ProceedIfAdded           int
	DoNotProceedIfAdded      int
}

// Changed reports whether the merge modified the skeleton.
func (r MergeResult) Changed() bool {
	return r.ProblemStatementReplaced || len(r.StakeholdersAdded) > 0 || len(r.MetricsSet) > 0 ||
		r.ProceedIfAdded > 0 || r.DoNotProceedIfAdded > 0
}

// Merge folds u into the skeleton without regressing populated fields:
// the problem statement is replaced wholesale when supplied, stakeholders are
// unioned case-insensitively, metrics are set per category (a blank value never
// clears an existing description), and decision criteria are appended,
// skipping exact repeats.
func (s *Skeleton) Merge(u Update) MergeResult {
	var res MergeResult

	if ps := strings.TrimSpace(u.ProblemStatement); ps != "" && ps != s.ProblemStatement {
		s.ProblemStatement = ps
		res.ProblemStatementReplaced = true
	}

	for _, name := range u.Stakeholders {
		name = strings.TrimSpace(name)
		if name == "" || s.hasStakeholder(name) {
			continue
		}
		s.Stakeholders = append(s.Stakeholders, name)
		res.StakeholdersAdded = append(res.StakeholdersAdded, name)
	}

	if s.SuccessMetrics == nil {
		s.SuccessMetrics = make(map[string]string)
	}
	categories := make([]string, 0, len(u.SuccessMetrics))
	for category := range u.SuccessMetrics {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		key := strings.ToLower(strings.TrimSpace(category))
		if key == "" {
			continue
		}
		desc := strings.TrimSpace(u.SuccessMetrics[category])
		existing, present := s.SuccessMetrics[key]
		switch {
		case desc == "" && !present:
			s.SuccessMetrics[key] = ""
			res.MetricsSet = append(res.MetricsSet, key)
		case desc != "" && desc != existing:
			s.SuccessMetrics[key] = desc
			res.MetricsSet = append(res.MetricsSet, key)
		}
	}

	var added int
	s.DecisionCriteria.ProceedIf, added = appendNew(s.DecisionCriteria.ProceedIf, u.ProceedIf)
	res.ProceedIfAdded = added
	s.DecisionCriteria.DoNotProceedIf, added = appendNew(s.DecisionCriteria.DoNotProceedIf, u.DoNotProceedIf)
	res.DoNotProceedIfAdded = added

	return res
}

func (s *Skeleton) hasStakeholder(name string) bool {
	for _, existing := range s.Stakeholders {
		if strings.EqualFold(existing, name) {
			return true
		}
	}
	return false
}

func appendNew(list, items []string) ([]string, int) {
	added := 0
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || contains(list, item) {
			continue
		}
		list = append(list, item)
		added++
	}
	return list, added
}

func contains(list []string, item string) bool {
	for _, existing := range list {
		if existing == item {
			return true
		}
	}
	return false
}

// ProblemReady reports whether the problem statement is substantial enough to render.
func (s *Skeleton) ProblemReady() bool {
	return len(strings.TrimSpace(s.ProblemStatement)) > MinProblemStatementLen
}

// HasMetrics reports whether any metric category has a description.
func (s *Skeleton) HasMetrics() bool {
	for _, desc := range s.SuccessMetrics {
		if desc != "" {
			return true
		}
	}
	return false
}

// MetricCategories returns metric categories sorted alphabetically.
func (s *Skeleton) MetricCategories() []string {
	keys := make([]string, 0, len(s.SuccessMetrics))
	for k := range s.SuccessMetrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Completeness counts populated sections out of the four brief sections.
func (s *Skeleton) Completeness() (filled, total int) {
	total = 4
	if s.ProblemReady() {
		filled++
	}
	if len(s.Stakeholders) > 0 {
		filled++
	}
	if s.HasMetrics() {
		filled++
	}
	if len(s.DecisionCriteria.ProceedIf)+len(s.DecisionCriteria.DoNotProceedIf) > 0 {
		filled++
	}
	return filled, total
}

// Snapshot returns a deep copy.
func (s *Skeleton) Snapshot() Skeleton {
	metrics := make(map[string]string, len(s.SuccessMetrics))
	for k, v := range s.SuccessMetrics {
		metrics[k] = v
	}
	return Skeleton{
		ProblemStatement: s.ProblemStatement,
		Stakeholders:     append([]string{}, s.Stakeholders...),
		SuccessMetrics:   metrics,
		DecisionCriteria: DecisionCriteria{
			ProceedIf:      append([]string{}, s.DecisionCriteria.ProceedIf...),
			DoNotProceedIf: append([]string{}, s.DecisionCriteria.DoNotProceedIf...),
		},
	}
}

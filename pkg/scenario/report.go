package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Report bundles a run with its verdicts for JSON export.
type Report struct {
	Result   *Result   `json:"result"`
	Outcomes []Outcome `json:"outcomes"`
	Passed   int       `json:"passed"`
	Total    int       `json:"total"`
}

// NewReport verifies res against sc.
func NewReport(sc *Scenario, res *Result) *Report {
	outcomes := Verify(sc, res)
	return &Report{Result: res, Outcomes: outcomes, Passed: Passed(outcomes), Total: len(outcomes)}
}

// AllPassed reports whether every check passed.
func (r *Report) AllPassed() bool {
	return r.Passed == r.Total
}

// WriteText prints the human-readable verification report.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(&b, "\n%s\nSCENARIO: %s\n%s\n", rule, r.Result.Scenario, rule)
	fmt.Fprintf(&b, "   Session: %s\n", r.Result.SessionID)
	fmt.Fprintf(&b, "   Turns: %d (%s)\n", len(r.Result.Turns), r.Result.Duration.Round(time.Millisecond))
	for _, err := range r.Result.Errors {
		fmt.Fprintf(&b, "   ⚠️  %s\n", err)
	}
	b.WriteString("\n")
	for _, o := range r.Outcomes {
		mark := "✓"
		if !o.Passed {
			mark = "✗"
		}
		fmt.Fprintf(&b, "  %s %s\n      %s\n", mark, o.Name, o.Detail)
	}
	fmt.Fprintf(&b, "\nResult: %d/%d passed\n", r.Passed, r.Total)
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// SaveJSON writes the report to path.
func (r *Report) SaveJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	if err := r.WriteJSON(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report %s: %w", path, err)
	}
	return nil
}

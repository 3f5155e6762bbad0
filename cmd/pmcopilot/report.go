package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gupta362/pm-agent-v2/pkg/scenario"
)

// writeReports saves one report as an object and several as an array.
func writeReports(path string, reports []*scenario.Report) error {
	if len(reports) == 1 {
		return reports[0].SaveJSON(path)
	}
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // report output
		return fmt.Errorf("write reports %s: %w", path, err)
	}
	return nil
}

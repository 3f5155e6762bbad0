package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gupta362/pm-agent-v2/pkg/mode"
	"github.com/gupta362/pm-agent-v2/pkg/routing"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List modes, diagnostic probes and patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := routing.DefaultCatalog()
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), cat)
			return nil
		},
	}
}

func printCatalog(w io.Writer, cat *routing.Catalog) {
	fmt.Fprintln(w, "Modes:")
	for _, m := range mode.Catalog() {
		fmt.Fprintf(w, "  %d. %-22s %s\n", m.Number, m.Title, m.Purpose)
		fmt.Fprintf(w, "     id: %s\n", m.ID)
	}
	fmt.Fprintln(w, "\nProbes:")
	for i := range cat.Probes {
		printEntry(w, &cat.Probes[i])
	}
	fmt.Fprintln(w, "\nPatterns:")
	for i := range cat.Patterns {
		printEntry(w, &cat.Patterns[i])
	}
}

func printEntry(w io.Writer, e *routing.Entry) {
	fmt.Fprintf(w, "  %s (%s)\n", e.Name, e.ID)
	if e.Description != "" {
		fmt.Fprintf(w, "     %s\n", e.Description)
	}
	if e.RootProbe != "" {
		fmt.Fprintf(w, "     requires: %s\n", e.RootProbe)
	}
}

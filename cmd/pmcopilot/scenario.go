package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gupta362/pm-agent-v2/pkg/logx"
	"github.com/gupta362/pm-agent-v2/pkg/scenario"
)

func newScenarioCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonPath string
		maxTurns int
		list     bool
	)
	cmd := &cobra.Command{
		Use:   "scenario [file.yaml | builtin]...",
		Short: "Run scripted conversations and verify the resulting state",
		Long: "Plays each scenario against the configured model: its scripted messages, then\n" +
			"cooperative follow-ups until a brief is generated and a mode completed.\n" +
			"With no arguments every builtin scenario runs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, name := range scenario.Builtins() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			if len(args) == 0 {
				args = scenario.Builtins()
			}
			scenarios := make([]*scenario.Scenario, 0, len(args))
			for _, ref := range args {
				sc, err := scenario.Resolve(ref)
				if err != nil {
					return err
				}
				scenarios = append(scenarios, sc)
			}

			a, err := newApp(opts, setupOptions{transcript: true})
			if err != nil {
				return err
			}
			defer a.close()
			if maxTurns <= 0 {
				maxTurns = a.cfg.Scenarios.MaxTurns
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			runner := scenario.NewRunner(a.orch, logx.NewLogger("scenario"))
			reports := make([]*scenario.Report, 0, len(scenarios))
			failed := 0
			for _, sc := range scenarios {
				if cmd.Flags().Changed("max-turns") || sc.MaxTurns > maxTurns {
					sc.MaxTurns = maxTurns
				}
				rep := scenario.NewReport(sc, runner.Run(ctx, sc))
				if err := rep.WriteText(cmd.OutOrStdout()); err != nil {
					return err
				}
				if !rep.AllPassed() {
					failed++
				}
				reports = append(reports, rep)
				if ctx.Err() != nil {
					break
				}
			}

			if jsonPath != "" {
				if err := writeReports(jsonPath, reports); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "📄 Raw results saved to %s\n", jsonPath)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios had failing checks", failed, len(reports))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&jsonPath, "json", "", "Write raw results and check outcomes to this file")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 0, "Turn limit per scenario (default from config)")
	cmd.Flags().BoolVar(&list, "list", false, "List builtin scenarios and exit")
	return cmd
}

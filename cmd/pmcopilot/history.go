package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gupta362/pm-agent-v2/pkg/config"
	"github.com/gupta362/pm-agent-v2/pkg/persistence"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		showOps   bool
		briefPath string
	)
	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "List logged sessions, or the turns of one session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadConfig(opts.projectDir); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			dbPath := config.ResolvePath(cfg.Transcript.DBPath)
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("no transcript log at %s", dbPath)
			}
			store, err := persistence.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				return listSessions(cmd, store, out)
			}
			if briefPath != "" {
				content, turn, err := store.LatestArtifact(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := os.WriteFile(briefPath, []byte(content), 0o644); err != nil { //nolint:gosec // user document
					return fmt.Errorf("write brief: %w", err)
				}
				fmt.Fprintf(out, "💾 Saved brief from turn %d to %s\n", turn, briefPath)
				return nil
			}
			return listTurns(cmd, store, out, args[0], showOps)
		},
	}
	cmd.Flags().BoolVar(&showOps, "ops", false, "Show the operations applied in each turn")
	cmd.Flags().StringVar(&briefPath, "brief", "", "Write the session's latest logged brief to this file")
	return cmd
}

func listSessions(cmd *cobra.Command, store *persistence.Store, out io.Writer) error {
	sessions, err := store.Sessions(cmd.Context())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions logged yet.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(out, "%s  %s  %-24s %d turns\n", s.ID, s.StartedAt.Format("2006-01-02 15:04"), s.Model, s.Turns)
	}
	return nil
}

func listTurns(cmd *cobra.Command, store *persistence.Store, out io.Writer, sessionID string, showOps bool) error {
	turns, err := store.Turns(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	for i := range turns {
		t := &turns[i]
		mode := t.Phase
		if t.ActiveMode != "" {
			mode += "/" + t.ActiveMode
		}
		fmt.Fprintf(out, "── Turn %d  %s  %s, %d rounds, %s\n", t.Turn, t.CreatedAt.Format("15:04:05"), t.Outcome, t.Rounds, mode)
		fmt.Fprintf(out, "   user: %s\n", oneLine(t.UserMessage, 160))
		fmt.Fprintf(out, "   reply: %s\n", oneLine(t.Reply, 160))
		if !showOps {
			continue
		}
		ops, err := store.Operations(cmd.Context(), t.ID)
		if err != nil {
			return err
		}
		for _, op := range ops {
			mark := "✓"
			if op.IsError {
				mark = "✗"
			}
			fmt.Fprintf(out, "     %s %s %s\n", mark, op.Name, oneLine(op.Arguments, 120))
		}
	}
	return nil
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}

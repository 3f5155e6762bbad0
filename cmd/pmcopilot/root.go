package main

import (
	"github.com/spf13/cobra"

	"github.com/gupta362/pm-agent-v2/pkg/logx"
	"github.com/gupta362/pm-agent-v2/pkg/version"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	projectDir string
	model      string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "pmcopilot",
		Short:         "PM co-pilot: diagnose the problem before building the solution",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.verbose {
				logx.SetDebug(true)
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.projectDir, "project-dir", ".", "Project directory holding .pmcopilot/")
	root.PersistentFlags().StringVar(&opts.model, "model", "", "Model override for this run (not persisted)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newInitCmd(opts),
		newChatCmd(opts),
		newScenarioCmd(opts),
		newCatalogCmd(),
		newHistoryCmd(opts),
		newSecretsCmd(opts),
	)
	return root
}

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gupta362/pm-agent-v2/pkg/config"
	"github.com/gupta362/pm-agent-v2/pkg/utils"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create .pmcopilot/ with default config and an organization context template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(opts.projectDir); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := utils.InitProjectDirectory(opts.projectDir); err != nil {
				return err
			}
			dir := filepath.Join(opts.projectDir, config.ProjectConfigDir)
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Initialized %s\n", dir)
			fmt.Fprintf(cmd.OutOrStdout(), "   Describe your organization in %s\n", filepath.Join(dir, utils.ContextFile))
			return nil
		},
	}
}
